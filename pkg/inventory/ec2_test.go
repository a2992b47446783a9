package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/andyy171/iac-multi-environment/pkg/config"
)

type fakeLister struct {
	instances  []ec2types.Instance
	err        error
	lastTag    string
	lastStates []string
}

func (f *fakeLister) ProjectInstances(_ context.Context, projectTag string, states ...string) ([]ec2types.Instance, error) {
	f.lastTag = projectTag
	f.lastStates = states
	return f.instances, f.err
}

func instance(id, env, name, publicIP string, itype ec2types.InstanceType) ec2types.Instance {
	inst := ec2types.Instance{
		InstanceId:   aws.String(id),
		InstanceType: itype,
		KeyName:      aws.String("iac-demo-key"),
		Placement:    &ec2types.Placement{AvailabilityZone: aws.String("ap-southeast-1a")},
	}
	if publicIP != "" {
		inst.PublicIpAddress = aws.String(publicIP)
		inst.PrivateIpAddress = aws.String("10.0.1.5")
	}
	if env != "" {
		inst.Tags = append(inst.Tags, ec2types.Tag{Key: aws.String("Environment"), Value: aws.String(env)})
	}
	if name != "" {
		inst.Tags = append(inst.Tags, ec2types.Tag{Key: aws.String("Name"), Value: aws.String(name)})
	}
	inst.Tags = append(inst.Tags, ec2types.Tag{Key: aws.String("Project"), Value: aws.String("iac-multi-environment")})
	return inst
}

func TestEC2Generator_GroupsByEnvAndType(t *testing.T) {
	lister := &fakeLister{instances: []ec2types.Instance{
		instance("i-111", "dev", "web", "1.2.3.4", ec2types.InstanceTypeT3Micro),
	}}
	gen := &EC2Generator{EC2: lister, Config: config.Default()}
	doc := gen.Generate(context.Background())

	if lister.lastTag != "iac-multi-environment" {
		t.Errorf("expected Project tag filter, got %q", lister.lastTag)
	}
	if len(lister.lastStates) != 1 || lister.lastStates[0] != "running" {
		t.Errorf("expected running state filter, got %v", lister.lastStates)
	}

	for _, group := range []string{"all", "web_servers", "dev", "type_t3_micro"} {
		hosts := doc.GroupHosts(group)
		if len(hosts) != 1 || hosts[0] != "dev-web" {
			t.Errorf("group %s: expected [dev-web], got %v", group, hosts)
		}
	}

	hv, ok := doc.Lookup("dev-web")
	if !ok {
		t.Fatal("dev-web not in hostvars")
	}
	if hv.AnsibleHost != "1.2.3.4" {
		t.Errorf("ansible_host: %s", hv.AnsibleHost)
	}
	if hv.InstanceType != "t3.micro" {
		t.Errorf("instance_type: %s", hv.InstanceType)
	}
	if hv.AvailabilityZone != "ap-southeast-1a" {
		t.Errorf("availability_zone: %s", hv.AvailabilityZone)
	}
	if hv.Tags["Project"] != "iac-multi-environment" {
		t.Errorf("tags not carried through: %v", hv.Tags)
	}
	if hv.AnsibleSSHPrivateKeyFile != "~/.ssh/iac-demo-key.pem" {
		t.Errorf("key file: %s", hv.AnsibleSSHPrivateKeyFile)
	}
}

func TestEC2Generator_SkipsInstanceWithoutEnvironmentTag(t *testing.T) {
	lister := &fakeLister{instances: []ec2types.Instance{
		instance("i-111", "", "web", "1.2.3.4", ec2types.InstanceTypeT3Micro),
	}}
	gen := &EC2Generator{EC2: lister, Config: config.Default()}
	doc := gen.Generate(context.Background())

	if doc.HostCount() != 0 {
		t.Errorf("expected no hosts, got %d", doc.HostCount())
	}
}

func TestEC2Generator_SkipsInstanceWithoutPublicIP(t *testing.T) {
	lister := &fakeLister{instances: []ec2types.Instance{
		instance("i-111", "dev", "web", "", ec2types.InstanceTypeT3Micro),
	}}
	gen := &EC2Generator{EC2: lister, Config: config.Default()}
	doc := gen.Generate(context.Background())

	if doc.HostCount() != 0 {
		t.Errorf("expected no hosts, got %d", doc.HostCount())
	}
}

func TestEC2Generator_UnknownNameTag(t *testing.T) {
	lister := &fakeLister{instances: []ec2types.Instance{
		instance("i-111", "dev", "", "1.2.3.4", ec2types.InstanceTypeT3Micro),
	}}
	gen := &EC2Generator{EC2: lister, Config: config.Default()}
	doc := gen.Generate(context.Background())

	if _, ok := doc.Lookup("dev-unknown"); !ok {
		t.Errorf("expected hostname dev-unknown, hosts: %v", doc.Hosts())
	}
}

func TestEC2Generator_DuplicateInstanceNotDuplicated(t *testing.T) {
	inst := instance("i-111", "dev", "web", "1.2.3.4", ec2types.InstanceTypeT3Micro)
	lister := &fakeLister{instances: []ec2types.Instance{inst, inst}}
	gen := &EC2Generator{EC2: lister, Config: config.Default()}
	doc := gen.Generate(context.Background())

	for _, group := range []string{"all", "web_servers", "dev", "type_t3_micro"} {
		if hosts := doc.GroupHosts(group); len(hosts) != 1 {
			t.Errorf("group %s: expected 1 host, got %v", group, hosts)
		}
	}
}

func TestEC2Generator_APIErrorReturnsPartialDocument(t *testing.T) {
	lister := &fakeLister{
		instances: []ec2types.Instance{
			instance("i-111", "dev", "web", "1.2.3.4", ec2types.InstanceTypeT3Micro),
		},
		err: errors.New("throttled"),
	}
	gen := &EC2Generator{EC2: lister, Config: config.Default()}
	doc := gen.Generate(context.Background())

	// The page fetched before the failure is still shaped.
	if doc.HostCount() != 1 {
		t.Errorf("expected partial document with 1 host, got %d", doc.HostCount())
	}
}

func TestTypeGroup(t *testing.T) {
	if got := typeGroup(ec2types.InstanceTypeT3Micro); got != "type_t3_micro" {
		t.Errorf("expected type_t3_micro, got %s", got)
	}
	if got := typeGroup(""); got != "type_unknown" {
		t.Errorf("expected type_unknown, got %s", got)
	}
}
