package inventory

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/andyy171/iac-multi-environment/pkg/config"
	"github.com/andyy171/iac-multi-environment/pkg/ec2"
	"github.com/andyy171/iac-multi-environment/pkg/logger"
)

// EC2Generator builds the inventory directly from the EC2 API, grouping
// hosts by environment tag and instance type.
type EC2Generator struct {
	EC2    InstanceLister
	Config *config.Config
}

// Generate queries the project's running instances and shapes each into
// the document. An API failure is logged and whatever partial document has
// been built is returned; a bad instance only loses that instance.
func (g *EC2Generator) Generate(ctx context.Context) *Document {
	doc := NewDocument()

	instances, err := g.EC2.ProjectInstances(ctx, g.Config.ProjectTag, "running")
	if err != nil {
		logger.L.Error("querying EC2 instances", "error", err)
	}

	for _, inst := range instances {
		g.addInstance(doc, inst)
	}
	return doc
}

func (g *EC2Generator) addInstance(doc *Document, inst ec2types.Instance) {
	tags := ec2.Tags(inst)

	env := tags["Environment"]
	if env == "" {
		logger.L.Debug("instance has no Environment tag, skipping",
			"id", aws.ToString(inst.InstanceId))
		return
	}

	publicIP := aws.ToString(inst.PublicIpAddress)
	hv, err := NewHostVars(publicIP, g.Config.SSHUser,
		keyFilePath(g.Config, aws.ToString(inst.KeyName)), env)
	if err != nil {
		logger.L.Warn("skipping instance", "id", aws.ToString(inst.InstanceId), "error", err)
		return
	}
	hv.AnsibleSSHCommonArgs = apiSSHCommonArgs
	hv.PrivateIP = aws.ToString(inst.PrivateIpAddress)
	hv.InstanceID = aws.ToString(inst.InstanceId)
	hv.InstanceType = string(inst.InstanceType)
	if inst.Placement != nil {
		hv.AvailabilityZone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	hv.Tags = tags

	name := tags["Name"]
	if name == "" {
		name = "unknown"
	}
	hostname := env + "-" + name

	doc.AddHost(hostname, hv, "all", "web_servers", env, typeGroup(inst.InstanceType))
}

// typeGroup converts an instance type to a legal group name: EC2 types use
// "." as a separator, which Ansible group names cannot contain.
func typeGroup(t ec2types.InstanceType) string {
	s := string(t)
	if s == "" {
		s = "unknown"
	}
	return "type_" + strings.ReplaceAll(s, ".", "_")
}
