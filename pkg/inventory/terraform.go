package inventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/andyy171/iac-multi-environment/pkg/config"
	"github.com/andyy171/iac-multi-environment/pkg/ec2"
	"github.com/andyy171/iac-multi-environment/pkg/logger"
	"github.com/andyy171/iac-multi-environment/pkg/terraform"
)

// InstanceLister is the slice of the EC2 client the generators need.
// Satisfied by *ec2.Client; tests inject fakes.
type InstanceLister interface {
	ProjectInstances(ctx context.Context, projectTag string, states ...string) ([]ec2types.Instance, error)
}

const (
	stateSSHCommonArgs = "-o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null"
	apiSSHCommonArgs   = "-o StrictHostKeyChecking=no"
)

func allGroupVars() map[string]interface{} {
	return map[string]interface{}{
		"ansible_python_interpreter": "/usr/bin/python3",
		"ansible_ssh_common_args":    stateSSHCommonArgs,
		"ansible_host_key_checking":  false,
	}
}

func keyFilePath(cfg *config.Config, keyName string) string {
	if keyName == "" {
		keyName = cfg.DefaultKeyName
	}
	return fmt.Sprintf("%s/%s.pem", cfg.SSHKeyDir, keyName)
}

// StateGenerator builds the inventory from per-environment terraform
// state, falling back to the EC2 API when no environment yields a host.
type StateGenerator struct {
	Runner *terraform.Runner
	// EC2 may be nil when no AWS credentials are available; the fallback
	// is then skipped.
	EC2    InstanceLister
	Config *config.Config
}

// Generate builds the document. envFilter restricts the run to a single
// environment when non-empty. Per-environment failures are logged and
// contribute nothing; Generate itself never fails.
func (g *StateGenerator) Generate(ctx context.Context, envFilter string) *Document {
	doc := NewDocument()

	envs := g.Config.Environments
	if envFilter != "" {
		envs = []string{envFilter}
	}

	found := 0
	for _, env := range envs {
		logger.L.Info("processing environment", "env", env)
		if g.addFromState(doc, env) {
			found++
			logger.L.Info("added host from terraform state", "env", env)
		} else {
			logger.L.Warn("no usable terraform state", "env", env)
		}
	}

	if found == 0 {
		logger.L.Info("no hosts found in terraform state, falling back to EC2 API")
		found = g.fallbackToAPI(ctx, doc, envFilter)
	}

	logger.L.Info("inventory generated", "hosts", found)
	return doc
}

// addFromState reads one environment's state and inserts its host.
// Returns false when the environment contributes nothing.
func (g *StateGenerator) addFromState(doc *Document, env string) bool {
	if !g.Runner.HasEnvDir(env) {
		logger.L.Warn("state directory not found", "env", env, "dir", g.Runner.EnvDir(env))
		return false
	}
	if !g.Runner.HasState(env) {
		return false
	}
	outputs, err := g.Runner.Outputs(env)
	if err != nil {
		logger.L.Warn("reading terraform outputs", "env", env, "error", err)
		return false
	}
	facts, err := outputs.HostFacts()
	if err != nil {
		logger.L.Warn("extracting host facts", "env", env, "error", err)
		return false
	}

	hv, err := NewHostVars(facts.PublicIP, g.Config.SSHUser, keyFilePath(g.Config, facts.KeyName), env)
	if err != nil {
		logger.L.Warn("building host record", "env", env, "error", err)
		return false
	}
	hv.AnsibleSSHCommonArgs = stateSSHCommonArgs
	hv.PrivateIP = facts.PrivateIP
	hv.InstanceID = facts.InstanceID
	hv.KeyName = facts.KeyName

	g.insert(doc, env, hv)
	return true
}

// fallbackToAPI queries EC2 for the project's running and pending
// instances. Returns the number of hosts added.
func (g *StateGenerator) fallbackToAPI(ctx context.Context, doc *Document, envFilter string) int {
	if g.EC2 == nil {
		logger.L.Warn("no EC2 client available, skipping API fallback")
		return 0
	}

	instances, err := g.EC2.ProjectInstances(ctx, g.Config.ProjectTag, "running", "pending")
	if err != nil {
		logger.L.Warn("querying EC2 instances", "error", err)
	}

	found := 0
	for _, inst := range instances {
		env, hv := g.hostVarsFromInstance(inst)
		if hv == nil {
			continue
		}
		if envFilter != "" && env != envFilter {
			continue
		}
		g.insert(doc, env, hv)
		found++
		logger.L.Info("added host from EC2 API", "env", env)
	}
	return found
}

// hostVarsFromInstance shapes one EC2 instance into a host record.
// Instances without an Environment tag or a public address yield nil.
func (g *StateGenerator) hostVarsFromInstance(inst ec2types.Instance) (string, *HostVars) {
	env := ec2.Tags(inst)["Environment"]
	publicIP := aws.ToString(inst.PublicIpAddress)
	keyName := aws.ToString(inst.KeyName)

	hv, err := NewHostVars(publicIP, g.Config.SSHUser, keyFilePath(g.Config, keyName), env)
	if err != nil {
		logger.L.Warn("skipping instance", "id", aws.ToString(inst.InstanceId), "error", err)
		return env, nil
	}
	hv.AnsibleSSHCommonArgs = stateSSHCommonArgs
	hv.PrivateIP = aws.ToString(inst.PrivateIpAddress)
	hv.InstanceID = aws.ToString(inst.InstanceId)
	if keyName == "" {
		keyName = g.Config.DefaultKeyName
	}
	hv.KeyName = keyName
	hv.Source = "aws-api"
	return env, hv
}

// insert adds the environment's host under its deterministic hostname and
// wires up the standard groups.
func (g *StateGenerator) insert(doc *Document, env string, hv *HostVars) {
	hostname := env + "-web-server"
	doc.AddHost(hostname, hv, "all", "web_servers", env)
	doc.EnsureGroupVars("all", allGroupVars())
	doc.EnsureGroupVars(env, map[string]interface{}{"environment": env})
}
