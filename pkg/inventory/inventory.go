// Package inventory builds Ansible dynamic inventory documents from
// terraform state or the EC2 API.
//
// The emitted JSON format:
//
//	{
//	  "_meta":       {"hostvars": {"dev-web-server": {...}}},
//	  "all":         {"hosts": [...], "vars": {...}},
//	  "web_servers": {"hosts": [...]},
//	  "dev":         {"hosts": [...], "vars": {"environment": "dev"}}
//	}
package inventory

import (
	"encoding/json"
	"errors"
	"sort"
)

// HostVars holds the connection and descriptive facts for one host.
type HostVars struct {
	AnsibleHost              string            `json:"ansible_host"`
	AnsibleUser              string            `json:"ansible_user"`
	AnsibleSSHPrivateKeyFile string            `json:"ansible_ssh_private_key_file"`
	AnsibleSSHCommonArgs     string            `json:"ansible_ssh_common_args,omitempty"`
	Environment              string            `json:"environment"`
	PrivateIP                string            `json:"private_ip,omitempty"`
	InstanceID               string            `json:"instance_id,omitempty"`
	InstanceType             string            `json:"instance_type,omitempty"`
	AvailabilityZone         string            `json:"availability_zone,omitempty"`
	KeyName                  string            `json:"key_name,omitempty"`
	Tags                     map[string]string `json:"tags,omitempty"`
	Source                   string            `json:"source,omitempty"`
}

// ErrNoPublicAddress rejects host records that Ansible could not reach.
var ErrNoPublicAddress = errors.New("host has no public address")

// ErrNoEnvironment rejects host records with no environment tag.
var ErrNoEnvironment = errors.New("host has no environment")

// NewHostVars builds a host record from the required connection facts.
// Hosts without a public address or an environment are never inventoried.
func NewHostVars(publicAddr, user, keyFile, env string) (*HostVars, error) {
	if publicAddr == "" {
		return nil, ErrNoPublicAddress
	}
	if env == "" {
		return nil, ErrNoEnvironment
	}
	return &HostVars{
		AnsibleHost:              publicAddr,
		AnsibleUser:              user,
		AnsibleSSHPrivateKeyFile: keyFile,
		Environment:              env,
	}, nil
}

// Group is a named collection of hostnames with optional shared variables.
type Group struct {
	Hosts []string               `json:"hosts"`
	Vars  map[string]interface{} `json:"vars,omitempty"`
}

// Document is a complete inventory: groups plus per-host variables.
// Build one with a generator's Generate call; it is never mutated after.
type Document struct {
	groups   map[string]*Group
	hostvars map[string]*HostVars
}

// NewDocument returns an empty inventory document.
func NewDocument() *Document {
	return &Document{
		groups:   make(map[string]*Group),
		hostvars: make(map[string]*HostVars),
	}
}

func (d *Document) group(name string) *Group {
	g, ok := d.groups[name]
	if !ok {
		g = &Group{Hosts: []string{}}
		d.groups[name] = g
	}
	return g
}

// AddToGroup inserts hostname into the named group, creating the group on
// first use. Re-adding an existing hostname is a no-op.
func (d *Document) AddToGroup(groupName, hostname string) {
	g := d.group(groupName)
	for _, h := range g.Hosts {
		if h == hostname {
			return
		}
	}
	g.Hosts = append(g.Hosts, hostname)
}

// EnsureGroupVars sets the named group's shared variables if it has none
// yet, creating the group on first use.
func (d *Document) EnsureGroupVars(groupName string, vars map[string]interface{}) {
	g := d.group(groupName)
	if g.Vars == nil {
		g.Vars = vars
	}
}

// AddHost records the host's variables and inserts it into each group.
func (d *Document) AddHost(hostname string, vars *HostVars, groups ...string) {
	d.hostvars[hostname] = vars
	for _, g := range groups {
		d.AddToGroup(g, hostname)
	}
}

// Lookup returns the variables recorded for hostname.
func (d *Document) Lookup(hostname string) (*HostVars, bool) {
	hv, ok := d.hostvars[hostname]
	return hv, ok
}

// GroupHosts returns the hostnames in a group, or nil if it does not exist.
func (d *Document) GroupHosts(groupName string) []string {
	g, ok := d.groups[groupName]
	if !ok {
		return nil
	}
	return g.Hosts
}

// Hosts returns every hostname with recorded variables, sorted.
func (d *Document) Hosts() []string {
	names := make([]string, 0, len(d.hostvars))
	for name := range d.hostvars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HostCount returns the number of hosts with recorded variables.
func (d *Document) HostCount() int {
	return len(d.hostvars)
}

// MarshalJSON emits the dynamic inventory wire format: a _meta.hostvars
// object plus one key per group.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.groups)+1)
	out["_meta"] = map[string]interface{}{"hostvars": d.hostvars}
	for name, g := range d.groups {
		out[name] = g
	}
	return json.Marshal(out)
}
