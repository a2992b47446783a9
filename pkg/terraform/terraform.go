// Package terraform shells out to the terraform binary to read previously
// applied state for an environment, and extracts host connection facts from
// its outputs.
package terraform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/andyy171/iac-multi-environment/pkg/logger"
)

// Output is one entry of `terraform output -json`. Sensitive mirrors the
// wire format; only Value is read here.
type Output struct {
	Value     interface{} `json:"value"`
	Sensitive bool        `json:"sensitive,omitempty"`
}

// Outputs maps output name to value as returned by `terraform output -json`.
type Outputs map[string]Output

// String returns the named output's value if it is a string, else "".
func (o Outputs) String(name string) string {
	s, _ := o[name].Value.(string)
	return s
}

// ErrNoPublicIP is returned when an environment's outputs carry no public
// address. Such an environment cannot be inventoried from state.
var ErrNoPublicIP = errors.New("no public_ip in terraform outputs")

// HostFacts are the connection facts one environment's state yields.
type HostFacts struct {
	PublicIP   string
	PrivateIP  string
	InstanceID string
	KeyName    string
}

// HostFacts extracts connection facts from the outputs. The public address
// is required; the remaining fields are best-effort.
func (o Outputs) HostFacts() (HostFacts, error) {
	f := HostFacts{
		PublicIP:   o.String("public_ip"),
		PrivateIP:  o.String("private_ip"),
		InstanceID: o.String("instance_id"),
		KeyName:    o.String("key_name"),
	}
	if f.PublicIP == "" {
		return HostFacts{}, ErrNoPublicIP
	}
	return f, nil
}

// Runner invokes the terraform binary against per-environment state
// directories laid out as <Root>/environments/<env>.
type Runner struct {
	Root   string
	Binary string
}

// NewRunner returns a Runner for the given terraform root directory.
// An empty binary defaults to "terraform" on PATH.
func NewRunner(root, binary string) *Runner {
	if binary == "" {
		binary = "terraform"
	}
	return &Runner{Root: root, Binary: binary}
}

// EnvDir returns the state directory for an environment.
func (r *Runner) EnvDir(env string) string {
	return filepath.Join(r.Root, "environments", env)
}

// HasEnvDir reports whether the environment's state directory exists.
func (r *Runner) HasEnvDir(env string) bool {
	fi, err := os.Stat(r.EnvDir(env))
	return err == nil && fi.IsDir()
}

// run executes the terraform binary with the process working directory
// pointed at the environment's state directory, and returns its stdout.
// The original working directory is restored on every exit path.
func (r *Runner) run(env string, args ...string) ([]byte, error) {
	oldwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	if err := os.Chdir(r.EnvDir(env)); err != nil {
		return nil, fmt.Errorf("entering state directory: %w", err)
	}
	defer func() {
		if err := os.Chdir(oldwd); err != nil {
			logger.L.Error("restoring working directory", "dir", oldwd, "error", err)
		}
	}()

	cmd := exec.Command(r.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w (%s)", r.Binary, strings.Join(args, " "), err,
			strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// HasState reports whether the environment has readable, applied state.
// It runs `terraform show -json` and checks for a non-null values key.
func (r *Runner) HasState(env string) bool {
	out, err := r.run(env, "show", "-json")
	if err != nil {
		logger.L.Warn("terraform show failed", "env", env, "error", err)
		return false
	}
	var state struct {
		Values json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(out, &state); err != nil {
		logger.L.Warn("parsing terraform show output", "env", env, "error", err)
		return false
	}
	return len(state.Values) > 0 && string(state.Values) != "null"
}

// Outputs runs `terraform output -json` for the environment.
func (r *Runner) Outputs(env string) (Outputs, error) {
	out, err := r.run(env, "output", "-json")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return Outputs{}, nil
	}
	var outputs Outputs
	if err := json.Unmarshal(out, &outputs); err != nil {
		return nil, fmt.Errorf("parsing terraform outputs for %s: %w", env, err)
	}
	return outputs, nil
}
