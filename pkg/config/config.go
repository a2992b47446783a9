package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds the tool's settings. Every field has a working default so
// the inventory can run without a config file at all.
type Config struct {
	// TerraformRoot is the directory containing environments/<env> state dirs.
	TerraformRoot   string   `yaml:"terraform_root"`
	TerraformBinary string   `yaml:"terraform_binary"`
	Environments    []string `yaml:"environments"`
	Region          string   `yaml:"region"`
	ProjectTag      string   `yaml:"project_tag"`
	SSHUser         string   `yaml:"ssh_user"`
	SSHKeyDir       string   `yaml:"ssh_key_dir"`
	SSHPort         int      `yaml:"ssh_port"`
	KnownHostsFile  string   `yaml:"known_hosts_file"`
	DefaultKeyName  string   `yaml:"default_key_name"`
	LogFile         string   `yaml:"log_file"`
}

// Default returns the built-in configuration matching the project's
// Terraform layout and tagging.
func Default() *Config {
	return &Config{
		TerraformRoot:   "terraform",
		TerraformBinary: "terraform",
		Environments:    []string{"dev", "staging", "prod"},
		Region:          "ap-southeast-1",
		ProjectTag:      "iac-multi-environment",
		SSHUser:         "ubuntu",
		SSHKeyDir:       "~/.ssh",
		SSHPort:         22,
		DefaultKeyName:  "iac-demo-key",
	}
}

// LoadConfig reads file and merges it over the defaults. A missing file is
// not an error: the defaults are returned as-is.
func LoadConfig(file string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	if fileCfg.TerraformRoot != "" {
		cfg.TerraformRoot = fileCfg.TerraformRoot
	}
	if fileCfg.TerraformBinary != "" {
		cfg.TerraformBinary = fileCfg.TerraformBinary
	}
	if len(fileCfg.Environments) > 0 {
		cfg.Environments = fileCfg.Environments
	}
	if fileCfg.Region != "" {
		cfg.Region = fileCfg.Region
	}
	if fileCfg.ProjectTag != "" {
		cfg.ProjectTag = fileCfg.ProjectTag
	}
	if fileCfg.SSHUser != "" {
		cfg.SSHUser = fileCfg.SSHUser
	}
	if fileCfg.SSHKeyDir != "" {
		cfg.SSHKeyDir = fileCfg.SSHKeyDir
	}
	if fileCfg.SSHPort != 0 {
		cfg.SSHPort = fileCfg.SSHPort
	}
	if fileCfg.KnownHostsFile != "" {
		cfg.KnownHostsFile = fileCfg.KnownHostsFile
	}
	if fileCfg.DefaultKeyName != "" {
		cfg.DefaultKeyName = fileCfg.DefaultKeyName
	}
	if fileCfg.LogFile != "" {
		cfg.LogFile = fileCfg.LogFile
	}

	return cfg, nil
}
