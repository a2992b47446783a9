package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/andyy171/iac-multi-environment/pkg/config"
	"github.com/andyy171/iac-multi-environment/pkg/ec2"
	"github.com/andyy171/iac-multi-environment/pkg/inventory"
	"github.com/andyy171/iac-multi-environment/pkg/logger"
	"github.com/andyy171/iac-multi-environment/pkg/ssh"
	"github.com/andyy171/iac-multi-environment/pkg/terraform"
)

const defaultConfigPath = "./config.yaml"

// version is set at build time via -ldflags="-X main.version=<tag>".
var version = "dev"

func main() {
	configFile  := flag.String("config", defaultConfigPath, "Path to the configuration file")
	list        := flag.Bool("list", false, "List the full inventory")
	hostName    := flag.String("host", "", "Get variables for a specific host")
	source      := flag.String("source", "terraform", "Inventory source: terraform or ec2")
	region      := flag.String("region", "", "AWS region (overrides config)")
	env         := flag.String("env", "", "Restrict to one environment (dev/staging/prod)")
	check       := flag.Bool("check", false, "Probe SSH reachability of discovered hosts")
	verbose     := flag.Bool("verbose", false, "Verbose (debug) logging")
	logFile     := flag.String("log-file", "", "Optional log file path (appended to stderr)")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("inventory %s\n", version)
		os.Exit(0)
	}

	if !*list && *hostName == "" {
		flag.Usage()
		os.Exit(1)
	}

	if *source != "terraform" && *source != "ec2" {
		fmt.Fprintf(os.Stderr, "Error: unknown source %q (want terraform or ec2)\n", *source)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *logFile == "" {
		*logFile = cfg.LogFile
	}
	cleanup, err := logger.Init(*logFile, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initialising logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if *region != "" {
		cfg.Region = *region
	}

	ctx := context.Background()
	doc, err := generate(ctx, cfg, *source, *env)
	if err != nil {
		logger.L.Error("generating inventory", "error", err)
		os.Exit(1)
	}

	if *check {
		checkHosts(doc, cfg)
	}

	var out interface{}
	switch {
	case *list:
		out = doc
	default:
		hv, ok := doc.Lookup(*hostName)
		if !ok {
			// Unknown host: empty record, not an error.
			out = map[string]interface{}{}
		} else {
			out = hv
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.L.Error("encoding inventory", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

// generate runs the selected generator once and returns its document.
func generate(ctx context.Context, cfg *config.Config, source, envFilter string) (*inventory.Document, error) {
	client, clientErr := ec2.NewClient(ctx, cfg.Region)

	if source == "ec2" {
		if clientErr != nil {
			return nil, clientErr
		}
		gen := &inventory.EC2Generator{EC2: client, Config: cfg}
		return gen.Generate(ctx), nil
	}

	gen := &inventory.StateGenerator{
		Runner: terraform.NewRunner(cfg.TerraformRoot, cfg.TerraformBinary),
		Config: cfg,
	}
	if clientErr != nil {
		// State can still be read; only the API fallback is lost.
		logger.L.Warn("EC2 client unavailable", "error", clientErr)
	} else {
		gen.EC2 = client
	}
	return gen.Generate(ctx, envFilter), nil
}

// checkHosts probes each discovered host over SSH and logs the outcome.
// Unreachable hosts stay in the document.
func checkHosts(doc *inventory.Document, cfg *config.Config) {
	for _, name := range doc.Hosts() {
		hv, _ := doc.Lookup(name)
		err := ssh.Check(hv.AnsibleHost, ssh.Config{
			User:           hv.AnsibleUser,
			KeyPath:        hv.AnsibleSSHPrivateKeyFile,
			Port:           cfg.SSHPort,
			KnownHostsFile: cfg.KnownHostsFile,
		})
		if err != nil {
			logger.L.Warn("host unreachable", "host", name, "addr", hv.AnsibleHost, "error", err)
		} else {
			logger.L.Info("host reachable", "host", name, "addr", hv.AnsibleHost)
		}
	}
}
