// Package ssh probes discovered hosts to confirm the connection parameters
// the inventory emits actually work.
package ssh

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cryptossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Config holds the probe's connection parameters.
type Config struct {
	User    string
	KeyPath string
	Port    int
	// KnownHostsFile enables proper host-key verification. When empty,
	// InsecureIgnoreHostKey is used, matching the
	// StrictHostKeyChecking=no arguments the inventory itself emits.
	KnownHostsFile string
}

// ExpandHome resolves a leading ~/ to the current user's home directory.
// Key paths in the inventory are written with ~ for the remote consumer.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func newClient(host string, cfg Config) (*cryptossh.Client, error) {
	key, err := os.ReadFile(ExpandHome(cfg.KeyPath))
	if err != nil {
		return nil, err
	}
	signer, err := cryptossh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parsing key %q: %w", cfg.KeyPath, err)
	}

	var hostKeyCallback cryptossh.HostKeyCallback
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(ExpandHome(cfg.KnownHostsFile))
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts %q: %w", cfg.KnownHostsFile, err)
		}
		hostKeyCallback = cb
	} else {
		hostKeyCallback = cryptossh.InsecureIgnoreHostKey() // #nosec G106 – set known_hosts_file in config
	}

	clientCfg := &cryptossh.ClientConfig{
		User:            cfg.User,
		Auth:            []cryptossh.AuthMethod{cryptossh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
	}

	return cryptossh.Dial("tcp", fmt.Sprintf("%s:%d", host, cfg.Port), clientCfg)
}

// Check dials the host and opens a session, confirming address, user and
// key are all usable. The connection is closed before returning.
func Check(host string, cfg Config) error {
	client, err := newClient(host, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("opening session on %s: %w", host, err)
	}
	return session.Close()
}
