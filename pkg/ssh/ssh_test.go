package ssh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got := ExpandHome("~/.ssh/iac-demo-key.pem")
	want := filepath.Join(home, ".ssh", "iac-demo-key.pem")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestExpandHome_AbsolutePathUnchanged(t *testing.T) {
	if got := ExpandHome("/etc/keys/key.pem"); got != "/etc/keys/key.pem" {
		t.Errorf("absolute path changed: %s", got)
	}
}

func TestCheck_MissingKeyFile(t *testing.T) {
	err := Check("192.0.2.1", Config{
		User:    "ubuntu",
		KeyPath: filepath.Join(t.TempDir(), "nope.pem"),
		Port:    22,
	})
	if err == nil {
		t.Fatal("expected error for missing key file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestCheck_BadKeyMaterial(t *testing.T) {
	key := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(key, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("writing key: %v", err)
	}
	err := Check("192.0.2.1", Config{User: "ubuntu", KeyPath: key, Port: 22})
	if err == nil {
		t.Fatal("expected error for unparseable key")
	}
	if !strings.Contains(err.Error(), "parsing key") {
		t.Errorf("unexpected error: %v", err)
	}
}
