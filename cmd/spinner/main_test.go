package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("output = %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spinner.yaml")

	if _, err := execute(t, "config", "init", "-o", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	cfg, err := config.Load(config.Overrides{ConfigPath: path})
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config invalid: %v", err)
	}

	// A second init refuses to overwrite.
	if _, err := execute(t, "config", "init", "-o", path); err == nil {
		t.Error("expected error for existing file")
	}
	if _, err := execute(t, "config", "init", "-o", path, "--force"); err != nil {
		t.Errorf("--force: %v", err)
	}
}

func TestRootRequiresPath(t *testing.T) {
	if _, err := execute(t); err == nil {
		t.Error("expected error without a path argument")
	}
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spinner.yaml")
	if err := os.WriteFile(path, []byte("render:\n  steps: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "-c", path, t.TempDir()); err == nil {
		t.Error("expected validation error")
	}
}
