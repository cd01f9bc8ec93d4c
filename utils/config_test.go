package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dfa.yaml")
	if err := os.WriteFile(path, []byte(`
task: liveness
order: rpo
max-rounds: 50
strict: true
`), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	o := &options{task: "all", order: "document", maxRounds: 10}
	config.apply(o, map[string]bool{"max-rounds": true})

	if o.task != "liveness" {
		t.Errorf("Expected task from the config file, found %q", o.task)
	}
	if o.order != "rpo" {
		t.Errorf("Expected order from the config file, found %q", o.order)
	}
	if o.maxRounds != 10 {
		t.Errorf("Expected the explicit -max-rounds to take precedence, found %d", o.maxRounds)
	}
	if !o.strict {
		t.Error("Expected strict mode from the config file")
	}
	if o.workers != 0 || o.verbose {
		t.Error("Expected unset options to be left alone")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max-rounds: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}
