package dataflow

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSpecs(t *testing.T) {
	data := []byte(`functions:
  - name: push
    mutatesReceiver: true
  - name: fill
    positionalArgs: [0, 2]
    keywordArgs: [out]
`)
	specs, err := ParseSpecs(data)
	if err != nil {
		t.Fatalf("ParseSpecs() error: %v", err)
	}

	rule, ok := specs.Lookup("push")
	if !ok || !rule.MutatesReceiver {
		t.Errorf("push rule = %+v, ok=%v", rule, ok)
	}
	rule, ok = specs.Lookup("fill")
	if !ok || len(rule.PositionalArgs) != 2 || len(rule.KeywordArgs) != 1 {
		t.Errorf("fill rule = %+v, ok=%v", rule, ok)
	}
	if _, ok := specs.Lookup("unknown"); ok {
		t.Error("unexpected rule for unknown name")
	}
}

func TestParseSpecsInvalidYAML(t *testing.T) {
	if _, err := ParseSpecs([]byte("functions: [broken")); err == nil {
		t.Error("want error for invalid yaml")
	}
}

func TestLoadSpecs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specs.yaml")
	content := "functions:\n  - name: enqueue\n    mutatesReceiver: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	specs, err := LoadSpecs(path)
	if err != nil {
		t.Fatalf("LoadSpecs() error: %v", err)
	}
	if _, ok := specs.Lookup("enqueue"); !ok {
		t.Error("rule from file not loaded")
	}

	if _, err := LoadSpecs(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("want error for missing file")
	}
}

func TestDefaultSpecsCoverBuiltins(t *testing.T) {
	specs := DefaultSpecs()
	for _, name := range []string{"append", "update", "add", "pop"} {
		rule, ok := specs.Lookup(name)
		if !ok || !rule.MutatesReceiver {
			t.Errorf("builtin %s should mutate its receiver", name)
		}
	}
	rule, ok := specs.Lookup("shuffle")
	if !ok || len(rule.PositionalArgs) != 1 || rule.PositionalArgs[0] != 0 {
		t.Errorf("shuffle should mutate its first argument, got %+v", rule)
	}
}
