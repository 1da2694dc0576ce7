package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wesm/stack-digest/config"
)

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"init", "--config", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("init error = %v", err)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("output %q does not name %s", out.String(), path)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Tagged != "java" || cfg.MaxRetries != 5 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	if err := printJSON(&out, []map[string]int{{"frequency": 2}}); err != nil {
		t.Fatalf("printJSON() error = %v", err)
	}
	want := "[\n  {\n    \"frequency\": 2\n  }\n]\n"
	if out.String() != want {
		t.Errorf("printJSON() = %q, want %q", out.String(), want)
	}
}
