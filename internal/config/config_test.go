package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
source:
  type: mysql
  dsn: user:pass@tcp(localhost:3306)/
history:
  type: kafka
  brokers:
    - localhost:9092
  topic: schema-history
  storeOnlyMonitored: true
  skipUnparseable: true
filters:
  databaseInclude: inventory
  columnExclude: inventory\.users\.ssn
caseInsensitive: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.Type != "mysql" || cfg.Source.DSN == "" {
		t.Fatalf("unexpected source config: %+v", cfg.Source)
	}
	if cfg.History.Type != "kafka" || len(cfg.History.Brokers) != 1 || cfg.History.Topic != "schema-history" {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if !cfg.History.StoreOnlyMonitored || !cfg.History.SkipUnparseable {
		t.Fatalf("expected policy flags set: %+v", cfg.History)
	}
	if cfg.Filters.DatabaseInclude != "inventory" {
		t.Fatalf("unexpected filters: %+v", cfg.Filters)
	}
	if !cfg.CaseInsensitive {
		t.Fatal("expected caseInsensitive true")
	}
}

func TestLoadConfigFileHistory(t *testing.T) {
	path := writeConfig(t, `
history:
  type: file
  path: /var/lib/schematrack/history.jsonl
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.History.Path != "/var/lib/schematrack/history.jsonl" {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing history type", `filters: {}`},
		{"file without path", "history:\n  type: file"},
		{"kafka without brokers", "history:\n  type: kafka\n  topic: t"},
		{"kafka without topic", "history:\n  type: kafka\n  brokers: [localhost:9092]"},
		{"unknown history type", "history:\n  type: etcd"},
		{"non-mysql source", "history:\n  type: memory\nsource:\n  type: postgres\n  dsn: x"},
		{"source without dsn", "history:\n  type: memory\nsource:\n  type: mysql"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := LoadConfig(path); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}
