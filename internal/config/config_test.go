package config

import (
	"os"
	"path/filepath"
	"testing"

	xerrors "AssetGrid-Chain/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLAppliesDefaults(t *testing.T) {
	path := writeFile(t, "assetgrid.yaml", `
server:
  address: ":9090"
automation:
  optimize_schedule: "@every 1h"
  watch_addresses: ["0xabc", "0xdef"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("unexpected address: %s", cfg.Server.Address)
	}
	if cfg.Journal.Store.Driver != StoreMemory || cfg.Journal.Queue.Driver != QueueMemory {
		t.Fatalf("unexpected journal drivers: %+v", cfg.Journal)
	}
	if cfg.Journal.Queue.Size != 1024 || cfg.Journal.Queue.Workers != 1 {
		t.Fatalf("unexpected queue defaults: %+v", cfg.Journal.Queue)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Runtime.DataDir != filepath.Join(filepath.Dir(path), "data") {
		t.Fatalf("unexpected data dir: %s", cfg.Runtime.DataDir)
	}
	if cfg.Automation.OptimizeSchedule != "@every 1h" || len(cfg.Automation.WatchAddresses) != 2 {
		t.Fatalf("unexpected automation: %+v", cfg.Automation)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Fatalf("unexpected metrics path: %s", cfg.Metrics.Path)
	}
}

func TestLoadJSONWithAuditPath(t *testing.T) {
	path := writeFile(t, "assetgrid.json", `{
  "logging": {"level": "debug", "audit": {"enabled": true}},
  "runtime": {"data_dir": "state"}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	dir := filepath.Dir(path)
	if cfg.Runtime.DataDir != filepath.Join(dir, "state") {
		t.Fatalf("unexpected data dir: %s", cfg.Runtime.DataDir)
	}
	if cfg.Logging.Audit.Path != filepath.Join(dir, "state", "audit.log") {
		t.Fatalf("unexpected audit path: %s", cfg.Logging.Audit.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level: %s", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvMySQLDSN, "user:pass@tcp(db:3306)/assetgrid")
	t.Setenv(EnvRabbitMQURL, "amqp://guest:guest@mq:5672/")
	path := writeFile(t, "assetgrid.yml", `
journal:
  store:
    driver: MySQL
  queue:
    driver: rabbitmq
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Journal.Store.Driver != StoreMySQL || cfg.Journal.Store.DSN != "user:pass@tcp(db:3306)/assetgrid" {
		t.Fatalf("unexpected store: %+v", cfg.Journal.Store)
	}
	if cfg.Journal.Queue.RabbitMQ.URL != "amqp://guest:guest@mq:5672/" {
		t.Fatalf("unexpected rabbitmq url: %s", cfg.Journal.Queue.RabbitMQ.URL)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv(EnvMySQLDSN, "")
	cases := map[string]string{
		"mysql without dsn":  "journal:\n  store:\n    driver: mysql\n",
		"unknown store":      "journal:\n  store:\n    driver: sqlite\n",
		"redis without addr": "journal:\n  queue:\n    driver: redis\n",
		"unknown queue":      "journal:\n  queue:\n    driver: kafka\n",
		"malformed":          "server: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "assetgrid.yaml", content))
			if xerrors.CodeOf(err) != xerrors.CodeConfigFailure {
				t.Fatalf("expected config failure, got %v", err)
			}
		})
	}

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if ResolvePath() != DefaultPath {
		t.Fatalf("expected default path")
	}
	t.Setenv(EnvConfigPath, "/etc/assetgrid.json")
	if ResolvePath() != "/etc/assetgrid.json" {
		t.Fatalf("expected env path")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Address != ":8080" || cfg.Journal.Queue.Size != 1024 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
