package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

func setConfigPathForTest(t *testing.T, configPath string) {
	t.Helper()

	old := resolveConfigPath
	resolveConfigPath = func() (string, error) { return configPath, nil }
	t.Cleanup(func() { resolveConfigPath = old })
}

func TestLoadOrCreateConfigMissingCreatesDefault(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config", "config.toml")
	setConfigPathForTest(t, configPath)

	if _, err := os.Stat(configPath); err == nil {
		t.Fatalf("expected config file to be missing")
	}

	created, err := LoadOrCreateConfig()
	if err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}
	if !created {
		t.Fatalf("LoadOrCreateConfig() created=false, want true")
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}

	var got Config
	if _, err := toml.DecodeFile(configPath, &got); err != nil {
		t.Fatalf("decode created config: %v", err)
	}
	if got.Server.Host != "0.0.0.0" {
		t.Fatalf("default server host = %q, want %q", got.Server.Host, "0.0.0.0")
	}
	if got.Server.Port != 8080 {
		t.Fatalf("default server port = %d, want %d", got.Server.Port, 8080)
	}
	if got.Server.RequestTimeout != 300 {
		t.Fatalf("default request timeout = %d, want %d", got.Server.RequestTimeout, 300)
	}
	if got.Jobs.Concurrency != 2 {
		t.Fatalf("default jobs concurrency = %d, want %d", got.Jobs.Concurrency, 2)
	}
	if got.App.MaxUploadMB != 500 {
		t.Fatalf("default max upload = %d, want %d", got.App.MaxUploadMB, 500)
	}
}

func TestLoadOrCreateConfigLoadsExisting(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.toml")
	setConfigPathForTest(t, configPath)

	Conf = defaultConfig()
	Conf.Server.Port = 9999
	Conf.Preview.MaxHeight = 480
	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	Conf = Config{}

	created, err := LoadOrCreateConfig()
	if err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}
	if created {
		t.Fatal("LoadOrCreateConfig() created=true, want false for existing file")
	}
	if Conf.Server.Port != 9999 {
		t.Fatalf("loaded server port = %d, want %d", Conf.Server.Port, 9999)
	}
	if Conf.Preview.MaxHeight != 480 {
		t.Fatalf("loaded preview max height = %d, want %d", Conf.Preview.MaxHeight, 480)
	}
}

func TestSaveConfigCreatesParentDirs(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "deep", "nest", "config.toml")
	setConfigPathForTest(t, configPath)

	Conf = defaultConfig()
	Conf.Server.Port = 9999

	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	if _, err := os.Stat(filepath.Dir(configPath)); err != nil {
		t.Fatalf("expected parent directories to exist: %v", err)
	}

	var got Config
	if _, err := toml.DecodeFile(configPath, &got); err != nil {
		t.Fatalf("decode saved config: %v", err)
	}
	if got.Server.Port != 9999 {
		t.Fatalf("saved server port = %d, want %d", got.Server.Port, 9999)
	}
}

func TestPortEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.toml")
	setConfigPathForTest(t, configPath)

	t.Setenv("PORT", "10000")

	if _, err := LoadOrCreateConfig(); err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}
	if Conf.Server.Port != 10000 {
		t.Fatalf("Conf.Server.Port = %d, want %d after PORT override", Conf.Server.Port, 10000)
	}

	// The created file still carries the default; env only affects runtime.
	var got Config
	if _, err := toml.DecodeFile(configPath, &got); err != nil {
		t.Fatalf("decode created config: %v", err)
	}
	if got.Server.Port != 8080 {
		t.Fatalf("persisted server port = %d, want %d", got.Server.Port, 8080)
	}
}

func TestCheckConfigRejectsBadPort(t *testing.T) {
	Conf = defaultConfig()
	Conf.Server.Port = 0

	if err := CheckConfig(); err == nil {
		t.Fatal("CheckConfig() returned nil error for port 0")
	}

	Conf = defaultConfig()
	Conf.Server.Port = 70000
	if err := CheckConfig(); err == nil {
		t.Fatal("CheckConfig() returned nil error for out-of-range port")
	}
}

func TestCheckConfigFillsZeroValues(t *testing.T) {
	Conf = Config{Server: Server{Host: "", Port: 10000}}

	if err := CheckConfig(); err != nil {
		t.Fatalf("CheckConfig() error: %v", err)
	}
	if Conf.Server.Host != "0.0.0.0" {
		t.Fatalf("Conf.Server.Host = %q, want %q", Conf.Server.Host, "0.0.0.0")
	}
	if Conf.Server.RequestTimeout != 300 {
		t.Fatalf("Conf.Server.RequestTimeout = %d, want %d", Conf.Server.RequestTimeout, 300)
	}
	if Conf.Jobs.Concurrency != 2 {
		t.Fatalf("Conf.Jobs.Concurrency = %d, want %d", Conf.Jobs.Concurrency, 2)
	}
	if Conf.Jobs.QueueSize != 128 {
		t.Fatalf("Conf.Jobs.QueueSize = %d, want %d", Conf.Jobs.QueueSize, 128)
	}
	if Conf.Preview.Bitrate != "2000k" {
		t.Fatalf("Conf.Preview.Bitrate = %q, want %q", Conf.Preview.Bitrate, "2000k")
	}
}

func TestQueueEnabled(t *testing.T) {
	q := Queue{}
	if q.Enabled() {
		t.Fatal("Queue.Enabled() = true for empty addr")
	}
	q.RedisAddr = "localhost:6379"
	if !q.Enabled() {
		t.Fatal("Queue.Enabled() = false for configured addr")
	}
}
