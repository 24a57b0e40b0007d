package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("RIMSGW_CONFIG")
	defer os.Setenv("RIMSGW_CONFIG", originalEnv)

	os.Unsetenv("RIMSGW_CONFIG")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("RIMSGW_CONFIG")
	defer os.Setenv("RIMSGW_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("RIMSGW_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("RIMSGW_CONFIG")
	defer os.Setenv("RIMSGW_CONFIG", originalEnv)

	os.Setenv("RIMSGW_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingCommandURL verifies run fails when the command source
// URL is blanked out.
func TestRun_MissingCommandURL(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
gateway:
  id: test-gateway

command:
  url: ""

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("RIMSGW_CONFIG")
	defer os.Setenv("RIMSGW_CONFIG", originalEnv)
	os.Setenv("RIMSGW_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with empty command URL")
	}
	if !strings.Contains(err.Error(), "command.url") {
		t.Errorf("error = %v, want mention of command.url", err)
	}
}

// TestHealthCheck_NilClients verifies the health check passes when
// every optional subsystem is disabled.
func TestHealthCheck_NilClients(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil); err != nil {
		t.Errorf("healthCheck(nil, nil) = %v, want nil", err)
	}
}

// TestRun_StartupAndShutdown runs the gateway headless: no broker, no
// InfluxDB, no API, and a command source that refuses connections. The
// loop must absorb the poll failures and shut down cleanly when the
// context expires.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
gateway:
  id: test-gateway
  poll_interval_ms: 200
  discovery_interval_ms: 1000
  retry_backoff_ms: 200

command:
  url: "https://127.0.0.1:59993/api/pick-command"
  timeout_seconds: 1
  insecure_skip_verify: true

serial:
  baud_rate: 9600
  read_timeout_ms: 100

mqtt:
  enabled: false

influxdb:
  enabled: false

api:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("RIMSGW_CONFIG")
	defer os.Setenv("RIMSGW_CONFIG", originalEnv)
	os.Setenv("RIMSGW_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Errorf("run() = %v, want clean shutdown", err)
	}
}
