package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the RIMS gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Command  CommandConfig  `yaml:"command"`
	Serial   SerialConfig   `yaml:"serial"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GatewayConfig contains the core loop cadences and gateway identity.
type GatewayConfig struct {
	// ID identifies this gateway instance in published payloads and metrics.
	ID string `yaml:"id"`

	// PollIntervalMs is the command poll cadence in milliseconds.
	// Default: 500
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// DiscoveryIntervalMs is the device discovery cadence in milliseconds.
	// Discovery is coarser than polling; it is gated inside the poll loop.
	// Default: 5000
	DiscoveryIntervalMs int `yaml:"discovery_interval_ms"`

	// RetryBackoffMs is how long the loop pauses after an unexpected
	// iteration failure before continuing. Default: 1000
	RetryBackoffMs int `yaml:"retry_backoff_ms"`
}

// CommandConfig contains the remote command source settings.
type CommandConfig struct {
	// URL is the command source endpoint polled for pending commands.
	URL string `yaml:"url"`

	// TimeoutSeconds bounds each poll request. Default: 5
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// InsecureSkipVerify disables TLS certificate verification of the
	// command source. This mirrors the deployed endpoint's self-signed
	// certificate setup and is a deliberate simplification, not a
	// security recommendation. Default: true
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// SerialConfig contains serial device transport settings.
type SerialConfig struct {
	// BaudRate for every opened device. Default: 9600
	BaudRate int `yaml:"baud_rate"`

	// ReadTimeoutMs is the per-port read timeout in milliseconds.
	// The gateway never reads, but the timeout bounds port operations.
	// Default: 1000
	ReadTimeoutMs int `yaml:"read_timeout_ms"`

	// Match overrides the built-in device classification rules.
	// Empty lists keep the defaults (CP210x/CH340/ESP markers).
	Match MatchConfig `yaml:"match"`
}

// MatchConfig lists substrings used to classify enumerated ports.
type MatchConfig struct {
	// Descriptions are substrings matched against the port description.
	Descriptions []string `yaml:"descriptions"`

	// HardwareIDs are substrings matched against the port hardware id,
	// e.g. "vid:pid=10c4".
	HardwareIDs []string `yaml:"hardware_ids"`
}

// MQTTConfig contains MQTT broker connection settings for the
// status/event reporter. Disabled by default.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains InfluxDB connection settings for the stats
// sink. Disabled by default.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the read-only status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RIMSGW_SECTION_KEY
// For example: RIMSGW_COMMAND_URL, RIMSGW_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			ID:                  "gateway-001",
			PollIntervalMs:      500,
			DiscoveryIntervalMs: 5000,
			RetryBackoffMs:      1000,
		},
		Command: CommandConfig{
			URL:                "https://rims.r-dev.asia/api/pick-command",
			TimeoutSeconds:     5,
			InsecureSkipVerify: true,
		},
		Serial: SerialConfig{
			BaudRate:      9600,
			ReadTimeoutMs: 1000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "rims-gateway",
			},
			QoS: 1,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "rims",
			Bucket:        "gateway",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8081,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RIMSGW_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Gateway
	if v := os.Getenv("RIMSGW_GATEWAY_ID"); v != "" {
		cfg.Gateway.ID = v
	}

	// Command source
	if v := os.Getenv("RIMSGW_COMMAND_URL"); v != "" {
		cfg.Command.URL = v
	}

	// MQTT
	if v := os.Getenv("RIMSGW_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RIMSGW_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RIMSGW_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("RIMSGW_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("RIMSGW_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Gateway validation
	if c.Gateway.ID == "" {
		errs = append(errs, "gateway.id is required")
	}
	if c.Gateway.PollIntervalMs <= 0 {
		errs = append(errs, "gateway.poll_interval_ms must be positive")
	}
	if c.Gateway.DiscoveryIntervalMs <= 0 {
		errs = append(errs, "gateway.discovery_interval_ms must be positive")
	}
	if c.Gateway.RetryBackoffMs <= 0 {
		errs = append(errs, "gateway.retry_backoff_ms must be positive")
	}

	// Command source validation
	if c.Command.URL == "" {
		errs = append(errs, "command.url is required")
	}
	if c.Command.TimeoutSeconds <= 0 {
		errs = append(errs, "command.timeout_seconds must be positive")
	}

	// Serial validation
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, "serial.baud_rate must be positive")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// PollInterval returns the command poll cadence as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Gateway.PollIntervalMs) * time.Millisecond
}

// DiscoveryInterval returns the device discovery cadence as a Duration.
func (c *Config) DiscoveryInterval() time.Duration {
	return time.Duration(c.Gateway.DiscoveryIntervalMs) * time.Millisecond
}

// RetryBackoff returns the post-failure backoff as a Duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Gateway.RetryBackoffMs) * time.Millisecond
}

// RequestTimeout returns the command poll request timeout as a Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Command.TimeoutSeconds) * time.Second
}

// SerialReadTimeout returns the per-port read timeout as a Duration.
func (c *Config) SerialReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeoutMs) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
