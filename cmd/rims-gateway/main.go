// RIMS Gateway - Serial Command Relay
//
// The gateway polls the central RIMS command source over HTTPS and
// relays each pending command line to every connected serial device.
// It replaces the operator console that used to do this job from a
// desktop: headless, supervised, and observable over MQTT, InfluxDB,
// Prometheus, and a read-only HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/r-dev-asia/rims-gateway/internal/api"
	"github.com/r-dev-asia/rims-gateway/internal/command"
	"github.com/r-dev-asia/rims-gateway/internal/device"
	"github.com/r-dev-asia/rims-gateway/internal/gateway"
	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/config"
	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/influxdb"
	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/logging"
	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/metrics"
	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting RIMS gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Device layer: enumeration rules, serial opener, and the
	// connection registry.
	rules := device.DefaultRules()
	if len(cfg.Serial.Match.Descriptions) > 0 || len(cfg.Serial.Match.HardwareIDs) > 0 {
		rules = device.NewRules(cfg.Serial.Match.Descriptions, cfg.Serial.Match.HardwareIDs)
		log.Info("device match rules loaded from config", "rules", len(rules))
	}

	registry := device.NewRegistry(device.NewSerialOpener(device.OpenOptions{
		BaudRate:    cfg.Serial.BaudRate,
		ReadTimeout: cfg.SerialReadTimeout(),
	}))
	registry.SetLogger(log)

	// Command source client
	source, err := command.New(command.Options{
		URL:                cfg.Command.URL,
		Timeout:            cfg.RequestTimeout(),
		InsecureSkipVerify: cfg.Command.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("creating command client: %w", err)
	}
	defer source.Close()
	log.Info("command source configured", "url", cfg.Command.URL)

	// Sinks: the structured log always; MQTT, InfluxDB, and the API
	// hub when enabled.
	sinks := []gateway.Sink{gateway.NewLogSink(log)}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		reporter := gateway.NewReporter(gateway.ReporterConfig{
			GatewayID: cfg.Gateway.ID,
			Version:   version,
			QoS:       byte(cfg.MQTT.QoS), // #nosec G115 -- validated to 0..2
			Publisher: mqttClient,
			Logger:    log,
		})
		sinks = append(sinks, reporter)
		log.Info("mqtt reporter wired", "instance_id", reporter.InstanceID())
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		sinks = append(sinks, &influxSink{client: influxClient, gatewayID: cfg.Gateway.ID})
	} else {
		log.Info("InfluxDB disabled")
	}

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(log)
		sinks = append(sinks, hub)
	}

	multi := gateway.NewMultiSink(sinks...)
	multi.SetLogger(log)

	gw, err := gateway.New(gateway.Options{
		Registry:          registry,
		Enumerator:        device.NewPortEnumerator(),
		Matcher:           device.NewMatcher(rules),
		Source:            source,
		Sink:              multi,
		Logger:            log,
		PollInterval:      cfg.PollInterval(),
		DiscoveryInterval: cfg.DiscoveryInterval(),
		RetryBackoff:      cfg.RetryBackoff(),
	})
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	// HTTP API with the Prometheus scrape target mounted
	if cfg.API.Enabled {
		promMetrics := metrics.New(func() metrics.Snapshot {
			stats := gw.Stats()
			return metrics.Snapshot{
				CommandsSent: stats.CommandsSent,
				Errors:       stats.Errors,
				DeviceCount:  stats.DeviceCount,
			}
		})

		srv, srvErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Registry: registry,
			Hub:      hub,
			Metrics:  promMetrics.Handler(),
			Version:  version,
		})
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := srv.Start(); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	// Verify the optional infrastructure connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}
	defer gw.Stop()

	log.Info("initialisation complete, relay loop running",
		"poll_interval", cfg.PollInterval(),
		"discovery_interval", cfg.DiscoveryInterval(),
	)

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Gateway stop (closes devices, emits terminal status)
	// 2. API server (drops websocket clients)
	// 3. InfluxDB (flushes pending writes)
	// 4. MQTT (publishes graceful offline status)

	return nil
}

// getConfigPath returns the configuration file path.
// Uses RIMSGW_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RIMSGW_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the optional infrastructure connections.
// Either client may be nil when its subsystem is disabled.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// influxSink adapts the InfluxDB client to the gateway's sink
// interface. Counters and activity lines go into the time series
// store; status transitions stay out, the retained MQTT topics and
// the API already carry current state.
type influxSink struct {
	client    *influxdb.Client
	gatewayID string
}

// OnStatus implements gateway.Sink.
func (s *influxSink) OnStatus(_, _, _ string) {}

// OnLog implements gateway.Sink.
func (s *influxSink) OnLog(message string) {
	s.client.WriteEvent(s.gatewayID, message, time.Now().UTC())
}

// OnStats implements gateway.Sink.
func (s *influxSink) OnStats(stats gateway.Stats) {
	s.client.WriteStats(s.gatewayID, stats.CommandsSent, stats.Errors, stats.DeviceCount, time.Now().UTC())
}
