package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TopicPrefix is the root of all gateway MQTT topics.
const TopicPrefix = "rims"

// StatusTopic returns the retained topic for one status key.
// Example: rims/status/gateway/serial
func StatusTopic(key string) string {
	return TopicPrefix + "/status/gateway/" + key
}

// EventTopic returns the topic for activity lines.
// Example: rims/event/gateway
func EventTopic() string {
	return TopicPrefix + "/event/gateway"
}

// StatsTopic returns the retained topic for counter snapshots.
// Example: rims/stats/gateway
func StatsTopic() string {
	return TopicPrefix + "/stats/gateway"
}

// Publisher is the interface for publishing reporter messages.
// This is typically implemented by an MQTT client.
type Publisher interface {
	// Publish sends a message to a topic with the specified QoS and retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// ReporterConfig holds configuration for the status reporter.
type ReporterConfig struct {
	// GatewayID identifies this gateway in every payload.
	GatewayID string

	// Version is the gateway software version.
	Version string

	// QoS is the publish quality of service level.
	QoS byte

	// Publisher is the MQTT client for publishing messages.
	Publisher Publisher

	// Logger is optional structured logging.
	Logger Logger
}

// Reporter publishes gateway notifications over MQTT. It implements
// Sink:
//
//   - status transitions to rims/status/gateway/<key> (retained)
//   - activity lines to rims/event/gateway
//   - counter snapshots to rims/stats/gateway (retained, on change)
//
// Stats arrive once per loop iteration; the reporter republishes only
// when a counter moved, since the retained message already carries the
// last value for new subscribers. All publishes are best-effort and
// never propagate a failure back into the loop.
type Reporter struct {
	gatewayID  string
	instanceID string
	version    string
	qos        byte
	publisher  Publisher
	logger     Logger

	lastStats Stats
	hasStats  bool
	statsMu   sync.Mutex
}

// statusMessage is the payload for StatusTopic.
type statusMessage struct {
	GatewayID  string    `json:"gateway_id"`
	InstanceID string    `json:"instance_id"`
	Version    string    `json:"version"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	Colour     string    `json:"colour"`
	Timestamp  time.Time `json:"timestamp"`
}

// eventMessage is the payload for EventTopic.
type eventMessage struct {
	GatewayID  string    `json:"gateway_id"`
	InstanceID string    `json:"instance_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// statsMessage is the payload for StatsTopic.
type statsMessage struct {
	GatewayID    string    `json:"gateway_id"`
	InstanceID   string    `json:"instance_id"`
	CommandsSent uint64    `json:"commands_sent"`
	Errors       uint64    `json:"errors"`
	DeviceCount  int       `json:"device_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewReporter creates a status reporter. A fresh instance id is
// generated so restarts are distinguishable downstream.
func NewReporter(cfg ReporterConfig) *Reporter {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Reporter{
		gatewayID:  cfg.GatewayID,
		instanceID: uuid.NewString(),
		version:    cfg.Version,
		qos:        cfg.QoS,
		publisher:  cfg.Publisher,
		logger:     logger,
	}
}

// InstanceID returns the id generated for this reporter instance.
func (r *Reporter) InstanceID() string {
	return r.instanceID
}

// OnStatus publishes a status transition, retained so late subscribers
// see the current state.
func (r *Reporter) OnStatus(key, value, colour string) {
	msg := statusMessage{
		GatewayID:  r.gatewayID,
		InstanceID: r.instanceID,
		Version:    r.version,
		Key:        key,
		Value:      value,
		Colour:     colour,
		Timestamp:  time.Now().UTC(),
	}
	r.publish(StatusTopic(key), msg, true)
}

// OnLog publishes an activity line, not retained.
func (r *Reporter) OnLog(message string) {
	msg := eventMessage{
		GatewayID:  r.gatewayID,
		InstanceID: r.instanceID,
		Message:    message,
		Timestamp:  time.Now().UTC(),
	}
	r.publish(EventTopic(), msg, false)
}

// OnStats publishes the counters, retained, skipping pushes where
// nothing moved. The dedup state only advances on a delivered push, so
// the first push after a broker outage goes out even when the counters
// did not move during it.
func (r *Reporter) OnStats(stats Stats) {
	r.statsMu.Lock()
	if r.hasStats && r.lastStats == stats {
		r.statsMu.Unlock()
		return
	}
	r.statsMu.Unlock()

	msg := statsMessage{
		GatewayID:    r.gatewayID,
		InstanceID:   r.instanceID,
		CommandsSent: stats.CommandsSent,
		Errors:       stats.Errors,
		DeviceCount:  stats.DeviceCount,
		Timestamp:    time.Now().UTC(),
	}
	if !r.publish(StatsTopic(), msg, true) {
		return
	}

	r.statsMu.Lock()
	r.lastStats = stats
	r.hasStats = true
	r.statsMu.Unlock()
}

// publish serialises and sends one message, logging failures. It
// reports whether the message was handed to the publisher.
//
// Messages are dropped silently while the publisher is disconnected.
// Retained topics keep their last value on the broker, and stats are
// refreshed every loop pass once the connection returns, so there is
// nothing useful to queue here.
func (r *Reporter) publish(topic string, msg any, retained bool) bool {
	if r.publisher == nil || !r.publisher.IsConnected() {
		return false
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("failed to marshal report", "topic", topic, "error", err)
		return false
	}

	if err := r.publisher.Publish(topic, payload, r.qos, retained); err != nil {
		r.logger.Error("failed to publish report", "topic", topic, "error", err)
		return false
	}

	return true
}
