package gateway

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

// mockPublisher implements Publisher for testing.
type mockPublisher struct {
	mu        sync.Mutex
	connected bool
	failWith  error
	messages  []publishedMessage
}

type publishedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{connected: true}
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.messages = append(m.messages, publishedMessage{
		topic:    topic,
		payload:  payload,
		qos:      qos,
		retained: retained,
	})
	return nil
}

func (m *mockPublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockPublisher) getMessages() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]publishedMessage, len(m.messages))
	copy(result, m.messages)
	return result
}

func newTestReporter(pub Publisher) *Reporter {
	return NewReporter(ReporterConfig{
		GatewayID: "gateway-test",
		Version:   "1.2.3",
		QoS:       1,
		Publisher: pub,
	})
}

func TestTopics(t *testing.T) {
	if got := StatusTopic("serial"); got != "rims/status/gateway/serial" {
		t.Errorf("StatusTopic(serial) = %q", got)
	}
	if got := EventTopic(); got != "rims/event/gateway" {
		t.Errorf("EventTopic() = %q", got)
	}
	if got := StatsTopic(); got != "rims/stats/gateway" {
		t.Errorf("StatsTopic() = %q", got)
	}
}

func TestReporter_OnStatus(t *testing.T) {
	pub := newMockPublisher()
	r := newTestReporter(pub)

	r.OnStatus(StatusKeyAPI, StatusAPIOK, ColourSuccess)

	messages := pub.getMessages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if msg.topic != "rims/status/gateway/api" {
		t.Errorf("topic = %q, want rims/status/gateway/api", msg.topic)
	}
	if !msg.retained {
		t.Error("status message should be retained")
	}
	if msg.qos != 1 {
		t.Errorf("qos = %d, want 1", msg.qos)
	}

	var status statusMessage
	if err := json.Unmarshal(msg.payload, &status); err != nil {
		t.Fatalf("failed to unmarshal status payload: %v", err)
	}
	if status.GatewayID != "gateway-test" {
		t.Errorf("GatewayID = %q, want gateway-test", status.GatewayID)
	}
	if status.InstanceID != r.InstanceID() {
		t.Errorf("InstanceID = %q, want %q", status.InstanceID, r.InstanceID())
	}
	if status.Key != "api" || status.Value != "OK" || status.Colour != ColourSuccess {
		t.Errorf("payload = %+v, want api/OK/%s", status, ColourSuccess)
	}
	if status.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", status.Version)
	}
	if status.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestReporter_OnLog(t *testing.T) {
	pub := newMockPublisher()
	r := newTestReporter(pub)

	r.OnLog("Device connected: COM3")

	messages := pub.getMessages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if msg.topic != "rims/event/gateway" {
		t.Errorf("topic = %q, want rims/event/gateway", msg.topic)
	}
	if msg.retained {
		t.Error("event message should not be retained")
	}

	var event eventMessage
	if err := json.Unmarshal(msg.payload, &event); err != nil {
		t.Fatalf("failed to unmarshal event payload: %v", err)
	}
	if event.Message != "Device connected: COM3" {
		t.Errorf("Message = %q", event.Message)
	}
}

func TestReporter_OnStatsSkipsUnchanged(t *testing.T) {
	pub := newMockPublisher()
	r := newTestReporter(pub)

	stats := Stats{CommandsSent: 2, Errors: 1, DeviceCount: 3}
	r.OnStats(stats)
	r.OnStats(stats) // unchanged, skipped
	r.OnStats(Stats{CommandsSent: 3, Errors: 1, DeviceCount: 3})

	messages := pub.getMessages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	for _, msg := range messages {
		if msg.topic != "rims/stats/gateway" {
			t.Errorf("topic = %q, want rims/stats/gateway", msg.topic)
		}
		if !msg.retained {
			t.Error("stats message should be retained")
		}
	}

	var first, second statsMessage
	json.Unmarshal(messages[0].payload, &first)
	json.Unmarshal(messages[1].payload, &second)

	if first.CommandsSent != 2 || first.DeviceCount != 3 {
		t.Errorf("first stats = %+v, want commands 2, devices 3", first)
	}
	if second.CommandsSent != 3 {
		t.Errorf("second stats CommandsSent = %d, want 3", second.CommandsSent)
	}
}

func TestReporter_PublishFailureDoesNotPanic(t *testing.T) {
	pub := newMockPublisher()
	pub.failWith = errors.New("broker unavailable")
	r := newTestReporter(pub)

	// Best-effort: failures are logged, never propagated.
	r.OnStatus(StatusKeyGateway, StatusRunning, ColourSuccess)
	r.OnLog("line")
	r.OnStats(Stats{CommandsSent: 1})
}

func TestReporter_NilPublisher(t *testing.T) {
	r := NewReporter(ReporterConfig{GatewayID: "g"})

	// Must not panic.
	r.OnStatus(StatusKeyGateway, StatusRunning, ColourSuccess)
	r.OnLog("line")
	r.OnStats(Stats{})
}

func TestReporter_DisconnectedPublisherDropsMessages(t *testing.T) {
	pub := newMockPublisher()
	pub.mu.Lock()
	pub.connected = false
	pub.mu.Unlock()

	r := newTestReporter(pub)
	r.OnStatus(StatusKeyGateway, StatusRunning, ColourSuccess)
	r.OnLog("line")
	r.OnStats(Stats{CommandsSent: 1})

	if got := len(pub.getMessages()); got != 0 {
		t.Errorf("published %d messages while disconnected, want 0", got)
	}
}

func TestReporter_StatsResumeAfterReconnect(t *testing.T) {
	pub := newMockPublisher()
	pub.mu.Lock()
	pub.connected = false
	pub.mu.Unlock()

	r := newTestReporter(pub)
	stats := Stats{CommandsSent: 3, DeviceCount: 2}

	// Dropped while disconnected, must not poison the dedup state.
	r.OnStats(stats)

	pub.mu.Lock()
	pub.connected = true
	pub.mu.Unlock()

	r.OnStats(stats)

	msgs := pub.getMessages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages after reconnect, want 1", len(msgs))
	}
	if msgs[0].topic != StatsTopic() {
		t.Errorf("published to %q, want %q", msgs[0].topic, StatsTopic())
	}
}

func TestReporter_InstanceIDStable(t *testing.T) {
	r := newTestReporter(newMockPublisher())

	if r.InstanceID() == "" {
		t.Fatal("InstanceID should not be empty")
	}
	if r.InstanceID() != r.InstanceID() {
		t.Error("InstanceID should be stable for one reporter")
	}

	other := newTestReporter(newMockPublisher())
	if r.InstanceID() == other.InstanceID() {
		t.Error("distinct reporters should have distinct instance ids")
	}
}
