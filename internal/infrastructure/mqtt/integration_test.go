//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/config"
)

// Integration tests for broker connectivity and the presence contract.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "rims-gateway-itest",
			TLS:      false,
		},
		QoS: 1,
	}
}

// rawSubscriber connects a bare paho client for observing what the
// gateway client publishes.
func rawSubscriber(t *testing.T, clientID string) pahomqtt.Client {
	t.Helper()

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker("tcp://127.0.0.1:1883")
	opts.SetClientID(clientID)

	sub := pahomqtt.NewClient(opts)
	token := sub.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		t.Fatal("subscriber connect timed out")
	}
	if err := token.Error(); err != nil {
		t.Fatalf("subscriber connect error = %v", err)
	}

	t.Cleanup(func() { sub.Disconnect(250) })
	return sub
}

func TestConnectAndClose(t *testing.T) {
	client, err := Connect(integrationConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestConnectRefused(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.Port = 19999

	// With connect retry enabled the failure surfaces as a timeout,
	// so this test takes the full connect timeout to complete.
	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("Connect() expected error for refused connection")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestOnlineStatusRetained(t *testing.T) {
	client, err := Connect(integrationConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	// Give the asynchronous connect callback time to publish.
	time.Sleep(200 * time.Millisecond)

	sub := rawSubscriber(t, "rims-itest-health-sub")
	received := make(chan []byte, 1)

	token := sub.Subscribe(HealthTopic(), 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		select {
		case received <- m.Payload():
		default:
		}
	})
	if !token.WaitTimeout(5 * time.Second) {
		t.Fatal("subscribe timed out")
	}

	select {
	case payload := <-received:
		var msg map[string]string
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("health payload is not valid JSON: %v", err)
		}
		if msg["status"] != "online" {
			t.Errorf("retained health status = %q, want online", msg["status"])
		}
		if msg["client_id"] != "rims-gateway-itest" {
			t.Errorf("retained health client_id = %q", msg["client_id"])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for retained health message")
	}
}

func TestPublishRoundtrip(t *testing.T) {
	sub := rawSubscriber(t, "rims-itest-roundtrip-sub")

	topic := "rims/test/roundtrip"
	received := make(chan string, 1)

	token := sub.Subscribe(topic, 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		select {
		case received <- string(m.Payload()):
		default:
		}
	})
	if !token.WaitTimeout(5 * time.Second) {
		t.Fatal("subscribe timed out")
	}

	client, err := Connect(integrationConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	expected := `{"test":"roundtrip"}`
	if err := client.PublishString(topic, expected, 1, false); err != nil {
		t.Fatalf("PublishString() error = %v", err)
	}

	select {
	case payload := <-received:
		if payload != expected {
			t.Errorf("received payload = %q, want %q", payload, expected)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestGracefulOfflineStatus(t *testing.T) {
	client, err := Connect(integrationConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	sub := rawSubscriber(t, "rims-itest-offline-sub")
	received := make(chan []byte, 4)

	token := sub.Subscribe(HealthTopic(), 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		received <- m.Payload()
	})
	if !token.WaitTimeout(5 * time.Second) {
		t.Fatal("subscribe timed out")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// The retained online message arrives first, then the graceful
	// offline publish from Close.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case payload := <-received:
			var msg map[string]string
			if err := json.Unmarshal(payload, &msg); err != nil {
				t.Fatalf("health payload is not valid JSON: %v", err)
			}
			if msg["status"] == "offline" {
				if msg["reason"] != "graceful_shutdown" {
					t.Errorf("offline reason = %q, want graceful_shutdown", msg["reason"])
				}
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for graceful offline message")
		}
	}
}
