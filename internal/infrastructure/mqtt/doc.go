// Package mqtt provides the MQTT publishing client for the gateway's
// status reporter.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for crash detection
//   - Connection health monitoring
//
// # Architecture
//
// The gateway is publish-only on the broker. Status transitions,
// activity lines, and counters flow outward for dashboards and site
// automations to consume; commands arrive over HTTP from the command
// source, never over MQTT, so there is no subscription machinery here.
//
//	Gateway Loop → Reporter → mqtt.Client → Broker → Dashboards
//
// # Presence
//
// The client maintains rims/health/gateway as a retained presence
// topic:
//   - "online" is published on connect and on every reconnect
//   - "offline" with reason graceful_shutdown is published by Close
//   - "offline" with reason unexpected_disconnect is published by the
//     broker itself via LWT when the connection dies
//
// # Security Considerations
//
//   - TLS is required for off-site brokers (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.SetLogger(logger)
//	err = client.Publish("rims/status/gateway/serial", payload, 1, true)
package mqtt
