package mqtt

// The reporter topics (status, event, stats) are built in the gateway
// package next to the payloads they carry. This package only owns the
// health topic, because the broker itself publishes to it on our
// behalf via Last Will.
const healthTopic = "rims/health/gateway"

// HealthTopic returns the topic carrying gateway online/offline
// presence. Retained, so subscribers always see the last known state.
func HealthTopic() string {
	return healthTopic
}
