package gateway

// Stats mirrors the three counters shown on the operator display.
// CommandsSent and Errors are monotonic; DeviceCount tracks the
// registry size.
type Stats struct {
	CommandsSent uint64
	Errors       uint64
	DeviceCount  int
}

// Sink receives status transitions, activity lines, and stats pushes
// from the gateway loop.
//
// All three methods are one-way and called from the worker goroutine.
// Implementations should return promptly so they do not stall the
// loop. A sink that panics is isolated by the gateway, so a broken
// consumer can never stop the loop.
type Sink interface {
	// OnStatus reports a status transition for one key. colour is an
	// opaque display tag (see the Colour constants).
	OnStatus(key, value, colour string)

	// OnLog reports one human-readable activity line.
	OnLog(message string)

	// OnStats reports the current counters. Invoked every iteration,
	// changed or not.
	OnStats(stats Stats)
}

// NopSink discards every notification.
type NopSink struct{}

func (NopSink) OnStatus(string, string, string) {}
func (NopSink) OnLog(string)                    {}
func (NopSink) OnStats(Stats)                   {}

// MultiSink fans every notification out to a list of sinks. A child
// that panics is logged and skipped; the remaining children still
// receive the notification.
type MultiSink struct {
	sinks  []Sink
	logger Logger
}

// NewMultiSink creates a fan-out sink over the given children.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{
		sinks:  sinks,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used to report panicking children.
func (m *MultiSink) SetLogger(logger Logger) {
	m.logger = logger
}

func (m *MultiSink) OnStatus(key, value, colour string) {
	for _, s := range m.sinks {
		m.deliver("status", func() { s.OnStatus(key, value, colour) })
	}
}

func (m *MultiSink) OnLog(message string) {
	for _, s := range m.sinks {
		m.deliver("log", func() { s.OnLog(message) })
	}
}

func (m *MultiSink) OnStats(stats Stats) {
	for _, s := range m.sinks {
		m.deliver("stats", func() { s.OnStats(stats) })
	}
}

// deliver invokes one child notification with panic recovery.
func (m *MultiSink) deliver(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("sink panic recovered", "kind", kind, "panic", r)
		}
	}()
	fn()
}

// LogSink writes gateway notifications to the structured logger:
// activity lines and status transitions at info, stats at debug.
type LogSink struct {
	logger Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger Logger) *LogSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) OnStatus(key, value, colour string) {
	s.logger.Info("status changed", "key", key, "value", value, "colour", colour)
}

func (s *LogSink) OnLog(message string) {
	s.logger.Info(message)
}

func (s *LogSink) OnStats(stats Stats) {
	s.logger.Debug("stats",
		"commands_sent", stats.CommandsSent,
		"errors", stats.Errors,
		"device_count", stats.DeviceCount)
}
