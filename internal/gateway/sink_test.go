package gateway

import (
	"sync"
	"testing"
)

// panickingSink blows up on every notification.
type panickingSink struct{}

func (panickingSink) OnStatus(string, string, string) { panic("status") }
func (panickingSink) OnLog(string)                    { panic("log") }
func (panickingSink) OnStats(Stats)                   { panic("stats") }

// captureLogger records error calls for assertions.
type captureLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
	debugs []string
}

func (l *captureLogger) Debug(msg string, _ ...any) {
	l.mu.Lock()
	l.debugs = append(l.debugs, msg)
	l.mu.Unlock()
}

func (l *captureLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	l.infos = append(l.infos, msg)
	l.mu.Unlock()
}

func (l *captureLogger) Warn(string, ...any) {}

func (l *captureLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *captureLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

func TestMultiSink_FansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := NewMultiSink(a, b)

	m.OnStatus("gateway", StatusRunning, ColourSuccess)
	m.OnLog("Device connected: COM3")
	m.OnStats(Stats{CommandsSent: 1, DeviceCount: 2})

	for name, s := range map[string]*recordingSink{"first": a, "second": b} {
		if n := s.countStatus("gateway"); n != 1 {
			t.Errorf("%s sink status count = %d, want 1", name, n)
		}
		if n := s.countLogs("Device connected"); n != 1 {
			t.Errorf("%s sink log count = %d, want 1", name, n)
		}
		if n := s.statsCount(); n != 1 {
			t.Errorf("%s sink stats count = %d, want 1", name, n)
		}
	}
}

func TestMultiSink_PanickingChildIsIsolated(t *testing.T) {
	healthy := &recordingSink{}
	logger := &captureLogger{}

	m := NewMultiSink(panickingSink{}, healthy)
	m.SetLogger(logger)

	m.OnStatus("api", StatusAPIOK, ColourSuccess)
	m.OnLog("Sent to 2 devs: OPEN_GATE")
	m.OnStats(Stats{})

	if n := healthy.countStatus("api"); n != 1 {
		t.Errorf("healthy sink status count = %d, want 1", n)
	}
	if n := healthy.countLogs("Sent to"); n != 1 {
		t.Errorf("healthy sink log count = %d, want 1", n)
	}
	if n := healthy.statsCount(); n != 1 {
		t.Errorf("healthy sink stats count = %d, want 1", n)
	}

	if n := logger.errorCount(); n != 3 {
		t.Errorf("logged panics = %d, want 3", n)
	}
}

func TestLogSink(t *testing.T) {
	logger := &captureLogger{}
	s := NewLogSink(logger)

	s.OnStatus("gateway", StatusRunning, ColourSuccess)
	s.OnLog("Device connected: COM3")
	s.OnStats(Stats{CommandsSent: 3, Errors: 1, DeviceCount: 2})

	logger.mu.Lock()
	defer logger.mu.Unlock()

	if len(logger.infos) != 2 {
		t.Errorf("info lines = %d, want 2 (status + activity)", len(logger.infos))
	}
	if len(logger.debugs) != 1 {
		t.Errorf("debug lines = %d, want 1 (stats)", len(logger.debugs))
	}
}

func TestLogSink_NilLogger(t *testing.T) {
	s := NewLogSink(nil)

	// Must not panic.
	s.OnStatus("gateway", StatusRunning, ColourSuccess)
	s.OnLog("line")
	s.OnStats(Stats{})
}

func TestNopSinkImplementsSink(t *testing.T) {
	var _ Sink = NopSink{}
	var _ Sink = (*MultiSink)(nil)
	var _ Sink = (*LogSink)(nil)
	var _ Sink = (*Reporter)(nil)
}
