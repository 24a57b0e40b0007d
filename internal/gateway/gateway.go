package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/r-dev-asia/rims-gateway/internal/command"
	"github.com/r-dev-asia/rims-gateway/internal/device"
)

// Default cadences. All overridable via Options.
const (
	// defaultPollInterval is the command poll cadence.
	defaultPollInterval = 500 * time.Millisecond

	// defaultDiscoveryInterval is the device discovery cadence.
	defaultDiscoveryInterval = 5 * time.Second

	// defaultRetryBackoff is the pause after a failed iteration.
	defaultRetryBackoff = time.Second
)

// Logger defines the logging interface used by the gateway.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Enumerator lists candidate serial devices.
// Satisfied by *device.PortEnumerator.
type Enumerator interface {
	List() ([]device.Record, error)
}

// Matcher selects eligible device paths from enumeration records.
// Satisfied by *device.Matcher.
type Matcher interface {
	EligiblePaths(records []device.Record) []string
}

// Source polls the remote command endpoint.
// Satisfied by *command.Client.
type Source interface {
	Poll(ctx context.Context) command.Result
}

// Options holds configuration for creating a gateway.
type Options struct {
	// Registry owns the open device connections. Required.
	// The gateway registers its lifecycle callbacks on it, so the
	// registry should not be shared with another owner.
	Registry *device.Registry

	// Enumerator lists candidate devices each discovery pass. Required.
	Enumerator Enumerator

	// Matcher filters enumeration records down to eligible paths. Required.
	Matcher Matcher

	// Source is the remote command endpoint client. Required.
	Source Source

	// Sink receives status, activity, and stats notifications.
	// Optional; defaults to NopSink.
	Sink Sink

	// Logger is optional structured logging.
	Logger Logger

	// PollInterval is the command poll cadence. Default 500ms.
	PollInterval time.Duration

	// DiscoveryInterval is the device discovery cadence. Default 5s.
	DiscoveryInterval time.Duration

	// RetryBackoff is the pause after a failed iteration. Default 1s.
	RetryBackoff time.Duration
}

// Gateway drives the relay loop: discover and reconcile devices, poll
// the command source, broadcast commands, report status and stats.
//
// A single worker goroutine owns all mutation; see the package
// documentation for the full fault policy.
type Gateway struct {
	registry   *device.Registry
	enumerator Enumerator
	matcher    Matcher
	source     Source
	sink       Sink
	logger     Logger

	pollInterval      time.Duration
	discoveryInterval time.Duration
	retryBackoff      time.Duration

	// Worker-private loop state.
	lastDiscovery time.Time
	statusCache   map[string]statusEntry

	// Counters, guarded for the API/metrics pull path.
	stats   Stats
	statsMu sync.Mutex

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context    // Gateway-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx
}

// statusEntry is the last-emitted value/colour pair for a status key,
// kept to suppress duplicate sink notifications.
type statusEntry struct {
	value  string
	colour string
}

// New creates a gateway instance. Call Start() to begin operation.
func New(opts Options) (*Gateway, error) {
	if opts.Registry == nil {
		return nil, ErrRegistryRequired
	}
	if opts.Enumerator == nil {
		return nil, ErrEnumeratorRequired
	}
	if opts.Matcher == nil {
		return nil, ErrMatcherRequired
	}
	if opts.Source == nil {
		return nil, ErrSourceRequired
	}

	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	discoveryInterval := opts.DiscoveryInterval
	if discoveryInterval <= 0 {
		discoveryInterval = defaultDiscoveryInterval
	}
	retryBackoff := opts.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}

	// Create gateway-level context so Stop() aborts an in-flight poll
	ctx, ctxCancel := context.WithCancel(context.Background())

	g := &Gateway{
		registry:          opts.Registry,
		enumerator:        opts.Enumerator,
		matcher:           opts.Matcher,
		source:            opts.Source,
		sink:              sink,
		logger:            logger,
		pollInterval:      pollInterval,
		discoveryInterval: discoveryInterval,
		retryBackoff:      retryBackoff,
		statusCache:       make(map[string]statusEntry),
		done:              make(chan struct{}),
		ctx:               ctx,
		ctxCancel:         ctxCancel,
	}

	// Lifecycle events become activity lines. Open failures stay out
	// of the feed and go to the structured log only (registry logger).
	g.registry.SetCallbacks(device.Callbacks{
		OnConnected: func(path string) { g.emitLog("Device connected: " + path) },
		OnRemoved:   func(path string) { g.emitLog("Device removed: " + path) },
		OnDropped:   func(path string) { g.emitLog("Write error: " + path + " dropped") },
	})

	return g, nil
}

// Start launches the worker loop. Call at most once.
// The loop runs until Stop() is called or ctx is cancelled.
func (g *Gateway) Start(ctx context.Context) error {
	g.emitLog("Gateway service started")
	g.logger.Info("gateway starting",
		"poll_interval", g.pollInterval,
		"discovery_interval", g.discoveryInterval)

	g.wg.Add(1)
	go g.run(ctx)

	return nil
}

// Stop shuts the gateway down: the worker finishes its current
// iteration, every device connection is closed, and a terminal STOPPED
// status is emitted. Safe to call multiple times.
func (g *Gateway) Stop() {
	g.stopOnce.Do(func() {
		close(g.done)
		g.ctxCancel()
		g.wg.Wait()

		g.logger.Info("gateway stopped")
	})
}

// Stats returns a snapshot of the current counters. DeviceCount is
// read live from the registry.
func (g *Gateway) Stats() Stats {
	g.statsMu.Lock()
	s := g.stats
	g.statsMu.Unlock()

	s.DeviceCount = g.registry.Count()
	return s
}

// run is the worker loop. Exactly one instance runs per gateway.
func (g *Gateway) run(ctx context.Context) {
	defer g.wg.Done()
	defer g.shutdown()
	defer g.ctxCancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		default:
		}

		delay := g.pollInterval
		if err := g.iterate(); err != nil {
			// Never fatal: log, surface, back off, carry on.
			g.logger.Error("gateway iteration failed", "error", err)
			g.emitLog(fmt.Sprintf("Critical error: %v", err))
			delay = g.retryBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		case <-time.After(delay):
		}
	}
}

// shutdown closes every connection and emits the terminal status.
func (g *Gateway) shutdown() {
	g.registry.CloseAll()
	g.setStatus(StatusKeyGateway, StatusStopped, ColourWarning)
}

// iterate performs one pass: discovery if due, derived status update,
// command poll, conditional broadcast, stats push.
//
// A panic anywhere inside the pass is recovered and returned as an
// error; the error return is reserved for that catch-all path, since
// every expected failure is absorbed where it occurs.
func (g *Gateway) iterate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrIterationFailed, r)
		}
	}()

	if time.Since(g.lastDiscovery) >= g.discoveryInterval {
		g.discover()
		g.lastDiscovery = time.Now()
	}

	g.updateConnectionStatus()

	cmd := g.pollOnce()
	if cmd != "" && g.registry.Count() > 0 {
		g.dispatch(cmd)
	}

	g.pushStats()
	return nil
}

// discover enumerates candidate devices, classifies them, and
// reconciles the registry. An enumeration error is logged and the
// iteration carries on with the existing connection set; the attempt
// repeats next discovery pass.
func (g *Gateway) discover() {
	records, err := g.enumerator.List()
	if err != nil {
		g.logger.Error("device enumeration failed", "error", err)
		return
	}

	g.registry.Reconcile(g.matcher.EligiblePaths(records))
}

// updateConnectionStatus recomputes the gateway and serial statuses
// from the registry size.
func (g *Gateway) updateConnectionStatus() {
	paths := g.registry.Snapshot()
	if len(paths) == 0 {
		g.setStatus(StatusKeyGateway, StatusScanning, ColourWarning)
		g.setStatus(StatusKeySerial, StatusNoDevices, ColourError)
		return
	}

	g.setStatus(StatusKeyGateway, StatusRunning, ColourSuccess)
	g.setStatus(StatusKeySerial, serialConnectedValue(paths), ColourSuccess)
}

// pollOnce asks the command source for a pending command and maps the
// outcome onto the api status. HTTP and network failures bump the
// error counter; the next poll is the retry.
func (g *Gateway) pollOnce() string {
	res := g.source.Poll(g.ctx)

	switch res.Outcome {
	case command.OutcomeOK:
		g.setStatus(StatusKeyAPI, StatusAPIOK, ColourSuccess)
		return res.Command
	case command.OutcomeHTTPError:
		g.setStatus(StatusKeyAPI, apiErrorValue(res.StatusCode), ColourError)
		g.incErrors()
	case command.OutcomeNetworkError:
		g.setStatus(StatusKeyAPI, StatusAPITimeout, ColourError)
		g.logger.Error("command poll failed", "error", res.Err)
		g.incErrors()
	}

	return ""
}

// dispatch broadcasts a command to every connection. CommandsSent
// increments only when every write succeeded; a partial delivery drops
// the failed connections and leaves the counter untouched.
func (g *Gateway) dispatch(cmd string) {
	failed := g.registry.Broadcast([]byte(cmd))
	if len(failed) > 0 {
		g.registry.DropFailed(failed)
		return
	}

	g.statsMu.Lock()
	g.stats.CommandsSent++
	g.statsMu.Unlock()

	g.emitLog(fmt.Sprintf("Sent to %d devs: %s", g.registry.Count(), cmd))
}

// incErrors bumps the error counter.
func (g *Gateway) incErrors() {
	g.statsMu.Lock()
	g.stats.Errors++
	g.statsMu.Unlock()
}

// setStatus forwards a status to the sink unless the (value, colour)
// pair matches the last emission for that key.
func (g *Gateway) setStatus(key, value, colour string) {
	if prev, ok := g.statusCache[key]; ok && prev.value == value && prev.colour == colour {
		return
	}
	g.statusCache[key] = statusEntry{value: value, colour: colour}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("status sink panicked", "key", key, "panic", r)
		}
	}()
	g.sink.OnStatus(key, value, colour)
}

// emitLog forwards an activity line to the sink.
func (g *Gateway) emitLog(message string) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("log sink panicked", "panic", r)
		}
	}()
	g.sink.OnLog(message)
}

// pushStats forwards the current counters to the sink. Pushed every
// iteration whether or not anything changed.
func (g *Gateway) pushStats() {
	stats := g.Stats()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("stats sink panicked", "panic", r)
		}
	}()
	g.sink.OnStats(stats)
}
