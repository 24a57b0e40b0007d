package device

import (
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
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

// Callbacks are optional hooks invoked on connection lifecycle events.
// All fields may be nil. Callbacks run synchronously on the calling
// goroutine and must not block.
type Callbacks struct {
	// OnConnected fires after a port is opened and inserted.
	OnConnected func(path string)

	// OnRemoved fires after a port is closed because its device is no
	// longer enumerated.
	OnRemoved func(path string)

	// OnDropped fires after a port is closed because a write to it
	// failed.
	OnDropped func(path string)
}

// Registry owns the set of open device connections, keyed by path.
//
// The gateway worker loop is the sole mutator (Reconcile, Broadcast,
// DropFailed, CloseAll run only there). The mutex exists for the
// read-only snapshot paths used by the status API, which run on other
// goroutines.
//
// Invariant: every path present maps to a handle that succeeded its
// last operation; a handle that fails a write is dropped in the same
// iteration that observed the failure.
type Registry struct {
	opener Opener
	conns  map[string]Port
	mu     sync.RWMutex

	callbacks Callbacks
	logger    Logger
}

// NewRegistry creates an empty connection registry.
// The opener is used for every connection attempt during Reconcile.
func NewRegistry(opener Opener) *Registry {
	return &Registry{
		opener: opener,
		conns:  make(map[string]Port),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetCallbacks installs lifecycle hooks. Call during wiring, before
// the gateway loop starts.
func (r *Registry) SetCallbacks(cb Callbacks) {
	r.callbacks = cb
}

// Reconcile brings the connection set into agreement with the latest
// eligible-device snapshot.
//
// Paths in the snapshot without a connection are opened; an open
// failure is logged and the path left absent, to be retried on the
// next discovery pass. Connections whose path has disappeared from
// the snapshot are closed (best-effort) and removed.
//
// Calling Reconcile twice with the same snapshot and no failures
// produces no events the second time.
func (r *Registry) Reconcile(paths []string) {
	current := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		current[p] = struct{}{}
	}

	// Open missing connections
	for _, path := range paths {
		if r.has(path) {
			continue
		}

		port, err := r.opener.Open(path)
		if err != nil {
			// Left absent; retried next discovery pass. Kept out of
			// the activity feed so a wedged port cannot flood it.
			r.logger.Error("device open failed", "path", path, "error", err)
			continue
		}

		r.mu.Lock()
		r.conns[path] = port
		r.mu.Unlock()

		r.logger.Info("device connected", "path", path)
		if cb := r.callbacks.OnConnected; cb != nil {
			cb(path)
		}
	}

	// Close connections whose device is gone
	for _, path := range r.Snapshot() {
		if _, ok := current[path]; ok {
			continue
		}

		r.mu.Lock()
		port := r.conns[path]
		delete(r.conns, path)
		r.mu.Unlock()

		_ = port.Close() // best-effort, the handle is being discarded

		r.logger.Info("device removed", "path", path)
		if cb := r.callbacks.OnRemoved; cb != nil {
			cb(path)
		}
	}
}

// Broadcast writes payload, terminated by a newline, to every open
// connection.
//
// A connection whose write fails is recorded and returned but never
// prevents delivery to the remaining connections. The caller is
// expected to pass the returned paths to DropFailed.
//
// Returns:
//   - []string: Exactly the paths whose write failed, in path order
func (r *Registry) Broadcast(payload []byte) []string {
	line := make([]byte, 0, len(payload)+1)
	line = append(line, payload...)
	line = append(line, '\n')

	var failed []string
	for _, path := range r.Snapshot() {
		r.mu.RLock()
		port, ok := r.conns[path]
		r.mu.RUnlock()
		if !ok {
			continue
		}

		if _, err := port.Write(line); err != nil {
			r.logger.Error("device write failed", "path", path, "error", err)
			failed = append(failed, path)
		}
	}
	return failed
}

// DropFailed closes (best-effort) and removes the given paths,
// firing one OnDropped event per path actually removed.
func (r *Registry) DropFailed(paths []string) {
	for _, path := range paths {
		r.mu.Lock()
		port, ok := r.conns[path]
		delete(r.conns, path)
		r.mu.Unlock()
		if !ok {
			continue
		}

		_ = port.Close() // best-effort, the handle is being discarded

		r.logger.Warn("device dropped after write failure", "path", path)
		if cb := r.callbacks.OnDropped; cb != nil {
			cb(path)
		}
	}
}

// CloseAll closes every connection best-effort and empties the
// registry. Used only at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]Port)
	r.mu.Unlock()

	for path, port := range conns {
		if err := port.Close(); err != nil {
			r.logger.Debug("close failed during shutdown", "path", path, "error", err)
		}
	}
}

// Snapshot returns the connected paths in sorted order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	paths := make([]string, 0, len(r.conns))
	for path := range r.conns {
		paths = append(paths, path)
	}
	r.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

// Count returns the number of open connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// has reports whether a path currently holds a connection.
func (r *Registry) has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[path]
	return ok
}
