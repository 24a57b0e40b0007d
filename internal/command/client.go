package command

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default settings for the command source client.
const (
	defaultTimeout = 5 * time.Second

	// maxResponseBytes caps how much of a poll response is read.
	// Commands are short opaque strings; anything larger is a
	// misconfigured endpoint.
	maxResponseBytes = 64 * 1024

	defaultMaxIdleConns    = 2
	defaultIdleConnTimeout = 90 * time.Second
)

// Outcome classifies the result of a single poll.
type Outcome int

// Poll outcomes.
const (
	// OutcomeOK means the endpoint answered 200; a command may or may
	// not be present.
	OutcomeOK Outcome = iota

	// OutcomeHTTPError means the endpoint answered with a non-200
	// status code.
	OutcomeHTTPError

	// OutcomeNetworkError means the request never completed: timeout,
	// connection refused, TLS or DNS failure.
	OutcomeNetworkError
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one poll cycle.
//
// Command is non-empty only when Outcome is OutcomeOK and the response
// body contained a command. StatusCode is set for OutcomeOK and
// OutcomeHTTPError. Err is set for OutcomeNetworkError and preserved
// for diagnostics.
type Result struct {
	Command    string
	Outcome    Outcome
	StatusCode int
	Err        error
}

// Options configures the command source client.
type Options struct {
	// URL is the endpoint polled for pending commands.
	URL string

	// Timeout bounds each poll request. Default: 5s.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	// This exists because the deployed command endpoint uses a
	// self-signed certificate; it is a deliberate simplification and
	// not a pattern to reuse elsewhere.
	InsecureSkipVerify bool
}

// Client polls the remote command source.
//
// The underlying transport keeps idle connections alive so repeated
// polls reuse one TCP/TLS session instead of reconnecting each cycle.
// The client never retries internally: the caller's polling cadence is
// the retry policy.
//
// Thread Safety: Poll is safe for concurrent use, though the gateway
// only ever calls it from its single worker.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a command source client.
//
// Parameters:
//   - opts: Endpoint URL, timeout and TLS settings
//
// Returns:
//   - *Client: Ready to poll
//   - error: ErrInvalidURL if the URL is empty
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, ErrInvalidURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify, // #nosec G402 -- self-signed command endpoint, see package docs
		},
		MaxIdleConns:    defaultMaxIdleConns,
		IdleConnTimeout: defaultIdleConnTimeout,
	}

	return &Client{
		url: opts.URL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

// Poll performs a single bounded request against the command source.
//
// A 200 response with a non-empty trimmed body yields a command. Any
// other status yields OutcomeHTTPError with the code. Transport-level
// failures yield OutcomeNetworkError with the error preserved.
//
// Parameters:
//   - ctx: Context for cancellation (the request timeout is the
//     client's own; ctx only needs to cover shutdown)
//
// Returns:
//   - Result: The classified poll outcome
func (c *Client) Poll(ctx context.Context) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Result{
			Outcome: OutcomeNetworkError,
			Err:     fmt.Errorf("%w: building request: %w", ErrRequestFailed, err),
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{
			Outcome: OutcomeNetworkError,
			Err:     fmt.Errorf("%w: %w", ErrRequestFailed, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{
			Outcome:    OutcomeHTTPError,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{
			Outcome: OutcomeNetworkError,
			Err:     fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err),
		}
	}

	return Result{
		Command:    strings.TrimSpace(string(body)),
		Outcome:    OutcomeOK,
		StatusCode: resp.StatusCode,
	}
}

// Close releases idle transport connections.
// Safe to call once the polling loop has stopped.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
