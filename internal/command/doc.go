// Package command provides the client that polls the remote RIMS
// command source.
//
// The command source is a plain HTTP endpoint: a GET returning 200
// with a non-empty body hands the gateway one opaque command string to
// broadcast. An empty body means no command is pending. The client
// performs exactly one request per Poll call and classifies the result
// (OK, HTTP error with status code, or network error); retrying is the
// caller's concern via its polling cadence.
//
// # Connection Reuse
//
// One http.Transport with keep-alives is held for the client's
// lifetime, so sub-second polling reuses a single TCP/TLS session
// rather than handshaking every cycle.
//
// # TLS Verification Is Disabled By Default
//
// The deployed command endpoint serves a self-signed certificate, so
// the client is normally configured with InsecureSkipVerify. This is a
// deliberate simplification inherited from the field deployment, not a
// security stance: any reuse of this package against a different
// endpoint should turn verification back on
// (command.insecure_skip_verify: false).
//
// # Usage
//
//	client, err := command.New(command.Options{
//	    URL:                cfg.Command.URL,
//	    Timeout:            cfg.RequestTimeout(),
//	    InsecureSkipVerify: cfg.Command.InsecureSkipVerify,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	res := client.Poll(ctx)
//	if res.Outcome == command.OutcomeOK && res.Command != "" {
//	    // broadcast res.Command
//	}
package command
