// Package client performs one request/response round trip against a known
// worker address. One connection carries exactly one request and one
// response; every failure mode is bounded by a deadline.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danmuck/pagectl/internal/protocol"
)

var (
	// ErrTransport marks failures below the protocol: dial, reset, timeout,
	// or a frame that is not JSON at all. Distinct from a well-formed
	// failure response, which surfaces as ErrRemote.
	ErrTransport = errors.New("client: transport failure")
	// ErrRemote marks a well-formed failure response from the worker.
	ErrRemote = errors.New("client: remote failure")
	// ErrCorrelation marks a response whose id does not echo the request's.
	ErrCorrelation = errors.New("client: response id mismatch")
)

const DefaultTimeout = 10 * time.Second

// Do dials addr, writes req, and reads exactly one framed response. The
// timeout bounds the whole round trip; zero applies DefaultTimeout. Execute
// batches legitimately wait on the worker's queue, so callers pass a timeout
// sized to their batch.
func Do(ctx context.Context, addr string, req protocol.Request, timeout time.Duration) (protocol.Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := req.Validate(); err != nil {
		return protocol.Response{}, err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", addr)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("%w: dial %s: %s", ErrTransport, addr, err)
	}
	defer conn.Close()
	deadline := time.Now().Add(timeout)
	_ = conn.SetDeadline(deadline)

	if err := protocol.WriteRequest(conn, req); err != nil {
		return protocol.Response{}, fmt.Errorf("%w: write: %s", ErrTransport, err)
	}

	resp, err := protocol.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		if errors.Is(err, protocol.ErrMalformedFrame) {
			return protocol.Response{}, err
		}
		return protocol.Response{}, fmt.Errorf("%w: read: %s", ErrTransport, err)
	}
	if resp.ID != req.ID {
		return protocol.Response{}, fmt.Errorf("%w: sent %q got %q", ErrCorrelation, req.ID, resp.ID)
	}
	return resp, nil
}

// Info fetches instance metadata and the event listing from addr.
func Info(ctx context.Context, addr string, timeout time.Duration) (protocol.Response, error) {
	return Do(ctx, addr, protocol.Request{ID: uuid.NewString(), Kind: protocol.KindInfo}, timeout)
}

// Events fetches the event registry listing from addr.
func Events(ctx context.Context, addr string, timeout time.Duration) (protocol.Response, error) {
	return Do(ctx, addr, protocol.Request{ID: uuid.NewString(), Kind: protocol.KindEvents}, timeout)
}

// Execute runs calls in order on the worker at addr and decodes the per-event
// result array. A failure response surfaces as ErrRemote carrying the flat
// message from the wire.
func Execute(ctx context.Context, addr string, calls []protocol.EventCall, timeout time.Duration) ([]json.RawMessage, error) {
	req := protocol.Request{ID: uuid.NewString(), Kind: protocol.KindExecute, Events: calls}
	resp, err := Do(ctx, addr, req, timeout)
	if err != nil {
		return nil, err
	}
	if !resp.Succeeded() {
		return nil, fmt.Errorf("%w: %s", ErrRemote, strings.TrimSpace(resp.Error))
	}
	var results []json.RawMessage
	if err := json.Unmarshal([]byte(resp.Data()), &results); err != nil {
		return nil, fmt.Errorf("%w: result payload: %s", protocol.ErrMalformedFrame, err)
	}
	return results, nil
}
