package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/pagectl/internal/discovery"
	"github.com/danmuck/pagectl/internal/instance"
	"github.com/danmuck/pagectl/internal/observability"
	"github.com/danmuck/pagectl/internal/protocol"
	"github.com/danmuck/pagectl/internal/registry"
	"github.com/danmuck/pagectl/internal/session"
)

var (
	ErrNameInUse      = errors.New("worker: instance name already in use")
	ErrNotStarted     = errors.New("worker: server not started")
	ErrAlreadyStarted = errors.New("worker: server already started")
)

// Config carries one server instance's identity and bounds.
type Config struct {
	Name          string
	URL           string
	ScopeDir      string
	BufferCap     int
	ShutdownGrace time.Duration
}

// Server owns one bound socket for the lifetime of one running instance:
// it accepts connections, dispatches requests, and guarantees execute
// batches never overlap via its single-flight queue.
type Server struct {
	cfg     Config
	reg     *registry.Registry
	sess    session.Session
	console *Buffer
	errlog  *Buffer
	queue   *execQueue

	mu      sync.Mutex
	ln      net.Listener
	rec     instance.Record
	started bool

	baseCtx   context.Context
	cancelCtx context.CancelFunc
	conns     sync.WaitGroup
}

// NewServer wires a server over its collaborators. The registry is treated
// as an external table of callable events; the session is the one controlled
// document this instance owns.
func NewServer(cfg Config, reg *registry.Registry, sess session.Session) *Server {
	srv := &Server{
		cfg:     cfg,
		reg:     reg,
		sess:    sess,
		console: NewBuffer(cfg.BufferCap),
		errlog:  NewBuffer(cfg.BufferCap),
	}
	srv.queue = newExecQueue(func(depth int) {
		observability.SetQueueDepth(cfg.Name, depth)
	})
	return srv
}

func (s *Server) Console() *Buffer { return s.console }
func (s *Server) Errors() *Buffer  { return s.errlog }

// Record returns the metadata record written at start.
func (s *Server) Record() instance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// Start validates the instance name, refuses duplicates that are still live
// in the same scope, binds the socket (clearing any stale leftover at the
// same path), writes the metadata record, and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if err := instance.ValidateName(s.cfg.Name); err != nil {
		return err
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.mu.Unlock()

	disco := discovery.NewForDirs([]string{s.cfg.ScopeDir})
	inUse, err := disco.NameInUse(ctx, s.cfg.Name)
	if err != nil {
		return fmt.Errorf("worker: duplicate-name check: %w", err)
	}
	if inUse {
		return fmt.Errorf("%w: %q", ErrNameInUse, s.cfg.Name)
	}

	pid := os.Getpid()
	sockPath := instance.SocketPath(s.cfg.ScopeDir, s.cfg.Name, pid)
	if err := os.MkdirAll(s.cfg.ScopeDir, 0o755); err != nil {
		return err
	}
	// A reused pid can leave its predecessor's socket behind at the exact
	// same path; the bind always clears it first.
	if err := os.Remove(sockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		return fmt.Errorf("worker: bind %s: %w", sockPath, err)
	}

	rec := instance.Record{
		Name:      s.cfg.Name,
		URL:       s.cfg.URL,
		PID:       pid,
		StartedAt: time.Now(),
		Address:   sockPath,
	}
	if err := instance.WriteRecord(s.cfg.ScopeDir, rec); err != nil {
		_ = ln.Close()
		_ = os.Remove(sockPath)
		return fmt.Errorf("worker: write metadata: %w", err)
	}

	s.mu.Lock()
	s.ln = ln
	s.rec = rec
	s.started = true
	// Batch execution outlives its originating connection on purpose:
	// dropping a connection never cancels side effects already in flight.
	s.baseCtx, s.cancelCtx = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	log.Info().
		Str("name", rec.Name).
		Str("address", rec.Address).
		Int("pid", rec.PID).
		Msg("worker listening")

	go s.acceptLoop(ln)
	return nil
}

// acceptLoop handles each accepted connection independently and
// concurrently; one malformed connection never blocks another.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn serves one single-shot connection: one request, one response.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	req, err := protocol.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		// Decode failures still get a well-formed error frame; only a
		// dead transport ends the connection silently.
		if errors.Is(err, protocol.ErrMalformedFrame) || errors.Is(err, protocol.ErrFrameTooLarge) {
			_ = protocol.WriteResponse(conn, protocol.Failure("", err.Error()))
		}
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	resp := s.dispatch(req)
	observability.RecordRequest(s.cfg.Name, req.Kind, resp.Succeeded())
	if err := protocol.WriteResponse(conn, resp); err != nil {
		log.Warn().Str("id", req.ID).Err(err).Msg("worker response write failed")
	}
}

// dispatch answers one validated-or-rejected request. Info and events never
// touch the execute queue: they are read-only and answered immediately, even
// while a batch is mid-flight. The buffer snapshot an info reader sees may
// therefore interleave with that batch's writes; callers wanting a quiescent
// view must wait for their own execute response instead.
func (s *Server) dispatch(req protocol.Request) protocol.Response {
	if err := req.Validate(); err != nil {
		return protocol.Failure(req.ID, err.Error())
	}

	switch req.Kind {
	case protocol.KindInfo:
		return s.answerInfo(req)
	case protocol.KindEvents:
		return s.answerEvents(req)
	case protocol.KindExecute:
		return s.answerExecute(req)
	default:
		return protocol.Failure(req.ID, fmt.Sprintf("unknown request kind %q", req.Kind))
	}
}

// InfoPayload is the info response document: instance identity plus the full
// event listing.
type InfoPayload struct {
	Instance instance.Record      `json:"instance"`
	Target   session.TargetInfo   `json:"target"`
	Events   []registry.EventInfo `json:"events"`
}

func (s *Server) answerInfo(req protocol.Request) protocol.Response {
	payload := InfoPayload{
		Instance: s.Record(),
		Target:   s.sess.Target(),
		Events:   s.reg.List(),
	}
	return marshalSuccess(req.ID, payload)
}

func (s *Server) answerEvents(req protocol.Request) protocol.Response {
	return marshalSuccess(req.ID, s.reg.List())
}

// answerExecute validates every call against the registry, then attaches to
// the single-flight queue; FIFO order is fixed by this post-validation
// attach, not by connection accept order. Earlier calls in a failing batch
// have already taken effect and are not rolled back.
func (s *Server) answerExecute(req protocol.Request) protocol.Response {
	for _, call := range req.Events {
		if err := s.reg.ValidateInput(call.EventName, json.RawMessage(call.Input())); err != nil {
			return protocol.Failure(req.ID, err.Error())
		}
	}

	queuedAt := time.Now()
	if err := s.queue.Acquire(s.baseCtx); err != nil {
		return protocol.Failure(req.ID, fmt.Sprintf("worker shutting down: %s", err))
	}
	defer s.queue.Release()
	queueWait := time.Since(queuedAt)

	startedAt := time.Now()
	results := make([]json.RawMessage, 0, len(req.Events))
	for i, call := range req.Events {
		out, err := s.reg.Execute(s.baseCtx, call.EventName, json.RawMessage(call.Input()))
		if err != nil {
			s.errlog.Append(fmt.Sprintf("event %s failed: %s", call.EventName, err))
			observability.RecordExecute(s.cfg.Name, false, queueWait, time.Since(startedAt))
			return protocol.Failure(req.ID, fmt.Sprintf("events[%d] %s: %s", i, call.EventName, flatMessage(err)))
		}
		encoded, err := json.Marshal(out)
		if err != nil {
			observability.RecordExecute(s.cfg.Name, false, queueWait, time.Since(startedAt))
			return protocol.Failure(req.ID, fmt.Sprintf("events[%d] %s: result not serializable: %s", i, call.EventName, err))
		}
		results = append(results, encoded)
	}
	observability.RecordExecute(s.cfg.Name, true, queueWait, time.Since(startedAt))
	return marshalSuccess(req.ID, results)
}

// Shutdown stops accepting, drains in-flight connections within the grace
// period, closes the controlled session, and removes the instance files.
// Abrupt death skips all of this; discovery tolerates the orphaned files.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	ln := s.ln
	rec := s.rec
	s.started = false
	s.mu.Unlock()

	_ = ln.Close()

	grace := s.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		log.Warn().Dur("grace", grace).Msg("worker shutdown grace expired, abandoning in-flight work")
	}
	s.cancelCtx()

	sessErr := s.sess.Close()
	removeErr := instance.RemoveRecord(s.cfg.ScopeDir, rec.Name, rec.PID)

	log.Info().Str("name", rec.Name).Msg("worker stopped")
	if sessErr != nil {
		return sessErr
	}
	return removeErr
}

func marshalSuccess(id string, payload any) protocol.Response {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return protocol.Failure(id, fmt.Sprintf("encode response payload: %s", err))
	}
	return protocol.Success(id, string(encoded))
}

// flatMessage strips nothing today; it exists so richer internal errors stay
// local to the worker while only one flat line crosses the wire.
func flatMessage(err error) string {
	return strings.TrimSpace(err.Error())
}
