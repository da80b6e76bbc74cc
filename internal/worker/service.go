package worker

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/pagectl/internal/instance"
	"github.com/danmuck/pagectl/internal/registry"
	"github.com/danmuck/pagectl/internal/session"
)

var ErrInvalidHeartbeatInterval = errors.New("worker: invalid heartbeat interval")

// ServiceConfig configures one standalone worker process.
type ServiceConfig struct {
	Name              string
	URL               string
	Scope             instance.Scope
	BufferCap         int
	HeartbeatInterval time.Duration
	ShutdownGrace     time.Duration
	DebugListenAddr   string
}

// DefaultServiceConfig returns standalone runtime defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:              "default",
		Scope:             instance.ScopeLocal,
		BufferCap:         DefaultBufferCap,
		HeartbeatInterval: 30 * time.Second,
		ShutdownGrace:     5 * time.Second,
	}
}

// Service runs the worker server lifecycle as a standalone process: session
// open, registry wiring, socket bind, heartbeat loop, graceful teardown.
type Service struct {
	cfg    ServiceConfig
	server *Server
	sess   session.Session
}

// NewService wires a service from config with the builtin event set.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.HeartbeatInterval <= 0 {
		return nil, ErrInvalidHeartbeatInterval
	}
	scopeDir, err := cfg.Scope.Dir()
	if err != nil {
		return nil, err
	}

	sess := session.OpenLocal(cfg.URL)
	srv := NewServer(Config{
		Name:          cfg.Name,
		URL:           cfg.URL,
		ScopeDir:      scopeDir,
		BufferCap:     cfg.BufferCap,
		ShutdownGrace: cfg.ShutdownGrace,
	}, registry.New(), sess)

	if err := RegisterBuiltins(srv.reg, sess, srv.Console(), srv.Errors()); err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, server: srv, sess: sess}, nil
}

// Server exposes the underlying control-plane server.
func (s *Service) Server() *Server {
	return s.server
}

// Run blocks until a termination signal, then shuts the worker down cleanly.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.server.Start(ctx); err != nil {
		return err
	}

	debugErr := make(chan error, 1)
	if strings.TrimSpace(s.cfg.DebugListenAddr) != "" {
		go func() {
			debugErr <- s.serveDebug(ctx, s.cfg.DebugListenAddr)
		}()
	}

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker service shutdown")
			return s.server.Shutdown()
		case err := <-debugErr:
			if err != nil {
				_ = s.server.Shutdown()
				return err
			}
		case <-ticker.C:
			rec := s.server.Record()
			log.Info().
				Str("name", rec.Name).
				Int("queue_depth", s.server.queue.Depth()).
				Int("console_entries", s.server.Console().Len()).
				Int("error_entries", s.server.Errors().Len()).
				Msg("worker heartbeat")
		}
	}
}
