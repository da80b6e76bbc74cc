// Package discovery turns known instances (a metadata record exists) into
// live instances (the record is corroborated by a pid check and a protocol
// probe) and resolves a single target for a caller. Liveness is always
// probed fresh; nothing is cached across calls, because a worker can die
// between two calls milliseconds apart.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/pagectl/internal/instance"
)

var (
	ErrNoneRunning = errors.New("discovery: no running instance")
	ErrNotFound    = errors.New("discovery: no running instance with that name")
	ErrAmbiguous   = errors.New("discovery: multiple instances running, a name must be supplied")
)

// Service enumerates instance records across scope directories and probes
// their liveness.
type Service struct {
	dirs         []string
	probeTimeout time.Duration
}

// New builds a discovery service over the physical directories of scope.
func New(scope instance.Scope) (*Service, error) {
	dirs, err := scope.Dirs()
	if err != nil {
		return nil, err
	}
	return NewForDirs(dirs), nil
}

// NewForDirs builds a discovery service over explicit directories, local
// first by caller convention.
func NewForDirs(dirs []string) *Service {
	return &Service{dirs: dirs, probeTimeout: ProbeTimeout}
}

// WithProbeTimeout overrides the per-record probe bound.
func (s *Service) WithProbeTimeout(d time.Duration) *Service {
	s.probeTimeout = d
	return s
}

// ListKnown concatenates metadata records across the service's directories
// in order. Records are advisory only; nothing here implies reachability.
func (s *Service) ListKnown() ([]instance.Record, error) {
	var all []instance.Record
	for _, dir := range s.dirs {
		records, err := instance.ReadAll(dir)
		if err != nil {
			return nil, fmt.Errorf("discovery: list %s: %w", dir, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

// ListLive filters known records to those that pass both liveness checks:
// the signal-0 pid pre-check first (skipping the connection entirely when
// the process is gone), then a bounded info probe over the wire. Orphaned
// records are routine noise, skipped silently.
func (s *Service) ListLive(ctx context.Context) ([]instance.Record, error) {
	known, err := s.ListKnown()
	if err != nil {
		return nil, err
	}
	var live []instance.Record
	for _, rec := range known {
		if !pidAlive(rec.PID) {
			log.Debug().Str("name", rec.Name).Int("pid", rec.PID).Msg("discovery: pid gone, record skipped")
			continue
		}
		if !probe(ctx, rec.Address, s.probeTimeout) {
			log.Debug().Str("name", rec.Name).Str("address", rec.Address).Msg("discovery: probe failed, record skipped")
			continue
		}
		live = append(live, rec)
	}
	return live, nil
}

// Resolve picks one live target. With a name, it requires an exact match.
// Without one, it requires exactly one live instance; picking arbitrarily
// among several would silently target the wrong worker, so ambiguity is a
// refusal.
func (s *Service) Resolve(ctx context.Context, name string) (instance.Record, error) {
	live, err := s.ListLive(ctx)
	if err != nil {
		return instance.Record{}, err
	}
	if name != "" {
		for _, rec := range live {
			if rec.Name == name {
				return rec, nil
			}
		}
		return instance.Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	switch len(live) {
	case 0:
		return instance.Record{}, ErrNoneRunning
	case 1:
		return live[0], nil
	default:
		return instance.Record{}, fmt.Errorf("%w (%d live)", ErrAmbiguous, len(live))
	}
}

// NameInUse reports whether a live instance named name exists in scope.
// Used by workers at start to refuse duplicate names.
func (s *Service) NameInUse(ctx context.Context, name string) (bool, error) {
	live, err := s.ListLive(ctx)
	if err != nil {
		return false, err
	}
	for _, rec := range live {
		if rec.Name == name {
			return true, nil
		}
	}
	return false, nil
}
