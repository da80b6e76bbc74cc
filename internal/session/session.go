// Package session abstracts the single controlled document the worker owns.
// Concrete remote-control actions live behind the registry; the control plane
// only needs target identity and lifecycle.
package session

import (
	"sync"
	"time"
)

// TargetInfo describes the controlled document for info responses and
// metadata records.
type TargetInfo struct {
	URL       string    `json:"url"`
	OpenedAt  time.Time `json:"openedAt"`
	Connected bool      `json:"connected"`
}

// Session is one controlled document handle, exclusively owned by one worker
// process for its whole lifetime.
type Session interface {
	Target() TargetInfo
	Close() error
}

// Local is an in-process session used by the default runtime and tests. It
// carries no remote connection; registry events against it operate purely on
// worker-local state.
type Local struct {
	mu     sync.Mutex
	target TargetInfo
	closed bool
}

// OpenLocal creates a connected local session for the given target URL.
func OpenLocal(url string) *Local {
	return &Local{
		target: TargetInfo{
			URL:       url,
			OpenedAt:  time.Now(),
			Connected: true,
		},
	}
}

func (s *Local) Target() TargetInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Close is idempotent.
func (s *Local) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.target.Connected = false
	return nil
}
