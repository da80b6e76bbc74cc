package discovery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/danmuck/pagectl/internal/client"
	"github.com/danmuck/pagectl/internal/protocol"
)

// ProbeTimeout bounds one liveness probe round trip. Short on purpose: a live
// worker answers info immediately, it never queues behind an execute batch.
const ProbeTimeout = 2 * time.Second

// pidAlive is the cheap OS-level pre-check: signal 0 carries nothing but
// reports whether the pid exists. EPERM still means the process exists. Never
// trusted alone, since pids are reused.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// probe sends an info request with a fresh correlation id and a bounded wait.
// Any failure (no answer, malformed frame, failure response) means dead.
func probe(ctx context.Context, addr string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = ProbeTimeout
	}
	req := protocol.Request{ID: uuid.NewString(), Kind: protocol.KindInfo}
	resp, err := client.Do(ctx, addr, req, timeout)
	if err != nil {
		return false
	}
	return resp.Succeeded()
}
