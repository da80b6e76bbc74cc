package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPidAliveSelf(t *testing.T) {
	if !pidAlive(os.Getpid()) {
		t.Fatalf("own pid reported dead")
	}
}

func TestPidAliveRejectsBogus(t *testing.T) {
	if pidAlive(0) || pidAlive(-1) {
		t.Fatalf("non-positive pid reported alive")
	}
	// Just below the default pid_max ceiling, almost certainly unassigned.
	if pidAlive(4194000) {
		t.Skip("pid 4194000 exists on this host")
	}
}

func TestProbeUnreachableAddress(t *testing.T) {
	addr := filepath.Join(t.TempDir(), "absent.sock")
	if probe(context.Background(), addr, 100*time.Millisecond) {
		t.Fatalf("probe succeeded against nothing")
	}
}
