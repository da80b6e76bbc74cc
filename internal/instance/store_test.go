package instance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/pagectl/internal/testutil/testlog"
)

func testRecord(name string, pid int, dir string) Record {
	return Record{
		Name:      name,
		URL:       "https://example.test/doc",
		PID:       pid,
		StartedAt: time.Now(),
		Address:   SocketPath(dir, name, pid),
	}
}

func TestWriteAndReadAll(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	rec := testRecord("default", os.Getpid(), dir)
	if err := WriteRecord(dir, rec); err != nil {
		t.Fatalf("write record: %v", err)
	}

	records, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Name != rec.Name || got.PID != rec.PID || got.Address != rec.Address {
		t.Fatalf("record mismatch: got=%+v want=%+v", got, rec)
	}
}

func TestWriteRecordCreatesDirectory(t *testing.T) {
	testlog.Start(t)
	dir := filepath.Join(t.TempDir(), "nested", "scope")
	if err := WriteRecord(dir, testRecord("default", 100, dir)); err != nil {
		t.Fatalf("write record: %v", err)
	}
	if _, err := os.Stat(MetaPath(dir, "default", 100)); err != nil {
		t.Fatalf("metadata file missing: %v", err)
	}
}

func TestReadAllMissingDir(t *testing.T) {
	testlog.Start(t)
	records, err := ReadAll(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("missing dir should not fail: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

// One unparsable record never aborts listing the rest.
func TestReadAllSkipsGarbage(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	if err := WriteRecord(dir, testRecord("alpha", 11, dir)); err != nil {
		t.Fatalf("write record: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken-12.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "empty-13.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "other-14.sock"), nil, 0o644); err != nil {
		t.Fatalf("write socket placeholder: %v", err)
	}

	records, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(records) != 1 || records[0].Name != "alpha" {
		t.Fatalf("expected only alpha, got %+v", records)
	}
}

func TestRemoveRecordIdempotent(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	rec := testRecord("gone", 77, dir)
	if err := WriteRecord(dir, rec); err != nil {
		t.Fatalf("write record: %v", err)
	}
	if err := RemoveRecord(dir, "gone", 77); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	if err := RemoveRecord(dir, "gone", 77); err != nil {
		t.Fatalf("second remove should be idempotent: %v", err)
	}
	records, err := ReadAll(dir)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty dir, got %+v", records)
	}
}
