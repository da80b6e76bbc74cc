package instance

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	// SocketExt is the channel endpoint file extension.
	SocketExt = ".sock"
	// MetaExt is the metadata file extension, sharing the socket's base name.
	MetaExt = ".json"
)

// SocketPath computes the channel endpoint path for one instance in dir.
func SocketPath(dir, name string, pid int) string {
	return filepath.Join(dir, BaseName(name, pid)+SocketExt)
}

// MetaPath computes the metadata path for one instance in dir.
func MetaPath(dir, name string, pid int) string {
	return filepath.Join(dir, BaseName(name, pid)+MetaExt)
}

// WriteRecord persists rec as pretty-printed JSON, creating dir if absent.
// Called after the socket is bound and before the worker accepts commands.
func WriteRecord(dir string, rec Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	return os.WriteFile(MetaPath(dir, rec.Name, rec.PID), payload, 0o644)
}

// RemoveRecord deletes the metadata and socket files for one instance.
// Removal of a nonexistent file is not an error.
func RemoveRecord(dir, name string, pid int) error {
	var firstErr error
	for _, path := range []string{MetaPath(dir, name, pid), SocketPath(dir, name, pid)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ReadAll lists every parsable metadata record in dir. A missing directory
// yields an empty list; an unparsable record is skipped, never fatal, since
// abnormal worker death routinely leaves partial state behind.
func ReadAll(dir string) ([]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != MetaExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		payload, err := os.ReadFile(path)
		if err != nil {
			log.Debug().Str("path", path).Err(err).Msg("instance record unreadable, skipped")
			continue
		}
		var rec Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			log.Debug().Str("path", path).Err(err).Msg("instance record unparsable, skipped")
			continue
		}
		if rec.Name == "" || rec.Address == "" || rec.PID <= 0 {
			log.Debug().Str("path", path).Msg("instance record incomplete, skipped")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
