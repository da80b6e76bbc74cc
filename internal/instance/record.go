package instance

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidName = errors.New("instance: invalid instance name")
)

// namePattern bounds display names: leading alphanumeric, then up to 63 of
// alphanumeric, underscore, or hyphen.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Record is one running worker's metadata, persisted alongside its socket.
// Existence of a record never implies reachability; discovery corroborates
// every record with a live probe before trusting it.
type Record struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startedAt"`
	Address   string    `json:"address"`
}

// ValidateName asserts the display name matches the accepted pattern.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// NormalizeName lowercases the name and folds every non-alphanumeric run to a
// single hyphen, producing a filesystem-safe base-name component.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('-')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BaseName derives the shared file base for one name/pid pair. Two distinct
// live instances can never collide: same name and same pid within one scope
// is only possible across restarts of a reused pid, which the socket bind
// step handles by clearing the stale socket first.
func BaseName(name string, pid int) string {
	return fmt.Sprintf("%s-%d", NormalizeName(name), pid)
}
