package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnknownScope = errors.New("instance: unknown scope")

// Scope selects which on-disk storage locations discovery consults. Local and
// global are peers; Auto concatenates both, local first, with no precedence
// beyond that ordering.
type Scope string

const (
	ScopeLocal  Scope = "local"
	ScopeGlobal Scope = "global"
	ScopeAuto   Scope = "auto"
)

const (
	localDirName  = ".pagectl"
	globalDirName = "pagectl"
)

// ParseScope maps user input to a scope, defaulting empty to Auto.
func ParseScope(raw string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return ScopeAuto, nil
	case ScopeLocal:
		return ScopeLocal, nil
	case ScopeGlobal:
		return ScopeGlobal, nil
	case ScopeAuto:
		return ScopeAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, raw)
	}
}

// Dir returns the single physical directory for a non-auto scope.
func (s Scope) Dir() (string, error) {
	switch s {
	case ScopeLocal:
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, localDirName), nil
	case ScopeGlobal:
		return filepath.Join(os.TempDir(), globalDirName), nil
	default:
		return "", fmt.Errorf("%w: %q has no single directory", ErrUnknownScope, s)
	}
}

// Dirs expands the logical scope into physical directories, local first.
func (s Scope) Dirs() ([]string, error) {
	switch s {
	case ScopeLocal, ScopeGlobal:
		dir, err := s.Dir()
		if err != nil {
			return nil, err
		}
		return []string{dir}, nil
	case ScopeAuto:
		local, err := ScopeLocal.Dir()
		if err != nil {
			return nil, err
		}
		global, err := ScopeGlobal.Dir()
		if err != nil {
			return nil, err
		}
		return []string{local, global}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, s)
	}
}
