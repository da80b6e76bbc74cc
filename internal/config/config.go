// Package config loads worker runtime configuration from a TOML file,
// layering file values over coded defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/pagectl/internal/instance"
	"github.com/danmuck/pagectl/internal/worker"
)

type fileConfig struct {
	Name            string `toml:"name"`
	URL             string `toml:"url"`
	Scope           string `toml:"scope"`
	BufferCap       int    `toml:"buffer_cap"`
	Heartbeat       string `toml:"heartbeat"`
	ShutdownGrace   string `toml:"shutdown_grace"`
	DebugListenAddr string `toml:"debug_listen_addr"`
}

// LoadServiceConfig reads path into worker service config over defaults.
func LoadServiceConfig(path string) (worker.ServiceConfig, error) {
	cfg := worker.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return worker.ServiceConfig{}, fmt.Errorf("load worker config: %w", err)
	}

	if meta.IsDefined("name") {
		name := strings.TrimSpace(raw.Name)
		if name != "" {
			cfg.Name = name
		}
	}

	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}

	if meta.IsDefined("scope") {
		scope, err := instance.ParseScope(raw.Scope)
		if err != nil {
			return worker.ServiceConfig{}, err
		}
		if scope == instance.ScopeAuto {
			return worker.ServiceConfig{}, fmt.Errorf("%w: a worker binds one scope, not %q", instance.ErrUnknownScope, raw.Scope)
		}
		cfg.Scope = scope
	}

	if meta.IsDefined("buffer_cap") {
		cfg.BufferCap = raw.BufferCap
	}

	if meta.IsDefined("heartbeat") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Heartbeat))
		if err != nil {
			return worker.ServiceConfig{}, fmt.Errorf("parse heartbeat: %w", err)
		}
		cfg.HeartbeatInterval = d
	}

	if meta.IsDefined("shutdown_grace") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ShutdownGrace))
		if err != nil {
			return worker.ServiceConfig{}, fmt.Errorf("parse shutdown_grace: %w", err)
		}
		cfg.ShutdownGrace = d
	}

	if meta.IsDefined("debug_listen_addr") {
		cfg.DebugListenAddr = strings.TrimSpace(raw.DebugListenAddr)
	}

	return cfg, nil
}
