// Copyright 2025 The OpenFIB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config contains the TOML configuration of the service.
package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/openfib/fibsync/pkg/log"
	"github.com/openfib/fibsync/pkg/private/serrors"
)

// Duration is a time.Duration that (un)marshals as a TOML string, e.g.
// "500ms" or "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return serrors.Wrap("parsing duration", err, "value", string(text))
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the top-level service configuration.
type Config struct {
	Logging log.Config `toml:"log,omitempty"`
	API     API        `toml:"api,omitempty"`
	Ingress Ingress    `toml:"ingress,omitempty"`
	Agent   Agent      `toml:"agent,omitempty"`
	Fib     Fib        `toml:"fib,omitempty"`
}

// API configures the management API endpoint.
type API struct {
	// Addr is the listen address for the query API and the prometheus
	// metrics. Empty disables the endpoint.
	Addr string `toml:"addr,omitempty"`
}

// Ingress configures the snapshot subscription.
type Ingress struct {
	// Addr is the address of the pub/sub broker.
	Addr string `toml:"addr,omitempty"`
	// Channel is the pub/sub channel carrying the snapshots. Defaults to
	// "fib.routes.<node_id>".
	Channel string `toml:"channel,omitempty"`
}

// Agent configures the forwarding agent connection.
type Agent struct {
	// Addr is the base URL of the agent's programming API.
	Addr string `toml:"addr,omitempty"`
	// Timeout bounds each individual agent call.
	Timeout Duration `toml:"timeout,omitempty"`
	// Attempts is the attempt ceiling per agent call.
	Attempts int `toml:"attempts,omitempty"`
}

// Fib configures the synchronization pipeline.
type Fib struct {
	// NodeID is the identifier of the node to program routes for.
	NodeID string `toml:"node_id,omitempty"`
	// Dryrun disables live programming.
	Dryrun bool `toml:"dryrun,omitempty"`
	// PeriodicSync enables the periodic reconciliation pass.
	PeriodicSync bool `toml:"periodic_sync,omitempty"`
	// SyncInterval is the reconciliation period.
	SyncInterval Duration `toml:"sync_interval,omitempty"`
	// WaitOnInitialSync blocks startup until the first full sync
	// completed.
	WaitOnInitialSync bool `toml:"wait_on_initial_sync,omitempty"`
	// DebounceDisabled bypasses update coalescing.
	DebounceDisabled bool `toml:"debounce_disabled,omitempty"`
	// DebounceInterval is the quiet period of a debounce window.
	DebounceInterval Duration `toml:"debounce_interval,omitempty"`
	// MaxDebounceInterval bounds the lifetime of a debounce window.
	MaxDebounceInterval Duration `toml:"max_debounce_interval,omitempty"`
	// PerfHistoryCapacity is the number of per-pass perf traces retained
	// for the query API.
	PerfHistoryCapacity int `toml:"perf_history_capacity,omitempty"`
}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap("reading config file", err, "path", path)
	}
	cfg := &Config{}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, serrors.Wrap("parsing config file", err, "path", path)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, serrors.Wrap("validating config", err, "path", path)
	}
	return cfg, nil
}

// InitDefaults fills in unset values.
func (cfg *Config) InitDefaults() {
	if cfg.Ingress.Channel == "" && cfg.Fib.NodeID != "" {
		cfg.Ingress.Channel = "fib.routes." + cfg.Fib.NodeID
	}
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	if cfg.Fib.NodeID == "" {
		return serrors.New("fib.node_id must be set")
	}
	if cfg.Ingress.Addr == "" {
		return serrors.New("ingress.addr must be set")
	}
	if cfg.Agent.Addr == "" && !cfg.Fib.Dryrun {
		return serrors.New("agent.addr must be set in live mode")
	}
	if cfg.Fib.MaxDebounceInterval.Duration != 0 &&
		cfg.Fib.MaxDebounceInterval.Duration < cfg.Fib.DebounceInterval.Duration {

		return serrors.New("fib.max_debounce_interval must not be smaller than "+
			"fib.debounce_interval",
			"debounce_interval", cfg.Fib.DebounceInterval,
			"max_debounce_interval", cfg.Fib.MaxDebounceInterval)
	}
	if cfg.Fib.PerfHistoryCapacity < 0 {
		return serrors.New("fib.perf_history_capacity must not be negative")
	}
	return nil
}

// Sample returns a documented sample configuration.
func Sample() string {
	return `[log]
# Log level. One of "debug", "info", "error". (default "info")
level = "info"
# Log format. One of "human", "json". (default "human")
format = "human"

[api]
# Listen address for the query API and prometheus metrics. Empty disables
# the endpoint.
addr = "127.0.0.1:8600"

[ingress]
# Address of the pub/sub broker publishing route snapshots.
addr = "127.0.0.1:6379"
# Channel carrying the snapshots. (default "fib.routes.<node_id>")
# channel = "fib.routes.node-1"

[agent]
# Base URL of the forwarding agent's programming API.
addr = "http://127.0.0.1:8700"
# Bound on each individual agent call. (default "5s")
timeout = "5s"
# Attempt ceiling per agent call. (default 3)
attempts = 3

[fib]
# Identifier of the node to program routes for.
node_id = "node-1"
# Validate and log programming calls without a live agent. (default false)
dryrun = false
# Periodically resync the full table against the agent. (default false)
periodic_sync = true
# Reconciliation period. (default "10s")
sync_interval = "10s"
# Block startup until the first full sync completed. (default false)
wait_on_initial_sync = true
# Quiet period before a burst of updates is programmed. (default "100ms")
debounce_interval = "100ms"
# Upper bound on how long programming can be deferred under continuous
# updates. (default "1s")
max_debounce_interval = "1s"
# Number of per-pass perf traces retained for the query API. (default 64)
perf_history_capacity = 64
`
}
