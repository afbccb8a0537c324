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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfib/fibsync/fib/config"
)

func TestSampleParsesAndValidates(t *testing.T) {
	cfg := &config.Config{}
	require.NoError(t, toml.Unmarshal([]byte(config.Sample()), cfg))
	cfg.InitDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "node-1", cfg.Fib.NodeID)
	assert.Equal(t, "127.0.0.1:6379", cfg.Ingress.Addr)
	assert.Equal(t, "fib.routes.node-1", cfg.Ingress.Channel)
	assert.Equal(t, "http://127.0.0.1:8700", cfg.Agent.Addr)
	assert.Equal(t, 5*time.Second, cfg.Agent.Timeout.Duration)
	assert.Equal(t, 100*time.Millisecond, cfg.Fib.DebounceInterval.Duration)
	assert.Equal(t, time.Second, cfg.Fib.MaxDebounceInterval.Duration)
	assert.True(t, cfg.Fib.PeriodicSync)
	assert.True(t, cfg.Fib.WaitOnInitialSync)
	assert.Equal(t, 64, cfg.Fib.PerfHistoryCapacity)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fibsync.toml")
	require.NoError(t, os.WriteFile(path, []byte(config.Sample()), 0644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "node-1", cfg.Fib.NodeID)
}

func TestLoadErrors(t *testing.T) {
	testCases := map[string]string{
		"garbage":      "this is not toml {",
		"bad duration": "[fib]\nnode_id = \"node-1\"\ndebounce_interval = \"fast\"\n",
		"invalid":      "[fib]\ndryrun = true\n",
	}
	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fibsync.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := &config.Config{}
		cfg.Fib.NodeID = "node-1"
		cfg.Fib.Dryrun = true
		cfg.Ingress.Addr = "127.0.0.1:6379"
		return cfg
	}
	testCases := map[string]struct {
		mutate    func(cfg *config.Config)
		assertErr assert.ErrorAssertionFunc
	}{
		"valid dryrun": {
			mutate:    func(cfg *config.Config) {},
			assertErr: assert.NoError,
		},
		"missing node id": {
			mutate:    func(cfg *config.Config) { cfg.Fib.NodeID = "" },
			assertErr: assert.Error,
		},
		"missing ingress addr": {
			mutate:    func(cfg *config.Config) { cfg.Ingress.Addr = "" },
			assertErr: assert.Error,
		},
		"live mode without agent": {
			mutate:    func(cfg *config.Config) { cfg.Fib.Dryrun = false },
			assertErr: assert.Error,
		},
		"live mode with agent": {
			mutate: func(cfg *config.Config) {
				cfg.Fib.Dryrun = false
				cfg.Agent.Addr = "http://127.0.0.1:8700"
			},
			assertErr: assert.NoError,
		},
		"debounce ceiling below interval": {
			mutate: func(cfg *config.Config) {
				cfg.Fib.DebounceInterval.Duration = time.Second
				cfg.Fib.MaxDebounceInterval.Duration = 100 * time.Millisecond
			},
			assertErr: assert.Error,
		},
		"negative perf history": {
			mutate:    func(cfg *config.Config) { cfg.Fib.PerfHistoryCapacity = -1 },
			assertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			tc.assertErr(t, cfg.Validate())
		})
	}
}

func TestInitDefaultsChannel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Fib.NodeID = "node-7"
	cfg.InitDefaults()
	assert.Equal(t, "fib.routes.node-7", cfg.Ingress.Channel)

	cfg.Ingress.Channel = "custom.channel"
	cfg.InitDefaults()
	assert.Equal(t, "custom.channel", cfg.Ingress.Channel)
}
