/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigDir, ConfigFile)
	cfg := NewConfig(path)
	cfg.LogLevel = "debug"
	cfg.Format = FormatWav
	cfg.KeepWav = true
	cfg.FollowIdleTimeout = "3s"
	cfg.Port = 9000
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Persist(false))

	assert.Equal(t, ErrConfigFileExists{Path: path}, cfg.Persist(false))
	assert.NoError(t, cfg.Persist(true))

	loaded := NewConfig(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, FormatWav, loaded.Format)
	assert.True(t, loaded.KeepWav)
	assert.Equal(t, 3*time.Second, loaded.IdleTimeout())
	assert.Equal(t, 9000, loaded.Port)
	assert.Equal(t, DefaultApiAddress, loaded.Address)
}

func TestConfigLoadMissingFile(t *testing.T) {
	cfg := NewConfig(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, cfg.Load())
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"logLevel":                   func(c *Config) { c.LogLevel = "verbose" },
		"convert.format":             func(c *Config) { c.Format = "mp3" },
		"convert.followPollInterval": func(c *Config) { c.FollowPollInterval = "soon" },
		"convert.followIdleTimeout":  func(c *Config) { c.FollowIdleTimeout = "" },
		"api.port":                   func(c *Config) { c.Port = 70000 },
	}
	for field, mutate := range cases {
		cfg := NewConfig("")
		mutate(cfg)
		var invalid ErrInvalidConfig
		require.ErrorAs(t, cfg.Validate(), &invalid, field)
		assert.Equal(t, field, invalid.Field)
	}
}

func TestDurationsFallBackToDefaults(t *testing.T) {
	c := &ConvertConfig{FollowPollInterval: "bad"}
	assert.Equal(t, 500*time.Millisecond, c.PollInterval())
	assert.Equal(t, 10*time.Second, c.IdleTimeout())
}
