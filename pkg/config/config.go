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
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/wgo2tool/go-wgo2/pkg/log"
)

type ConvertConfig struct {
	Format             string `json:"format"`
	FlacPath           string `json:"flacPath"`
	WorkDir            string `json:"workDir,omitempty"`
	KeepWav            bool   `json:"keepWav"`
	FollowPollInterval string `json:"followPollInterval"`
	FollowIdleTimeout  string `json:"followIdleTimeout"`
}

// PollInterval returns the file follower poll period
func (c *ConvertConfig) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.FollowPollInterval)
	if err != nil {
		d, _ = time.ParseDuration(DefaultFollowPollInterval)
	}
	return d
}

// IdleTimeout returns how long the file follower waits for new bytes
// before it considers the file complete
func (c *ConvertConfig) IdleTimeout() time.Duration {
	d, err := time.ParseDuration(c.FollowIdleTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultFollowIdleTimeout)
	}
	return d
}

type ApiConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

type Config struct {
	LogLevel       string `json:"logLevel,omitempty"`
	StateDir       string `json:"stateDir,omitempty"`
	*ConvertConfig `json:"convert,omitempty"`
	*ApiConfig     `json:"api,omitempty"`
	filepath       string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file over the current values.
// A missing file is not an error, the defaults stay in place.
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("Config file not found, using defaults: %s", c.filepath)
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) Validate() error {
	if !log.ValidLevel(c.LogLevel) {
		return ErrInvalidConfig{Field: "logLevel", What: log.HelpLevels}
	}
	if c.Format != FormatFlac && c.Format != FormatWav {
		return ErrInvalidConfig{Field: "convert.format", What: "must be flac or wav"}
	}
	if _, err := time.ParseDuration(c.FollowPollInterval); err != nil {
		return ErrInvalidConfig{Field: "convert.followPollInterval", What: err.Error()}
	}
	if _, err := time.ParseDuration(c.FollowIdleTimeout); err != nil {
		return ErrInvalidConfig{Field: "convert.followIdleTimeout", What: err.Error()}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidConfig{Field: "api.port", What: "must be in range 1-65535"}
	}
	return nil
}

// Path returns the location of the config file
func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) StateDBPath() string {
	return filepath.Join(c.StateDir, StateDBFile)
}

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir)
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), ConfigFile)
}

func NewDefaultConfig() *Config {
	return NewConfig(DefaultConfigPath())
}

// NewConfig returns the default config bound to the file path
func NewConfig(path string) *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		StateDir: DefaultConfigDir(),
		ConvertConfig: &ConvertConfig{
			Format:             DefaultFormat,
			FlacPath:           DefaultFlacPath,
			FollowPollInterval: DefaultFollowPollInterval,
			FollowIdleTimeout:  DefaultFollowIdleTimeout,
		},
		ApiConfig: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		filepath: path,
	}
}
