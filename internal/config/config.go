// Copyright 2026 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads tmgloss configuration from a YAML file with
// environment variable overrides. Variables may also be set in a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TMGLOSS_"

// ErrInvalid indicates an invalid configuration value.
var ErrInvalid = errors.New("invalid configuration")

// Config is the tmgloss configuration.
type Config struct {
	// DataDir holds the translation memory and glossary. The command picks a
	// platform default if empty.
	DataDir  string         `yaml:"dataDir"`
	Provider ProviderConfig `yaml:"provider"`
	Match    MatchConfig    `yaml:"match"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig configures the translation provider.
type ProviderConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"apiKey"`
	Timeout      time.Duration `yaml:"timeout"`
	Mode         string        `yaml:"mode"`
	OutputScript string        `yaml:"outputScript"`

	// Retries is the number of attempts per request.
	Retries        int           `yaml:"retries"`
	BreakerFails   uint32        `yaml:"breakerFailures"`
	BreakerTimeout time.Duration `yaml:"breakerTimeout"`
}

// MatchConfig configures translation memory matching.
type MatchConfig struct {
	// Threshold is the similarity a match must exceed, in [0, 1).
	Threshold float64 `yaml:"threshold"`

	// SourceLang is declared in TMX exports.
	SourceLang string `yaml:"sourceLang"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Endpoint:       "https://api.sarvam.ai/translate",
			Timeout:        30 * time.Second,
			Mode:           "formal",
			Retries:        3,
			BreakerFails:   5,
			BreakerTimeout: 30 * time.Second,
		},
		Match: MatchConfig{
			Threshold:  0.8,
			SourceLang: "en-IN",
		},
		Server: ServerConfig{
			Addr:            "localhost:8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadDotEnv sets environment variables from the given .env files. Missing
// files are ignored. Variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading %q: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML config file at path, if path is not empty, over the
// defaults and then applies environment overrides.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	strs := map[string]*string{
		"DATA_DIR":               &cfg.DataDir,
		"PROVIDER_ENDPOINT":      &cfg.Provider.Endpoint,
		"PROVIDER_API_KEY":       &cfg.Provider.APIKey,
		"PROVIDER_MODE":          &cfg.Provider.Mode,
		"PROVIDER_OUTPUT_SCRIPT": &cfg.Provider.OutputScript,
		"MATCH_SOURCE_LANG":      &cfg.Match.SourceLang,
		"SERVER_ADDR":            &cfg.Server.Addr,
		"LOG_LEVEL":              &cfg.Logging.Level,
		"LOG_FORMAT":             &cfg.Logging.Format,
	}
	for name, p := range strs {
		if v := getenv(EnvPrefix + name); v != "" {
			*p = v
		}
	}

	if v := getenv(EnvPrefix + "PROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sPROVIDER_TIMEOUT: %w", ErrInvalid, EnvPrefix, err)
		}
		cfg.Provider.Timeout = d
	}
	if v := getenv(EnvPrefix + "PROVIDER_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sPROVIDER_RETRIES: %w", ErrInvalid, EnvPrefix, err)
		}
		cfg.Provider.Retries = n
	}
	if v := getenv(EnvPrefix + "MATCH_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMATCH_THRESHOLD: %w", ErrInvalid, EnvPrefix, err)
		}
		cfg.Match.Threshold = f
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Match.Threshold < 0 || c.Match.Threshold >= 1 {
		return fmt.Errorf("%w: match threshold %v not in [0, 1)", ErrInvalid, c.Match.Threshold)
	}
	if c.Provider.Retries < 1 {
		return fmt.Errorf("%w: provider retries %d < 1", ErrInvalid, c.Provider.Retries)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}
