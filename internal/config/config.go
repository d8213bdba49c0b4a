// Package config loads PageCraft configuration from the workspace's
// .pagecraft/config.json, with environment variables taking precedence over
// the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	configDir  = ".pagecraft"
	configFile = "config.json"
)

// GenerationConfig selects and tunes the generation backend.
type GenerationConfig struct {
	// Engine is "service" (hosted HTTP backend) or "gemini" (direct GenAI).
	Engine string `json:"engine,omitempty"`

	// ServiceURL is the hosted backend base URL, used when Engine="service".
	ServiceURL string `json:"service_url,omitempty"`

	// APIKey authenticates against the hosted backend.
	APIKey string `json:"api_key,omitempty"`

	// GeminiAPIKey is used when Engine="gemini".
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	// Model overrides the default Gemini model.
	Model string `json:"model,omitempty"`

	// MinIntervalMs throttles consecutive service calls.
	MinIntervalMs int `json:"min_interval_ms,omitempty"`

	// TimeoutSec bounds a single generation call.
	TimeoutSec int `json:"timeout_sec,omitempty"`
}

// Config is the full PageCraft configuration.
type Config struct {
	// DataDir holds the project database. Defaults to the config directory.
	DataDir string `json:"data_dir,omitempty"`

	// Debug enables debug-level logging and the audit trail.
	Debug bool `json:"debug,omitempty"`

	Generation GenerationConfig `json:"generation"`
}

// Dir returns the config directory under the workspace.
func Dir(workspace string) string {
	return filepath.Join(workspace, configDir)
}

// Load reads the workspace config, returning defaults when the file is
// missing. Environment variables override file values.
func Load(workspace string) (*Config, error) {
	cfg := &Config{}
	path := filepath.Join(Dir(workspace), configFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg, workspace)
	return cfg, nil
}

// Save writes the config file, creating the directory as needed.
func (c *Config) Save(workspace string) error {
	dir := Dir(workspace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, configFile), data, 0o600)
}

func applyEnv(cfg *Config) {
	if url := os.Getenv("PAGECRAFT_SERVICE_URL"); url != "" {
		cfg.Generation.ServiceURL = url
	}
	if key := os.Getenv("PAGECRAFT_API_KEY"); key != "" {
		cfg.Generation.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Generation.GeminiAPIKey = key
	}
	if model := os.Getenv("PAGECRAFT_MODEL"); model != "" {
		cfg.Generation.Model = model
	}
	if engine := os.Getenv("PAGECRAFT_ENGINE"); engine != "" {
		cfg.Generation.Engine = engine
	}
	if dir := os.Getenv("PAGECRAFT_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if v := os.Getenv("PAGECRAFT_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}
}

func applyDefaults(cfg *Config, workspace string) {
	if cfg.DataDir == "" {
		cfg.DataDir = Dir(workspace)
	}
	if cfg.Generation.Engine == "" {
		if cfg.Generation.ServiceURL != "" {
			cfg.Generation.Engine = "service"
		} else {
			cfg.Generation.Engine = "gemini"
		}
	}
	if cfg.Generation.TimeoutSec == 0 {
		cfg.Generation.TimeoutSec = int((3 * time.Minute).Seconds())
	}
}

// Timeout returns the generation call timeout as a duration.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

// MinInterval returns the service call throttle as a duration.
func (g GenerationConfig) MinInterval() time.Duration {
	return time.Duration(g.MinIntervalMs) * time.Millisecond
}
