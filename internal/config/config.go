// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides the effective settings used by the bridge.
//
// Settings load from a TOML file with built-in defaults and environment
// variable overrides (RIGBRIDGE_*). A loaded Settings value is an
// immutable snapshot: each request captures one and a reload never
// mutates a snapshot already handed out.
//
// Configuration file location (in order of precedence):
//   - RIGBRIDGE_CONFIG environment variable
//   - ~/.rigbridge/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Bounds for clamped numeric settings.
const (
	MinNumCtx    = 512
	MaxNumCtx    = 32768
	MinTimeoutMs = 1000
	MaxTimeoutMs = 300000
)

// Settings is the effective configuration for one bridge request.
type Settings struct {
	// Endpoint is the inference endpoint base URL.
	Endpoint string `toml:"endpoint" env:"RIGBRIDGE_ENDPOINT"`

	// Model is the default model name.
	Model string `toml:"model" env:"RIGBRIDGE_MODEL"`

	// NumCtx is the context window in tokens. Clamped to 512-32768.
	NumCtx int `toml:"num_ctx" env:"RIGBRIDGE_NUM_CTX"`

	// TimeoutMs is the per-attempt request deadline in milliseconds.
	// Clamped to 1000-300000.
	TimeoutMs int `toml:"timeout_ms" env:"RIGBRIDGE_TIMEOUT_MS"`

	// Temperature is the sampling temperature. Clamped to 0.0-2.0.
	Temperature float64 `toml:"temperature" env:"RIGBRIDGE_TEMPERATURE"`

	// TopP is the nucleus sampling cutoff. Clamped to 0.0-1.0.
	TopP float64 `toml:"top_p" env:"RIGBRIDGE_TOP_P"`

	// Streaming is the server-side chunking preference sent with
	// streaming requests. It does not choose between the single-shot
	// and streaming bridge operations; the caller does.
	Streaming bool `toml:"streaming" env:"RIGBRIDGE_STREAMING"`

	// KeepAlive is the model keep-alive duration string (e.g. "5m").
	KeepAlive string `toml:"keep_alive" env:"RIGBRIDGE_KEEP_ALIVE"`

	// SystemPrompt is injected as a system turn when the request has
	// none of its own. Empty disables injection.
	SystemPrompt string `toml:"system_prompt" env:"RIGBRIDGE_SYSTEM_PROMPT"`

	// MaxRetries is the transport retry limit after the initial attempt.
	MaxRetries int `toml:"max_retries" env:"RIGBRIDGE_MAX_RETRIES"`
}

// Default returns the built-in default settings.
func Default() Settings {
	return Settings{
		Endpoint:    "http://127.0.0.1:11434",
		Model:       "qwen2.5-coder:14b",
		NumCtx:      8192,
		TimeoutMs:   30000,
		Temperature: 0.7,
		TopP:        0.9,
		Streaming:   true,
		KeepAlive:   "5m",
		MaxRetries:  3,
	}
}

// Timeout returns the per-attempt deadline as a duration.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// Clamp forces numeric settings into their documented bounds. Out of
// range values are pulled to the nearest bound rather than rejected.
func (s *Settings) Clamp() {
	s.NumCtx = clampInt(s.NumCtx, MinNumCtx, MaxNumCtx)
	s.TimeoutMs = clampInt(s.TimeoutMs, MinTimeoutMs, MaxTimeoutMs)
	s.Temperature = clampFloat(s.Temperature, 0.0, 2.0)
	s.TopP = clampFloat(s.TopP, 0.0, 1.0)
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// =============================================================================
// LOADING
// =============================================================================

// ConfigDir returns the configuration directory (~/.rigbridge).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rigbridge"), nil
}

// ConfigPath returns the default configuration file path, honoring the
// RIGBRIDGE_CONFIG override.
func ConfigPath() (string, error) {
	if path := os.Getenv("RIGBRIDGE_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads settings from the default location. A missing file is not
// an error; defaults plus environment overrides apply.
func Load() (Settings, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads settings from an explicit file path, then applies
// environment overrides and clamps bounds. A missing file yields the
// defaults.
func LoadFromPath(path string) (Settings, error) {
	settings := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &settings); err != nil {
			return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Default(), fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := env.Parse(&settings); err != nil {
		return Default(), fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	settings.Clamp()
	return settings, nil
}

// Save writes settings to the given path in TOML format, creating the
// parent directory if needed.
func Save(settings Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(settings); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
