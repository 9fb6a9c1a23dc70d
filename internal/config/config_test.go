// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	settings := Default()

	assert.Equal(t, "http://127.0.0.1:11434", settings.Endpoint)
	assert.Equal(t, 30*time.Second, settings.Timeout())
	assert.Equal(t, 3, settings.MaxRetries)
	assert.True(t, settings.Streaming)
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	settings, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), settings)
}

func TestLoadFromPath_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
endpoint = "http://10.0.0.5:11434"
model = "llama3.2:3b"
num_ctx = 4096
temperature = 0.2
system_prompt = "You are a code assistant."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:11434", settings.Endpoint)
	assert.Equal(t, "llama3.2:3b", settings.Model)
	assert.Equal(t, 4096, settings.NumCtx)
	assert.Equal(t, 0.2, settings.Temperature)
	assert.Equal(t, "You are a code assistant.", settings.SystemPrompt)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, Default().KeepAlive, settings.KeepAlive)
}

func TestLoadFromPath_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint = [broken"), 0o600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestLoadFromPath_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`model = "from-file"`), 0o600))

	t.Setenv("RIGBRIDGE_MODEL", "from-env")
	t.Setenv("RIGBRIDGE_TIMEOUT_MS", "5000")

	settings, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", settings.Model)
	assert.Equal(t, 5*time.Second, settings.Timeout())
}

func TestLoadFromPath_ClampsBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
num_ctx = 100
timeout_ms = 10
temperature = 9.5
top_p = -0.3
max_retries = -1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, MinNumCtx, settings.NumCtx)
	assert.Equal(t, MinTimeoutMs, settings.TimeoutMs)
	assert.Equal(t, 2.0, settings.Temperature)
	assert.Equal(t, 0.0, settings.TopP)
	assert.Equal(t, 0, settings.MaxRetries)
}

func TestClamp_UpperBounds(t *testing.T) {
	settings := Default()
	settings.NumCtx = 1_000_000
	settings.TimeoutMs = 10_000_000
	settings.TopP = 3.0
	settings.Clamp()

	assert.Equal(t, MaxNumCtx, settings.NumCtx)
	assert.Equal(t, MaxTimeoutMs, settings.TimeoutMs)
	assert.Equal(t, 1.0, settings.TopP)
}

func TestConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("RIGBRIDGE_CONFIG", "/tmp/custom.toml")

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml", path)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	want := Default()
	want.Model = "saved-model"
	want.Temperature = 0.1
	require.NoError(t, Save(want, path))

	got, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`model = "v1"`), 0o600))

	changes := make(chan Settings, 4)
	stop, err := Watch(path, func(s Settings) {
		changes <- s
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(`model = "v2"`), 0o600))

	// A save can fire more than one event; wait for the final content.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			if got.Model == "v2" {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
