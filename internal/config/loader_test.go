package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(env map[string]string) *Loader {
	l := NewLoader(nil)
	l.getenv = func(key string) string { return env[key] }
	return l
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader(nil)
	assert.NotNil(t, loader)
	assert.NotNil(t, loader.logger)
}

func TestLoader_LoadFromString_EmptySource(t *testing.T) {
	result, err := newTestLoader(nil).LoadFromString("")

	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, DefaultConfig(), result.Config)
	assert.Equal(t, 1500*time.Millisecond, result.Config.Debounce)
	assert.Equal(t, BackendHTTP, result.Config.Backend)
}

func TestLoader_LoadFromString_FullConfig(t *testing.T) {
	source := `
backend: openai
endpoint: https://prose.example.com/api/ai-assist
token: secret
cookie: session=abc
debounce: 800ms
requestTimeout: 10s
autosaveDelay: 5s
logLevel: debug
contextFiles:
  - notes.txt
openai:
  apiKey: sk-test
  model: gpt-4o
  baseURL: http://localhost:8080/v1
`
	result, err := newTestLoader(nil).LoadFromString(source)

	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	cfg := result.Config
	assert.True(t, cfg.UsesOpenAI())
	assert.Equal(t, "https://prose.example.com/api/ai-assist", cfg.Endpoint)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "session=abc", cfg.Cookie)
	assert.Equal(t, 800*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.AutosaveDelay)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"notes.txt"}, cfg.ContextFiles)
	assert.Equal(t, OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o", BaseURL: "http://localhost:8080/v1"}, cfg.OpenAI)
}

func TestLoader_LoadFromString_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"bad backend", "backend: grpc"},
		{"bad duration", "debounce: soon"},
		{"negative duration", "debounce: -1s"},
		{"malformed yaml", "debounce: [1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestLoader(nil).LoadFromString(tt.source)
			require.NoError(t, err)
			assert.Len(t, result.Errors, 1)
			assert.Equal(t, 1500*time.Millisecond, result.Config.Debounce)
			assert.Equal(t, BackendHTTP, result.Config.Backend)
		})
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	loader := newTestLoader(map[string]string{
		"DRAFTLINE_ENDPOINT":  "http://override/api",
		"DRAFTLINE_TOKEN":     "env-token",
		"DRAFTLINE_COOKIE":    "session=env",
		"DRAFTLINE_LOG_LEVEL": "warn",
		"OPENAI_API_KEY":      "sk-env",
	})

	result, err := loader.LoadFromString("endpoint: http://file/api\n")
	require.NoError(t, err)

	assert.Equal(t, "http://override/api", result.Config.Endpoint)
	assert.Equal(t, "env-token", result.Config.Token)
	assert.Equal(t, "session=env", result.Config.Cookie)
	assert.Equal(t, "warn", result.Config.LogLevel)
	assert.Equal(t, "sk-env", result.Config.OpenAI.APIKey)
}

func TestLoader_EnvDoesNotReplaceConfiguredAPIKey(t *testing.T) {
	loader := newTestLoader(map[string]string{"OPENAI_API_KEY": "sk-env"})

	result, err := loader.LoadFromString("openai:\n  apiKey: sk-file\n")
	require.NoError(t, err)
	assert.Equal(t, "sk-file", result.Config.OpenAI.APIKey)
}

func TestLoader_LoadFromFile(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		result, err := newTestLoader(nil).LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), result.Config)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("debounce: 2s\n"), 0644))

		result, err := newTestLoader(nil).LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, result.Config.Debounce)
	})
}
