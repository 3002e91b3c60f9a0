// Package config provides configuration management for draftline.
// It handles loading and parsing of the YAML configuration file and
// applying environment variable overrides on top of it.
package config

import (
	"time"
)

// Backend names accepted in the "backend" key.
const (
	BackendHTTP   = "http"
	BackendOpenAI = "openai"
)

// Config holds all editor configuration.
type Config struct {
	// Backend selects the completion backend: "http" talks to a remote
	// suggestion endpoint, "openai" calls a chat model directly.
	Backend string

	// Endpoint is the URL of the remote suggestion endpoint.
	Endpoint string

	// Token is sent as a bearer token to the remote endpoint when set.
	Token string

	// Cookie is sent as the Cookie header to the remote endpoint when set,
	// for endpoints that authenticate with a browser session.
	Cookie string

	// Debounce is the quiet period before a suggestion request fires.
	Debounce time.Duration

	// RequestTimeout bounds a single suggestion request.
	RequestTimeout time.Duration

	// AutosaveDelay is the quiet period before the document is persisted.
	AutosaveDelay time.Duration

	// LogLevel controls logging verbosity.
	LogLevel string

	// OpenAI holds settings for the direct model backend.
	OpenAI OpenAIConfig

	// ContextFiles lists plain-text files used as reference context.
	ContextFiles []string
}

// OpenAIConfig holds settings for an OpenAI-compatible chat model.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend:        BackendHTTP,
		Endpoint:       "http://localhost:5000/api/ai-assist",
		Debounce:       1500 * time.Millisecond,
		RequestTimeout: 30 * time.Second,
		AutosaveDelay:  2 * time.Second,
		LogLevel:       "info",
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
	}
}

// UsesOpenAI reports whether suggestions come from the direct model backend.
func (c *Config) UsesOpenAI() bool {
	return c.Backend == BackendOpenAI
}
