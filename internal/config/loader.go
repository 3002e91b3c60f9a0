package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of configuration files.
type Loader struct {
	logger *zap.Logger
	getenv func(string) string
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
		getenv: os.Getenv,
	}
}

// LoadResult contains the result of loading a configuration file.
type LoadResult struct {
	Config *Config
	Errors []error
}

// fileConfig mirrors the on-disk YAML layout.
type fileConfig struct {
	Backend        string   `yaml:"backend"`
	Endpoint       string   `yaml:"endpoint"`
	Token          string   `yaml:"token"`
	Cookie         string   `yaml:"cookie"`
	Debounce       string   `yaml:"debounce"`
	RequestTimeout string   `yaml:"requestTimeout"`
	AutosaveDelay  string   `yaml:"autosaveDelay"`
	LogLevel       string   `yaml:"logLevel"`
	ContextFiles   []string `yaml:"contextFiles"`
	OpenAI         struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`
}

// LoadFromFile loads configuration from a YAML file.
// Returns the configuration and any non-fatal errors encountered.
// If the file doesn't exist, returns default configuration with no error.
func (l *Loader) LoadFromFile(path string) (*LoadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			result := &LoadResult{Config: DefaultConfig(), Errors: []error{}}
			l.applyEnv(result.Config)
			return result, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.LoadFromString(string(content))
}

// LoadFromString loads configuration from YAML source.
// Parse errors are reported in LoadResult.Errors and defaults are kept.
func (l *Loader) LoadFromString(source string) (*LoadResult, error) {
	result := &LoadResult{
		Config: DefaultConfig(),
		Errors: []error{},
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(source), &fc); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("parse error: %w", err))
		l.applyEnv(result.Config)
		return result, nil
	}

	l.extractConfig(&fc, result)
	l.applyEnv(result.Config)

	return result, nil
}

func (l *Loader) extractConfig(fc *fileConfig, result *LoadResult) {
	cfg := result.Config

	switch strings.ToLower(fc.Backend) {
	case "":
	case BackendHTTP, BackendOpenAI:
		cfg.Backend = strings.ToLower(fc.Backend)
	default:
		result.Errors = append(result.Errors, fmt.Errorf("backend must be %q or %q, got %q", BackendHTTP, BackendOpenAI, fc.Backend))
	}

	if fc.Endpoint != "" {
		cfg.Endpoint = fc.Endpoint
	}
	if fc.Token != "" {
		cfg.Token = fc.Token
	}
	if fc.Cookie != "" {
		cfg.Cookie = fc.Cookie
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}

	l.extractDuration("debounce", fc.Debounce, &cfg.Debounce, result)
	l.extractDuration("requestTimeout", fc.RequestTimeout, &cfg.RequestTimeout, result)
	l.extractDuration("autosaveDelay", fc.AutosaveDelay, &cfg.AutosaveDelay, result)

	if fc.OpenAI.APIKey != "" {
		cfg.OpenAI.APIKey = fc.OpenAI.APIKey
	}
	if fc.OpenAI.Model != "" {
		cfg.OpenAI.Model = fc.OpenAI.Model
	}
	if fc.OpenAI.BaseURL != "" {
		cfg.OpenAI.BaseURL = fc.OpenAI.BaseURL
	}

	cfg.ContextFiles = append(cfg.ContextFiles, fc.ContextFiles...)
}

func (l *Loader) extractDuration(key, value string, target *time.Duration, result *LoadResult) {
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("%s must be a duration: %w", key, err))
		return
	}
	if d <= 0 {
		result.Errors = append(result.Errors, fmt.Errorf("%s must be positive, got %s", key, value))
		return
	}
	*target = d
}

// applyEnv overrides file values with environment variables.
func (l *Loader) applyEnv(cfg *Config) {
	if v := l.getenv("DRAFTLINE_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := l.getenv("DRAFTLINE_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := l.getenv("DRAFTLINE_COOKIE"); v != "" {
		cfg.Cookie = v
	}
	if v := l.getenv("DRAFTLINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := l.getenv("OPENAI_API_KEY"); v != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = v
	}
}
