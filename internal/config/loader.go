package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the configuration file.
const (
	EnvBaseURL  = "CTXREPLY_BASE_URL"
	EnvModel    = "CTXREPLY_MODEL"
	EnvCLI      = "CTXREPLY_CLI"
	EnvAPIKey   = "CTXREPLY_API_KEY"
	EnvLogLevel = "CTXREPLY_LOG_LEVEL"
	EnvHistory  = "CTXREPLY_HISTORY"
)

// Loader handles loading of the configuration file and environment overrides.
type Loader struct {
	logger    *zap.Logger
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a new configuration loader reading the process environment.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger:    logger,
		lookupEnv: os.LookupEnv,
	}
}

// LoadResult contains the result of loading a configuration.
type LoadResult struct {
	Config *Config
	// Errors holds non-fatal problems; the affected settings keep their defaults.
	Errors []error
}

// Load reads the YAML file at configPath and applies overrides from the
// .env file at envPath and from the process environment, in that order of
// increasing precedence. Missing files are not an error.
func (l *Loader) Load(configPath string, envPath string) (*LoadResult, error) {
	result, err := l.LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}

	fileEnv, err := readEnvFile(envPath)
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	l.applyEnv(result, func(key string) (string, bool) {
		if value, ok := l.lookupEnv(key); ok {
			return value, true
		}
		value, ok := fileEnv[key]
		return value, ok
	})

	return result, nil
}

// LoadFromFile loads configuration from a YAML file.
// If the file doesn't exist, returns default configuration with no error.
func (l *Loader) LoadFromFile(path string) (*LoadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("config file not found, using defaults", zap.String("path", path))
			return &LoadResult{Config: DefaultConfig(), Errors: []error{}}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.LoadFromString(string(content))
}

// LoadFromString decodes YAML over the defaults. A malformed document is
// reported in Errors and the defaults are kept.
func (l *Loader) LoadFromString(source string) (*LoadResult, error) {
	result := &LoadResult{
		Config: DefaultConfig(),
		Errors: []error{},
	}

	decoded := DefaultConfig()
	if err := yaml.Unmarshal([]byte(source), decoded); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("parse error: %w", err))
		return result, nil
	}
	result.Config = decoded

	return result, nil
}

func (l *Loader) applyEnv(result *LoadResult, lookup func(string) (string, bool)) {
	cfg := result.Config

	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		cfg.Server.BaseURL = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		cfg.Model.Name = v
	}
	if v, ok := lookup(EnvCLI); ok && v != "" {
		cfg.Server.CLI = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		cfg.Server.APIKey = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvHistory); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s must be a boolean, got %q", EnvHistory, v))
		} else {
			cfg.History.Enabled = enabled
		}
	}
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

// LoadValidated is Load followed by Validate. A validation failure is fatal;
// the non-fatal problems from Load are returned in the result.
func (l *Loader) LoadValidated(configPath string, envPath string) (*LoadResult, error) {
	result, err := l.Load(configPath, envPath)
	if err != nil {
		return nil, err
	}
	if err := result.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return result, nil
}
