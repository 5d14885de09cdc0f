// Package config provides configuration management for ctxreply.
// It handles defaults, the YAML configuration file, the optional .env file
// and CTXREPLY_* environment overrides.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/atinylittleshell/ctxreply/internal/hotkey"
)

// DefaultSystemPrompt is the instruction sent with every reply request.
const DefaultSystemPrompt = `You are a professional social media networking assistant.
You will be provided with a 'Original Post' (context) and a 'User Comment'.
Your goal is to write a reply to the comment that is relevant to the original post.

Guidelines:
- Keep replies concise (under 3 sentences).
- Use British spelling (e.g. 'analyse', 'colour', 'behaviour').
- Be friendly but professional.
- Address the specific point the commenter made.
- Do not output the context, just the reply.`

// Config holds all ctxreply configuration.
type Config struct {
	// LogLevel controls logging verbosity of the log file
	LogLevel string `yaml:"logLevel"`

	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Hotkeys HotkeyConfig  `yaml:"hotkeys"`
	Input   InputConfig   `yaml:"input"`
	History HistoryConfig `yaml:"history"`
}

// ServerConfig describes the local inference server and the CLI that manages it.
type ServerConfig struct {
	// BaseURL is the server root, without the /v1 suffix
	BaseURL string `yaml:"baseURL"`

	// APIKey is sent as a bearer token. LM Studio ignores it.
	APIKey string `yaml:"apiKey"`

	// CLI is the command used to control the server. It may carry leading
	// arguments and is split with shell word rules.
	CLI string `yaml:"cli"`

	// MinCLIVersion, when set, produces a warning if the CLI reports an older version
	MinCLIVersion string `yaml:"minCLIVersion"`

	AutoStart bool `yaml:"autoStart"`

	HealthTimeout     time.Duration `yaml:"healthTimeout"`
	DiscoveryTimeout  time.Duration `yaml:"discoveryTimeout"`
	StartupTimeout    time.Duration `yaml:"startupTimeout"`
	PollInterval      time.Duration `yaml:"pollInterval"`
	SettleDelay       time.Duration `yaml:"settleDelay"`
	CLIVersionTimeout time.Duration `yaml:"cliVersionTimeout"`
	PSTimeout         time.Duration `yaml:"psTimeout"`
	LoadTimeout       time.Duration `yaml:"loadTimeout"`
}

// ModelConfig holds the completion parameters.
type ModelConfig struct {
	// Name is the fallback model used when the server does not report a loaded one
	Name           string        `yaml:"name"`
	Temperature    float32       `yaml:"temperature"`
	MaxTokens      int           `yaml:"maxTokens"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	SystemPrompt   string        `yaml:"systemPrompt"`
}

// HotkeyConfig holds the global key combinations.
type HotkeyConfig struct {
	SaveContext   string `yaml:"saveContext"`
	GenerateReply string `yaml:"generateReply"`
	Quit          string `yaml:"quit"`
}

// InputConfig holds the minimum clipboard lengths, in characters, after trimming.
type InputConfig struct {
	MinContextLength int `yaml:"minContextLength"`
	MinCommentLength int `yaml:"minCommentLength"`
}

type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			BaseURL:           "http://localhost:1234",
			APIKey:            "lm-studio",
			CLI:               "lms",
			AutoStart:         true,
			HealthTimeout:     2 * time.Second,
			DiscoveryTimeout:  5 * time.Second,
			StartupTimeout:    30 * time.Second,
			PollInterval:      time.Second,
			SettleDelay:       2 * time.Second,
			CLIVersionTimeout: 5 * time.Second,
			PSTimeout:         10 * time.Second,
			LoadTimeout:       30 * time.Second,
		},
		Model: ModelConfig{
			Name:           "meta-llama-3.1-8b-instruct",
			Temperature:    0.7,
			MaxTokens:      150,
			RequestTimeout: 120 * time.Second,
			SystemPrompt:   DefaultSystemPrompt,
		},
		Hotkeys: HotkeyConfig{
			SaveContext:   "ctrl+alt+c",
			GenerateReply: "ctrl+alt+r",
			Quit:          "esc",
		},
		Input: InputConfig{
			MinContextLength: 5,
			MinCommentLength: 2,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid server.baseURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server.baseURL %q: scheme must be http or https", c.Server.BaseURL)
	}
	if c.Server.CLI == "" {
		return fmt.Errorf("server.cli must not be empty")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name must not be empty")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("model.maxTokens must be positive, got %d", c.Model.MaxTokens)
	}
	if c.Input.MinContextLength < 0 || c.Input.MinCommentLength < 0 {
		return fmt.Errorf("input lengths must not be negative")
	}

	combos := map[string]string{
		"hotkeys.saveContext":   c.Hotkeys.SaveContext,
		"hotkeys.generateReply": c.Hotkeys.GenerateReply,
		"hotkeys.quit":          c.Hotkeys.Quit,
	}
	seen := make(map[string]string)
	for name, value := range combos {
		combo, err := hotkey.ParseCombo(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if other, ok := seen[combo.String()]; ok {
			return fmt.Errorf("%s and %s use the same combination %q", name, other, combo.String())
		}
		seen[combo.String()] = name
	}

	return nil
}

// SaveCombo returns the parsed save-context combination. Call Validate first.
func (c *Config) SaveCombo() hotkey.Combo {
	return hotkey.MustParseCombo(c.Hotkeys.SaveContext)
}

// ReplyCombo returns the parsed generate-reply combination. Call Validate first.
func (c *Config) ReplyCombo() hotkey.Combo {
	return hotkey.MustParseCombo(c.Hotkeys.GenerateReply)
}

// QuitCombo returns the parsed quit combination. Call Validate first.
func (c *Config) QuitCombo() hotkey.Combo {
	return hotkey.MustParseCombo(c.Hotkeys.Quit)
}
