// Package config loads the proxy's TOML configuration: which provider to
// forward to, how to authenticate with it, model-name remapping, and which
// Anthropic-only request parameters to drop before forwarding.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/outpostai/claudeproxy/internal/apperror"
)

// defaultDropParams lists request fields Claude Code sends that most OpenAI-
// compatible providers reject outright if present.
var defaultDropParams = []string{
	"betas",
	"anthropic_beta",
	"anthropic-beta",
	"context_management",
	"reasoning_effort",
}

// Config is the root of the proxy's configuration file.
type Config struct {
	Port     int            `toml:"port"`
	Provider ProviderConfig `toml:"provider"`
	Models   map[string]string `toml:"models"`
	Params   ParamsConfig   `toml:"params"`
}

// ProviderConfig names which upstream to forward to and how to reach it.
type ProviderConfig struct {
	Name      string  `toml:"name"`
	BaseURL   *string `toml:"base_url"`
	APIKeyEnv string  `toml:"api_key_env"`
	Format    *string `toml:"format"`
}

// ParamsConfig controls request-body sanitization before forwarding.
type ParamsConfig struct {
	Drop []string `toml:"drop"`
}

const defaultPort = 4222

// Load reads and parses a TOML config file at path, filling in defaults for
// any field the file omits.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.Configuration("failed to read config file %s: %v", path, err)
	}

	cfg := &Config{
		Port: defaultPort,
		Provider: ProviderConfig{
			APIKeyEnv: "API_KEY",
		},
		Params: ParamsConfig{Drop: append([]string(nil), defaultDropParams...)},
	}

	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, apperror.Configuration("failed to parse config file %s: %v", path, err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = "API_KEY"
	}
	if cfg.Params.Drop == nil {
		cfg.Params.Drop = append([]string(nil), defaultDropParams...)
	}
	if cfg.Models == nil {
		cfg.Models = map[string]string{}
	}

	return cfg, nil
}

// FindAndLoad loads the config at explicitPath if given, otherwise searches
// the standard search paths in priority order and loads the first one found.
func FindAndLoad(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	candidates := SearchPaths()
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		}
	}

	return nil, apperror.Configuration(
		"no config file found. Searched: %s. Create one from config.example.toml",
		strings.Join(candidates, ", "),
	)
}

// SearchPaths returns the locations FindAndLoad checks, in priority order:
// the current directory, the platform's XDG/Application Support config dir,
// then a dotfile in the home directory.
func SearchPaths() []string {
	var paths []string

	paths = append(paths, "claude-proxy.toml")

	home, hasHome := os.LookupEnv("HOME")

	if runtime.GOOS == "darwin" {
		if hasHome {
			paths = append(paths, filepath.Join(home, "Library", "Application Support", "claude-proxy", "config.toml"))
		}
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			paths = append(paths, filepath.Join(xdg, "claude-proxy", "config.toml"))
		}
		if hasHome {
			paths = append(paths, filepath.Join(home, ".config", "claude-proxy", "config.toml"))
		}
	}

	if hasHome {
		paths = append(paths, filepath.Join(home, ".claude-proxy.toml"))
	}

	return paths
}

// EffectiveBaseURL resolves the base URL to forward requests to: an explicit
// override in the config, or the matching built-in preset's default.
func (c *Config) EffectiveBaseURL() (string, error) {
	if c.Provider.BaseURL != nil && *c.Provider.BaseURL != "" {
		return *c.Provider.BaseURL, nil
	}

	preset, ok := PresetByName(c.Provider.Name)
	if !ok {
		return "", apperror.Configuration(
			"unknown provider '%s' and no base_url configured. Known providers: openai, openrouter, fireworks, grok, together, groq, anthropic, deepseek",
			c.Provider.Name,
		)
	}
	return preset.BaseURL, nil
}

// ResolveAPIKey reads the API key from the configured environment variable.
func (c *Config) ResolveAPIKey() (string, error) {
	key, ok := os.LookupEnv(c.Provider.APIKeyEnv)
	if !ok || key == "" {
		return "", apperror.Configuration(
			"environment variable '%s' not set. Set it with your provider API key", c.Provider.APIKeyEnv,
		)
	}
	return key, nil
}

// IsAnthropicFormat reports whether the configured provider natively speaks
// the Anthropic wire format, in which case requests are forwarded in
// passthrough mode instead of being translated.
func (c *Config) IsAnthropicFormat() bool {
	if c.Provider.Format != nil {
		return *c.Provider.Format == "anthropic"
	}
	preset, ok := PresetByName(c.Provider.Name)
	if !ok {
		return false
	}
	return preset.Format == "anthropic"
}
