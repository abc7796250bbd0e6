package config

import "strings"

// Preset is a built-in provider default: base URL, wire format, and which
// environment variable holds the API key. Users name a provider in their
// config and the preset fills in everything else unless overridden.
type Preset struct {
	Name             string
	BaseURL          string
	Format           string // "openai" or "anthropic"
	DefaultAPIKeyEnv string
}

var presets = []Preset{
	{Name: "openai", BaseURL: "https://api.openai.com/v1", Format: "openai", DefaultAPIKeyEnv: "OPENAI_API_KEY"},
	{Name: "openrouter", BaseURL: "https://openrouter.ai/api/v1", Format: "openai", DefaultAPIKeyEnv: "OPENROUTER_API_KEY"},
	{Name: "fireworks", BaseURL: "https://api.fireworks.ai/inference/v1", Format: "openai", DefaultAPIKeyEnv: "FIREWORKS_API_KEY"},
	{Name: "grok", BaseURL: "https://api.x.ai/v1", Format: "openai", DefaultAPIKeyEnv: "XAI_API_KEY"},
	{Name: "together", BaseURL: "https://api.together.xyz/v1", Format: "openai", DefaultAPIKeyEnv: "TOGETHER_API_KEY"},
	{Name: "groq", BaseURL: "https://api.groq.com/openai/v1", Format: "openai", DefaultAPIKeyEnv: "GROQ_API_KEY"},
	{Name: "anthropic", BaseURL: "https://api.anthropic.com", Format: "anthropic", DefaultAPIKeyEnv: "ANTHROPIC_API_KEY"},
	{Name: "deepseek", BaseURL: "https://api.deepseek.com/v1", Format: "openai", DefaultAPIKeyEnv: "DEEPSEEK_API_KEY"},
}

// PresetByName looks up a built-in preset by name, case-insensitively.
func PresetByName(name string) (Preset, bool) {
	lower := strings.ToLower(name)
	for _, p := range presets {
		if p.Name == lower {
			return p, true
		}
	}
	return Preset{}, false
}

// AllPresets returns every built-in preset. EffectiveBaseURL's "known
// providers" error message lists the preset names itself and does not call
// this.
func AllPresets() []Preset {
	return presets
}
