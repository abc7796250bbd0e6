package config

import "testing"

func TestPresetByName(t *testing.T) {
	if _, ok := PresetByName("openai"); !ok {
		t.Error("expected openai preset to exist")
	}
	if _, ok := PresetByName("fireworks"); !ok {
		t.Error("expected fireworks preset to exist")
	}
	if _, ok := PresetByName("OpenRouter"); !ok {
		t.Error("expected case-insensitive lookup to match openrouter")
	}
	if _, ok := PresetByName("unknown_provider"); ok {
		t.Error("expected unknown_provider to not match any preset")
	}
}

func TestPresetAnthropicFormat(t *testing.T) {
	preset, ok := PresetByName("anthropic")
	if !ok {
		t.Fatal("expected anthropic preset to exist")
	}
	if preset.Format != "anthropic" {
		t.Errorf("expected format anthropic, got %s", preset.Format)
	}
}

func TestAllOthersAreOpenAIFormat(t *testing.T) {
	for _, p := range AllPresets() {
		if p.Name == "anthropic" {
			continue
		}
		if p.Format != "openai" {
			t.Errorf("provider %s should be openai format, got %s", p.Name, p.Format)
		}
	}
}
