package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "api:\n  key: sk-test\n")

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Chat.Model != "gpt-3.5-turbo" || cfg.Chat.Temperature != 1 || cfg.Chat.TopP != 1 || cfg.Chat.N != 1 {
		t.Fatalf("chat defaults = %+v", cfg.Chat)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("log defaults = %+v", cfg.Log)
	}
	if cfg.Admin.Port != 8090 {
		t.Fatalf("admin port = %d", cfg.Admin.Port)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Fatalf("redis ttl = %v", cfg.Redis.TTL)
	}
	if !cfg.Runtime.Dev {
		t.Fatalf("dev flag not carried")
	}
}

func TestLoadConfig_RejectsUnknownModel(t *testing.T) {
	path := writeConfig(t, "chat:\n  model: no-such-model\n")
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatalf("unknown model accepted")
	}
}

func TestConfig_SettingsMapping(t *testing.T) {
	path := writeConfig(t, `
chat:
  model: gpt-4
  temperature: 0.5
  max_tokens: 256
  auto_title: true
  voice: nova
  speech_model: tts-1
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	s := cfg.Settings()
	if s.Model != "gpt-4" || s.Temperature != 0.5 || s.MaxTokens != 256 {
		t.Fatalf("sampling params = %+v", s.SamplingParams)
	}
	if !s.AutoTitle || s.Voice != "nova" || s.SpeechModel != "tts-1" {
		t.Fatalf("settings = %+v", s)
	}
}
