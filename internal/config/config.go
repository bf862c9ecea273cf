package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"persona-chat-client/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
}

type ChatConfig struct {
	Model            string  `yaml:"model"`
	Temperature      float64 `yaml:"temperature"`
	TopP             float64 `yaml:"top_p"`
	N                int     `yaml:"n"`
	Stop             string  `yaml:"stop"`
	MaxTokens        int     `yaml:"max_tokens"` // 0 == unlimited
	PresencePenalty  float64 `yaml:"presence_penalty"`
	FrequencyPenalty float64 `yaml:"frequency_penalty"`
	LogitBias        string  `yaml:"logit_bias"`
	AutoTitle        bool    `yaml:"auto_title"`
	Voice            string  `yaml:"voice"`
	SpeechModel      string  `yaml:"speech_model"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables the chat archive
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type Config struct {
	Log   LogConfig   `yaml:"log"`
	API   APIConfig   `yaml:"api"`
	Chat  ChatConfig  `yaml:"chat"`
	Redis RedisConfig `yaml:"redis"`
	Admin AdminConfig `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gpt-3.5-turbo"
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 1
	}
	if cfg.Chat.TopP == 0 {
		cfg.Chat.TopP = 1
	}
	if cfg.Chat.N == 0 {
		cfg.Chat.N = 1
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8090
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if _, err := model.LookupModel(cfg.Chat.Model); err != nil {
		return nil, errors.New("chat.model is not a known model")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// Settings maps the chat section onto the runtime settings the
// orchestrator reads per submission.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		SamplingParams: model.SamplingParams{
			Model:            c.Chat.Model,
			Temperature:      c.Chat.Temperature,
			TopP:             c.Chat.TopP,
			N:                c.Chat.N,
			Stop:             c.Chat.Stop,
			MaxTokens:        c.Chat.MaxTokens,
			PresencePenalty:  c.Chat.PresencePenalty,
			FrequencyPenalty: c.Chat.FrequencyPenalty,
			LogitBias:        c.Chat.LogitBias,
		},
		AutoTitle:   c.Chat.AutoTitle,
		Voice:       c.Chat.Voice,
		SpeechModel: c.Chat.SpeechModel,
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
