package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds server configuration.
type Config struct {
	Port          string         `mapstructure:"port"`
	PublicURL     string         `mapstructure:"public_url"`
	GMUser        string         `mapstructure:"gm_user"`
	GMPass        string         `mapstructure:"gm_pass"`
	SingleSession bool           `mapstructure:"single_session"`
	Content       ContentConfig  `mapstructure:"content"`
	Gameplay      GameplayConfig `mapstructure:"gameplay"`
	Export        ExportConfig   `mapstructure:"export"`
	AI            AIConfig       `mapstructure:"ai"`
}

// ContentConfig selects the question source.
type ContentConfig struct {
	Type    string `mapstructure:"type"`   // "file" or "ai"
	Source  string `mapstructure:"source"` // pool path for "file"; empty uses the embedded pool
	Shuffle bool   `mapstructure:"shuffle"`
	Seed    int64  `mapstructure:"seed"`
}

// GameplayConfig holds mode settings.
type GameplayConfig struct {
	MinPlayers int `mapstructure:"min_players"`
}

// ExportConfig controls the results file.
type ExportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

// AIConfig holds provider settings for generated question pools.
type AIConfig struct {
	Provider      string `mapstructure:"provider"`
	Model         string `mapstructure:"model"`
	SystemPrompt  string `mapstructure:"system_prompt"`
	OpenAIKey     string `mapstructure:"openai_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	OllamaHost    string `mapstructure:"ollama_host"`
	Count         int    `mapstructure:"count"`
}

// Load reads configuration from an optional TOML file and the environment.
// Env var overrides use prefix BLAMEWHEEL_; BLAMEWHEEL_CONFIG points at an
// explicit config file.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("public_url", "http://localhost:8080")
	v.SetDefault("gm_user", "")
	v.SetDefault("gm_pass", "")
	v.SetDefault("single_session", true)
	v.SetDefault("content.type", "file")
	v.SetDefault("content.source", "")
	v.SetDefault("content.shuffle", true)
	v.SetDefault("content.seed", 0)
	v.SetDefault("gameplay.min_players", 3)
	v.SetDefault("export.enabled", true)
	v.SetDefault("export.file", "./blamewheel-results.txt")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.system_prompt", "")
	v.SetDefault("ai.openai_key", os.Getenv("OPENAI_API_KEY"))
	v.SetDefault("ai.openai_base_url", "")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.count", 20)

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("BLAMEWHEEL_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("blamewheel")
	}

	v.SetEnvPrefix("BLAMEWHEEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	return c, nil
}
