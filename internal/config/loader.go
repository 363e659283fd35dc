package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Load loads config from the default path (~/.lockinbot/config.json).
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFromFile(filepath.Join(home, ".lockinbot", "config.json"))
}

// LoadFromFile loads config from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying defaults and env overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	expandDataDir(cfg)

	return cfg, nil
}

// applyEnvOverrides applies LOCKINBOT_-prefixed environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	envMap := map[string]*string{
		"LOCKINBOT_PROVIDERS_OPENAI_APIKEY":    &cfg.Providers.OpenAI.APIKey,
		"LOCKINBOT_PROVIDERS_ANTHROPIC_APIKEY": &cfg.Providers.Anthropic.APIKey,
		"LOCKINBOT_PROVIDERS_CUSTOM_APIKEY":    &cfg.Providers.Custom.APIKey,
		"LOCKINBOT_PROVIDERS_CUSTOM_BASEURL":   &cfg.Providers.Custom.BaseURL,
		"LOCKINBOT_EXTRACTION_MODEL":           &cfg.Extraction.Model,
		"LOCKINBOT_CHANNELS_DISCORD_TOKEN":     &cfg.Channels.Discord.Token,
		"LOCKINBOT_CHANNELS_TELEGRAM_TOKEN":    &cfg.Channels.Telegram.Token,
		"LOCKINBOT_CHANNELS_SLACK_BOTTOKEN":    &cfg.Channels.Slack.BotToken,
		"LOCKINBOT_CHANNELS_SLACK_APPTOKEN":    &cfg.Channels.Slack.AppToken,
		"LOCKINBOT_STORE_DATADIR":              &cfg.Store.DataDir,
	}

	for env, ptr := range envMap {
		if val := os.Getenv(env); val != "" {
			*ptr = val
		}
	}
}

// expandDataDir expands a leading ~ in the data directory path.
func expandDataDir(cfg *Config) {
	dir := cfg.Store.DataDir
	if len(dir) >= 2 && dir[0] == '~' && dir[1] == '/' {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Store.DataDir = filepath.Join(home, dir[2:])
		}
	}
}
