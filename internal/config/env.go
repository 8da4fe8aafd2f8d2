package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides cfg with PORTFOLIO_* variables and the usual provider
// key variables. Unset variables leave the file value alone.
func ApplyEnv(cfg *Config) {
	setString(&cfg.Chat.Endpoint, "PORTFOLIO_CHAT_ENDPOINT")
	setString(&cfg.Chat.Transport, "PORTFOLIO_CHAT_TRANSPORT")
	setString(&cfg.Chat.Context, "PORTFOLIO_CHAT_CONTEXT")
	setInt(&cfg.Chat.TimeoutSecs, "PORTFOLIO_CHAT_TIMEOUT_SECS")

	setString(&cfg.Server.Addr, "PORTFOLIO_ADDR")
	setString(&cfg.Server.AllowedOrigin, "PORTFOLIO_ALLOWED_ORIGIN")

	setString(&cfg.Storage.Driver, "PORTFOLIO_STORAGE_DRIVER")
	setString(&cfg.Storage.Path, "PORTFOLIO_STORAGE_PATH")
	setString(&cfg.Storage.Scope, "PORTFOLIO_STORAGE_SCOPE")
	setString(&cfg.Storage.DatabaseURL, "DATABASE_URL")

	setString(&cfg.LLM.Provider, "PORTFOLIO_LLM_PROVIDER")
	setString(&cfg.LLM.Model, "PORTFOLIO_LLM_MODEL")
	setString(&cfg.LLM.BaseURL, "PORTFOLIO_LLM_BASE_URL")
	switch cfg.LLM.Provider {
	case "anthropic":
		setString(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
	default:
		setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		if cfg.Channels.Telegram == nil {
			cfg.Channels.Telegram = &TelegramConfig{}
		}
		cfg.Channels.Telegram.Token = v
	}

	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.Relay.URL = v
		cfg.Relay.Enabled = true
	}
	setString(&cfg.Relay.Token, "NATS_TOKEN")
	setBool(&cfg.Browser.Headless, "PORTFOLIO_BROWSER_HEADLESS")
	setString(&cfg.Browser.ControlURL, "PORTFOLIO_BROWSER_CONTROL_URL")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
