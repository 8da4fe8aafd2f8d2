package config

import (
	"os"
	"path/filepath"
)

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Chat: ChatConfig{
			Endpoint:     "http://localhost:8080/api/chat",
			Transport:    "http",
			Context:      "photography_shoot_planning",
			HistoryLimit: 50,
			DownloadDir:  defaultDownloadDir(),
		},
		Assistant: AssistantConfig{
			MaxTokens:   500,
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			MaxRetries:  3,
			TimeoutSecs: 60,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			ShutdownSecs:  10,
			AllowedOrigin: "*",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   filepath.Join(configRoot(), "chat.db"),
			Scope:  "default",
		},
		Security: SecurityConfig{
			PIIFiltering: PIIFilterConfig{
				Enabled:      true,
				FilterEmails: true,
				FilterPhones: true,
				FilterCards:  true,
				FilterIPs:    false,
				FilterSSN:    true,
			},
		},
		Channels: ChannelsConfig{},
		Browser: BrowserConfig{
			Headless:    false,
			TimeoutSecs: 30,
		},
		Relay: RelayConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "portfolio.chat",
		},
	}
}

func configRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDir
	}
	return filepath.Join(home, configDir)
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(home, "Downloads")
}
