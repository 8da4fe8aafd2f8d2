package config

// Config is the top-level application configuration.
type Config struct {
	Chat        ChatConfig      `json:"chat"`
	Assistant   AssistantConfig `json:"assistant"`
	LLM         LLMConfig       `json:"llm"`
	FallbackLLM *LLMConfig      `json:"fallback_llm,omitempty"`
	Server      ServerConfig    `json:"server"`
	Storage     StorageConfig   `json:"storage"`
	Channels    ChannelsConfig  `json:"channels"`
	Security    SecurityConfig  `json:"security"`
	Browser     BrowserConfig   `json:"browser"`
	Relay       RelayConfig     `json:"relay"`
}

// ChatConfig configures the client side chat manager.
type ChatConfig struct {
	Endpoint     string `json:"endpoint"`
	Transport    string `json:"transport"` // "http", "ws", or "local" (desktop only)
	Context      string `json:"context"`
	HistoryLimit int    `json:"history_limit"`
	TimeoutSecs  int    `json:"timeout_secs"`
	DownloadDir  string `json:"download_dir,omitempty"`
}

type AssistantConfig struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type LLMConfig struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	APIKey      string `json:"api_key,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	MaxRetries  int    `json:"max_retries"`
	TimeoutSecs int    `json:"timeout_secs"`
}

type ServerConfig struct {
	Addr           string `json:"addr"`
	ShutdownSecs   int    `json:"shutdown_secs"`
	AllowedOrigin  string `json:"allowed_origin"`
	ConsoleChannel bool   `json:"console_channel"`
}

type StorageConfig struct {
	Driver      string `json:"driver"` // "sqlite", "postgres" or "memory"
	Path        string `json:"path,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`
	Scope       string `json:"scope"`
}

type ChannelsConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type TelegramConfig struct {
	Token      string  `json:"token"`
	AllowedIDs []int64 `json:"allowed_ids,omitempty"`
}

type SecurityConfig struct {
	PIIFiltering PIIFilterConfig `json:"pii_filtering"`
}

type PIIFilterConfig struct {
	Enabled      bool `json:"enabled"`
	FilterEmails bool `json:"filter_emails"`
	FilterPhones bool `json:"filter_phones"`
	FilterCards  bool `json:"filter_cards"`
	FilterIPs    bool `json:"filter_ips"`
	FilterSSN    bool `json:"filter_ssn"`
}

type BrowserConfig struct {
	Headless       bool     `json:"headless"`
	ControlURL     string   `json:"control_url,omitempty"`
	TimeoutSecs    int      `json:"timeout_secs"`
	AllowedDomains []string `json:"allowed_domains,omitempty"`
	DeniedDomains  []string `json:"denied_domains,omitempty"`
}

// RelayConfig enables mirroring chat events to NATS.
type RelayConfig struct {
	Enabled       bool   `json:"enabled"`
	URL           string `json:"url"`
	SubjectPrefix string `json:"subject_prefix"`
	Token         string `json:"token,omitempty"`
}
