package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"runtime"
	"sync"
	"time"

	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"gc-portfolio/internal/assistant"
	"gc-portfolio/internal/chat"
	"gc-portfolio/internal/config"
	"gc-portfolio/internal/eventbus"
	"gc-portfolio/internal/llm"
	"gc-portfolio/internal/security"
	"gc-portfolio/internal/storage"
	"gc-portfolio/internal/transport"
)

const keyringPlaceholder = "[keyring]"

// transportLocal answers in-process instead of calling a backend.
const transportLocal = "local"

// Frontend event names.
const (
	eventChatOpen    = "chat:open"
	eventChatMessage = "chat:message"
	eventChatTyping  = "chat:typing"
	eventChatReset   = "chat:reset"
	eventChatInput   = "chat:input"
)

// App struct holds the application state and exposes methods to the frontend.
type App struct {
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex // protects cfg, chat and closeTransport
	cfg       *config.Config
	cfgLoader *config.Loader
	bus       *eventbus.Bus
	keyStore  *security.KeyStore
	store     storage.Store
	chat      *chat.Manager

	closeTransport func() error

	logsMu sync.Mutex // protects logs
	logs   []LogEntry
}

// LogEntry is a log line exposed to the frontend.
type LogEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// NewApp creates a new App application struct.
func NewApp() *App {
	return &App{
		bus: eventbus.New(),
	}
}

// startup is called when the Wails app starts.
func (a *App) startup(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.ctx = ctx
	a.cancel = cancel

	a.bus.Subscribe(eventbus.TopicError, func(e eventbus.Event) {
		a.addLog("error", e.Payload)
	})
	a.bus.Subscribe(eventbus.TopicTransportFailed, func(e eventbus.Event) {
		a.addLog("warn", e.Payload)
	})
	a.bus.Subscribe(eventbus.TopicStatusChange, func(e eventbus.Event) {
		a.addLog("info", e.Payload)
	})

	loader, err := config.NewLoader()
	if err != nil {
		log.Printf("failed to create config loader: %v", err)
		return
	}
	a.cfgLoader = loader

	cfg, err := loader.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		cfg = config.Defaults()
	}
	config.ApplyEnv(cfg)
	a.cfg = cfg

	ks, err := security.NewKeyStore("")
	if err != nil {
		log.Printf("warning: failed to create key store: %v (secrets will stay in config file)", err)
	}
	a.keyStore = ks
	a.resolveSecrets()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Printf("failed to open chat storage: %v", err)
		return
	}
	a.store = store

	a.mu.Lock()
	err = a.initChat()
	a.mu.Unlock()
	if err != nil {
		log.Printf("failed to initialize chat: %v", err)
	}
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closeTransport != nil {
		a.closeTransport()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// initChat (re)builds the chat manager from a.cfg. Callers hold a.mu.
func (a *App) initChat() error {
	if a.store == nil {
		return fmt.Errorf("chat storage is not available")
	}

	tr, closer, err := a.newTransport()
	if err != nil {
		return err
	}
	if a.closeTransport != nil {
		a.closeTransport()
	}
	a.closeTransport = closer

	sink := &eventSink{emit: func(name string, data ...interface{}) {
		wruntime.EventsEmit(a.ctx, name, data...)
	}}
	a.chat = chat.NewManager(a.store, tr, sink,
		chat.WithBus(a.bus),
		chat.WithContext(a.cfg.Chat.Context),
		chat.WithHistoryLimit(a.cfg.Chat.HistoryLimit),
	)
	a.chat.Initialize(a.ctx)
	a.bus.Publish(eventbus.TopicStatusChange, "chat ready ("+a.transportName()+")")
	return nil
}

func (a *App) transportName() string {
	if a.cfg.Chat.Transport == transportLocal {
		return transportLocal
	}
	return a.cfg.Chat.Endpoint
}

func (a *App) newTransport() (chat.Transport, func() error, error) {
	if a.cfg.Chat.Transport != transportLocal {
		return transport.New(a.cfg.Chat)
	}

	provider, err := llm.NewFromConfig(a.cfg.LLM, a.cfg.FallbackLLM)
	if err != nil {
		return nil, nil, fmt.Errorf("create LLM provider: %w", err)
	}
	svc := assistant.New(a.cfg.Assistant, provider, security.NewSanitizer(a.cfg.Security.PIIFiltering), nil, a.bus)
	return localTransport{svc: svc}, func() error { return nil }, nil
}

// resolveSecrets loads secrets from Keychain into in-memory config.
// On first run, migrates plaintext secrets from config.json to Keychain.
func (a *App) resolveSecrets() {
	if a.keyStore == nil {
		return
	}

	migrated := a.cfg.LLM.APIKey != "" && a.cfg.LLM.APIKey != keyringPlaceholder
	if a.cfg.LLM.APIKey == keyringPlaceholder {
		a.cfg.LLM.APIKey = ""
	}
	if tg := a.cfg.Channels.Telegram; tg != nil {
		if tg.Token == keyringPlaceholder {
			tg.Token = ""
		} else if tg.Token != "" {
			migrated = true
		}
	}
	a.keyStore.ResolveSecrets(a.cfg)

	// Rewrite config.json with placeholders instead of real keys
	if migrated {
		if err := a.saveConfig(); err != nil {
			log.Printf("warning: failed to save config after secret migration: %v", err)
		} else {
			log.Println("Migrated secrets to secure storage")
		}
	}
}

// saveConfig writes config to disk with secrets replaced by [keyring] placeholders.
// In-memory a.cfg always retains real keys; only the file gets placeholders.
func (a *App) saveConfig() error {
	if a.cfgLoader == nil {
		return fmt.Errorf("config loader not initialized")
	}
	if a.keyStore == nil {
		return a.cfgLoader.Save(a.cfg)
	}

	cfgForDisk := *a.cfg
	if a.cfg.LLM.APIKey != "" {
		if err := a.keyStore.Set(security.SecretLLMKey, a.cfg.LLM.APIKey); err != nil {
			log.Printf("warning: failed to store LLM key securely: %v", err)
			return a.cfgLoader.Save(a.cfg)
		}
		cfgForDisk.LLM.APIKey = keyringPlaceholder
	}
	if tg := a.cfg.Channels.Telegram; tg != nil && tg.Token != "" {
		if err := a.keyStore.Set(security.SecretTelegramToken, tg.Token); err != nil {
			log.Printf("warning: failed to store Telegram token securely: %v", err)
			return a.cfgLoader.Save(a.cfg)
		}
		tgCopy := *tg
		tgCopy.Token = keyringPlaceholder
		cfgForDisk.Channels.Telegram = &tgCopy
	}

	return a.cfgLoader.Save(&cfgForDisk)
}

func (a *App) addLog(level string, payload any) {
	entry := LogEntry{
		Level: level,
		Time:  time.Now().Format(time.RFC3339),
	}
	switch v := payload.(type) {
	case string:
		entry.Message = v
	case error:
		entry.Message = v.Error()
	default:
		entry.Message = fmt.Sprint(v)
	}
	a.logsMu.Lock()
	a.logs = append(a.logs, entry)
	if len(a.logs) > 1000 {
		a.logs = a.logs[len(a.logs)-500:]
	}
	a.logsMu.Unlock()
}

func (a *App) manager() (*chat.Manager, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.chat == nil {
		return nil, fmt.Errorf("chat is not initialized")
	}
	return a.chat, nil
}

// --- Wails Bindings (exposed to frontend) ---

// GetState returns the open flag and the saved conversation.
func (a *App) GetState() chat.Session {
	m, err := a.manager()
	if err != nil {
		return chat.Session{}
	}
	return m.State()
}

// ToggleChat opens or closes the chat window.
func (a *App) ToggleChat() error {
	m, err := a.manager()
	if err != nil {
		return err
	}
	return m.Toggle(a.ctx)
}

// SendMessage sends text to the assistant and returns the reply shown.
func (a *App) SendMessage(text string) string {
	m, err := a.manager()
	if err != nil {
		return err.Error()
	}
	return m.SendUserMessage(a.ctx, text).Reply.Text
}

// SendQuickMessage sends one of the widget's preset prompts.
func (a *App) SendQuickMessage(text string) string {
	m, err := a.manager()
	if err != nil {
		return err.Error()
	}
	return m.SendPresetMessage(a.ctx, text).Reply.Text
}

// ClearHistory forgets the conversation.
func (a *App) ClearHistory() error {
	m, err := a.manager()
	if err != nil {
		return err
	}
	return m.ClearHistory(a.ctx)
}

// GetConfig returns the current config (with masked API keys).
func (a *App) GetConfig() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cfg == nil {
		return nil
	}
	return map[string]any{
		"chat_endpoint":  a.cfg.Chat.Endpoint,
		"chat_transport": a.cfg.Chat.Transport,
		"chat_context":   a.cfg.Chat.Context,
		"provider":       a.cfg.LLM.Provider,
		"model":          a.cfg.LLM.Model,
		"api_key_masked": security.MaskKey(a.cfg.LLM.APIKey),
		"base_url":       a.cfg.LLM.BaseURL,
		"pii_filtering":  a.cfg.Security.PIIFiltering.Enabled,
		"storage_driver": a.cfg.Storage.Driver,
	}
}

// SaveChatConfig points the widget at a backend ("http", "ws") or at the
// in-process assistant ("local") and rebuilds the chat.
func (a *App) SaveChatConfig(endpoint, transportKind string) error {
	if transportKind != transportLocal {
		if err := validateEndpoint(endpoint); err != nil {
			return err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cfg == nil {
		return fmt.Errorf("config not loaded")
	}
	a.cfg.Chat.Endpoint = endpoint
	a.cfg.Chat.Transport = transportKind
	if err := a.saveConfig(); err != nil {
		return err
	}
	return a.initChat()
}

// SaveLLMConfig saves the provider used by the in-process assistant. An empty
// apiKey keeps the stored one.
func (a *App) SaveLLMConfig(provider, apiKey, model, baseURL string) error {
	if baseURL != "" {
		if err := validateEndpoint(baseURL); err != nil {
			return err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cfg == nil {
		return fmt.Errorf("config not loaded")
	}
	a.cfg.LLM.Provider = provider
	if apiKey != "" {
		a.cfg.LLM.APIKey = apiKey
	}
	if model != "" {
		a.cfg.LLM.Model = model
	}
	a.cfg.LLM.BaseURL = baseURL
	if err := a.saveConfig(); err != nil {
		return err
	}
	if a.cfg.Chat.Transport == transportLocal {
		return a.initChat()
	}
	return nil
}

// TestLLMConnection sends a one-line prompt with the given settings. An empty
// apiKey tests the stored one.
func (a *App) TestLLMConnection(provider, apiKey, model, baseURL string) string {
	if apiKey == "" {
		a.mu.RLock()
		if a.cfg != nil {
			apiKey = a.cfg.LLM.APIKey
		}
		a.mu.RUnlock()
	}
	if baseURL != "" {
		if err := validateEndpoint(baseURL); err != nil {
			return "Error: " + err.Error()
		}
	}
	p, err := llm.NewProvider(config.LLMConfig{
		Provider:    provider,
		APIKey:      apiKey,
		Model:       model,
		BaseURL:     baseURL,
		TimeoutSecs: 20,
	})
	if err != nil {
		return "Error: " + err.Error()
	}

	ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
	defer cancel()
	_, err = p.Chat(ctx, &llm.ChatRequest{
		Messages:  []llm.Message{{Role: "user", Content: "ping"}},
		MaxTokens: 5,
	})
	if err != nil {
		return "Connection failed: " + err.Error()
	}
	return "OK"
}

// GetLogs returns recent log entries.
func (a *App) GetLogs() []LogEntry {
	a.logsMu.Lock()
	copied := make([]LogEntry, len(a.logs))
	copy(copied, a.logs)
	a.logsMu.Unlock()
	return copied
}

// GetMemStats returns current memory usage statistics.
func (a *App) GetMemStats() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return map[string]any{
		"alloc_mb":     float64(m.Alloc) / 1024 / 1024,
		"sys_mb":       float64(m.Sys) / 1024 / 1024,
		"heap_objects": m.HeapObjects,
		"goroutines":   runtime.NumGoroutine(),
		"gc_cycles":    m.NumGC,
	}
}

// eventSink forwards render commands to the frontend as events.
type eventSink struct {
	emit func(name string, data ...interface{})
}

var _ chat.Sink = (*eventSink)(nil)

func (s *eventSink) SetOpen(open bool) error {
	s.emit(eventChatOpen, open)
	return nil
}

func (s *eventSink) AppendMessage(msg chat.Message) error {
	s.emit(eventChatMessage, msg)
	return nil
}

func (s *eventSink) ShowTyping() error {
	s.emit(eventChatTyping, true)
	return nil
}

func (s *eventSink) RemoveTyping() error {
	s.emit(eventChatTyping, false)
	return nil
}

func (s *eventSink) Reset() error {
	s.emit(eventChatReset)
	return nil
}

func (s *eventSink) SetInput(text string) error {
	s.emit(eventChatInput, text)
	return nil
}

// localTransport answers through an in-process assistant.
type localTransport struct {
	svc *assistant.Service
}

func (t localTransport) SendChatRequest(ctx context.Context, req chat.Request) (string, error) {
	return t.svc.Reply(ctx, req.Message, req.Context), nil
}

// validateEndpoint checks that a URL is valid and uses an http or ws scheme.
func validateEndpoint(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("URL must use http(s) or ws(s) scheme, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
