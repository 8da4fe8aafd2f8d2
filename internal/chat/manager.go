package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gc-portfolio/internal/eventbus"
)

// Manager owns chat visibility and history for one mounted view. It mediates
// between user input, the assistant transport and the presentation sink, and
// keeps the session in the store so it survives a reload.
type Manager struct {
	mu      sync.Mutex
	open    bool
	history []Message

	store      Store
	transport  Transport
	sink       Sink
	bus        *eventbus.Bus
	contextTag string
	limit      int
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithBus publishes chat events to bus.
func WithBus(bus *eventbus.Bus) Option {
	return func(m *Manager) { m.bus = bus }
}

// WithContext overrides the context tag sent with every request.
func WithContext(tag string) Option {
	return func(m *Manager) {
		if tag != "" {
			m.contextTag = tag
		}
	}
}

// WithHistoryLimit lowers the number of retained messages. Values outside
// 1..MaxHistory are ignored.
func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 && n <= MaxHistory {
			m.limit = n
		}
	}
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager. Call Initialize before use.
func NewManager(store Store, transport Transport, sink Sink, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		transport:  transport,
		sink:       sink,
		contextTag: DefaultContext,
		limit:      MaxHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize restores the persisted session and renders it. It never fails:
// unreadable state is treated as a fresh closed session.
func (m *Manager) Initialize(ctx context.Context) {
	s := loadSession(ctx, m.store, m.limit)

	m.mu.Lock()
	m.open = false
	m.history = s.History
	m.mu.Unlock()

	if s.IsOpen {
		if err := m.Toggle(ctx); err != nil {
			log.Printf("[chat] failed to persist restored open state: %v", err)
		}
	}

	m.renderHistory()
	m.bus.Publish(eventbus.TopicHistoryRestored, len(s.History))
}

// Toggle flips the window between open and closed and persists the new value
// before returning. The returned error only reports the persistence write.
func (m *Manager) Toggle(ctx context.Context) error {
	m.mu.Lock()
	m.open = !m.open
	open := m.open
	m.mu.Unlock()

	m.render("set open", m.sink.SetOpen(open))
	m.bus.Publish(eventbus.TopicChatToggled, open)

	if err := m.store.Set(ctx, KeyOpen, encodeOpen(open)); err != nil {
		return fmt.Errorf("save %s: %w", KeyOpen, err)
	}
	return nil
}

// SendUserMessage appends text as a user message, asks the assistant and
// appends its reply. Transport failures are answered with FallbackReply and
// reported through the result, never returned to the caller.
func (m *Manager) SendUserMessage(ctx context.Context, text string) SendResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return SendResult{Skipped: true}
	}

	m.appendMessage(ctx, text, SenderUser)
	m.render("clear input", m.sink.SetInput(""))
	m.render("show typing", m.sink.ShowTyping())

	reply, err := m.transport.SendChatRequest(ctx, Request{Message: text, Context: m.contextTag})

	m.render("remove typing", m.sink.RemoveTyping())
	if err != nil {
		log.Printf("[chat] assistant request failed: %v", err)
		m.bus.Publish(eventbus.TopicTransportFailed, err)
		msg := m.appendMessage(ctx, FallbackReply, SenderAssistant)
		return SendResult{Reply: msg, Err: err}
	}

	msg := m.appendMessage(ctx, reply, SenderAssistant)
	return SendResult{Reply: msg}
}

// SendPresetMessage fills the input box with text and sends it.
func (m *Manager) SendPresetMessage(ctx context.Context, text string) SendResult {
	m.render("set input", m.sink.SetInput(text))
	return m.SendUserMessage(ctx, text)
}

// ClearHistory empties the history, drops it from the store and resets the
// sink to the static greeting.
func (m *Manager) ClearHistory(ctx context.Context) error {
	m.mu.Lock()
	m.history = nil
	m.mu.Unlock()

	m.render("reset", m.sink.Reset())
	m.bus.Publish(eventbus.TopicHistoryCleared, nil)

	if err := m.store.Remove(ctx, KeyHistory); err != nil {
		return fmt.Errorf("remove %s: %w", KeyHistory, err)
	}
	return nil
}

// State returns a copy of the current session.
func (m *Manager) State() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := make([]Message, len(m.history))
	copy(history, m.history)
	return Session{IsOpen: m.open, History: history}
}

// appendMessage records, renders and persists one message.
func (m *Manager) appendMessage(ctx context.Context, text string, sender Sender) Message {
	msg := Message{
		Text:      text,
		Sender:    sender,
		Timestamp: m.now().UnixMilli(),
	}

	m.render("append message", m.sink.AppendMessage(msg))

	m.mu.Lock()
	m.history = bound(append(m.history, msg), m.limit)
	encoded, err := encodeHistory(m.history)
	m.mu.Unlock()

	m.bus.Publish(eventbus.TopicMessageAppended, msg)

	if err != nil {
		log.Printf("[chat] failed to encode history: %v", err)
		return msg
	}
	if err := m.store.Set(ctx, KeyHistory, encoded); err != nil {
		log.Printf("[chat] failed to save history: %v", err)
	}
	return msg
}

func (m *Manager) renderHistory() {
	m.render("reset", m.sink.Reset())
	for _, msg := range m.State().History {
		m.render("restore message", m.sink.AppendMessage(msg))
	}
}

func (m *Manager) render(op string, err error) {
	if err != nil {
		log.Printf("[chat] %s: %v", op, err)
	}
}
