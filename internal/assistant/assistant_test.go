package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"gc-portfolio/internal/channel"
	"gc-portfolio/internal/config"
	"gc-portfolio/internal/eventbus"
	"gc-portfolio/internal/llm"
	"gc-portfolio/internal/security"
)

type stubProvider struct {
	mu   sync.Mutex
	resp string
	err  error
	reqs []*llm.ChatRequest
}

func (p *stubProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.LLMResponse{Content: p.resp}, nil
}

func (p *stubProvider) Name() string         { return "stub" }
func (p *stubProvider) DefaultModel() string { return "stub-1" }

func defaultCfg() config.AssistantConfig {
	return config.Defaults().Assistant
}

func TestCannedReplies(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Help me BRAINSTORM a shoot", "creative shoot concepts"},
		{"any new idea?", "creative shoot concepts"},
		{"Write a treatment", "detailed shoot treatment"},
		{"what's the plan", "detailed shoot treatment"},
		{"lighting for portraits", "essential lighting setups"},
		{"studio setup", "essential lighting setups"},
		{"hello", "What would you like to work on today?"},
		// brainstorm wins over lighting because it is checked first
		{"creative lighting", "creative shoot concepts"},
	}
	for _, tt := range tests {
		if got := CannedReply(tt.message); !strings.Contains(got, tt.want) {
			t.Errorf("CannedReply(%q) = %q, want it to contain %q", tt.message, got, tt.want)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	if !strings.Contains(SystemPrompt(ContextPhotography), "photography assistant") {
		t.Fatal("expected photography prompt")
	}
	if SystemPrompt(ContextGeneral) != generalPrompt || SystemPrompt("other") != generalPrompt {
		t.Fatal("unknown contexts should use the general prompt")
	}
}

func TestReplyWithoutProvider(t *testing.T) {
	s := New(defaultCfg(), nil, nil, nil, nil)
	if got := s.Reply(context.Background(), "lighting?", ContextPhotography); !strings.Contains(got, "lighting setups") {
		t.Fatalf("expected canned lighting reply, got %q", got)
	}
}

func TestReplyUsesProvider(t *testing.T) {
	p := &stubProvider{resp: "Try a golden hour shoot."}
	s := New(defaultCfg(), p, nil, nil, nil)

	got := s.Reply(context.Background(), "Ideas for a beach shoot?", ContextPhotography)
	if got != "Try a golden hour shoot." {
		t.Fatalf("unexpected reply %q", got)
	}

	req := p.reqs[0]
	if req.SystemPrompt != photographyPrompt {
		t.Fatal("expected photography system prompt")
	}
	if req.MaxTokens != 500 || req.Temperature != 0.7 {
		t.Fatalf("unexpected sampling settings: %d %v", req.MaxTokens, req.Temperature)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("expected a single user message, got %+v", req.Messages)
	}
}

func TestReplyEmptyContextIsGeneral(t *testing.T) {
	p := &stubProvider{resp: "ok"}
	s := New(defaultCfg(), p, nil, nil, nil)
	s.Reply(context.Background(), "hi", "")
	if p.reqs[0].SystemPrompt != generalPrompt {
		t.Fatal("empty context should select the general prompt")
	}
}

func TestReplyFallsBackOnProviderError(t *testing.T) {
	p := &stubProvider{err: &llm.LLMError{Type: llm.ErrorServerError, Message: "down"}}
	bus := eventbus.New()
	var errs int
	bus.Subscribe(eventbus.TopicError, func(eventbus.Event) { errs++ })

	s := New(defaultCfg(), p, nil, nil, bus)
	got := s.Reply(context.Background(), "need a treatment", ContextPhotography)

	if !strings.Contains(got, "detailed shoot treatment") {
		t.Fatalf("expected canned treatment reply, got %q", got)
	}
	if errs != 1 {
		t.Fatalf("expected 1 error event, got %d", errs)
	}
}

func TestReplyRedactsPII(t *testing.T) {
	p := &stubProvider{resp: "I'll send the moodboard to [EMAIL_1]."}
	san := security.NewSanitizer(config.PIIFilterConfig{Enabled: true, FilterEmails: true})
	s := New(defaultCfg(), p, san, nil, nil)

	got := s.Reply(context.Background(), "Email me at ana@example.com", ContextPhotography)

	if strings.Contains(p.reqs[0].Messages[0].Content, "ana@example.com") {
		t.Fatal("provider saw the raw email")
	}
	if got != "I'll send the moodboard to ana@example.com." {
		t.Fatalf("placeholder was not restored: %q", got)
	}
}

type fakeChannel struct {
	mu      sync.Mutex
	handler func(channel.InboundMessage)
	sent    []channel.OutboundMessage
	sendErr error
}

func (c *fakeChannel) Name() string                             { return "fake" }
func (c *fakeChannel) Start(context.Context) error              { return nil }
func (c *fakeChannel) Stop(context.Context) error               { return nil }
func (c *fakeChannel) IsRunning() bool                          { return true }
func (c *fakeChannel) OnMessage(h func(channel.InboundMessage)) { c.handler = h }
func (c *fakeChannel) Send(_ context.Context, msg channel.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return c.sendErr
}

func TestStartRoutesChannelMessages(t *testing.T) {
	ch := &fakeChannel{}
	mgr := channel.NewManager()
	mgr.Register(ch)

	s := New(defaultCfg(), nil, nil, security.NewAuthorizer([]int64{7}), nil)
	s.Start(context.Background(), mgr)

	if ch.handler == nil {
		t.Fatal("expected handler to be installed")
	}

	ch.handler(channel.InboundMessage{ChannelName: "fake", SenderID: "7", ChatID: "c1", MessageID: "101", Text: "lighting tips"})
	ch.handler(channel.InboundMessage{ChannelName: "fake", SenderID: "8", ChatID: "c2", Text: "lighting tips"})
	ch.handler(channel.InboundMessage{ChannelName: "fake", SenderID: "7", ChatID: "c1", Text: "   "})

	if len(ch.sent) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(ch.sent))
	}
	if ch.sent[0].ChatID != "c1" || ch.sent[0].ReplyTo != "101" || !strings.Contains(ch.sent[0].Text, "lighting setups") {
		t.Fatalf("unexpected reply %+v", ch.sent[0])
	}
}

func TestHandleMessageSendError(t *testing.T) {
	ch := &fakeChannel{sendErr: errors.New("network down")}
	s := New(defaultCfg(), nil, nil, nil, nil)

	// The send error is logged, not propagated
	s.handleMessage(context.Background(), ch, channel.InboundMessage{ChannelName: "fake", ChatID: "c", Text: "hi"})
	if len(ch.sent) != 1 {
		t.Fatal("expected a send attempt")
	}
}

func TestConsoleBypassesAllowlist(t *testing.T) {
	ch := &fakeChannel{}
	s := New(defaultCfg(), nil, nil, security.NewAuthorizer([]int64{7}), nil)

	s.handleMessage(context.Background(), ch, channel.InboundMessage{ChannelName: "console", SenderID: "local", ChatID: "console", Text: "hi"})
	if len(ch.sent) != 1 {
		t.Fatalf("expected console input to be answered, got %d replies", len(ch.sent))
	}
}
