package assistant

import (
	"context"
	"log"
	"strings"

	"gc-portfolio/internal/channel"
	"gc-portfolio/internal/config"
	"gc-portfolio/internal/eventbus"
	"gc-portfolio/internal/llm"
	"gc-portfolio/internal/security"
)

// Service answers chat messages for the portfolio widget and for messaging
// channels. It never returns an error to its caller: provider failures are
// answered with a canned reply.
type Service struct {
	cfg       config.AssistantConfig
	provider  llm.Provider
	sanitizer *security.Sanitizer
	auth      *security.Authorizer
	bus       *eventbus.Bus
}

// New creates a Service. provider may be nil, in which case every reply is
// canned. sanitizer, auth and bus are optional.
func New(
	cfg config.AssistantConfig,
	provider llm.Provider,
	sanitizer *security.Sanitizer,
	auth *security.Authorizer,
	bus *eventbus.Bus,
) *Service {
	return &Service{
		cfg:       cfg,
		provider:  provider,
		sanitizer: sanitizer,
		auth:      auth,
		bus:       bus,
	}
}

// Reply answers message within the given conversation context.
func (s *Service) Reply(ctx context.Context, message, contextTag string) string {
	if contextTag == "" {
		contextTag = ContextGeneral
	}
	if s.provider == nil {
		return s.finish(contextTag, CannedReply(message))
	}

	text, redaction := s.sanitizer.Sanitize(message)
	if redaction.Len() > 0 {
		log.Printf("[assistant] redacted %d values before calling %s", redaction.Len(), s.provider.Name())
	}

	req := &llm.ChatRequest{
		Messages:     []llm.Message{{Role: "user", Content: text}},
		SystemPrompt: SystemPrompt(contextTag),
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
	}
	s.bus.Publish(eventbus.TopicLLMRequest, contextTag)

	resp, err := s.provider.Chat(ctx, req)
	if err != nil {
		log.Printf("[assistant] %s failed, using canned reply: %v", s.provider.Name(), err)
		s.bus.Publish(eventbus.TopicError, err)
		return s.finish(contextTag, CannedReply(message))
	}

	s.bus.Publish(eventbus.TopicLLMResponse, resp.Usage)
	return s.finish(contextTag, redaction.Restore(resp.Content))
}

func (s *Service) finish(contextTag, reply string) string {
	s.bus.Publish(eventbus.TopicAssistantReply, contextTag)
	return reply
}

// Start routes inbound messages from every running channel in mgr to the
// assistant and sends the replies back on the same channel.
func (s *Service) Start(ctx context.Context, mgr *channel.Manager) {
	for name, running := range mgr.List() {
		if !running {
			continue
		}
		ch, ok := mgr.Get(name)
		if !ok {
			continue
		}
		ch.OnMessage(func(msg channel.InboundMessage) {
			s.handleMessage(ctx, ch, msg)
		})
	}

	log.Println("[assistant] listening on channels")
}

func (s *Service) handleMessage(ctx context.Context, ch channel.Channel, msg channel.InboundMessage) {
	// Local console input is trusted.
	if s.auth != nil && msg.ChannelName != "console" && !s.auth.Admit(msg.SenderID) {
		log.Printf("[assistant] rejected message from %s on %s", msg.SenderID, msg.ChannelName)
		return
	}
	log.Printf("[assistant] message from %s (%s): %s", msg.SenderName, msg.ChannelName, truncate(msg.Text, 100))

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	out := channel.OutboundMessage{
		ChatID:  msg.ChatID,
		Text:    s.Reply(ctx, text, ContextPhotography),
		ReplyTo: msg.MessageID,
	}
	if err := ch.Send(ctx, out); err != nil {
		log.Printf("[assistant] error sending reply on %s: %v", msg.ChannelName, err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
