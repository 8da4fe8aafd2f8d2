package channel

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tele "gopkg.in/telebot.v3"
)

// telegramLimit is the Bot API message size cap, minus headroom.
const telegramLimit = 4000

const telegramGreeting = "Hi! I'm the studio's shoot-planning assistant. " +
	"Ask me for creative concepts, a shoot treatment or lighting setups."

// TelegramChannel lets clients plan shoots with the assistant from Telegram.
// Access control lives in the assistant's Authorizer.
type TelegramChannel struct {
	mu      sync.Mutex
	token   string
	bot     *tele.Bot
	handler func(InboundMessage)
	running bool
}

// NewTelegramChannel creates a new Telegram channel.
func NewTelegramChannel(token string) *TelegramChannel {
	return &TelegramChannel{token: token}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}

	pref := tele.Settings{
		Token:  t.token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}

	bot.Handle("/start", func(c tele.Context) error {
		return c.Send(telegramGreeting)
	})

	bot.Handle(tele.OnText, func(c tele.Context) error {
		sender := c.Sender()
		log.Printf("[telegram] message from %d (%s)", sender.ID, sender.Username)

		t.mu.Lock()
		handler := t.handler
		t.mu.Unlock()

		if handler != nil {
			handler(InboundMessage{
				ChannelName: "telegram",
				SenderID:    strconv.FormatInt(sender.ID, 10),
				SenderName:  sender.FirstName + " " + sender.LastName,
				ChatID:      strconv.FormatInt(c.Chat().ID, 10),
				MessageID:   strconv.Itoa(c.Message().ID),
				Text:        c.Text(),
				Timestamp:   time.Now(),
			})
		}
		return nil
	})

	t.bot = bot
	t.running = true

	go func() {
		bot.Start()
	}()

	// Stop bot when context is cancelled
	go func() {
		<-ctx.Done()
		bot.Stop()
	}()

	return nil
}

func (t *TelegramChannel) Stop(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		t.bot.Stop()
	}
	t.running = false
	return nil
}

func (t *TelegramChannel) Send(_ context.Context, msg OutboundMessage) error {
	t.mu.Lock()
	bot := t.bot
	t.mu.Unlock()

	if bot == nil {
		return fmt.Errorf("telegram bot not started")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	recipient := &tele.Chat{ID: chatID}

	// Only the first chunk quotes the question.
	var opts []interface{}
	if reply := replyOptions(msg.ReplyTo); reply != nil {
		opts = append(opts, reply)
	}
	for _, chunk := range splitMessage(msg.Text, telegramLimit) {
		if _, err := bot.Send(recipient, chunk, opts...); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		opts = nil
	}

	return nil
}

// replyOptions quotes the message with the given id, or returns nil when
// replyTo is not a Telegram message id.
func replyOptions(replyTo string) *tele.SendOptions {
	id, err := strconv.Atoi(replyTo)
	if err != nil || id <= 0 {
		return nil
	}
	return &tele.SendOptions{ReplyTo: &tele.Message{ID: id}}
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a UTF-8 sequence.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func (t *TelegramChannel) OnMessage(handler func(InboundMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

func (t *TelegramChannel) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
