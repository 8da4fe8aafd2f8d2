// Package render contains presentation sinks that are not tied to a page.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gc-portfolio/internal/chat"
)

// Greeting is the static first message of the chat window.
const Greeting = "Hi! I'm your photography assistant. Ask me to brainstorm a shoot, draft a treatment or plan your lighting."

// Terminal renders chat commands as text lines.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	typing bool
	color  bool
}

// NewTerminal writes to out. color enables ANSI styling of the sender labels.
func NewTerminal(out io.Writer, color bool) *Terminal {
	return &Terminal{out: out, color: color}
}

var _ chat.Sink = (*Terminal)(nil)

func (t *Terminal) SetOpen(open bool) error {
	if open {
		return t.printf("── chat opened ──\n")
	}
	return t.printf("── chat closed ──\n")
}

func (t *Terminal) AppendMessage(msg chat.Message) error {
	label := "You"
	if msg.Sender == chat.SenderAssistant {
		label = "Assistant"
	}
	if t.color {
		if msg.Sender == chat.SenderAssistant {
			label = "\033[36m" + label + "\033[0m"
		} else {
			label = "\033[33m" + label + "\033[0m"
		}
	}
	ts := time.UnixMilli(msg.Timestamp).Format("15:04")
	body := strings.ReplaceAll(msg.Text, "\n", "\n    ")
	return t.printf("[%s] %s: %s\n", ts, label, body)
}

func (t *Terminal) ShowTyping() error {
	t.mu.Lock()
	t.typing = true
	t.mu.Unlock()
	return t.printf("Assistant is typing...\n")
}

func (t *Terminal) RemoveTyping() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.typing = false
	return nil
}

func (t *Terminal) Reset() error {
	return t.printf("\n%s\n\n", Greeting)
}

// SetInput is a no-op: the terminal owns its own input line.
func (t *Terminal) SetInput(string) error {
	return nil
}

// Typing reports whether the typing indicator is showing.
func (t *Terminal) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

func (t *Terminal) printf(format string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.out, format, args...)
	return err
}
