package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ConsoleChannel reads lines from an input stream and writes replies to an
// output stream. It serves the assistant locally and drives the terminal
// chat client.
type ConsoleChannel struct {
	mu      sync.Mutex
	in      io.Reader
	out     io.Writer
	label   string
	prompt  bool
	handler func(InboundMessage)
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// ConsoleOption configures a ConsoleChannel.
type ConsoleOption func(*ConsoleChannel)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) ConsoleOption {
	return func(c *ConsoleChannel) {
		c.in = in
		c.out = out
	}
}

// WithReplyLabel sets the name printed in front of replies. An empty label
// prints Send text verbatim.
func WithReplyLabel(label string) ConsoleOption {
	return func(c *ConsoleChannel) { c.label = label }
}

// WithoutPrompt disables the "> " prompt.
func WithoutPrompt() ConsoleOption {
	return func(c *ConsoleChannel) { c.prompt = false }
}

func NewConsoleChannel(opts ...ConsoleOption) *ConsoleChannel {
	c := &ConsoleChannel{
		in:     os.Stdin,
		out:    os.Stdout,
		label:  "Assistant",
		prompt: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ConsoleChannel) Name() string { return "console" }

func (c *ConsoleChannel) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.done = make(chan struct{})

	go c.readLoop(ctx)
	return nil
}

func (c *ConsoleChannel) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.running = false
	return nil
}

// Done is closed when the input stream is exhausted or the channel stops.
func (c *ConsoleChannel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *ConsoleChannel) Send(_ context.Context, msg OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.label != "" {
		_, err := fmt.Fprintf(c.out, "\n[%s]: %s\n\n", c.label, msg.Text)
		if err == nil && c.prompt {
			_, err = fmt.Fprint(c.out, "> ")
		}
		return err
	}
	_, err := fmt.Fprintln(c.out, msg.Text)
	return err
}

func (c *ConsoleChannel) OnMessage(handler func(InboundMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *ConsoleChannel) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *ConsoleChannel) readLoop(ctx context.Context) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		close(done)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.printPrompt()
	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(text) == "" {
				c.printPrompt()
				continue
			}

			c.mu.Lock()
			handler := c.handler
			c.mu.Unlock()

			if handler != nil {
				handler(InboundMessage{
					ChannelName: "console",
					SenderID:    "local",
					SenderName:  "User",
					ChatID:      "console",
					Text:        text,
					Timestamp:   time.Now(),
				})
			}
		}
	}
}

func (c *ConsoleChannel) printPrompt() {
	if !c.prompt {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, "> ")
}
