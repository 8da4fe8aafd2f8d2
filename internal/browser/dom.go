package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"

	"gc-portfolio/internal/chat"
	"gc-portfolio/internal/gallery"
)

// ErrElementMissing is returned when the page lacks the markup a call needs.
var ErrElementMissing = errors.New("element missing from page")

// pager yields a page bound to ctx.
type pager interface {
	Page(ctx context.Context) *rod.Page
}

// eval runs a script and reports whether it returned true.
func eval(ctx context.Context, p pager, js string, args ...interface{}) (bool, error) {
	res, err := p.Page(ctx).Eval(js, args...)
	if err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	return res.Value.Bool(), nil
}

func evalRequired(ctx context.Context, p pager, what, js string, args ...interface{}) error {
	ok, err := eval(ctx, p, js, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", what, ErrElementMissing)
	}
	return nil
}

// ChatSink renders the chat widget in the page.
type ChatSink struct {
	pages pager
}

var _ chat.Sink = (*ChatSink)(nil)

// NewChatSink creates a sink drawing into the session's page.
func NewChatSink(s *Session) *ChatSink {
	return &ChatSink{pages: s}
}

func (c *ChatSink) SetOpen(open bool) error {
	return evalRequired(context.Background(), c.pages, "set open", jsSetOpen, open)
}

func (c *ChatSink) AppendMessage(msg chat.Message) error {
	return evalRequired(context.Background(), c.pages, "append message", jsAppendMessage, msg.Text, string(msg.Sender))
}

func (c *ChatSink) ShowTyping() error {
	return evalRequired(context.Background(), c.pages, "show typing", jsShowTyping)
}

func (c *ChatSink) RemoveTyping() error {
	return evalRequired(context.Background(), c.pages, "remove typing", jsRemoveTyping)
}

func (c *ChatSink) Reset() error {
	return evalRequired(context.Background(), c.pages, "reset", jsReset)
}

func (c *ChatSink) SetInput(text string) error {
	return evalRequired(context.Background(), c.pages, "set input", jsSetInput, text)
}

// GallerySink draws the preview lightbox. Missing elements are ignored, the
// gallery markup only exists on category pages.
type GallerySink struct {
	pages pager
}

var _ gallery.Sink = (*GallerySink)(nil)

// NewGallerySink creates a sink drawing into the session's page.
func NewGallerySink(s *Session) *GallerySink {
	return &GallerySink{pages: s}
}

func (g *GallerySink) run(js string, args ...interface{}) error {
	_, err := eval(context.Background(), g.pages, js, args...)
	return err
}

func (g *GallerySink) ShowModal() error { return g.run(jsShowModal) }

func (g *GallerySink) HideModal() error { return g.run(jsHideModal) }

func (g *GallerySink) ShowImage(url string) error {
	return g.run(jsShowMedia, url, string(gallery.Image))
}

func (g *GallerySink) ShowVideo(url string) error {
	return g.run(jsShowMedia, url, string(gallery.Video))
}

func (g *GallerySink) ClearMedia() error { return g.run(jsClearMedia) }

func (g *GallerySink) SetInfo(info gallery.Info) error {
	return g.run(jsSetInfo, info.Filename, info.Type, info.Added)
}

func (g *GallerySink) OpenExternal(url string) error { return g.run(jsOpenExternal, url) }

// CollectMediaItems reads the gallery entries declared by .media-item
// elements.
func CollectMediaItems(ctx context.Context, s *Session) ([]gallery.Item, error) {
	res, err := s.Page(ctx).Eval(jsCollectMedia)
	if err != nil {
		return nil, fmt.Errorf("collect media: %w", err)
	}
	var items []gallery.Item
	if err := res.Value.Unmarshal(&items); err != nil {
		return nil, fmt.Errorf("decode media items: %w", err)
	}
	return items, nil
}
