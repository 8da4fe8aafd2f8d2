package browser

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ysmood/gson"

	"gc-portfolio/internal/chat"
	"gc-portfolio/internal/gallery"
)

// Page-side names of the Go bindings.
const (
	bindToggleChat   = "gcToggleChat"
	bindSendMessage  = "gcSendMessage"
	bindSendPreset   = "gcSendPreset"
	bindClearHistory = "gcClearHistory"
	bindPreview      = "gcPreview"
	bindKey          = "gcKey"
	bindNavigate     = "gcNavigate"
	bindDownload     = "gcDownload"
	bindReady        = "gcReady"
	bindFilmClick    = "gcFilmClick"
)

// Kiosk wires the page's chat widget, gallery and projects page to Go.
// Page events are queued and handled one at a time on Run's goroutine,
// except sends, which wait on the assistant in a goroutine of their own.
type Kiosk struct {
	session *Session
	chat    *chat.Manager
	gallery *gallery.Gallery
	films   *FilmNavigator

	events chan func(context.Context)
	stops  []func() error
}

// NewKiosk creates a kiosk. gallery may be nil to leave the page's own
// lightbox in place.
func NewKiosk(s *Session, manager *chat.Manager, g *gallery.Gallery) *Kiosk {
	k := &Kiosk{
		session: s,
		chat:    manager,
		gallery: g,
		events:  make(chan func(context.Context), 32),
	}
	k.films = NewFilmNavigator(func(href string) error {
		_, err := eval(context.Background(), s, jsNavigate, href)
		return err
	})
	return k
}

// Bind exposes the Go handlers to the page and installs the page-side hooks
// on the current and every later document.
func (k *Kiosk) Bind(ctx context.Context) error {
	page := k.session.Raw()

	handlers := map[string]func(gson.JSON){
		bindToggleChat:   k.onToggle,
		bindSendMessage:  k.onSend,
		bindSendPreset:   k.onPreset,
		bindClearHistory: k.onClear,
		bindPreview:      k.onPreview,
		bindKey:          k.onKey,
		bindNavigate:     k.onNavigate,
		bindDownload:     k.onDownload,
		bindReady:        k.onReady,
		bindFilmClick:    k.onFilmClick,
	}
	for name, h := range handlers {
		h := h
		stop, err := page.Expose(name, func(arg gson.JSON) (interface{}, error) {
			h(arg)
			return nil, nil
		})
		if err != nil {
			k.Unbind()
			return fmt.Errorf("expose %s: %w", name, err)
		}
		k.stops = append(k.stops, stop)
	}

	remove, err := page.EvalOnNewDocument("(" + jsInstallBindings + ")()")
	if err != nil {
		k.Unbind()
		return fmt.Errorf("install bindings: %w", err)
	}
	k.stops = append(k.stops, remove)

	if _, err := k.session.Page(ctx).Eval(jsInstallBindings); err != nil {
		k.Unbind()
		return fmt.Errorf("install bindings: %w", err)
	}
	return nil
}

// Unbind removes every exposed handler.
func (k *Kiosk) Unbind() {
	for _, stop := range k.stops {
		if err := stop(); err != nil {
			log.Printf("[browser] unbind: %v", err)
		}
	}
	k.stops = nil
	k.films.Stop()
}

// Run handles queued page events until ctx is done.
func (k *Kiosk) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-k.events:
			ev(ctx)
		}
	}
}

func (k *Kiosk) enqueue(ev func(context.Context)) {
	select {
	case k.events <- ev:
	default:
		log.Printf("[browser] event queue full, dropping page event")
	}
}

func (k *Kiosk) onReady(arg gson.JSON) {
	path := arg.Str()
	k.enqueue(func(ctx context.Context) {
		log.Printf("[browser] page ready: %s", path)
		k.chat.Initialize(ctx)

		if k.gallery != nil {
			items, err := CollectMediaItems(ctx, k.session)
			if err != nil {
				log.Printf("[browser] %v", err)
			} else {
				k.gallery.SetItems(items)
			}
		}

		n, err := DecorateProjects(ctx, k.session)
		if err != nil {
			log.Printf("[browser] %v", err)
		} else if n > 0 {
			log.Printf("[browser] bound %d film cards", n)
		}
	})
}

func (k *Kiosk) onToggle(gson.JSON) {
	k.enqueue(func(ctx context.Context) {
		if err := k.chat.Toggle(ctx); err != nil {
			log.Printf("[browser] toggle: %v", err)
		}
	})
}

func (k *Kiosk) onSend(arg gson.JSON) {
	text := arg.Str()
	k.enqueue(func(ctx context.Context) {
		go k.chat.SendUserMessage(ctx, text)
	})
}

func (k *Kiosk) onPreset(arg gson.JSON) {
	text := arg.Str()
	k.enqueue(func(ctx context.Context) {
		go k.chat.SendPresetMessage(ctx, text)
	})
}

func (k *Kiosk) onClear(gson.JSON) {
	k.enqueue(func(ctx context.Context) {
		if err := k.chat.ClearHistory(ctx); err != nil {
			log.Printf("[browser] clear history: %v", err)
		}
	})
}

func (k *Kiosk) onPreview(arg gson.JSON) {
	if k.gallery == nil {
		return
	}
	url := arg.Get("url").Str()
	typ := gallery.MediaType(arg.Get("type").Str())
	name := arg.Get("name").Str()
	k.enqueue(func(context.Context) {
		k.gallery.Preview(url, typ, name)
	})
}

func (k *Kiosk) onKey(arg gson.JSON) {
	if k.gallery == nil {
		return
	}
	key := arg.Str()
	k.enqueue(func(context.Context) {
		k.gallery.HandleKey(key)
	})
}

func (k *Kiosk) onNavigate(arg gson.JSON) {
	if k.gallery == nil {
		return
	}
	dir := gallery.Direction(arg.Str())
	k.enqueue(func(context.Context) {
		k.gallery.Navigate(dir)
	})
}

func (k *Kiosk) onDownload(arg gson.JSON) {
	if k.gallery == nil {
		return
	}
	current := arg.Nil()
	var url, name string
	if !current {
		url = arg.Get("url").Str()
		name = arg.Get("name").Str()
	}
	k.enqueue(func(ctx context.Context) {
		var (
			path string
			err  error
		)
		if current {
			path, err = k.gallery.DownloadCurrent(ctx)
		} else {
			path, err = k.gallery.Download(ctx, url, name)
		}
		switch {
		case errors.Is(err, gallery.ErrNothingToDownload):
			log.Printf("[browser] nothing selected to download")
		case err != nil:
			log.Printf("[browser] download failed: %v", err)
		default:
			log.Printf("[browser] saved %s", path)
		}
	})
}

func (k *Kiosk) onFilmClick(arg gson.JSON) {
	k.films.Click(arg.Str())
}
