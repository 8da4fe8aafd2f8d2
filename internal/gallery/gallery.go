// Package gallery drives the media preview lightbox of a category page.
package gallery

import (
	"log"
	"strings"
	"sync"
	"time"
)

// MediaType is the kind of a gallery item.
type MediaType string

const (
	Image MediaType = "image"
	Video MediaType = "video"
)

// Direction selects the neighbour to preview.
type Direction string

const (
	Next Direction = "next"
	Prev Direction = "prev"
)

// Keys handled while the preview is open.
const (
	KeyEscape     = "Escape"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// InfoDateLayout formats the "Added" date of the info panel.
const InfoDateLayout = "January 2, 2006"

// Item describes one media file on the page.
type Item struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
	Name string    `json:"name"`
}

// Info is the content of the preview info panel.
type Info struct {
	Filename string
	Type     string
	Added    string
}

// Sink renders the lightbox. Implementations ignore commands for elements
// that do not exist on the page.
type Sink interface {
	ShowModal() error
	HideModal() error
	ShowImage(url string) error
	ShowVideo(url string) error
	// ClearMedia pauses playback and empties both media sources.
	ClearMedia() error
	SetInfo(Info) error
	// OpenExternal opens url outside the page, e.g. in a new tab.
	OpenExternal(url string) error
}

// Gallery holds the page's media list and the preview cursor.
type Gallery struct {
	mu    sync.Mutex
	items []Item
	index int
	open  bool

	sink       Sink
	downloader *Downloader
	now        func() time.Time
}

// Option configures a Gallery.
type Option func(*Gallery)

// WithDownloader enables Download and DownloadCurrent.
func WithDownloader(d *Downloader) Option {
	return func(g *Gallery) { g.downloader = d }
}

// WithClock replaces the source of the "Added" date.
func WithClock(now func() time.Time) Option {
	return func(g *Gallery) { g.now = now }
}

func New(sink Sink, items []Item, opts ...Option) *Gallery {
	g := &Gallery{
		sink: sink,
		now:  time.Now,
	}
	g.SetItems(items)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetItems replaces the media list, e.g. after the page changed.
func (g *Gallery) SetItems(items []Item) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = append([]Item(nil), items...)
	g.index = 0
}

// Items returns a copy of the media list.
func (g *Gallery) Items() []Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Item(nil), g.items...)
}

// Index returns the preview cursor; -1 when the previewed url is not listed.
func (g *Gallery) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// IsOpen reports whether the preview modal is showing.
func (g *Gallery) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Preview opens the modal on url. The cursor moves to the matching item, or
// to -1 when url is not in the list.
func (g *Gallery) Preview(url string, typ MediaType, name string) {
	g.mu.Lock()
	g.index = -1
	for i, it := range g.items {
		if it.URL == url {
			g.index = i
			break
		}
	}
	g.open = true
	g.mu.Unlock()

	g.render("show modal", g.sink.ShowModal())
	switch typ {
	case Image:
		g.render("show image", g.sink.ShowImage(url))
	case Video:
		g.render("show video", g.sink.ShowVideo(url))
	}
	g.render("set info", g.sink.SetInfo(g.info(name, typ)))
}

// Close hides the modal and stops any playing video.
func (g *Gallery) Close() {
	g.mu.Lock()
	g.open = false
	g.mu.Unlock()

	g.render("hide modal", g.sink.HideModal())
	g.render("clear media", g.sink.ClearMedia())
}

// Navigate previews the neighbour in direction, wrapping at both ends. It is
// a no-op on an empty list or an unknown direction.
func (g *Gallery) Navigate(dir Direction) {
	g.mu.Lock()
	n := len(g.items)
	if n == 0 {
		g.mu.Unlock()
		return
	}
	switch dir {
	case Next:
		g.index = (g.index + 1) % n
	case Prev:
		g.index = (g.index - 1 + n) % n
	default:
		g.mu.Unlock()
		return
	}
	item := g.items[g.index]
	g.mu.Unlock()

	g.Preview(item.URL, item.Type, item.Name)
}

// HandleKey applies a keyboard shortcut. Keys are ignored while the modal is
// closed. It reports whether the key was consumed.
func (g *Gallery) HandleKey(key string) bool {
	if !g.IsOpen() {
		return false
	}
	switch key {
	case KeyEscape:
		g.Close()
	case KeyArrowLeft:
		g.Navigate(Prev)
	case KeyArrowRight:
		g.Navigate(Next)
	default:
		return false
	}
	return true
}

func (g *Gallery) info(name string, typ MediaType) Info {
	info := Info{
		Filename: name,
		Type:     strings.ToUpper(string(typ)),
		Added:    g.now().Format(InfoDateLayout),
	}
	if info.Filename == "" {
		info.Filename = "-"
	}
	if info.Type == "" {
		info.Type = "-"
	}
	return info
}

func (g *Gallery) render(op string, err error) {
	if err != nil {
		log.Printf("[gallery] %s: %v", op, err)
	}
}
