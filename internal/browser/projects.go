package browser

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// FilmClickDelay is how long a clicked film card animates before the page
// follows its link.
const FilmClickDelay = 200 * time.Millisecond

// FilmNavigator follows film card links after FilmClickDelay. A click that
// arrives while one is pending replaces it.
type FilmNavigator struct {
	navigate func(href string) error
	delay    time.Duration

	mu      sync.Mutex
	pending *time.Timer
}

// NewFilmNavigator creates a navigator calling navigate for each followed
// link.
func NewFilmNavigator(navigate func(href string) error) *FilmNavigator {
	return &FilmNavigator{
		navigate: navigate,
		delay:    FilmClickDelay,
	}
}

// Click schedules navigation to href. Empty links are ignored.
func (f *FilmNavigator) Click(href string) {
	if href == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending != nil {
		f.pending.Stop()
	}
	f.pending = time.AfterFunc(f.delay, func() {
		if err := f.navigate(href); err != nil {
			log.Printf("[browser] film navigation to %s failed: %v", href, err)
		}
	})
}

// Stop cancels a pending navigation.
func (f *FilmNavigator) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending != nil {
		f.pending.Stop()
		f.pending = nil
	}
}

// DecorateProjects installs the projects page behaviour on the current page
// and reports how many film cards were bound. Other pages are left alone.
func DecorateProjects(ctx context.Context, s *Session) (int, error) {
	res, err := s.Page(ctx).Eval(jsDecorateProjects, bindFilmClick)
	if err != nil {
		return 0, fmt.Errorf("decorate projects: %w", err)
	}
	return res.Value.Int(), nil
}
