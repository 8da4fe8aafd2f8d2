package browser

import (
	"context"
	"fmt"

	"gc-portfolio/internal/chat"
)

// LocalStorage persists chat state in the page's window.localStorage, next
// to whatever the site itself stores there.
type LocalStorage struct {
	pages pager
}

var _ chat.Store = (*LocalStorage)(nil)

// NewLocalStorage creates a store backed by the session's page.
func NewLocalStorage(s *Session) *LocalStorage {
	return &LocalStorage{pages: s}
}

func (l *LocalStorage) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := l.pages.Page(ctx).Eval(jsStorageGet, key)
	if err != nil {
		return "", false, fmt.Errorf("localStorage get %s: %w", key, err)
	}
	if res.Value.Nil() {
		return "", false, nil
	}
	return res.Value.Str(), true, nil
}

func (l *LocalStorage) Set(ctx context.Context, key, value string) error {
	if _, err := l.pages.Page(ctx).Eval(jsStorageSet, key, value); err != nil {
		return fmt.Errorf("localStorage set %s: %w", key, err)
	}
	return nil
}

func (l *LocalStorage) Remove(ctx context.Context, key string) error {
	if _, err := l.pages.Page(ctx).Eval(jsStorageRemove, key); err != nil {
		return fmt.Errorf("localStorage remove %s: %w", key, err)
	}
	return nil
}
