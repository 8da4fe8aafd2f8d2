package channel

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Manager manages the lifecycle of all channels.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewManager creates a new channel manager.
func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel to the manager, replacing one with the same name.
func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

// StartAll starts all registered channels in name order. If one fails, the
// channels started before it are stopped again.
func (m *Manager) StartAll(ctx context.Context) error {
	var started []Channel
	for _, ch := range m.sorted() {
		if err := ch.Start(ctx); err != nil {
			log.Printf("[channel] failed to start %s: %v", ch.Name(), err)
			for _, s := range started {
				_ = s.Stop(ctx)
			}
			return fmt.Errorf("start %s: %w", ch.Name(), err)
		}
		started = append(started, ch)
		log.Printf("[channel] started %s", ch.Name())
	}
	return nil
}

// StopAll stops all running channels.
func (m *Manager) StopAll(ctx context.Context) {
	for _, ch := range m.sorted() {
		if !ch.IsRunning() {
			continue
		}
		if err := ch.Stop(ctx); err != nil {
			log.Printf("[channel] failed to stop %s: %v", ch.Name(), err)
		} else {
			log.Printf("[channel] stopped %s", ch.Name())
		}
	}
}

// Get returns a channel by name.
func (m *Manager) Get(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

// List returns all channel names and their running status.
func (m *Manager) List() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]bool, len(m.channels))
	for name, ch := range m.channels {
		result[name] = ch.IsRunning()
	}
	return result
}

func (m *Manager) sorted() []Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
