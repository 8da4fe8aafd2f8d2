package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
)

// decodeOpen turns a persisted flag into a bool. Anything other than an
// exact "true" is closed.
func decodeOpen(raw string, ok bool) bool {
	return ok && raw == "true"
}

func encodeOpen(open bool) string {
	return strconv.FormatBool(open)
}

// decodeHistory validates a persisted history blob. A blob that is not a JSON
// array yields an empty history; entries with an unknown sender are dropped.
// The result is bounded to limit.
func decodeHistory(raw string, limit int) ([]Message, error) {
	if raw == "" {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}

	history := make([]Message, 0, len(entries))
	dropped := 0
	for _, e := range entries {
		var msg Message
		if err := json.Unmarshal(e, &msg); err != nil || !msg.Sender.Valid() {
			dropped++
			continue
		}
		history = append(history, msg)
	}
	if dropped > 0 {
		log.Printf("[chat] dropped %d malformed history entries", dropped)
	}

	return bound(history, limit), nil
}

func encodeHistory(history []Message) (string, error) {
	if history == nil {
		history = []Message{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// bound keeps the most recent limit entries, preserving order.
func bound(history []Message, limit int) []Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	trimmed := make([]Message, limit)
	copy(trimmed, history[len(history)-limit:])
	return trimmed
}

// loadSession reads the persisted session. Read and parse failures fall back
// to the zero session and are only logged.
func loadSession(ctx context.Context, store Store, limit int) Session {
	var s Session

	raw, ok, err := store.Get(ctx, KeyOpen)
	if err != nil {
		log.Printf("[chat] failed to read %s: %v", KeyOpen, err)
	} else {
		s.IsOpen = decodeOpen(raw, ok)
	}

	raw, ok, err = store.Get(ctx, KeyHistory)
	switch {
	case err != nil:
		log.Printf("[chat] failed to read %s: %v", KeyHistory, err)
	case ok:
		history, err := decodeHistory(raw, limit)
		if err != nil {
			log.Printf("[chat] discarding stored history: %v", err)
		} else {
			s.History = history
		}
	}

	return s
}
