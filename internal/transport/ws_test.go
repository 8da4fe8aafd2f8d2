package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gc-portfolio/internal/chat"
)

// newWSServer answers each frame with handle's result. Replies are written in
// reverse order of arrival when batch > 1, to exercise id correlation.
func newWSServer(t *testing.T, batch int, handle func(Frame) Frame) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var queue []Frame
		for {
			var f Frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			queue = append(queue, handle(f))
			if len(queue) < batch {
				continue
			}
			for i := len(queue) - 1; i >= 0; i-- {
				conn.WriteJSON(queue[i])
			}
			queue = nil
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func reply(text string) *string { return &text }

func TestWSTransportRoundTrip(t *testing.T) {
	srv := newWSServer(t, 1, func(f Frame) Frame {
		return Frame{ID: f.ID, Response: reply("echo: " + f.Message + " @" + f.Context)}
	})
	defer srv.Close()

	tr := NewWSTransport(wsURL(srv))
	defer tr.Close()

	got, err := tr.SendChatRequest(context.Background(), chat.Request{Message: "Hi", Context: "general"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "echo: Hi @general" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestWSTransportCorrelatesConcurrentReplies(t *testing.T) {
	srv := newWSServer(t, 2, func(f Frame) Frame {
		return Frame{ID: f.ID, Response: reply("re: " + f.Message)}
	})
	defer srv.Close()

	tr := NewWSTransport(wsURL(srv))
	defer tr.Close()

	var wg sync.WaitGroup
	results := make([]string, 2)
	errs := make([]error, 2)
	for i, msg := range []string{"first", "second"} {
		wg.Add(1)
		go func(i int, msg string) {
			defer wg.Done()
			results[i], errs[i] = tr.SendChatRequest(context.Background(), chat.Request{Message: msg})
		}(i, msg)
	}
	wg.Wait()

	for i, want := range []string{"re: first", "re: second"} {
		if errs[i] != nil {
			t.Fatalf("request %d: %v", i, errs[i])
		}
		if results[i] != want {
			t.Fatalf("request %d: expected %q, got %q", i, want, results[i])
		}
	}
}

func TestWSTransportErrorFrames(t *testing.T) {
	srv := newWSServer(t, 1, func(f Frame) Frame {
		if f.Message == "fail" {
			return Frame{ID: f.ID, Error: "message is required"}
		}
		return Frame{ID: f.ID}
	})
	defer srv.Close()

	tr := NewWSTransport(wsURL(srv))
	defer tr.Close()

	if _, err := tr.SendChatRequest(context.Background(), chat.Request{Message: "fail"}); err == nil {
		t.Fatal("expected error frame to surface")
	}
	if _, err := tr.SendChatRequest(context.Background(), chat.Request{Message: "x"}); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestWSTransportContextCancel(t *testing.T) {
	srv := newWSServer(t, 100, func(f Frame) Frame { return Frame{ID: f.ID} })
	defer srv.Close()

	tr := NewWSTransport(wsURL(srv))
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := tr.SendChatRequest(ctx, chat.Request{Message: "Hi"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWSTransportClosed(t *testing.T) {
	tr := NewWSTransport("ws://127.0.0.1:1")
	tr.Close()
	if _, err := tr.SendChatRequest(context.Background(), chat.Request{Message: "Hi"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestWSTransportDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewWSTransport(wsURL(srv)).SendChatRequest(context.Background(), chat.Request{Message: "Hi"})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}
