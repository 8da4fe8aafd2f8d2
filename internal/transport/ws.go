package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gc-portfolio/internal/chat"
)

// ErrClosed is returned for requests on a closed WSTransport.
var ErrClosed = errors.New("websocket transport closed")

// Frame is one websocket message in either direction. Requests carry
// Message and Context; replies carry Response or Error.
type Frame struct {
	ID       string  `json:"id"`
	Message  string  `json:"message,omitempty"`
	Context  string  `json:"context,omitempty"`
	Response *string `json:"response,omitempty"`
	Error    string  `json:"error,omitempty"`
}

type wsResult struct {
	reply string
	err   error
}

// WSTransport keeps one websocket open to the assistant and correlates
// replies to requests by frame id, so several sends may be in flight. It
// dials lazily and redials after the connection drops.
type WSTransport struct {
	url    string
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan wsResult
	closed  bool

	writeMu sync.Mutex
}

func NewWSTransport(url string) *WSTransport {
	return &WSTransport{
		url:     url,
		dialer:  websocket.DefaultDialer,
		pending: make(map[string]chan wsResult),
	}
}

func (t *WSTransport) SendChatRequest(ctx context.Context, req chat.Request) (string, error) {
	conn, err := t.connect(ctx)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	ch := make(chan wsResult, 1)

	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	t.writeMu.Lock()
	err = conn.WriteJSON(Frame{ID: id, Message: req.Message, Context: req.Context})
	t.writeMu.Unlock()
	if err != nil {
		t.drop(conn, err)
		return "", fmt.Errorf("write frame: %w", err)
	}

	select {
	case res := <-ch:
		return res.reply, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close shuts the connection and fails every pending request.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	t.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()
	t.drop(conn, ErrClosed)
	return nil
}

func (t *WSTransport) connect(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}
	if t.conn != nil {
		return t.conn, nil
	}

	conn, resp, err := t.dialer.DialContext(ctx, t.url, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, &StatusError{Code: resp.StatusCode}
		}
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}
	t.conn = conn
	go t.readLoop(conn)
	return conn, nil
}

func (t *WSTransport) readLoop(conn *websocket.Conn) {
	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.drop(conn, err)
			return
		}

		t.mu.Lock()
		ch, ok := t.pending[f.ID]
		t.mu.Unlock()
		if !ok {
			log.Printf("[transport] dropping reply for unknown frame %s", f.ID)
			continue
		}

		switch {
		case f.Error != "":
			ch <- wsResult{err: fmt.Errorf("assistant error: %s", f.Error)}
		case f.Response == nil:
			ch <- wsResult{err: fmt.Errorf("%w: frame %s has no response", ErrMalformedResponse, f.ID)}
		default:
			ch <- wsResult{reply: *f.Response}
		}
	}
}

// drop forgets conn and fails its pending requests with cause.
func (t *WSTransport) drop(conn *websocket.Conn, cause error) {
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	pending := t.pending
	t.pending = make(map[string]chan wsResult)
	t.mu.Unlock()

	conn.Close()
	for _, ch := range pending {
		select {
		case ch <- wsResult{err: fmt.Errorf("connection lost: %w", cause)}:
		default:
		}
	}
}
