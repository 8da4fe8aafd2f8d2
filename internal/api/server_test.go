package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gc-portfolio/internal/assistant"
	"gc-portfolio/internal/chat"
	"gc-portfolio/internal/config"
	"gc-portfolio/internal/transport"
)

type recordingReplier struct {
	mu       sync.Mutex
	contexts []string
}

func (r *recordingReplier) Reply(_ context.Context, message, contextTag string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts = append(r.contexts, contextTag)
	return "re: " + message
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	s := NewServer(&recordingReplier{}, "*")
	resp := httptest.NewRecorder()
	s.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestChatValid(t *testing.T) {
	r := &recordingReplier{}
	s := NewServer(r, "*")

	resp := post(t, s, `{"message":"Hi","context":"photography_shoot_planning"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["response"] != "re: Hi" {
		t.Fatalf("unexpected response %q", body["response"])
	}
	if r.contexts[0] != "photography_shoot_planning" {
		t.Fatalf("context not forwarded: %q", r.contexts[0])
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected permissive CORS header")
	}
}

func TestChatBadRequests(t *testing.T) {
	s := NewServer(&recordingReplier{}, "*")
	for _, body := range []string{`{}`, `{"message":""}`, `{"message":"   "}`, `{"message":null}`, `not json`} {
		if resp := post(t, s, body); resp.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, resp.Code)
		}
	}
}

func TestPreflight(t *testing.T) {
	s := NewServer(&recordingReplier{}, "https://gc.example")
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	resp := httptest.NewRecorder()
	s.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "https://gc.example" {
		t.Fatal("expected configured origin")
	}
}

// The server's reply flows through the client transport and chat manager.
func TestEndToEndWithTransports(t *testing.T) {
	svc := assistant.New(config.Defaults().Assistant, nil, nil, nil, nil)
	srv := httptest.NewServer(NewServer(svc, "*"))
	defer srv.Close()

	ctx := context.Background()

	httpReply, err := transport.NewHTTPTransport(srv.URL+"/api/chat").
		SendChatRequest(ctx, chat.Request{Message: "lighting ideas", Context: chat.DefaultContext})
	if err != nil {
		t.Fatal(err)
	}

	ws := transport.NewWSTransport("ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws")
	defer ws.Close()
	wsReply, err := ws.SendChatRequest(ctx, chat.Request{Message: "lighting ideas", Context: chat.DefaultContext})
	if err != nil {
		t.Fatal(err)
	}

	if httpReply != wsReply || httpReply != assistant.CannedReply("lighting ideas") {
		t.Fatalf("transports disagree:\nhttp: %q\nws:   %q", httpReply, wsReply)
	}
}

func TestWebSocketRejectsEmptyMessage(t *testing.T) {
	srv := httptest.NewServer(NewServer(&recordingReplier{}, "*"))
	defer srv.Close()

	ws := transport.NewWSTransport("ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws")
	defer ws.Close()

	if _, err := ws.SendChatRequest(context.Background(), chat.Request{Message: " "}); err == nil {
		t.Fatal("expected error frame for empty message")
	}
}
