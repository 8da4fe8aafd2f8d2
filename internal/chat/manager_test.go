package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gc-portfolio/internal/eventbus"
)

type fakeStore struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	removed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *fakeStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.removed = append(s.removed, key)
	return nil
}

type fakeTransport struct {
	reply    string
	err      error
	requests []Request
}

func (t *fakeTransport) SendChatRequest(_ context.Context, req Request) (string, error) {
	t.requests = append(t.requests, req)
	if t.err != nil {
		return "", t.err
	}
	return t.reply, nil
}

// fakeSink keeps a rendered message list (below a static greeting) and an
// operation log.
type fakeSink struct {
	open     bool
	typing   bool
	input    string
	rendered []Message
	ops      []string
}

func (s *fakeSink) SetOpen(open bool) error {
	s.open = open
	s.ops = append(s.ops, fmt.Sprintf("open=%t", open))
	return nil
}

func (s *fakeSink) AppendMessage(msg Message) error {
	s.rendered = append(s.rendered, msg)
	s.ops = append(s.ops, "append:"+string(msg.Sender))
	return nil
}

func (s *fakeSink) ShowTyping() error {
	s.typing = true
	s.ops = append(s.ops, "typing")
	return nil
}

func (s *fakeSink) RemoveTyping() error {
	s.typing = false
	s.ops = append(s.ops, "untyping")
	return nil
}

func (s *fakeSink) Reset() error {
	s.rendered = nil
	s.ops = append(s.ops, "reset")
	return nil
}

func (s *fakeSink) SetInput(text string) error {
	s.input = text
	s.ops = append(s.ops, "input="+text)
	return nil
}

func fixedClock() func() time.Time {
	ts := time.UnixMilli(1700000000000)
	return func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}
}

func newTestManager(store *fakeStore, tr *fakeTransport, sink *fakeSink) *Manager {
	m := NewManager(store, tr, sink, WithClock(fixedClock()))
	m.Initialize(context.Background())
	return m
}

func TestToggleParity(t *testing.T) {
	for _, initial := range []bool{false, true} {
		for n := 0; n <= 5; n++ {
			store := newFakeStore()
			store.data[KeyOpen] = fmt.Sprint(initial)
			sink := &fakeSink{}
			m := newTestManager(store, &fakeTransport{}, sink)

			for i := 0; i < n; i++ {
				if err := m.Toggle(context.Background()); err != nil {
					t.Fatal(err)
				}
			}

			want := initial != (n%2 == 1)
			if got := m.State().IsOpen; got != want {
				t.Fatalf("initial=%t n=%d: expected open=%t, got %t", initial, n, want, got)
			}
			if store.data[KeyOpen] != fmt.Sprint(want) {
				t.Fatalf("initial=%t n=%d: persisted %q", initial, n, store.data[KeyOpen])
			}
			if sink.open != want {
				t.Fatalf("initial=%t n=%d: sink open=%t", initial, n, sink.open)
			}
		}
	}
}

func TestInitializeDefaults(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}
	m := newTestManager(store, &fakeTransport{}, sink)

	s := m.State()
	if s.IsOpen {
		t.Fatal("expected closed session")
	}
	if len(s.History) != 0 {
		t.Fatalf("expected empty history, got %d", len(s.History))
	}
	if _, ok := store.data[KeyOpen]; ok {
		t.Fatal("closed default should not write the open flag")
	}
}

func TestInitializeRestoresOpenWindow(t *testing.T) {
	store := newFakeStore()
	store.data[KeyOpen] = "true"
	sink := &fakeSink{}
	m := newTestManager(store, &fakeTransport{}, sink)

	if !m.State().IsOpen {
		t.Fatal("expected open session")
	}
	if !sink.open {
		t.Fatal("expected window to be shown")
	}
	if store.data[KeyOpen] != "true" {
		t.Fatalf("expected persisted true, got %q", store.data[KeyOpen])
	}
}

func TestInitializeUnparseableState(t *testing.T) {
	tests := []struct {
		name    string
		open    string
		history string
	}{
		{name: "garbage", open: "yes", history: "not json"},
		{name: "object instead of array", open: "1", history: `{"text":"hi"}`},
		{name: "truncated", open: "TRUE", history: `[{"text":"hi","sender":"user"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.data[KeyOpen] = tt.open
			store.data[KeyHistory] = tt.history
			m := newTestManager(store, &fakeTransport{}, &fakeSink{})

			s := m.State()
			if s.IsOpen {
				t.Fatal("expected closed session")
			}
			if len(s.History) != 0 {
				t.Fatalf("expected empty history, got %d", len(s.History))
			}
		})
	}
}

func TestInitializeStoreReadFailure(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("disk gone")
	m := newTestManager(store, &fakeTransport{}, &fakeSink{})

	s := m.State()
	if s.IsOpen || len(s.History) != 0 {
		t.Fatalf("expected default session, got %+v", s)
	}
}

func TestInitializeDropsUnknownSenders(t *testing.T) {
	store := newFakeStore()
	store.data[KeyHistory] = `[{"text":"a","sender":"user","timestamp":1},{"text":"b","sender":"robot","timestamp":2},{"text":"c","sender":"assistant","timestamp":3}]`
	sink := &fakeSink{}
	m := newTestManager(store, &fakeTransport{}, sink)

	h := m.State().History
	if len(h) != 2 || h[0].Text != "a" || h[1].Text != "c" {
		t.Fatalf("unexpected history: %+v", h)
	}
	if len(sink.rendered) != 2 {
		t.Fatalf("expected 2 rendered messages, got %d", len(sink.rendered))
	}
}

func TestSendBlankIsNoop(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		store := newFakeStore()
		tr := &fakeTransport{reply: "unused"}
		sink := &fakeSink{}
		m := newTestManager(store, tr, sink)

		res := m.SendUserMessage(context.Background(), text)

		if !res.Skipped {
			t.Fatalf("%q: expected skipped result", text)
		}
		if len(tr.requests) != 0 {
			t.Fatalf("%q: expected no transport call", text)
		}
		if len(m.State().History) != 0 {
			t.Fatalf("%q: expected no history", text)
		}
		if _, ok := store.data[KeyHistory]; ok {
			t.Fatalf("%q: expected no history write", text)
		}
	}
}

func TestSendSuccess(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{reply: "Hello"}
	sink := &fakeSink{}
	m := newTestManager(store, tr, sink)
	sink.ops = nil

	res := m.SendUserMessage(context.Background(), "Hi")

	if !res.OK() || res.FallbackShown() {
		t.Fatalf("expected OK result, got %+v", res)
	}
	if res.Reply.Text != "Hello" || res.Reply.Sender != SenderAssistant {
		t.Fatalf("unexpected reply: %+v", res.Reply)
	}

	h := m.State().History
	if len(h) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(h))
	}
	if h[0].Sender != SenderUser || h[0].Text != "Hi" {
		t.Fatalf("unexpected first message: %+v", h[0])
	}
	if h[1].Sender != SenderAssistant || h[1].Text != "Hello" {
		t.Fatalf("unexpected second message: %+v", h[1])
	}

	if len(tr.requests) != 1 || tr.requests[0] != (Request{Message: "Hi", Context: DefaultContext}) {
		t.Fatalf("unexpected requests: %+v", tr.requests)
	}

	wantOps := []string{"append:user", "input=", "typing", "untyping", "append:assistant"}
	if strings.Join(sink.ops, ",") != strings.Join(wantOps, ",") {
		t.Fatalf("expected ops %v, got %v", wantOps, sink.ops)
	}
	if sink.typing {
		t.Fatal("typing indicator left on")
	}
}

func TestSendTransportFailure(t *testing.T) {
	store := newFakeStore()
	cause := errors.New("network down")
	tr := &fakeTransport{err: cause}
	sink := &fakeSink{}
	bus := eventbus.New()
	var failures int
	bus.Subscribe(eventbus.TopicTransportFailed, func(eventbus.Event) { failures++ })

	m := NewManager(store, tr, sink, WithBus(bus), WithClock(fixedClock()))
	m.Initialize(context.Background())

	res := m.SendUserMessage(context.Background(), "Hi")

	if !res.FallbackShown() || res.OK() {
		t.Fatalf("expected fallback result, got %+v", res)
	}
	if !errors.Is(res.Err, cause) {
		t.Fatalf("expected cause in result, got %v", res.Err)
	}

	h := m.State().History
	if len(h) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(h))
	}
	if h[0].Sender != SenderUser || h[0].Text != "Hi" {
		t.Fatalf("unexpected first message: %+v", h[0])
	}
	if h[1].Sender != SenderAssistant || h[1].Text != FallbackReply {
		t.Fatalf("unexpected second message: %+v", h[1])
	}
	if sink.typing {
		t.Fatal("typing indicator left on")
	}
	if failures != 1 {
		t.Fatalf("expected 1 failure event, got %d", failures)
	}
}

func TestSendTrimsText(t *testing.T) {
	tr := &fakeTransport{reply: "ok"}
	m := newTestManager(newFakeStore(), tr, &fakeSink{})

	m.SendUserMessage(context.Background(), "  golden hour?  ")

	if tr.requests[0].Message != "golden hour?" {
		t.Fatalf("expected trimmed message, got %q", tr.requests[0].Message)
	}
	if m.State().History[0].Text != "golden hour?" {
		t.Fatalf("expected trimmed history, got %q", m.State().History[0].Text)
	}
}

func TestSendPresetMessage(t *testing.T) {
	tr := &fakeTransport{reply: "Here are some ideas"}
	sink := &fakeSink{}
	m := newTestManager(newFakeStore(), tr, sink)
	sink.ops = nil

	res := m.SendPresetMessage(context.Background(), "Brainstorm a shoot")

	if !res.OK() {
		t.Fatalf("expected OK result, got %+v", res)
	}
	if sink.ops[0] != "input=Brainstorm a shoot" {
		t.Fatalf("expected input to be filled first, got %v", sink.ops)
	}
	if sink.input != "" {
		t.Fatalf("expected input cleared after send, got %q", sink.input)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	store := newFakeStore()
	var seed []Message
	for i := 0; i < MaxHistory; i++ {
		seed = append(seed, Message{Text: fmt.Sprintf("m%d", i), Sender: SenderUser, Timestamp: int64(i)})
	}
	encoded, _ := encodeHistory(seed)
	store.data[KeyHistory] = encoded

	tr := &fakeTransport{reply: "r"}
	m := newTestManager(store, tr, &fakeSink{})

	m.SendUserMessage(context.Background(), "q")

	h := m.State().History
	if len(h) != MaxHistory {
		t.Fatalf("expected %d messages, got %d", MaxHistory, len(h))
	}
	if h[0].Text != "m2" {
		t.Fatalf("expected oldest two evicted, first is %q", h[0].Text)
	}
	if h[MaxHistory-2].Text != "q" || h[MaxHistory-1].Text != "r" {
		t.Fatalf("unexpected tail: %+v", h[MaxHistory-2:])
	}
	for i := 0; i < MaxHistory-2; i++ {
		if h[i].Text != fmt.Sprintf("m%d", i+2) {
			t.Fatalf("order broken at %d: %q", i, h[i].Text)
		}
	}

	persisted, err := decodeHistory(store.data[KeyHistory], 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != MaxHistory {
		t.Fatalf("expected %d persisted messages, got %d", MaxHistory, len(persisted))
	}
}

func TestHistoryLimitNeverExceedsMax(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"above max is ignored", MaxHistory * 2, MaxHistory},
		{"zero is ignored", 0, MaxHistory},
		{"lower limit applies", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(newFakeStore(), &fakeTransport{reply: "r"}, &fakeSink{}, WithHistoryLimit(tt.limit))
			m.Initialize(context.Background())
			for i := 0; i < MaxHistory; i++ {
				m.SendUserMessage(context.Background(), fmt.Sprintf("q%d", i))
			}
			if got := len(m.State().History); got != tt.want {
				t.Fatalf("expected %d messages, got %d", tt.want, got)
			}
		})
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{reply: "Try a softbox"}
	first := newTestManager(store, tr, &fakeSink{})

	first.SendUserMessage(context.Background(), "Lighting setup?")
	tr.err = errors.New("boom")
	first.SendUserMessage(context.Background(), "And outdoors?")
	want := first.State().History

	sink := &fakeSink{}
	second := newTestManager(store, &fakeTransport{}, sink)

	got := second.State().History
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d: expected %+v, got %+v", i, want[i], got[i])
		}
		if sink.rendered[i].Text != want[i].Text || sink.rendered[i].Sender != want[i].Sender {
			t.Fatalf("rendered %d: expected %+v, got %+v", i, want[i], sink.rendered[i])
		}
	}
}

func TestClearHistoryThenReload(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeTransport{reply: "hey"}, &fakeSink{})
	m.SendUserMessage(context.Background(), "hello")

	if err := m.ClearHistory(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(m.State().History) != 0 {
		t.Fatal("expected empty history after clear")
	}
	if _, ok := store.data[KeyHistory]; ok {
		t.Fatal("expected history key removed")
	}

	sink := &fakeSink{rendered: []Message{{Text: "stale"}}}
	reloaded := newTestManager(store, &fakeTransport{}, sink)

	if len(reloaded.State().History) != 0 {
		t.Fatal("expected empty history after reload")
	}
	if len(sink.rendered) != 0 {
		t.Fatalf("expected only the static greeting, got %+v", sink.rendered)
	}
}

func TestTogglePersistFailure(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeTransport{}, &fakeSink{})
	store.setErr = errors.New("quota exceeded")

	if err := m.Toggle(context.Background()); err == nil {
		t.Fatal("expected persistence error")
	}
	if !m.State().IsOpen {
		t.Fatal("expected in-memory flip despite write failure")
	}
}

func TestCustomContextTag(t *testing.T) {
	tr := &fakeTransport{reply: "ok"}
	m := NewManager(newFakeStore(), tr, &fakeSink{}, WithContext("general"))
	m.Initialize(context.Background())

	m.SendUserMessage(context.Background(), "hi")

	if tr.requests[0].Context != "general" {
		t.Fatalf("expected general context, got %q", tr.requests[0].Context)
	}
}
