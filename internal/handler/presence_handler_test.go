package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/presence"
)

func newPresenceRouter() (*gin.Engine, *presence.Store, *presence.Bus) {
	gin.SetMode(gin.TestMode)
	store := presence.NewStore()
	bus := presence.NewBus()
	r := gin.New()
	NewPresenceHandler(store, bus, nil).RegisterRoutes(r)
	return r, store, bus
}

func TestHeartbeat_MissingParams(t *testing.T) {
	r, _, _ := newPresenceRouter()

	for _, target := range []string{
		"/api/v1/presence/heartbeat",
		"/api/v1/presence/heartbeat?room=lobby",
		"/api/v1/presence/heartbeat?username=alice",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, target, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestHeartbeat_RecordsThenPublishes(t *testing.T) {
	r, store, bus := newPresenceRouter()

	// The subscriber must observe the store write made for the same
	// heartbeat it was woken by.
	var snapshotLen int
	bus.Subscribe("lobby", func(ev domain.HeartbeatEvent) {
		snapshotLen = len(store.ListPresence(ev.Room))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/presence/heartbeat?room=Lobby&username=Alice", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if snapshotLen != 1 {
		t.Fatalf("expected the subscriber to see the new entry, got %d entries", snapshotLen)
	}

	var body struct {
		OK bool  `json:"ok"`
		At int64 `json:"at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.OK || body.At == 0 {
		t.Fatalf("expected ok with a timestamp, got %+v", body)
	}
}

func TestList_ReturnsISOTimestamps(t *testing.T) {
	r, _, _ := newPresenceRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/presence/heartbeat?room=lobby&username=bob", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("heartbeat failed: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/presence/list?room=lobby", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body domain.PresenceListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(body.Users))
	}
	u := body.Users[0]
	if u.Username != "bob" {
		t.Errorf("expected username bob, got %q", u.Username)
	}
	if !u.IsLive {
		t.Error("expected a fresh entry to be live")
	}
	if _, err := time.Parse(isoMillis, u.LastSeen); err != nil {
		t.Errorf("expected an ISO-8601 lastSeen, got %q: %v", u.LastSeen, err)
	}
}

func TestList_MissingRoom(t *testing.T) {
	r, _, _ := newPresenceRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/presence/list", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestList_UnknownRoomIsEmptyList(t *testing.T) {
	r, _, _ := newPresenceRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/presence/list?room=nowhere", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body domain.PresenceListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Users == nil || len(body.Users) != 0 {
		t.Fatalf("expected an empty users array, got %v", body.Users)
	}
}

func TestStream_MissingRoom(t *testing.T) {
	r, _, _ := newPresenceRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/presence/stream", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

// streamRecorder is a ResponseWriter whose body can be read while the
// stream handler is still writing to it.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   bytes.Buffer
	code   int
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (r *streamRecorder) Header() http.Header { return r.header }
func (r *streamRecorder) Flush()              {}

func (r *streamRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *streamRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

// stallingRecorder lets the ready frame through, then blocks every
// write until released. It simulates a client that stops reading.
type stallingRecorder struct {
	streamRecorder
	wrote   bool
	release chan struct{}
}

func newStallingRecorder() *stallingRecorder {
	return &stallingRecorder{
		streamRecorder: streamRecorder{header: make(http.Header)},
		release:        make(chan struct{}),
	}
}

func (r *stallingRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	first := !r.wrote
	r.wrote = true
	r.mu.Unlock()
	if !first {
		<-r.release
	}
	return r.streamRecorder.Write(p)
}

func TestStream_StalledClientDoesNotBlockHeartbeats(t *testing.T) {
	r, _, bus := newPresenceRouter()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence/stream?room=lobby", nil).WithContext(ctx)
	w := newStallingRecorder()
	t.Cleanup(func() { close(w.release) })

	go r.ServeHTTP(w, req)

	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount("lobby") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Far more heartbeats than the subscriber's buffer holds. Every POST
	// must complete even though the stream client stopped reading.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hw := httptest.NewRecorder()
			r.ServeHTTP(hw, httptest.NewRequest(http.MethodPost, "/api/v1/presence/heartbeat?room=lobby&username=alice", nil))
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("heartbeat endpoint blocked behind a stalled stream subscriber")
	}
}

func TestStream_ReadyThenEventsThenUnsubscribe(t *testing.T) {
	r, _, bus := newPresenceRouter()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence/stream?room=lobby", nil).WithContext(ctx)
	w := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(w, req)
	}()

	// Wait for the handler to register its subscription.
	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount("lobby") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish("lobby", domain.NewHeartbeatEvent("lobby", "alice", 123))

	// Wait for the frame to be written before closing the client side.
	for !strings.Contains(w.Body(), `"type":"heartbeat"`) {
		if time.Now().After(deadline) {
			t.Fatalf("heartbeat frame never arrived, body %q", w.Body())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the client went away")
	}

	if bus.SubscriberCount("lobby") != 0 {
		t.Error("expected the subscription to be released when the stream ended")
	}

	body := w.Body()
	if !strings.HasPrefix(body, "event: ready\ndata: {}\n\n") {
		t.Fatalf("expected the ready marker first, got %q", body)
	}
	if !strings.Contains(body, `"username":"alice"`) {
		t.Fatalf("expected a heartbeat frame in the stream, got %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
}
