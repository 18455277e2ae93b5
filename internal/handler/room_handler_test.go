package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MGeorge0116/ezchat-cam/internal/registry"
)

func newRoomRouter() (*gin.Engine, *registry.Registry) {
	gin.SetMode(gin.TestMode)
	reg := registry.New()
	r := gin.New()
	NewRoomHandler(reg).RegisterRoutes(r)
	return r, reg
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestUpsertRoom(t *testing.T) {
	r, reg := newRoomRouter()

	w := httptest.NewRecorder()
	body := `{"room":"Lobby","title":"My Lobby","usersCount":3}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/upsert", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatalf("expected success, got %s", w.Body.String())
	}

	rooms := reg.List()
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	rec := rooms[0]
	if rec.Name != "lobby" || rec.Title != "My Lobby" || rec.Users != 3 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if !rec.IsLive {
		t.Error("expected a positive users count to mark the room live")
	}
}

func TestUpsertRoom_InvalidBody(t *testing.T) {
	r, _ := newRoomRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/upsert", strings.NewReader(`{}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a body without room, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Success || env.Error == nil {
		t.Fatalf("expected an error envelope, got %s", w.Body.String())
	}
}

func TestJoinRoom(t *testing.T) {
	r, reg := newRoomRouter()

	w := httptest.NewRecorder()
	body := `{"room":" Lobby ","ownerUsername":"Alice"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/join", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	rooms := reg.List()
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	rec := rooms[0]
	if rec.Name != "lobby" || rec.Title != "LOBBY" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if !rec.IsLive {
		t.Error("expected a joined room to be live")
	}
}

func TestGetStats_UnknownRoomIsZero(t *testing.T) {
	r, _ := newRoomRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/ghost/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	env := decodeEnvelope(t, w)
	var stats struct {
		Room         string `json:"room"`
		Broadcasters int    `json:"broadcasters"`
		Users        int    `json:"users"`
	}
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Room != "ghost" || stats.Users != 0 || stats.Broadcasters != 0 {
		t.Fatalf("expected zeroed stats for an unknown room, got %+v", stats)
	}
}
