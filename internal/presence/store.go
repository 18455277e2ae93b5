package presence

import (
	"strings"
	"sync"
	"time"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
)

// FreshWindow is how long after its last heartbeat a user still counts
// as live in a room.
const FreshWindow = 30 * time.Second

// Store owns the authoritative last-seen timestamp per (room, username)
// and answers liveness queries. Entries are never deleted; a user that
// stops heartbeating goes stale but remains queryable until restart.
//
// Every operation is a total function: unknown rooms and users yield
// empty results, never errors.
type Store struct {
	mu       sync.RWMutex
	lastSeen map[string]map[string]int64 // room -> username -> epoch millis

	now func() time.Time
}

// NewStore creates an empty presence store.
func NewStore() *Store {
	return &Store{
		lastSeen: make(map[string]map[string]int64),
		now:      time.Now,
	}
}

// RecordHeartbeat marks a user as seen in a room right now and returns
// the recorded time. A repeated heartbeat overwrites the timestamp; it
// never creates a duplicate entry.
func (s *Store) RecordHeartbeat(room, username string) time.Time {
	room = normalizeKey(room)
	username = normalizeKey(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.lastSeen[room]
	if !ok {
		users = make(map[string]int64)
		s.lastSeen[room] = users
	}

	now := s.now()
	users[username] = now.UnixMilli()
	return now
}

// ListPresence returns a snapshot of every user ever seen in a room,
// live or stale. Unknown rooms yield an empty slice. Ordering is
// unspecified; callers re-sort if they care.
func (s *Store) ListPresence(room string) []domain.PresenceInfo {
	room = normalizeKey(room)

	s.mu.RLock()
	defer s.mu.RUnlock()

	users, ok := s.lastSeen[room]
	if !ok {
		return nil
	}

	now := s.now().UnixMilli()
	fresh := FreshWindow.Milliseconds()

	out := make([]domain.PresenceInfo, 0, len(users))
	for username, ts := range users {
		out = append(out, domain.PresenceInfo{
			Username: username,
			LastSeen: ts,
			IsLive:   now-ts < fresh,
		})
	}
	return out
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
