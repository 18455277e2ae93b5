// Package registry keeps an in-memory map of room metadata. It is
// deliberately independent from the presence store: a room can show
// presence entries without a registry record and the other way around.
package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
)

// Registry is a last-write-wins map from room name to metadata, plus a
// per-room counters map kept in sync whenever an upsert carries counts.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]domain.RoomRecord
	stats map[string]domain.RoomStats

	now func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		rooms: make(map[string]domain.RoomRecord),
		stats: make(map[string]domain.RoomStats),
	}
}

// Upsert merges patch into the room's record, last write wins per field.
// UpdatedAt is bumped on every call regardless of which fields changed.
// If a provided users or broadcasters count is positive the room is
// marked live unless the patch overrides IsLive explicitly.
func (r *Registry) Upsert(name string, patch domain.RoomPatch) domain.RoomRecord {
	name = normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.rooms[name]
	if !ok {
		rec = domain.RoomRecord{Name: name}
	}

	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Promoted != nil {
		rec.Promoted = *patch.Promoted
	}
	if patch.Users != nil {
		rec.Users = *patch.Users
	}
	if patch.Broadcasters != nil {
		rec.Broadcasters = *patch.Broadcasters
	}

	switch {
	case patch.IsLive != nil:
		rec.IsLive = *patch.IsLive
	case (patch.Users != nil && *patch.Users > 0) || (patch.Broadcasters != nil && *patch.Broadcasters > 0):
		rec.IsLive = true
	}

	rec.UpdatedAt = r.clock().UnixMilli()
	r.rooms[name] = rec

	if patch.Users != nil || patch.Broadcasters != nil {
		st := r.stats[name]
		if patch.Users != nil {
			st.Users = *patch.Users
		}
		if patch.Broadcasters != nil {
			st.Broadcasters = *patch.Broadcasters
		}
		r.stats[name] = st
	}

	return rec
}

// List returns all rooms, most recently updated first.
func (r *Registry) List() []domain.RoomRecord {
	r.mu.RLock()
	out := make([]domain.RoomRecord, 0, len(r.rooms))
	for _, rec := range r.rooms {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}

// Stats returns the counters for a room, zeros for unknown rooms.
func (r *Registry) Stats(name string) domain.RoomStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats[normalize(name)]
}

func (r *Registry) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
