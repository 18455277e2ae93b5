// Package chat keeps a capped recent-message history per room in Redis.
// The live message path runs over the messaging SDK; this history only
// backfills the chat panel on join.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MGeorge0116/ezchat-cam/internal/domain"
	"github.com/MGeorge0116/ezchat-cam/internal/kvstore"
)

// History stores and serves recent chat messages.
type History struct {
	store *kvstore.RedisStore
	limit int64
	ttl   time.Duration
}

// NewHistory creates a history over the given key-value store.
func NewHistory(store *kvstore.RedisStore, limit int, ttl time.Duration) *History {
	if limit <= 0 {
		limit = 200
	}
	return &History{
		store: store,
		limit: int64(limit),
		ttl:   ttl,
	}
}

func historyKey(room string) string {
	return fmt.Sprintf("chat:room:%s:history", room)
}

// Append records a message and returns it with ID and timestamp filled.
func (h *History) Append(ctx context.Context, room, username, text string) (*domain.ChatMessage, error) {
	msg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		Room:      normalize(room),
		Username:  normalize(username),
		Text:      text,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := h.store.LPushTrim(ctx, historyKey(msg.Room), msg, h.limit, h.ttl); err != nil {
		return nil, fmt.Errorf("failed to append chat message: %w", err)
	}
	return msg, nil
}

// List returns the recent messages of a room, newest first. Unknown
// rooms yield an empty slice.
func (h *History) List(ctx context.Context, room string) ([]domain.ChatMessage, error) {
	messages := make([]domain.ChatMessage, 0, h.limit)
	err := h.store.LRangeJSON(ctx, historyKey(normalize(room)), h.limit, func(raw []byte) error {
		var m domain.ChatMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("corrupt chat history entry: %w", err)
		}
		messages = append(messages, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
