package domain

// RoomRecord is the in-memory registry entry for a room.
// Fields other than Name are optional; an upsert only overwrites the
// fields the caller provided.
type RoomRecord struct {
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	Promoted     bool   `json:"promoted,omitempty"`
	IsLive       bool   `json:"isLive,omitempty"`
	Broadcasters int    `json:"broadcasters,omitempty"`
	Users        int    `json:"users,omitempty"`
	UpdatedAt    int64  `json:"updatedAt"` // epoch millis, bumped on every upsert
}

// RoomPatch carries the fields of a registry upsert. Nil pointer means
// "leave the existing value alone".
type RoomPatch struct {
	Title        *string
	Promoted     *bool
	IsLive       *bool
	Broadcasters *int
	Users        *int
}

// RoomStats is the per-room counters snapshot.
type RoomStats struct {
	Broadcasters int `json:"broadcasters"`
	Users        int `json:"users"`
}

// UpsertRoomRequest is the body of POST /api/v1/rooms/upsert.
type UpsertRoomRequest struct {
	Room       string  `json:"room" binding:"required"`
	Title      *string `json:"title"`
	UsersCount *int    `json:"usersCount"`
	CamsCount  *int    `json:"camsCount"` // broadcasters
}

// JoinRoomRequest is the body of POST /api/v1/rooms/join.
type JoinRoomRequest struct {
	Room          string `json:"room" binding:"required"`
	OwnerUsername string `json:"ownerUsername"`
}

// RoomStatsResponse is the response of GET /api/v1/rooms/:name/stats.
type RoomStatsResponse struct {
	Room         string `json:"room"`
	Broadcasters int    `json:"broadcasters"`
	Users        int    `json:"users"`
}
