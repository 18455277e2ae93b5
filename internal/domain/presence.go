package domain

// EventHeartbeat is the type tag carried by every heartbeat event.
const EventHeartbeat = "heartbeat"

// PresenceInfo is one user's entry in a room's presence snapshot.
type PresenceInfo struct {
	Username string
	LastSeen int64 // epoch millis
	IsLive   bool  // derived from LastSeen freshness
}

// HeartbeatEvent is fanned out to every subscriber of a room when a
// heartbeat arrives. It is never stored.
type HeartbeatEvent struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Username string `json:"username"`
	At       int64  `json:"at"` // epoch millis
}

// NewHeartbeatEvent builds a heartbeat event for a room and user.
func NewHeartbeatEvent(room, username string, at int64) HeartbeatEvent {
	return HeartbeatEvent{
		Type:     EventHeartbeat,
		Room:     room,
		Username: username,
		At:       at,
	}
}

// PresenceEntry is the wire shape of a presence list entry.
type PresenceEntry struct {
	Username string `json:"username"`
	LastSeen string `json:"lastSeen"` // ISO-8601
	IsLive   bool   `json:"isLive"`
}

// PresenceListResponse is the response of the presence list endpoint.
type PresenceListResponse struct {
	Users []PresenceEntry `json:"users"`
}
