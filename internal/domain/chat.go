package domain

// ChatMessage is a single room chat message kept in recent history.
type ChatMessage struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"` // epoch millis
}

// ChatEntry is the wire shape of a chat history entry.
type ChatEntry struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"` // ISO-8601
}

// ChatListResponse is the response of GET /api/v1/chat/list.
type ChatListResponse struct {
	Messages []ChatEntry `json:"messages"`
}

// PostChatRequest is the body of POST /api/v1/chat.
type PostChatRequest struct {
	Room string `json:"room" binding:"required"`
	Text string `json:"text" binding:"required,min=1,max=2000"`
}
