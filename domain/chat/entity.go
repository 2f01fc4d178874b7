package chat

import "time"

// User represents one live connection and its session state. Exactly one
// instance exists per connection; joining again under the same connection
// overwrites it.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar,omitempty"`
	Status        string    `json:"status"`
	CurrentRoomID string    `json:"current_room_id,omitempty"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Room represents a named channel with explicit membership.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsPrivate   bool      `json:"is_private"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count"`
}

// Message type discriminators.
const (
	MessageTypeText = "text"
	MessageTypeFile = "file"
)

// FileAttachment is the descriptor produced by the upload collaborator.
// The engine stores it opaquely and never inspects the referenced content.
type FileAttachment struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	FileSize int64  `json:"file_size"`
}

// Message represents a chat message in a room or a private conversation.
// Exactly one of RoomID / ConversationID is set. Immutable after creation
// except for ReadBy and the reaction sets tracked by the reaction store.
type Message struct {
	ID             string          `json:"id"`
	RoomID         string          `json:"room_id,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	SenderID       string          `json:"sender_id"`
	SenderName     string          `json:"sender_name"`
	Type           string          `json:"type"`
	Content        string          `json:"content,omitempty"`
	File           *FileAttachment `json:"file,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	ReadBy         []string        `json:"read_by,omitempty"`
}

// UnreadInfo is the per-user unread projection.
type UnreadInfo struct {
	Count      int      `json:"count"`
	MessageIDs []string `json:"message_ids"`
}
