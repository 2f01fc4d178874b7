package chat

import "encoding/json"

// Inbound event names. These arrive over the transport as
// {"type": <name>, "payload": {...}}.
const (
	EventUserJoin           = "user_join"
	EventJoinRoom           = "join_room"
	EventSendMessage        = "send_message"
	EventSendPrivateMessage = "send_private_message"
	EventTypingStart        = "typing_start"
	EventTypingStop         = "typing_stop"
	EventAddReaction        = "add_reaction"
	EventSendFile           = "send_file"
	EventCreateRoom         = "create_room"
	EventStatusChange       = "status_change"
	EventMarkMessageRead    = "mark_message_read"
	EventDisconnect         = "disconnect"
)

// Outbound event names. These leave over the transport as
// {"type": <name>, "data": {...}}.
const (
	EventUserAuthenticated = "user_authenticated"
	EventUsersUpdate       = "users_update"
	EventRoomsList         = "rooms_list"
	EventRoomMessages      = "room_messages"
	EventNewMessage        = "new_message"
	EventUserJoinedRoom    = "user_joined_room"
	EventUserLeftRoom      = "user_left_room"
	EventRoomUsersUpdate   = "room_users_update"
	EventUserTyping        = "user_typing"
	EventPrivateMessage    = "private_message"
	EventReactionUpdate    = "reaction_update"
	EventMessageRead       = "message_read"
	EventNewRoom           = "new_room"
	EventRoomCreated       = "room_created"
	EventUserStatusUpdate  = "user_status_update"
)

// Delivery is one computed fan-out unit: an outbound event plus the exact
// set of connections that must receive it. The payload is marshaled by the
// dispatcher while it still holds the engine lock, so a delivery can never
// observe a half-applied mutation.
type Delivery struct {
	// To lists recipient connection ids. Ignored when All is set.
	To []string `json:"to,omitempty"`
	// All targets every connected client.
	All bool `json:"all,omitempty"`

	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound payload shapes.

// RoomMessagesPayload accompanies room_messages after a room join.
type RoomMessagesPayload struct {
	Room     Room      `json:"room"`
	Messages []Message `json:"messages"`
	Users    []User    `json:"users"`
}

// RoomUsersPayload accompanies room_users_update.
type RoomUsersPayload struct {
	RoomID string `json:"room_id"`
	Users  []User `json:"users"`
}

// RoomEventPayload accompanies user_joined_room and user_left_room.
type RoomEventPayload struct {
	RoomID string `json:"room_id"`
	User   User   `json:"user"`
}

// TypingPayload accompanies user_typing.
type TypingPayload struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

// ReactionUpdatePayload accompanies reaction_update. Reactions maps each
// reaction kind to the usernames currently holding it.
type ReactionUpdatePayload struct {
	MessageID string              `json:"message_id"`
	Reactions map[string][]string `json:"reactions"`
}

// MessageReadPayload accompanies message_read.
type MessageReadPayload struct {
	MessageID string   `json:"message_id"`
	UserID    string   `json:"user_id"`
	ReadBy    []string `json:"read_by"`
}

// StatusUpdatePayload accompanies user_status_update.
type StatusUpdatePayload struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}
