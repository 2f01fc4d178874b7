package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// EmitFunc receives a computed delivery. Implementations must not block on
// transport I/O; the dispatcher never waits for delivery before accepting
// the next event.
type EmitFunc func(domain.Delivery)

// Dispatcher is the engine's single entry point. It validates each inbound
// event against the session registry, applies the mutation, and computes
// the minimal set of connections that must receive each resulting state
// change.
//
// Every store is owned exclusively by the dispatcher; one lock serializes
// all mutations so no two events interleave partial updates, and payloads
// are marshaled before the lock is released so no delivery can observe a
// half-applied mutation. Invalid or stale events are dropped with no
// observable effect and nothing is surfaced to the sender.
type Dispatcher struct {
	mu sync.RWMutex

	sessions      *SessionRegistry
	rooms         *RoomDirectory
	messages      *MessageStore
	conversations *ConversationStore
	typing        *TypingTracker
	reactions     *ReactionStore
	unread        *UnreadTracker

	emit   EmitFunc
	logger types.Logger
}

// NewDispatcher creates a dispatcher with empty stores.
func NewDispatcher(logger types.Logger, emit EmitFunc) *Dispatcher {
	if emit == nil {
		emit = func(domain.Delivery) {}
	}
	return &Dispatcher{
		sessions:      NewSessionRegistry(),
		rooms:         NewRoomDirectory(),
		messages:      NewMessageStore(MaxRoomHistory),
		conversations: NewConversationStore(),
		typing:        NewTypingTracker(),
		reactions:     NewReactionStore(),
		unread:        NewUnreadTracker(),
		emit:          emit,
		logger:        logger,
	}
}

// SeedRoom installs a default room before the dispatcher starts serving.
func (d *Dispatcher) SeedRoom(id, name, description string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms.Seed(id, name, description)
}

// dispatch pushes computed deliveries to the emitter, outside the lock.
func (d *Dispatcher) dispatch(out []domain.Delivery) {
	for _, dv := range out {
		d.emit(dv)
	}
}

// send marshals a payload and appends the delivery. Called under the lock.
func (d *Dispatcher) send(out *[]domain.Delivery, to []string, all bool, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("Failed to marshal outbound payload", "event", event, "error", err)
		return
	}
	*out = append(*out, domain.Delivery{To: to, All: all, Event: event, Payload: data})
}

func (d *Dispatcher) drop(event, connID, reason string) {
	d.logger.Debug("Dropped event", "event", event, "connID", connID, "reason", reason)
}

// HandleUserJoin registers or overwrites the session for a connection. An
// overwrite is a fresh start: the prior session's room memberships, typing
// flags, and unread set are all released first.
func (d *Dispatcher) HandleUserJoin(connID, username, avatar string) {
	if err := ValidateUsername(username); err != nil {
		d.drop(domain.EventUserJoin, connID, err.Error())
		return
	}

	d.mu.Lock()
	var out []domain.Delivery
	if prev, ok := d.sessions.Get(connID); ok {
		snapshot := *prev
		for _, roomID := range d.rooms.RemoveEverywhere(connID) {
			if members := d.rooms.Members(roomID); len(members) > 0 {
				d.send(&out, members, false, domain.EventUserLeftRoom, domain.RoomEventPayload{RoomID: roomID, User: snapshot})
				d.send(&out, members, false, domain.EventRoomUsersUpdate, d.roomUsersPayload(roomID))
			}
		}
		d.typing.RemoveConn(connID)
	}
	d.unread.Drop(connID)
	user := d.sessions.Join(connID, username, avatar)

	d.send(&out, []string{connID}, false, domain.EventUserAuthenticated, *user)
	d.send(&out, nil, true, domain.EventUsersUpdate, d.sessions.List())
	d.send(&out, []string{connID}, false, domain.EventRoomsList, d.rooms.List())
	d.mu.Unlock()

	d.logger.Info("User joined", "connID", connID, "username", username)
	d.dispatch(out)
}

// HandleJoinRoom moves a connection into a room, vacating any previous
// room, and replays the most recent messages to the joining connection.
func (d *Dispatcher) HandleJoinRoom(connID, roomID string) {
	d.mu.Lock()
	user, ok := d.sessions.Get(connID)
	if !ok {
		d.mu.Unlock()
		d.drop(domain.EventJoinRoom, connID, "no session")
		return
	}

	var out []domain.Delivery
	vacated, ok := d.rooms.Join(connID, roomID)
	if !ok {
		d.mu.Unlock()
		d.drop(domain.EventJoinRoom, connID, "unknown room")
		return
	}
	d.sessions.SetCurrentRoom(connID, roomID)

	snapshot := *user
	rejoined := false
	for _, prev := range vacated {
		if prev == roomID {
			rejoined = true
			continue
		}
		d.typing.Set(prev, connID, false)
		if members := d.rooms.Members(prev); len(members) > 0 {
			d.send(&out, members, false, domain.EventUserLeftRoom, domain.RoomEventPayload{RoomID: prev, User: snapshot})
			d.send(&out, members, false, domain.EventRoomUsersUpdate, d.roomUsersPayload(prev))
		}
	}

	room, _ := d.rooms.Get(roomID)
	members := d.rooms.Members(roomID)
	d.send(&out, []string{connID}, false, domain.EventRoomMessages, domain.RoomMessagesPayload{
		Room:     room,
		Messages: d.messages.GetRecent(roomID, RecentMessagesOnJoin),
		Users:    d.memberSnapshots(roomID),
	})
	if others := exclude(members, connID); !rejoined && len(others) > 0 {
		d.send(&out, others, false, domain.EventUserJoinedRoom, domain.RoomEventPayload{RoomID: roomID, User: snapshot})
	}
	d.send(&out, members, false, domain.EventRoomUsersUpdate, d.roomUsersPayload(roomID))
	d.mu.Unlock()

	d.dispatch(out)
}

// HandleSendMessage appends a text message to the sender's current room
// and marks it unread for every other member.
func (d *Dispatcher) HandleSendMessage(connID, content string) {
	if err := ValidateMessage(content); err != nil {
		d.drop(domain.EventSendMessage, connID, err.Error())
		return
	}
	d.appendRoomMessage(domain.EventSendMessage, connID, content, nil)
}

// HandleSendFile appends a file-typed message built from an upload
// descriptor. The descriptor content is treated as opaque; size and type
// limits were enforced at the upload boundary.
func (d *Dispatcher) HandleSendFile(connID string, file domain.FileAttachment) {
	if file.FileName == "" || file.FileURL == "" {
		d.drop(domain.EventSendFile, connID, "incomplete file descriptor")
		return
	}
	d.appendRoomMessage(domain.EventSendFile, connID, "", &file)
}

func (d *Dispatcher) appendRoomMessage(event, connID, content string, file *domain.FileAttachment) {
	d.mu.Lock()
	user, ok := d.sessions.Get(connID)
	if !ok {
		d.mu.Unlock()
		d.drop(event, connID, "no session")
		return
	}
	roomID := user.CurrentRoomID
	if roomID == "" || !d.rooms.IsMember(roomID, connID) {
		d.mu.Unlock()
		d.drop(event, connID, "no current room")
		return
	}

	msg := &domain.Message{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   connID,
		SenderName: user.Username,
		Type:       domain.MessageTypeText,
		Content:    content,
		Timestamp:  time.Now(),
	}
	if file != nil {
		msg.Type = domain.MessageTypeFile
		msg.File = file
	}
	d.messages.Append(msg)

	members := d.rooms.Members(roomID)
	for _, member := range members {
		if member != connID {
			d.unread.Mark(member, msg.ID)
		}
	}

	var out []domain.Delivery
	d.send(&out, members, false, domain.EventNewMessage, *msg)
	d.mu.Unlock()

	d.dispatch(out)
}

// HandleSendPrivateMessage appends to the pair's conversation. A no-op
// when either party's session is not currently registered.
func (d *Dispatcher) HandleSendPrivateMessage(connID, recipientID, content string) {
	if err := ValidateMessage(content); err != nil {
		d.drop(domain.EventSendPrivateMessage, connID, err.Error())
		return
	}

	d.mu.Lock()
	sender, ok := d.sessions.Get(connID)
	if !ok {
		d.mu.Unlock()
		d.drop(domain.EventSendPrivateMessage, connID, "no session")
		return
	}
	if _, ok := d.sessions.Get(recipientID); !ok {
		d.mu.Unlock()
		d.drop(domain.EventSendPrivateMessage, connID, "recipient not registered")
		return
	}

	msg := &domain.Message{
		ID:             uuid.New().String(),
		ConversationID: ConversationID(connID, recipientID),
		SenderID:       connID,
		SenderName:     sender.Username,
		Type:           domain.MessageTypeText,
		Content:        content,
		Timestamp:      time.Now(),
	}
	d.conversations.Append(msg)
	d.unread.Mark(recipientID, msg.ID)

	var out []domain.Delivery
	d.send(&out, []string{connID, recipientID}, false, domain.EventPrivateMessage, *msg)
	d.mu.Unlock()

	d.dispatch(out)
}

// HandleTyping toggles the sender's typing flag in its current room and
// notifies every other current member, never the sender.
func (d *Dispatcher) HandleTyping(connID string, isTyping bool) {
	event := domain.EventTypingStart
	if !isTyping {
		event = domain.EventTypingStop
	}

	d.mu.Lock()
	user, ok := d.sessions.Get(connID)
	if !ok {
		d.mu.Unlock()
		d.drop(event, connID, "no session")
		return
	}
	roomID := user.CurrentRoomID
	if roomID == "" || !d.rooms.IsMember(roomID, connID) {
		d.mu.Unlock()
		d.drop(event, connID, "no current room")
		return
	}

	d.typing.Set(roomID, connID, isTyping)

	var out []domain.Delivery
	if others := exclude(d.rooms.Members(roomID), connID); len(others) > 0 {
		d.send(&out, others, false, domain.EventUserTyping, domain.TypingPayload{
			RoomID:   roomID,
			UserID:   connID,
			Username: user.Username,
			IsTyping: isTyping,
		})
	}
	d.mu.Unlock()

	d.dispatch(out)
}

// HandleAddReaction records a reaction and broadcasts the recomputed
// reaction sets. The broadcast target is resolved from the message's own
// stored room or conversation, never from the reacting user's current
// room, which would misroute once the user has moved on.
func (d *Dispatcher) HandleAddReaction(connID, messageID, kind string) {
	if err := ValidateReaction(kind); err != nil {
		d.drop(domain.EventAddReaction, connID, err.Error())
		return
	}

	d.mu.Lock()
	if _, ok := d.sessions.Get(connID); !ok {
		d.mu.Unlock()
		d.drop(domain.EventAddReaction, connID, "no session")
		return
	}
	msg, to, ok := d.locateMessage(messageID)
	if !ok {
		d.mu.Unlock()
		d.drop(domain.EventAddReaction, connID, "unknown message")
		return
	}

	d.reactions.Add(msg.ID, kind, connID)

	var out []domain.Delivery
	d.send(&out, to, false, domain.EventReactionUpdate, domain.ReactionUpdatePayload{
		MessageID: msg.ID,
		Reactions: d.reactionUsernames(msg.ID),
	})
	d.mu.Unlock()

	d.dispatch(out)
}

// HandleMarkRead removes a message from the user's unread set and records
// the read receipt on the message when it is still in a log.
func (d *Dispatcher) HandleMarkRead(connID, messageID string) {
	d.mu.Lock()
	if _, ok := d.sessions.Get(connID); !ok {
		d.mu.Unlock()
		d.drop(domain.EventMarkMessageRead, connID, "no session")
		return
	}

	d.unread.MarkRead(connID, messageID)

	var out []domain.Delivery
	if msg, to, ok := d.locateMessage(messageID); ok {
		if !contains(msg.ReadBy, connID) {
			msg.ReadBy = append(msg.ReadBy, connID)
		}
		d.send(&out, to, false, domain.EventMessageRead, domain.MessageReadPayload{
			MessageID: msg.ID,
			UserID:    connID,
			ReadBy:    append([]string(nil), msg.ReadBy...),
		})
	}
	d.mu.Unlock()

	d.dispatch(out)
}

// HandleCreateRoom creates a room and moves the creator into it. Creation
// implies a join so the creator never holds two memberships.
func (d *Dispatcher) HandleCreateRoom(connID, name, description string, isPrivate bool) {
	if err := ValidateRoomName(name); err != nil {
		d.drop(domain.EventCreateRoom, connID, err.Error())
		return
	}

	d.mu.Lock()
	user, ok := d.sessions.Get(connID)
	if !ok {
		d.mu.Unlock()
		d.drop(domain.EventCreateRoom, connID, "no session")
		return
	}

	var out []domain.Delivery
	snapshot := *user

	// Creation implies a join, so vacate previous rooms first.
	for _, prev := range d.rooms.RemoveEverywhere(connID) {
		d.typing.Set(prev, connID, false)
		if members := d.rooms.Members(prev); len(members) > 0 {
			d.send(&out, members, false, domain.EventUserLeftRoom, domain.RoomEventPayload{RoomID: prev, User: snapshot})
			d.send(&out, members, false, domain.EventRoomUsersUpdate, d.roomUsersPayload(prev))
		}
	}
	room := d.rooms.Create(name, description, connID, isPrivate)
	d.sessions.SetCurrentRoom(connID, room.ID)

	d.send(&out, []string{connID}, false, domain.EventRoomCreated, room)
	d.send(&out, nil, true, domain.EventNewRoom, room)
	d.send(&out, []string{connID}, false, domain.EventRoomMessages, domain.RoomMessagesPayload{
		Room:  room,
		Users: d.memberSnapshots(room.ID),
	})
	d.mu.Unlock()

	d.logger.Info("Room created", "roomID", room.ID, "name", room.Name, "createdBy", connID)
	d.dispatch(out)
}

// HandleStatusChange updates a session's presence status and broadcasts it
// to all sessions.
func (d *Dispatcher) HandleStatusChange(connID, status string) {
	if err := ValidateStatus(status); err != nil {
		d.drop(domain.EventStatusChange, connID, err.Error())
		return
	}

	d.mu.Lock()
	if !d.sessions.SetStatus(connID, status) {
		d.mu.Unlock()
		d.drop(domain.EventStatusChange, connID, "no session")
		return
	}

	var out []domain.Delivery
	d.send(&out, nil, true, domain.EventUserStatusUpdate, domain.StatusUpdatePayload{UserID: connID, Status: status})
	d.mu.Unlock()

	d.dispatch(out)
}

// HandleDisconnect releases everything a connection owns as one unit:
// session, room memberships, typing flags, and the unread set. Each room
// the connection belonged to receives exactly one user_left_room.
func (d *Dispatcher) HandleDisconnect(connID string) {
	d.mu.Lock()
	user, ok := d.sessions.Leave(connID)
	if !ok {
		d.mu.Unlock()
		d.drop(domain.EventDisconnect, connID, "no session")
		return
	}

	var out []domain.Delivery
	snapshot := *user
	for _, roomID := range d.rooms.RemoveEverywhere(connID) {
		if members := d.rooms.Members(roomID); len(members) > 0 {
			d.send(&out, members, false, domain.EventUserLeftRoom, domain.RoomEventPayload{RoomID: roomID, User: snapshot})
			d.send(&out, members, false, domain.EventRoomUsersUpdate, d.roomUsersPayload(roomID))
		}
	}
	d.typing.RemoveConn(connID)
	d.unread.Drop(connID)
	d.send(&out, nil, true, domain.EventUsersUpdate, d.sessions.List())
	d.mu.Unlock()

	d.logger.Info("User disconnected", "connID", connID, "username", snapshot.Username)
	d.dispatch(out)
}

// locateMessage resolves a message id to the stored message plus the
// connections its updates must reach. Called under the lock.
func (d *Dispatcher) locateMessage(messageID string) (*domain.Message, []string, bool) {
	if msg, ok := d.messages.Get(messageID); ok {
		return msg, d.rooms.Members(msg.RoomID), true
	}
	if msg, ok := d.conversations.Get(messageID); ok {
		a, b, ok := ConversationParties(msg.ConversationID)
		if !ok {
			return nil, nil, false
		}
		return msg, []string{a, b}, true
	}
	return nil, nil, false
}

// reactionUsernames maps each reaction kind of a message to usernames.
// Called under the lock.
func (d *Dispatcher) reactionUsernames(messageID string) map[string][]string {
	out := make(map[string][]string)
	for kind, userIDs := range d.reactions.Reactions(messageID) {
		names := make([]string, 0, len(userIDs))
		for _, id := range userIDs {
			names = append(names, d.sessions.Username(id))
		}
		out[kind] = names
	}
	return out
}

// memberSnapshots returns session snapshots for a room's current members.
// Called under the lock.
func (d *Dispatcher) memberSnapshots(roomID string) []domain.User {
	members := d.rooms.Members(roomID)
	out := make([]domain.User, 0, len(members))
	for _, id := range members {
		if u, ok := d.sessions.Snapshot(id); ok {
			out = append(out, u)
		}
	}
	return out
}

func (d *Dispatcher) roomUsersPayload(roomID string) domain.RoomUsersPayload {
	return domain.RoomUsersPayload{RoomID: roomID, Users: d.memberSnapshots(roomID)}
}

func exclude(ids []string, skip string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != skip {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
