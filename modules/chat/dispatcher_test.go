package chat

import (
	"encoding/json"
	"testing"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(msg string, args ...any)         {}
func (m *mockLogger) Info(msg string, args ...any)          {}
func (m *mockLogger) Warn(msg string, args ...any)          {}
func (m *mockLogger) Error(msg string, args ...any)         {}
func (m *mockLogger) With(args ...any) types.Logger         { return m }
func (m *mockLogger) WithError(err error) types.Logger      { return m }
func (m *mockLogger) WithModule(module string) types.Logger { return m }

// capture collects every delivery the dispatcher emits.
type capture struct {
	deliveries []domain.Delivery
}

func (c *capture) emit(dv domain.Delivery) {
	c.deliveries = append(c.deliveries, dv)
}

func (c *capture) reset() {
	c.deliveries = nil
}

// byEvent returns the captured deliveries carrying the given event.
func (c *capture) byEvent(event string) []domain.Delivery {
	var out []domain.Delivery
	for _, dv := range c.deliveries {
		if dv.Event == event {
			out = append(out, dv)
		}
	}
	return out
}

func newTestDispatcher() (*Dispatcher, *capture) {
	rec := &capture{}
	d := NewDispatcher(&mockLogger{}, rec.emit)
	d.SeedRoom("general", "General", "")
	d.SeedRoom("random", "Random", "")
	return d, rec
}

// joinUser registers a session and moves it into a room, then clears the
// capture so tests only see the deliveries they care about.
func joinUser(d *Dispatcher, rec *capture, connID, username, roomID string) {
	d.HandleUserJoin(connID, username, "")
	if roomID != "" {
		d.HandleJoinRoom(connID, roomID)
	}
	rec.reset()
}

func TestDispatcher_HandleUserJoin(t *testing.T) {
	d, rec := newTestDispatcher()

	d.HandleUserJoin("conn1", "alice", "avatar.png")

	auth := rec.byEvent(domain.EventUserAuthenticated)
	require.Len(t, auth, 1)
	assert.Equal(t, []string{"conn1"}, auth[0].To)

	var user domain.User
	require.NoError(t, json.Unmarshal(auth[0].Payload, &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, StatusOnline, user.Status)

	users := rec.byEvent(domain.EventUsersUpdate)
	require.Len(t, users, 1)
	assert.True(t, users[0].All)

	rooms := rec.byEvent(domain.EventRoomsList)
	require.Len(t, rooms, 1)
	assert.Equal(t, []string{"conn1"}, rooms[0].To)

	var roomList []domain.Room
	require.NoError(t, json.Unmarshal(rooms[0].Payload, &roomList))
	assert.Len(t, roomList, 2)
}

func TestDispatcher_HandleUserJoin_InvalidUsername(t *testing.T) {
	d, rec := newTestDispatcher()

	d.HandleUserJoin("conn1", "", "")

	assert.Empty(t, rec.deliveries, "invalid join must have no observable effect")
}

func TestDispatcher_HandleUserJoin_OverwriteResetsState(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")

	d.HandleSendMessage("conn2", "hello")
	d.HandleTyping("conn1", true)
	require.Equal(t, 1, d.unread.Get("conn1").Count)
	rec.reset()

	d.HandleUserJoin("conn1", "alice2", "")

	// The fresh session starts clean: no unread ids, no memberships, no
	// typing flag, no current room.
	assert.Equal(t, 0, d.unread.Get("conn1").Count)
	assert.False(t, d.rooms.IsMember("general", "conn1"))
	assert.False(t, d.typing.IsTyping("general", "conn1"))

	user, ok := d.sessions.Get("conn1")
	require.True(t, ok)
	assert.Equal(t, "alice2", user.Username)
	assert.Empty(t, user.CurrentRoomID)

	// Remaining members see the old session leave
	left := rec.byEvent(domain.EventUserLeftRoom)
	require.Len(t, left, 1)
	assert.Equal(t, []string{"conn2"}, left[0].To)

	var payload domain.RoomEventPayload
	require.NoError(t, json.Unmarshal(left[0].Payload, &payload))
	assert.Equal(t, "general", payload.RoomID)
	assert.Equal(t, "alice", payload.User.Username)
}

func TestDispatcher_HandleJoinRoom(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")

	d.HandleUserJoin("conn2", "bob", "")
	rec.reset()
	d.HandleJoinRoom("conn2", "general")

	replay := rec.byEvent(domain.EventRoomMessages)
	require.Len(t, replay, 1)
	assert.Equal(t, []string{"conn2"}, replay[0].To)

	var payload domain.RoomMessagesPayload
	require.NoError(t, json.Unmarshal(replay[0].Payload, &payload))
	assert.Equal(t, "general", payload.Room.ID)
	assert.Len(t, payload.Users, 2)

	joined := rec.byEvent(domain.EventUserJoinedRoom)
	require.Len(t, joined, 1)
	assert.Equal(t, []string{"conn1"}, joined[0].To, "user_joined_room must not reach the joiner")
}

func TestDispatcher_HandleJoinRoom_VacatesPrevious(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")

	d.HandleJoinRoom("conn2", "random")

	left := rec.byEvent(domain.EventUserLeftRoom)
	require.Len(t, left, 1)
	assert.Equal(t, []string{"conn1"}, left[0].To)

	var payload domain.RoomEventPayload
	require.NoError(t, json.Unmarshal(left[0].Payload, &payload))
	assert.Equal(t, "general", payload.RoomID)
	assert.Equal(t, "bob", payload.User.Username)
}

func TestDispatcher_HandleJoinRoom_RejoinSameRoom(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")

	d.HandleJoinRoom("conn2", "general")

	// Nothing changed for the other members, so no announcements
	assert.Empty(t, rec.byEvent(domain.EventUserJoinedRoom))
	assert.Empty(t, rec.byEvent(domain.EventUserLeftRoom))

	// The rejoiner still gets the replay
	replay := rec.byEvent(domain.EventRoomMessages)
	require.Len(t, replay, 1)
	assert.Equal(t, []string{"conn2"}, replay[0].To)
	assert.True(t, d.rooms.IsMember("general", "conn2"))
}

func TestDispatcher_HandleJoinRoom_NoSession(t *testing.T) {
	d, rec := newTestDispatcher()

	d.HandleJoinRoom("ghost", "general")

	assert.Empty(t, rec.deliveries)
}

func TestDispatcher_HandleJoinRoom_UnknownRoom(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")

	d.HandleJoinRoom("conn1", "nonexistent")

	assert.Empty(t, rec.deliveries)
	// Membership unchanged
	assert.True(t, d.rooms.IsMember("general", "conn1"))
}

func TestDispatcher_HandleSendMessage(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")
	joinUser(d, rec, "conn3", "carol", "random")

	d.HandleSendMessage("conn1", "hello")

	assert.Equal(t, 1, d.messages.Count("general"))

	msgs := rec.byEvent(domain.EventNewMessage)
	require.Len(t, msgs, 1)
	assert.ElementsMatch(t, []string{"conn1", "conn2"}, msgs[0].To, "only current members receive the message")

	var msg domain.Message
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &msg))
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "alice", msg.SenderName)
	assert.Equal(t, domain.MessageTypeText, msg.Type)

	// Unread for every member except the sender
	assert.False(t, d.unread.Contains("conn1", msg.ID), "sender must not see own message as unread")
	assert.True(t, d.unread.Contains("conn2", msg.ID))
	assert.False(t, d.unread.Contains("conn3", msg.ID), "non-members must not be marked")
}

func TestDispatcher_HandleSendMessage_NoRoom(t *testing.T) {
	d, rec := newTestDispatcher()
	d.HandleUserJoin("conn1", "alice", "")
	rec.reset()

	d.HandleSendMessage("conn1", "hello")

	assert.Empty(t, rec.deliveries, "message without a current room is dropped")
	assert.Equal(t, 0, d.messages.Count("general"))
}

func TestDispatcher_HandleSendFile(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")

	d.HandleSendFile("conn1", domain.FileAttachment{
		FileName: "report.pdf",
		FileURL:  "/api/v1/files/abc",
		FileSize: 1024,
	})

	msgs := rec.byEvent(domain.EventNewMessage)
	require.Len(t, msgs, 1)

	var msg domain.Message
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &msg))
	assert.Equal(t, domain.MessageTypeFile, msg.Type)
	require.NotNil(t, msg.File)
	assert.Equal(t, "report.pdf", msg.File.FileName)
}

func TestDispatcher_HandleSendFile_IncompleteDescriptor(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")

	d.HandleSendFile("conn1", domain.FileAttachment{FileName: "x"})

	assert.Empty(t, rec.deliveries)
}

func TestDispatcher_HandleSendPrivateMessage(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "connA", "alice", "")
	joinUser(d, rec, "connB", "bob", "")

	d.HandleSendPrivateMessage("connA", "connB", "psst")

	convID := ConversationID("connA", "connB")
	assert.Equal(t, 1, d.conversations.Len(convID))

	pms := rec.byEvent(domain.EventPrivateMessage)
	require.Len(t, pms, 1)
	assert.ElementsMatch(t, []string{"connA", "connB"}, pms[0].To)

	var msg domain.Message
	require.NoError(t, json.Unmarshal(pms[0].Payload, &msg))
	assert.Equal(t, convID, msg.ConversationID)
	assert.Empty(t, msg.RoomID)

	assert.True(t, d.unread.Contains("connB", msg.ID), "recipient gets the unread mark")
	assert.False(t, d.unread.Contains("connA", msg.ID), "sender does not")
}

func TestDispatcher_HandleSendPrivateMessage_UnknownRecipient(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "connA", "alice", "")

	d.HandleSendPrivateMessage("connA", "ghost", "psst")

	assert.Empty(t, rec.deliveries)
	assert.Equal(t, 0, d.conversations.Len(ConversationID("connA", "ghost")))
}

func TestDispatcher_HandleTyping_ExcludesSender(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")

	d.HandleTyping("conn1", true)

	typing := rec.byEvent(domain.EventUserTyping)
	require.Len(t, typing, 1)
	assert.Equal(t, []string{"conn2"}, typing[0].To, "typing must never echo to the sender")

	var payload domain.TypingPayload
	require.NoError(t, json.Unmarshal(typing[0].Payload, &payload))
	assert.True(t, payload.IsTyping)
	assert.Equal(t, "alice", payload.Username)
	assert.True(t, d.typing.IsTyping("general", "conn1"))

	rec.reset()
	d.HandleTyping("conn1", false)
	require.Len(t, rec.byEvent(domain.EventUserTyping), 1)
	assert.False(t, d.typing.IsTyping("general", "conn1"))
}

func TestDispatcher_HandleTyping_AloneInRoom(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")

	d.HandleTyping("conn1", true)

	assert.Empty(t, rec.byEvent(domain.EventUserTyping), "no other members, nothing to deliver")
	assert.True(t, d.typing.IsTyping("general", "conn1"), "the flag is still recorded")
}

func TestDispatcher_HandleAddReaction_RoutedToMessageRoom(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")

	d.HandleSendMessage("conn1", "react to me")
	var msg domain.Message
	require.NoError(t, json.Unmarshal(rec.byEvent(domain.EventNewMessage)[0].Payload, &msg))

	// The reactor moves away; the update must still follow the message's
	// own room, not the reactor's current one.
	d.HandleJoinRoom("conn2", "random")
	rec.reset()

	d.HandleAddReaction("conn2", msg.ID, "👍")

	updates := rec.byEvent(domain.EventReactionUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"conn1"}, updates[0].To, "delivery targets the message's room members")

	var payload domain.ReactionUpdatePayload
	require.NoError(t, json.Unmarshal(updates[0].Payload, &payload))
	assert.Equal(t, msg.ID, payload.MessageID)
	assert.Equal(t, []string{"bob"}, payload.Reactions["👍"])
}

func TestDispatcher_HandleAddReaction_PrivateMessage(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "connA", "alice", "")
	joinUser(d, rec, "connB", "bob", "")

	d.HandleSendPrivateMessage("connA", "connB", "psst")
	var msg domain.Message
	require.NoError(t, json.Unmarshal(rec.byEvent(domain.EventPrivateMessage)[0].Payload, &msg))
	rec.reset()

	d.HandleAddReaction("connB", msg.ID, "❤️")

	updates := rec.byEvent(domain.EventReactionUpdate)
	require.Len(t, updates, 1)
	assert.ElementsMatch(t, []string{"connA", "connB"}, updates[0].To)
}

func TestDispatcher_HandleAddReaction_UnknownMessage(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")

	d.HandleAddReaction("conn1", "nonexistent", "👍")

	assert.Empty(t, rec.deliveries)
}

func TestDispatcher_HandleMarkRead(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")

	d.HandleSendMessage("conn1", "read me")
	var msg domain.Message
	require.NoError(t, json.Unmarshal(rec.byEvent(domain.EventNewMessage)[0].Payload, &msg))
	require.True(t, d.unread.Contains("conn2", msg.ID))
	rec.reset()

	d.HandleMarkRead("conn2", msg.ID)

	assert.False(t, d.unread.Contains("conn2", msg.ID))

	reads := rec.byEvent(domain.EventMessageRead)
	require.Len(t, reads, 1)

	var payload domain.MessageReadPayload
	require.NoError(t, json.Unmarshal(reads[0].Payload, &payload))
	assert.Equal(t, "conn2", payload.UserID)
	assert.Contains(t, payload.ReadBy, "conn2")

	// Marking again keeps ReadBy deduplicated
	rec.reset()
	d.HandleMarkRead("conn2", msg.ID)
	reads = rec.byEvent(domain.EventMessageRead)
	require.Len(t, reads, 1)
	require.NoError(t, json.Unmarshal(reads[0].Payload, &payload))
	assert.Len(t, payload.ReadBy, 1)
}

func TestDispatcher_HandleMarkRead_EvictedMessage(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")

	// An unread id whose message no longer exists still clears cleanly
	d.unread.Mark("conn1", "long-gone")
	d.HandleMarkRead("conn1", "long-gone")

	assert.False(t, d.unread.Contains("conn1", "long-gone"))
	assert.Empty(t, rec.byEvent(domain.EventMessageRead), "no receipt without a located message")
}

func TestDispatcher_HandleCreateRoom(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")

	d.HandleCreateRoom("conn2", "Gophers", "Go talk", false)

	created := rec.byEvent(domain.EventRoomCreated)
	require.Len(t, created, 1)
	assert.Equal(t, []string{"conn2"}, created[0].To)

	var room domain.Room
	require.NoError(t, json.Unmarshal(created[0].Payload, &room))
	assert.Equal(t, "Gophers", room.Name)
	assert.Equal(t, "conn2", room.CreatedBy)

	announced := rec.byEvent(domain.EventNewRoom)
	require.Len(t, announced, 1)
	assert.True(t, announced[0].All)

	// Creation implies a join: the creator left general and holds exactly
	// the new membership.
	assert.False(t, d.rooms.IsMember("general", "conn2"))
	assert.True(t, d.rooms.IsMember(room.ID, "conn2"))

	left := rec.byEvent(domain.EventUserLeftRoom)
	require.Len(t, left, 1)
	assert.Equal(t, []string{"conn1"}, left[0].To)

	user, _ := d.sessions.Get("conn2")
	assert.Equal(t, room.ID, user.CurrentRoomID)
}

func TestDispatcher_HandleStatusChange(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "")

	d.HandleStatusChange("conn1", "away")

	updates := rec.byEvent(domain.EventUserStatusUpdate)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].All)

	var payload domain.StatusUpdatePayload
	require.NoError(t, json.Unmarshal(updates[0].Payload, &payload))
	assert.Equal(t, "away", payload.Status)

	user, _ := d.sessions.Get("conn1")
	assert.Equal(t, "away", user.Status)
}

func TestDispatcher_HandleDisconnect(t *testing.T) {
	d, rec := newTestDispatcher()
	joinUser(d, rec, "conn1", "alice", "general")
	joinUser(d, rec, "conn2", "bob", "general")

	d.HandleTyping("conn2", true)
	d.HandleSendMessage("conn1", "unread for bob")
	rec.reset()

	d.HandleDisconnect("conn2")

	// Session, membership, typing flag and unread set all released
	_, ok := d.sessions.Get("conn2")
	assert.False(t, ok)
	assert.False(t, d.rooms.IsMember("general", "conn2"))
	assert.False(t, d.typing.IsTyping("general", "conn2"))
	assert.Equal(t, 0, d.unread.Get("conn2").Count)

	// Exactly one user_left_room per room the connection belonged to
	left := rec.byEvent(domain.EventUserLeftRoom)
	require.Len(t, left, 1)
	assert.Equal(t, []string{"conn1"}, left[0].To)

	users := rec.byEvent(domain.EventUsersUpdate)
	require.Len(t, users, 1)
	assert.True(t, users[0].All)

	var list []domain.User
	require.NoError(t, json.Unmarshal(users[0].Payload, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Username)
}

func TestDispatcher_HandleDisconnect_NoSession(t *testing.T) {
	d, rec := newTestDispatcher()

	d.HandleDisconnect("ghost")

	assert.Empty(t, rec.deliveries)
}

func TestDispatcher_NilEmitter(t *testing.T) {
	d := NewDispatcher(&mockLogger{}, nil)
	d.SeedRoom("general", "General", "")

	// Must not panic with no emitter wired
	d.HandleUserJoin("conn1", "alice", "")
	d.HandleJoinRoom("conn1", "general")
	d.HandleSendMessage("conn1", "hello")

	assert.Equal(t, 1, d.messages.Count("general"))
}
