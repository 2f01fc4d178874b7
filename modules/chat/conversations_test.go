package chat

import (
	"testing"
	"time"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

func TestConversationID_OrderIndependent(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"already sorted", "alice", "bob", "alice:bob"},
		{"reversed", "bob", "alice", "alice:bob"},
		{"equal ids", "alice", "alice", "alice:alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConversationID(tt.a, tt.b); got != tt.want {
				t.Errorf("ConversationID(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if ConversationID("x", "y") != ConversationID("y", "x") {
		t.Error("ConversationID() must be symmetric")
	}
}

func TestConversationParties(t *testing.T) {
	a, b, ok := ConversationParties("alice:bob")
	if !ok || a != "alice" || b != "bob" {
		t.Errorf("ConversationParties() = (%q, %q, %v), want (alice, bob, true)", a, b, ok)
	}

	for _, bad := range []string{"", "alice", ":bob", "alice:"} {
		if _, _, ok := ConversationParties(bad); ok {
			t.Errorf("ConversationParties(%q) = true, want false", bad)
		}
	}
}

func TestConversationStore_AppendAndGet(t *testing.T) {
	s := NewConversationStore()
	convID := ConversationID("alice", "bob")

	msg := &domain.Message{
		ID:             "m1",
		ConversationID: convID,
		SenderID:       "alice",
		Content:        "hi",
		Timestamp:      time.Now(),
	}
	s.Append(msg)

	if s.Len(convID) != 1 {
		t.Errorf("Len() = %d, want 1", s.Len(convID))
	}

	got, ok := s.Get("m1")
	if !ok {
		t.Fatal("Get() expected message to exist")
	}
	if got.ConversationID != convID {
		t.Errorf("ConversationID = %q, want %q", got.ConversationID, convID)
	}
}

func TestConversationStore_LazyCreation(t *testing.T) {
	s := NewConversationStore()

	// Nothing exists until the first message
	if s.Len(ConversationID("alice", "bob")) != 0 {
		t.Error("Len() = nonzero for conversation that never received a message")
	}
	if msgs := s.Messages(ConversationID("alice", "bob")); len(msgs) != 0 {
		t.Errorf("Messages() count = %d, want 0", len(msgs))
	}
}

func TestConversationStore_MessagesInArrivalOrder(t *testing.T) {
	s := NewConversationStore()
	convID := ConversationID("alice", "bob")

	for _, id := range []string{"m1", "m2", "m3"} {
		s.Append(&domain.Message{ID: id, ConversationID: convID})
	}

	msgs := s.Messages(convID)
	want := []string{"m1", "m2", "m3"}
	if len(msgs) != len(want) {
		t.Fatalf("Messages() count = %d, want %d", len(msgs), len(want))
	}
	for i, id := range want {
		if msgs[i].ID != id {
			t.Errorf("Messages()[%d].ID = %q, want %q", i, msgs[i].ID, id)
		}
	}
}
