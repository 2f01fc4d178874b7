package chat

import (
	"strings"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// ConversationID derives the canonical id for the unordered user pair
// {a, b}: the two ids sorted and joined, so ConversationID(a, b) always
// equals ConversationID(b, a).
func ConversationID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// ConversationParties splits a conversation id back into its two user ids.
func ConversationParties(conversationID string) (string, string, bool) {
	a, b, ok := strings.Cut(conversationID, ":")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// ConversationStore keeps the ordered message log of every private
// two-party conversation. Conversations are created lazily on first
// message and never deleted.
type ConversationStore struct {
	logs  map[string][]*domain.Message
	index map[string]*domain.Message
}

// NewConversationStore creates an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		logs:  make(map[string][]*domain.Message),
		index: make(map[string]*domain.Message),
	}
}

// Append adds a message to its conversation's log.
func (s *ConversationStore) Append(msg *domain.Message) {
	s.logs[msg.ConversationID] = append(s.logs[msg.ConversationID], msg)
	s.index[msg.ID] = msg
}

// Get looks a private message up by id.
func (s *ConversationStore) Get(messageID string) (*domain.Message, bool) {
	m, ok := s.index[messageID]
	return m, ok
}

// Messages returns value snapshots of a conversation's log in arrival
// order.
func (s *ConversationStore) Messages(conversationID string) []domain.Message {
	return copyMessages(s.logs[conversationID])
}

// Len returns the length of a conversation's log.
func (s *ConversationStore) Len(conversationID string) int {
	return len(s.logs[conversationID])
}
