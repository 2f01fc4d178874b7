package chat

import (
	"strings"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// MessageStore keeps the ordered, capped message log of every room plus a
// global id index for reaction and read-receipt lookups. Evicting a message
// removes it from the index only; orphaned reaction/unread entries are
// skipped lazily rather than compacted.
type MessageStore struct {
	logs  map[string][]*domain.Message
	index map[string]*domain.Message // message id -> message
	cap   int
}

// NewMessageStore creates a store with the given per-room cap.
func NewMessageStore(cap int) *MessageStore {
	if cap <= 0 {
		cap = MaxRoomHistory
	}
	return &MessageStore{
		logs:  make(map[string][]*domain.Message),
		index: make(map[string]*domain.Message),
		cap:   cap,
	}
}

// Append adds a message to its room's log. If the log exceeds the cap the
// oldest entry is dropped and returned.
func (s *MessageStore) Append(msg *domain.Message) (evicted *domain.Message) {
	log := append(s.logs[msg.RoomID], msg)
	s.index[msg.ID] = msg
	if len(log) > s.cap {
		evicted = log[0]
		log = log[1:]
		delete(s.index, evicted.ID)
	}
	s.logs[msg.RoomID] = log
	return evicted
}

// Get looks a message up by id. Evicted messages are not found.
func (s *MessageStore) Get(messageID string) (*domain.Message, bool) {
	m, ok := s.index[messageID]
	return m, ok
}

// GetRecent returns value snapshots of the last n messages of a room in
// arrival order.
func (s *MessageStore) GetRecent(roomID string, n int) []domain.Message {
	log := s.logs[roomID]
	if n <= 0 || n > len(log) {
		n = len(log)
	}
	return copyMessages(log[len(log)-n:])
}

// GetRecentBefore returns up to n messages immediately preceding the given
// message id, for cursor pagination. An empty or unknown cursor yields the
// log tail.
func (s *MessageStore) GetRecentBefore(roomID, beforeID string, n int) []domain.Message {
	log := s.logs[roomID]
	end := len(log)
	if beforeID != "" {
		for i, m := range log {
			if m.ID == beforeID {
				end = i
				break
			}
		}
	}
	start := end - n
	if n <= 0 || start < 0 {
		start = 0
	}
	return copyMessages(log[start:end])
}

// Count returns the current length of a room's log.
func (s *MessageStore) Count(roomID string) int {
	return len(s.logs[roomID])
}

// Search performs a case-insensitive substring match on message content.
// An empty roomID searches every room. Results are capped at
// MaxSearchResults.
func (s *MessageStore) Search(query, roomID string) []domain.Message {
	query = strings.ToLower(query)
	if query == "" {
		return nil
	}

	var logs [][]*domain.Message
	if roomID != "" {
		logs = append(logs, s.logs[roomID])
	} else {
		for _, log := range s.logs {
			logs = append(logs, log)
		}
	}

	var out []domain.Message
	for _, log := range logs {
		for _, m := range log {
			if strings.Contains(strings.ToLower(m.Content), query) {
				out = append(out, *m)
				if len(out) >= MaxSearchResults {
					return out
				}
			}
		}
	}
	return out
}

func copyMessages(in []*domain.Message) []domain.Message {
	out := make([]domain.Message, len(in))
	for i, m := range in {
		out[i] = *m
	}
	return out
}
