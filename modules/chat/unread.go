package chat

import (
	"sort"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// UnreadTracker keeps, per user, the set of message ids not yet
// acknowledged. Ids of messages later evicted from a log linger until the
// user marks them read; every operation is total over its input.
type UnreadTracker struct {
	byUser map[string]map[string]struct{}
}

// NewUnreadTracker creates an empty tracker.
func NewUnreadTracker() *UnreadTracker {
	return &UnreadTracker{
		byUser: make(map[string]map[string]struct{}),
	}
}

// Mark records a message as unread for a user.
func (t *UnreadTracker) Mark(userID, messageID string) {
	set := t.byUser[userID]
	if set == nil {
		set = make(map[string]struct{})
		t.byUser[userID] = set
	}
	set[messageID] = struct{}{}
}

// MarkRead removes a message from a user's unread set. Idempotent; unknown
// users and ids are a no-op.
func (t *UnreadTracker) MarkRead(userID, messageID string) {
	if set, ok := t.byUser[userID]; ok {
		delete(set, messageID)
		if len(set) == 0 {
			delete(t.byUser, userID)
		}
	}
}

// Get returns the user's unread projection with sorted message ids.
func (t *UnreadTracker) Get(userID string) domain.UnreadInfo {
	set := t.byUser[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return domain.UnreadInfo{Count: len(ids), MessageIDs: ids}
}

// Contains reports whether a message is unread for a user.
func (t *UnreadTracker) Contains(userID, messageID string) bool {
	_, ok := t.byUser[userID][messageID]
	return ok
}

// Drop deletes a user's entire unread set.
func (t *UnreadTracker) Drop(userID string) {
	delete(t.byUser, userID)
}
