package chat

import "sort"

// TypingTracker keeps the set of currently-typing connections per room.
// There is no automatic expiry: a stop must arrive explicitly, or the flag
// is cleared when the connection leaves the room or disconnects.
type TypingTracker struct {
	rooms map[string]map[string]struct{}
}

// NewTypingTracker creates an empty tracker.
func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Set adds or removes a connection from a room's typing set.
func (t *TypingTracker) Set(roomID, connID string, isTyping bool) {
	if isTyping {
		if t.rooms[roomID] == nil {
			t.rooms[roomID] = make(map[string]struct{})
		}
		t.rooms[roomID][connID] = struct{}{}
		return
	}
	if set, ok := t.rooms[roomID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(t.rooms, roomID)
		}
	}
}

// IsTyping reports whether a connection is marked typing in a room.
func (t *TypingTracker) IsTyping(roomID, connID string) bool {
	_, ok := t.rooms[roomID][connID]
	return ok
}

// Typing returns the typing connection ids of a room.
func (t *TypingTracker) Typing(roomID string) []string {
	set := t.rooms[roomID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RemoveConn clears the connection from every room's typing set.
func (t *TypingTracker) RemoveConn(connID string) {
	for roomID, set := range t.rooms {
		delete(set, connID)
		if len(set) == 0 {
			delete(t.rooms, roomID)
		}
	}
}
