package chat

import (
	"sort"
	"time"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// StatusOnline is the status a session starts with.
const StatusOnline = "online"

// SessionRegistry tracks connected users keyed by connection id. It is the
// single source of truth for who is online and which room each connection
// currently occupies.
//
// The registry is not safe for concurrent use on its own; the dispatcher
// owns it and serializes all access.
type SessionRegistry struct {
	users map[string]*domain.User
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		users: make(map[string]*domain.User),
	}
}

// Join registers a session, overwriting any prior session under the same
// connection id (last write wins).
func (r *SessionRegistry) Join(connID, username, avatar string) *domain.User {
	u := &domain.User{
		ID:       connID,
		Username: username,
		Avatar:   avatar,
		Status:   StatusOnline,
		JoinedAt: time.Now(),
	}
	r.users[connID] = u
	return u
}

// Leave removes a session and returns the prior value, if any.
func (r *SessionRegistry) Leave(connID string) (*domain.User, bool) {
	u, ok := r.users[connID]
	if ok {
		delete(r.users, connID)
	}
	return u, ok
}

// Get returns the live session for a connection.
func (r *SessionRegistry) Get(connID string) (*domain.User, bool) {
	u, ok := r.users[connID]
	return u, ok
}

// SetCurrentRoom records which room the connection currently occupies.
// Unknown connections are a no-op.
func (r *SessionRegistry) SetCurrentRoom(connID, roomID string) {
	if u, ok := r.users[connID]; ok {
		u.CurrentRoomID = roomID
	}
}

// SetStatus updates a session's presence status. Returns false for unknown
// connections.
func (r *SessionRegistry) SetStatus(connID, status string) bool {
	u, ok := r.users[connID]
	if !ok {
		return false
	}
	u.Status = status
	return true
}

// Username resolves a connection id to its display name, falling back to
// the id itself when the session is gone.
func (r *SessionRegistry) Username(connID string) string {
	if u, ok := r.users[connID]; ok {
		return u.Username
	}
	return connID
}

// List returns value snapshots of every session, sorted by username.
func (r *SessionRegistry) List() []domain.User {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Snapshot returns a value copy of one session.
func (r *SessionRegistry) Snapshot(connID string) (domain.User, bool) {
	u, ok := r.users[connID]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	return len(r.users)
}
