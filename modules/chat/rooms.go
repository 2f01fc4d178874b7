package chat

import (
	"sort"
	"time"

	"github.com/google/uuid"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// room is the directory's internal record; membership is kept as a set so
// it stays an explicit, queryable relation independent of the transport.
type room struct {
	meta    domain.Room
	members map[string]struct{}
}

// RoomDirectory owns every room and its member set. Rooms are never
// deleted. Like the other stores it relies on the dispatcher for
// serialization.
type RoomDirectory struct {
	rooms map[string]*room
}

// NewRoomDirectory creates an empty directory.
func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{
		rooms: make(map[string]*room),
	}
}

// Seed installs a default room under a fixed id. Existing rooms are left
// untouched.
func (d *RoomDirectory) Seed(id, name, description string) {
	if _, ok := d.rooms[id]; ok {
		return
	}
	d.rooms[id] = &room{
		meta: domain.Room{
			ID:          id,
			Name:        name,
			Description: description,
			CreatedAt:   time.Now(),
		},
		members: make(map[string]struct{}),
	}
}

// Create allocates a fresh room and auto-adds the creator to its member
// set.
func (d *RoomDirectory) Create(name, description, creatorID string, isPrivate bool) domain.Room {
	id := uuid.New().String()[:8]
	r := &room{
		meta: domain.Room{
			ID:          id,
			Name:        name,
			Description: description,
			IsPrivate:   isPrivate,
			CreatedBy:   creatorID,
			CreatedAt:   time.Now(),
		},
		members: map[string]struct{}{creatorID: {}},
	}
	d.rooms[id] = r
	return d.snapshot(r)
}

// Exists reports whether a room id is known.
func (d *RoomDirectory) Exists(roomID string) bool {
	_, ok := d.rooms[roomID]
	return ok
}

// Get returns a value snapshot of one room.
func (d *RoomDirectory) Get(roomID string) (domain.Room, bool) {
	r, ok := d.rooms[roomID]
	if !ok {
		return domain.Room{}, false
	}
	return d.snapshot(r), true
}

// List returns snapshots of every room, sorted by name.
func (d *RoomDirectory) List() []domain.Room {
	out := make([]domain.Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, d.snapshot(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Join moves a connection into the target room, vacating every other room
// first so a connection is a member of at most one room. Returns the room
// ids that were vacated. The second result is false when the target room
// does not exist, in which case nothing changes.
func (d *RoomDirectory) Join(connID, roomID string) ([]string, bool) {
	target, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	vacated := d.RemoveEverywhere(connID)
	target.members[connID] = struct{}{}
	return vacated, true
}

// RemoveEverywhere removes the connection from every room's member set and
// returns the affected room ids.
func (d *RoomDirectory) RemoveEverywhere(connID string) []string {
	var affected []string
	for id, r := range d.rooms {
		if _, ok := r.members[connID]; ok {
			delete(r.members, connID)
			affected = append(affected, id)
		}
	}
	sort.Strings(affected)
	return affected
}

// Members returns the member connection ids of a room.
func (d *RoomDirectory) Members(roomID string) []string {
	r, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsMember reports whether a connection belongs to a room.
func (d *RoomDirectory) IsMember(roomID, connID string) bool {
	r, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = r.members[connID]
	return ok
}

func (d *RoomDirectory) snapshot(r *room) domain.Room {
	meta := r.meta
	meta.MemberCount = len(r.members)
	return meta
}
