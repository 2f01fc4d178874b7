package chat

import (
	"context"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	domain "github.com/example/realtime-chat-demo/domain/chat"
	"github.com/example/realtime-chat-demo/events"
)

// Default rooms seeded at startup. They are never deleted.
var defaultRooms = []struct {
	id, name, description string
}{
	{"general", "General", "Open discussion for everyone"},
	{"random", "Random", "Anything goes"},
}

// Module wraps the chat engine as a mono module. It publishes computed
// deliveries on the EventBus for the broadcast module and exposes
// read-only queries for the API module.
type Module struct {
	dispatcher *Dispatcher
	eventBus   mono.EventBus
	logger     types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new chat module.
func NewModule(logger types.Logger) *Module {
	m := &Module{logger: logger}
	m.dispatcher = NewDispatcher(logger, m.publish)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.OutboundV1.ToBase(),
	}
}

// Start seeds the default rooms.
func (m *Module) Start(_ context.Context) error {
	for _, r := range defaultRooms {
		m.dispatcher.SeedRoom(r.id, r.name, r.description)
	}
	m.logger.Info("Chat module started", "defaultRooms", len(defaultRooms))
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Chat module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"online_users": m.OnlineCount(),
		},
	}
}

// Dispatcher returns the engine entry point for the transport layer.
func (m *Module) Dispatcher() *Dispatcher {
	return m.dispatcher
}

// publish hands one computed delivery to the EventBus, fire-and-forget.
func (m *Module) publish(dv domain.Delivery) {
	if m.eventBus == nil {
		return
	}
	ev := events.OutboundEvent{Delivery: dv, Timestamp: time.Now()}
	if err := events.OutboundV1.Publish(m.eventBus, ev, nil); err != nil {
		m.logger.Error("Failed to publish outbound delivery", "event", dv.Event, "error", err)
	}
}

// Read-only queries for the API layer. No mutation is reachable from this
// path.

// Rooms returns snapshots of every room.
func (m *Module) Rooms() []domain.Room {
	d := m.dispatcher
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rooms.List()
}

// Room returns one room snapshot.
func (m *Module) Room(roomID string) (domain.Room, bool) {
	d := m.dispatcher
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rooms.Get(roomID)
}

// History returns up to limit messages of a room, optionally before a
// cursor message id.
func (m *Module) History(roomID string, limit int, beforeID string) []domain.Message {
	if limit <= 0 || limit > MaxRoomHistory {
		limit = RecentMessagesOnJoin
	}
	d := m.dispatcher
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.messages.GetRecentBefore(roomID, beforeID, limit)
}

// SearchMessages performs a case-insensitive content search across one
// room or all rooms.
func (m *Module) SearchMessages(query, roomID string) []domain.Message {
	d := m.dispatcher
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.messages.Search(query, roomID)
}

// Users returns snapshots of every online session.
func (m *Module) Users() []domain.User {
	d := m.dispatcher
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sessions.List()
}

// OnlineCount returns the number of live sessions.
func (m *Module) OnlineCount() int {
	d := m.dispatcher
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sessions.Count()
}

// Unread returns a user's unread projection.
func (m *Module) Unread(userID string) domain.UnreadInfo {
	d := m.dispatcher
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.unread.Get(userID)
}
