package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/realtime-chat-demo/events"
)

// BroadcastModule consumes the engine's computed deliveries and pushes
// them to WebSocket clients. It holds no chat state of its own.
type BroadcastModule struct {
	hub *Hub
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule() *BroadcastModule {
	return &BroadcastModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module.
func (m *BroadcastModule) Start(_ context.Context) error {
	log.Println("[broadcast] Module started - WebSocket hub ready")
	return nil
}

// Stop shuts down the module and closes every client connection.
func (m *BroadcastModule) Stop(ctx context.Context) error {
	clientCount := m.hub.ClientCount()
	m.hub.Shutdown(ctx)
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.OutboundV1, m.handleOutbound, m,
	); err != nil {
		return fmt.Errorf("failed to register Outbound consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: Outbound")
	return nil
}

// handleOutbound writes one delivery to its recipients. Delivery is
// best-effort: disconnected recipients and full buffers drop the frame.
func (m *BroadcastModule) handleOutbound(_ context.Context, event events.OutboundEvent, _ *mono.Msg) error {
	dv := event.Delivery
	if dv.All {
		m.hub.SendAll(dv.Event, dv.Payload)
		return nil
	}
	m.hub.SendTo(dv.To, dv.Event, dv.Payload)
	return nil
}

// GetHub returns the WebSocket hub for the API module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
