package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// OutboundEvent carries one computed delivery from the chat engine to the
// broadcast module. The engine has already resolved the recipient set, so
// the consumer only writes frames.
type OutboundEvent struct {
	Delivery  domain.Delivery `json:"delivery"`
	Timestamp time.Time       `json:"timestamp"`
}

// Event definitions for the chat domain.
var (
	OutboundV1 = helper.EventDefinition[OutboundEvent](
		"chat",
		"Outbound",
		"v1",
	)
)
