package api

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	domain "github.com/example/realtime-chat-demo/domain/chat"
	"github.com/example/realtime-chat-demo/modules/chat"
)

// Rate limiting constants
const (
	messagesPerSecond = 10
	burstSize         = 20
)

// InboundFrame is a message received over WebSocket:
// {"type": <event>, "payload": {...}}.
type InboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound payload shapes.

type userJoinPayload struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type joinRoomPayload struct {
	RoomID string `json:"room_id"`
}

type sendMessagePayload struct {
	Content string `json:"content"`
}

type privateMessagePayload struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

type reactionPayload struct {
	MessageID string `json:"message_id"`
	Reaction  string `json:"reaction"`
}

type createRoomPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
}

type statusPayload struct {
	Status string `json:"status"`
}

type markReadPayload struct {
	MessageID string `json:"message_id"`
}

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * r.refillRate
	if tokensToAdd > 0 {
		r.tokens += tokensToAdd
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// handleWebSocket handles one WebSocket connection. Every inbound event
// funnels into the dispatcher; invalid or malformed frames are dropped
// with no acknowledgment, matching the wire protocol.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	dispatcher := m.chatModule.Dispatcher()
	limiter := newRateLimiter(burstSize, messagesPerSecond)

	m.hub.Register(connID, c)
	defer func() {
		dispatcher.HandleDisconnect(connID)
		m.hub.Unregister(connID)
		log.Printf("[api] WebSocket client disconnected: %s", connID)
	}()

	log.Printf("[api] WebSocket client connected: %s", connID)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Read error from %s: %v", connID, err)
			}
			return
		}

		if !limiter.allow() {
			continue
		}

		var frame InboundFrame
		if err := json.Unmarshal(msgBytes, &frame); err != nil {
			continue
		}

		if frame.Type == domain.EventDisconnect {
			return
		}
		m.handleFrame(dispatcher, connID, frame)
	}
}

// handleFrame routes one inbound frame to its dispatcher handler. Frames
// with undecodable payloads are dropped silently.
func (m *APIModule) handleFrame(d *chat.Dispatcher, connID string, frame InboundFrame) {
	switch frame.Type {
	case domain.EventUserJoin:
		var p userJoinPayload
		if decode(frame.Payload, &p) {
			d.HandleUserJoin(connID, p.Username, p.Avatar)
		}
	case domain.EventJoinRoom:
		var p joinRoomPayload
		if decode(frame.Payload, &p) {
			d.HandleJoinRoom(connID, p.RoomID)
		}
	case domain.EventSendMessage:
		var p sendMessagePayload
		if decode(frame.Payload, &p) {
			d.HandleSendMessage(connID, p.Content)
		}
	case domain.EventSendPrivateMessage:
		var p privateMessagePayload
		if decode(frame.Payload, &p) {
			d.HandleSendPrivateMessage(connID, p.RecipientID, p.Content)
		}
	case domain.EventTypingStart:
		d.HandleTyping(connID, true)
	case domain.EventTypingStop:
		d.HandleTyping(connID, false)
	case domain.EventAddReaction:
		var p reactionPayload
		if decode(frame.Payload, &p) {
			d.HandleAddReaction(connID, p.MessageID, p.Reaction)
		}
	case domain.EventSendFile:
		var p domain.FileAttachment
		if decode(frame.Payload, &p) {
			d.HandleSendFile(connID, p)
		}
	case domain.EventCreateRoom:
		var p createRoomPayload
		if decode(frame.Payload, &p) {
			d.HandleCreateRoom(connID, p.Name, p.Description, p.IsPrivate)
		}
	case domain.EventStatusChange:
		var p statusPayload
		if decode(frame.Payload, &p) {
			d.HandleStatusChange(connID, p.Status)
		}
	case domain.EventMarkMessageRead:
		var p markReadPayload
		if decode(frame.Payload, &p) {
			d.HandleMarkRead(connID, p.MessageID)
		}
	default:
		log.Printf("[api] Unknown event type from %s: %s", connID, frame.Type)
	}
}

func decode(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
