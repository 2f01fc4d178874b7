package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/example/realtime-chat-demo/modules/chat"
	"github.com/example/realtime-chat-demo/modules/fileservice"
)

const defaultHistoryLimit = 50

// setupRoutes configures all HTTP routes. Every REST path is a read-only
// projection over the engine's stores; mutation happens only through the
// WebSocket dispatcher.
func (m *APIModule) setupRoutes() {
	// Health check
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := m.app.Group("/api/v1")

	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:id", m.getRoom)
	api.Get("/rooms/:id/history", m.getHistory)
	api.Get("/messages/search", m.searchMessages)
	api.Get("/users", m.listUsers)
	api.Get("/users/:id/unread", m.getUnread)

	api.Post("/files", m.uploadFile)
	api.Get("/files/:id", m.downloadFile)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":            "api",
			"connected_clients": m.hub.ClientCount(),
			"online_users":      m.chatModule.OnlineCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	return c.JSON(RoomListResponse{Rooms: m.chatModule.Rooms()})
}

// getRoom handles GET /api/v1/rooms/:id.
func (m *APIModule) getRoom(c *fiber.Ctx) error {
	room, ok := m.chatModule.Room(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}
	return c.JSON(room)
}

// getHistory handles GET /api/v1/rooms/:id/history?limit=&before=.
func (m *APIModule) getHistory(c *fiber.Ctx) error {
	roomID := c.Params("id")
	if _, ok := m.chatModule.Room(roomID); !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}

	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= chat.MaxRoomHistory {
			limit = parsed
		}
	}

	messages := m.chatModule.History(roomID, limit, c.Query("before"))
	hasMore := false
	if len(messages) > 0 {
		hasMore = len(m.chatModule.History(roomID, 1, messages[0].ID)) > 0
	}

	return c.JSON(HistoryResponse{
		RoomID:   roomID,
		Messages: messages,
		HasMore:  hasMore,
	})
}

// searchMessages handles GET /api/v1/messages/search?q=&room_id=.
func (m *APIModule) searchMessages(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Query parameter 'q' is required",
		})
	}

	roomID := c.Query("room_id")
	return c.JSON(SearchResponse{
		Query:    query,
		RoomID:   roomID,
		Messages: m.chatModule.SearchMessages(query, roomID),
	})
}

// listUsers handles GET /api/v1/users.
func (m *APIModule) listUsers(c *fiber.Ctx) error {
	return c.JSON(UsersResponse{Users: m.chatModule.Users()})
}

// getUnread handles GET /api/v1/users/:id/unread.
func (m *APIModule) getUnread(c *fiber.Ctx) error {
	return c.JSON(m.chatModule.Unread(c.Params("id")))
}

// uploadFile handles POST /api/v1/files. Size and type limits surface
// here, synchronously, before anything reaches the engine.
func (m *APIModule) uploadFile(c *fiber.Ctx) error {
	svc := m.fileModule.Service()

	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Use multipart/form-data with a 'file' field",
		})
	}

	if header.Size > svc.MaxSize() {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{
			Error:   "file_too_large",
			Message: "File size exceeds the upload limit",
		})
	}

	file, err := header.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "read_error",
			Message: "Failed to read file data",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, svc.MaxSize()+1))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "read_error",
			Message: "Failed to read file data",
		})
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	result, err := svc.Upload(c.UserContext(), header.Filename, data, contentType)
	if err != nil {
		switch {
		case errors.Is(err, fileservice.ErrFileTooLarge):
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{
				Error:   "file_too_large",
				Message: "File size exceeds the upload limit",
			})
		case errors.Is(err, fileservice.ErrFileTypeNotAllowed):
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(ErrorResponse{
				Error:   "file_type_not_allowed",
				Message: "File type is not allowed",
			})
		case errors.Is(err, fileservice.ErrFileEmpty):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "file_empty",
				Message: "File is empty",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error:   "upload_failed",
				Message: "Failed to store file",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		FileName: result.Descriptor.FileName,
		FileURL:  result.Descriptor.FileURL,
		FileSize: result.Descriptor.FileSize,
	})
}

// downloadFile handles GET /api/v1/files/:id.
func (m *APIModule) downloadFile(c *fiber.Ctx) error {
	data, info, err := m.fileModule.Service().Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, fileservice.ErrFileNotFound) || errors.Is(err, fileservice.ErrInvalidFileID) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "File not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "download_failed",
			Message: "Failed to read file",
		})
	}

	c.Set(fiber.HeaderContentType, info.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+info.Name+`"`)
	return c.Send(data)
}
