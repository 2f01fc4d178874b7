package api

import (
	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []domain.Room `json:"rooms"`
}

// HistoryResponse is the API response for paginated message history.
type HistoryResponse struct {
	RoomID   string           `json:"room_id"`
	Messages []domain.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

// SearchResponse is the API response for a content search.
type SearchResponse struct {
	Query    string           `json:"query"`
	RoomID   string           `json:"room_id,omitempty"`
	Messages []domain.Message `json:"messages"`
}

// UsersResponse is the API response for the online user listing.
type UsersResponse struct {
	Users []domain.User `json:"users"`
}

// UploadResponse is the API response after a file upload. Clients attach
// the descriptor to a send_file event unchanged.
type UploadResponse struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	FileSize int64  `json:"file_size"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
