package fileservice

import (
	"time"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

// DefaultMaxFileSize caps uploads at 10 MB unless configured otherwise.
const DefaultMaxFileSize = 10 * 1024 * 1024

// deniedExtensions lists file extensions rejected at the upload boundary.
var deniedExtensions = map[string]struct{}{
	".exe": {},
	".bat": {},
	".cmd": {},
	".com": {},
	".msi": {},
	".scr": {},
	".sh":  {},
}

// FileInfo describes a stored upload.
type FileInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadResult is returned after a successful upload. The Descriptor is
// what clients attach to a send_file event; the engine stores it opaquely.
type UploadResult struct {
	FileInfo   FileInfo              `json:"file"`
	Descriptor domain.FileAttachment `json:"descriptor"`
}
