package fileservice

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/google/uuid"

	domain "github.com/example/realtime-chat-demo/domain/chat"
)

const defaultContentType = "application/octet-stream"

// sanitizeFilename removes path separators and dangerous characters from filename.
func sanitizeFilename(filename string) string {
	clean := filepath.Base(filepath.Clean(filename))
	clean = strings.ReplaceAll(clean, "/", "_")
	clean = strings.ReplaceAll(clean, "\\", "_")
	if clean == "." || clean == ".." || clean == "" {
		return "unnamed"
	}
	return clean
}

// validateUpload enforces the boundary limits: non-empty, size cap, and
// extension denylist.
func validateUpload(filename string, size, maxSize int64) error {
	if size <= 0 {
		return ErrFileEmpty
	}
	if size > maxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, size, maxSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, denied := deniedExtensions[ext]; denied {
		return fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, ext)
	}
	return nil
}

// validateFileID validates that the given ID is a valid UUID.
func validateFileID(fileID string) error {
	if fileID == "" {
		return ErrInvalidFileID
	}
	if _, err := uuid.Parse(fileID); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFileID, fileID)
	}
	return nil
}

// extractOriginalFilename extracts the original filename from a storage key.
func extractOriginalFilename(storageKey, fileID string) string {
	if len(fileID)+1 < len(storageKey) {
		return storageKey[len(fileID)+1:]
	}
	return storageKey
}

// Service stores chat uploads using the fs-jetstream plugin and mints the
// opaque descriptors the engine attaches to file messages.
type Service struct {
	bucket  fsjetstream.FileStoragePort
	maxSize int64
}

// NewService creates a new file service with the given storage bucket.
func NewService(bucket fsjetstream.FileStoragePort, maxSize int64) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Service{bucket: bucket, maxSize: maxSize}
}

// MaxSize returns the configured upload size cap.
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Upload validates and stores a file, returning the descriptor clients
// attach to send_file events.
func (s *Service) Upload(ctx context.Context, filename string, data []byte, contentType string) (*UploadResult, error) {
	if err := validateUpload(filename, int64(len(data)), s.maxSize); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	safeFilename := sanitizeFilename(filename)
	fileID := uuid.New().String()
	storageKey := fmt.Sprintf("%s/%s", fileID, safeFilename)

	info, err := s.bucket.Put(ctx, storageKey, data,
		fsjetstream.WithDescription(fmt.Sprintf("Chat upload: %s", safeFilename)),
		fsjetstream.WithHeaders(map[string]string{
			"Content-Type":  contentType,
			"Original-Name": safeFilename,
			"File-ID":       fileID,
			"Uploaded-At":   time.Now().Format(time.RFC3339),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	return &UploadResult{
		FileInfo: FileInfo{
			ID:          fileID,
			Name:        safeFilename,
			Size:        int64(info.Size),
			ContentType: contentType,
			CreatedAt:   info.ModTime,
		},
		Descriptor: domain.FileAttachment{
			FileName: safeFilename,
			FileURL:  "/api/v1/files/" + fileID,
			FileSize: int64(info.Size),
		},
	}, nil
}

// Get retrieves a stored file by its ID.
func (s *Service) Get(_ context.Context, fileID string) ([]byte, *FileInfo, error) {
	obj, err := s.findFileByID(fileID)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.bucket.Get(obj.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get file: %w", err)
	}

	contentType := defaultContentType
	if ct, ok := obj.Headers["Content-Type"]; ok {
		contentType = ct
	}

	return data, &FileInfo{
		ID:          fileID,
		Name:        extractOriginalFilename(obj.Name, fileID),
		Size:        int64(obj.Size),
		ContentType: contentType,
		CreatedAt:   obj.ModTime,
	}, nil
}

// findFileByID looks up a file by its ID prefix and returns the first match.
func (s *Service) findFileByID(fileID string) (*fsjetstream.ObjectInfo, error) {
	if err := validateFileID(fileID); err != nil {
		return nil, err
	}

	files, err := s.bucket.List(fsjetstream.WithPrefix(fileID + "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrFileNotFound
	}
	return &files[0], nil
}
