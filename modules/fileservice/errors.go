package fileservice

import "errors"

// Sentinel errors for upload operations. Size and type violations surface
// synchronously here, at the upload boundary; nothing oversized ever
// reaches the chat engine.
var (
	// ErrFileNotFound is returned when the requested file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFileID is returned when the file ID format is invalid.
	ErrInvalidFileID = errors.New("invalid file ID format")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrFileTypeNotAllowed is returned for disallowed file extensions.
	ErrFileTypeNotAllowed = errors.New("file type not allowed")

	// ErrFileEmpty is returned for zero-byte uploads.
	ErrFileEmpty = errors.New("file is empty")
)
