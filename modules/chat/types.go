package chat

import (
	"errors"
	"unicode/utf8"
)

// Engine limits.
const (
	// MaxRoomHistory bounds each room's message log; the oldest entry is
	// evicted first once the cap is exceeded.
	MaxRoomHistory = 1000

	// RecentMessagesOnJoin is how many messages accompany a room join.
	RecentMessagesOnJoin = 50

	// MaxSearchResults caps content search results.
	MaxSearchResults = 100

	MaxUsernameLength = 50
	MaxRoomNameLength = 100
	MaxMessageLength  = 5000
	MaxReactionLength = 32
	MaxStatusLength   = 32
)

// Validation errors.
var (
	ErrUsernameEmpty   = errors.New("username cannot be empty")
	ErrUsernameTooLong = errors.New("username exceeds maximum length")
	ErrUsernameInvalid = errors.New("username contains invalid characters")
	ErrRoomNameEmpty   = errors.New("room name cannot be empty")
	ErrRoomNameTooLong = errors.New("room name exceeds maximum length")
	ErrRoomNameInvalid = errors.New("room name contains invalid characters")
	ErrMessageEmpty    = errors.New("message content cannot be empty")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")
	ErrReactionEmpty   = errors.New("reaction kind cannot be empty")
	ErrReactionTooLong = errors.New("reaction kind exceeds maximum length")
	ErrStatusEmpty     = errors.New("status cannot be empty")
	ErrStatusTooLong   = errors.New("status exceeds maximum length")
)

// ValidateUsername validates a display name claimed on join.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !utf8.ValidString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidateRoomName validates a room name.
func ValidateRoomName(name string) error {
	if name == "" {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLength {
		return ErrRoomNameTooLong
	}
	if !utf8.ValidString(name) {
		return ErrRoomNameInvalid
	}
	return nil
}

// ValidateMessage validates message content.
func ValidateMessage(content string) error {
	if content == "" {
		return ErrMessageEmpty
	}
	if len(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(content) {
		return ErrMessageInvalid
	}
	return nil
}

// ValidateReaction validates a reaction kind.
func ValidateReaction(kind string) error {
	if kind == "" {
		return ErrReactionEmpty
	}
	if len(kind) > MaxReactionLength {
		return ErrReactionTooLong
	}
	return nil
}

// ValidateStatus validates a presence status string.
func ValidateStatus(status string) error {
	if status == "" {
		return ErrStatusEmpty
	}
	if len(status) > MaxStatusLength {
		return ErrStatusTooLong
	}
	return nil
}
