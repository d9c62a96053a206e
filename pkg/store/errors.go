package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a session or chat is absent, evicted or deleted
	ErrNotFound = errors.New("chat session not found")

	// ErrRateLimitExceeded is returned when a chat has reached its turn cap
	ErrRateLimitExceeded = errors.New("chat message limit reached")

	// ErrGenerationFailed is the user-facing face of every provider streaming error
	ErrGenerationFailed = errors.New("could not generate a response, please retry")

	// ErrTitleAlreadySet is returned when a chat title has left its placeholder
	ErrTitleAlreadySet = errors.New("chat title already set")
)

// GenerationError keeps the provider error for logs while presenting a generic message
type GenerationError struct {
	ChatID string
	Cause  error
}

func (e *GenerationError) Error() string {
	return ErrGenerationFailed.Error()
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Cause}
}

// Channel names a best-effort side channel of a turn
type Channel string

const (
	ChannelRetrieval   Channel = "retrieval"
	ChannelAnalysis    Channel = "analysis"
	ChannelTitle       Channel = "title"
	ChannelPersistence Channel = "persistence"
)

// SoftFailure records a side channel that was attempted and failed without failing the turn
type SoftFailure struct {
	Channel Channel
	Err     error
}

func (f SoftFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Channel, f.Err)
}

func (f SoftFailure) Unwrap() error {
	return f.Err
}

// ErrInvalidRequest wraps request validation failures
var ErrInvalidRequest = errors.New("invalid request")
