package store

import "context"

// DocumentStore is the persistence boundary used by the tutoring core.
// Lookups that find nothing return (nil, nil); only infrastructure problems are errors.
type DocumentStore interface {
	GetCourseByName(ctx context.Context, name string) (*Course, error)
	GetAllLearningObjectives(ctx context.Context, courseID string) ([]string, error)

	GetUserChats(ctx context.Context, courseName, userID string) ([]*PersistedChat, error)
	EnsureChat(ctx context.Context, chat *PersistedChat) error
	AppendChatMessages(ctx context.Context, chatID string, messages ...ChatMessage) error
	UpdateChatTitle(ctx context.Context, chatID, title string) error

	GetStruggleProfile(ctx context.Context, courseName, userID string) (*StruggleProfile, error)
	InitializeStruggleProfile(ctx context.Context, enrollment *Enrollment) (*StruggleProfile, error)
	UpdateStruggleProfile(ctx context.Context, courseName, userID string, words []string) error

	GetEnrollment(ctx context.Context, courseName, userID string) (*Enrollment, error)
}
