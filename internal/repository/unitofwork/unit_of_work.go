package unitofwork

import (
	"context"

	"ai-tutor-be/internal/repository/contract"
)

// UnitOfWork groups the tutor repositories behind one optional transaction.
// Without Begin every accessor runs against the shared pool.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CourseRepository() contract.CourseRepository
	LearningObjectiveRepository() contract.LearningObjectiveRepository
	EnrollmentRepository() contract.EnrollmentRepository

	ChatRepository() contract.ChatRepository
	ChatMessageRepository() contract.ChatMessageRepository
	StruggleProfileRepository() contract.StruggleProfileRepository
	CourseChunkRepository() contract.CourseChunkRepository
}

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
	// WithinTransaction commits when fn returns nil and rolls back otherwise
	WithinTransaction(ctx context.Context, fn func(uow UnitOfWork) error) error
}
