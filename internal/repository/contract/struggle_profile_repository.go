package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"
)

type StruggleProfileRepository interface {
	Create(ctx context.Context, profile *entity.StruggleProfile) error
	UpdateWords(ctx context.Context, courseName, userId string, words []string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StruggleProfile, error)
}
