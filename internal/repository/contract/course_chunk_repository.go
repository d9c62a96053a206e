package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"
)

type CourseChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.CourseChunk) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilarWithScore returns chunks ordered by cosine similarity, at or above threshold
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, specs ...specification.Specification) ([]*entity.ScoredCourseChunk, error)
}
