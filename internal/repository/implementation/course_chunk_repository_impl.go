package implementation

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CourseChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CourseChunkMapper
}

func NewCourseChunkRepository(db *gorm.DB) contract.CourseChunkRepository {
	return &CourseChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewCourseChunkMapper(),
	}
}

func (r *CourseChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.CourseChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.CourseChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *CourseChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.CourseChunk{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *CourseChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, specs ...specification.Specification) ([]*entity.ScoredCourseChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity
	type result struct {
		model.CourseChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("course_chunks").
		Select("course_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector)
	query = applySpecifications(query, specs...)

	err := query.
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredCourseChunk, len(results))
	for i := range results {
		scored[i] = &entity.ScoredCourseChunk{
			Chunk:      r.mapper.ToEntity(&results[i].CourseChunk),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
