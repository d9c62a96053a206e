package mapper

import (
	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type CourseChunkMapper struct{}

func NewCourseChunkMapper() *CourseChunkMapper {
	return &CourseChunkMapper{}
}

func (m *CourseChunkMapper) ToEntity(c *model.CourseChunk) *entity.CourseChunk {
	if c == nil {
		return nil
	}
	return &entity.CourseChunk{
		Id:                 c.Id,
		CourseName:         c.CourseName,
		ItemTitle:          c.ItemTitle,
		TopicTitle:         c.TopicTitle,
		LearningObjectives: []string(c.LearningObjectives),
		Content:            c.Content,
		EmbeddingValue:     c.EmbeddingValue.Slice(),
		CreatedAt:          c.CreatedAt,
	}
}

func (m *CourseChunkMapper) ToModel(c *entity.CourseChunk) *model.CourseChunk {
	if c == nil {
		return nil
	}
	return &model.CourseChunk{
		Id:                 c.Id,
		CourseName:         c.CourseName,
		ItemTitle:          c.ItemTitle,
		TopicTitle:         c.TopicTitle,
		LearningObjectives: c.LearningObjectives,
		Content:            c.Content,
		EmbeddingValue:     pgvector.NewVector(c.EmbeddingValue),
		CreatedAt:          c.CreatedAt,
	}
}
