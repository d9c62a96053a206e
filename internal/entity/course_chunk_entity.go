package entity

import (
	"time"

	"github.com/google/uuid"
)

type CourseChunk struct {
	Id                 uuid.UUID
	CourseName         string
	ItemTitle          string
	TopicTitle         string
	LearningObjectives []string
	Content            string
	EmbeddingValue     []float32
	CreatedAt          time.Time
}

// ScoredCourseChunk pairs a chunk with its cosine similarity to the query
type ScoredCourseChunk struct {
	Chunk      *CourseChunk
	Similarity float64
}
