package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CourseChunk struct {
	Id                 uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseName         string                      `gorm:"type:text;not null;index"`
	ItemTitle          string                      `gorm:"type:text;not null;index"`
	TopicTitle         string                      `gorm:"type:text"`
	LearningObjectives datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Content            string                      `gorm:"type:text;not null"`
	EmbeddingValue     pgvector.Vector             `gorm:"type:vector(768)"`
	CreatedAt          time.Time                   `gorm:"autoCreateTime"`
}

func (CourseChunk) TableName() string {
	return "course_chunks"
}
