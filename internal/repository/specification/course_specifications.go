package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

type ByCourseID struct {
	CourseID uuid.UUID
}

func (s ByCourseID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("course_id = ?", s.CourseID)
}

// ChunkInCourse restricts course_chunks to one course
type ChunkInCourse struct {
	CourseName string
}

func (s ChunkInCourse) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("course_chunks.course_name = ?", s.CourseName)
}

// ChunkInItems restricts course_chunks to a set of item titles
type ChunkInItems struct {
	ItemTitles []string
}

func (s ChunkInItems) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("course_chunks.item_title IN ?", s.ItemTitles)
}
