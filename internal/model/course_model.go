package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string         `gorm:"type:text;not null;uniqueIndex"`
	Items     []CourseItem   `gorm:"foreignKey:CourseId;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Course) TableName() string {
	return "courses"
}

type CourseItem struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseId  uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:text;not null"`
	Published bool      `gorm:"not null;default:false"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (CourseItem) TableName() string {
	return "course_items"
}

type LearningObjective struct {
	Id           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseId     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CourseItemId *uuid.UUID `gorm:"type:uuid;index"`
	Text         string     `gorm:"type:text;not null"`
	Position     int        `gorm:"not null;default:0"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
}

func (LearningObjective) TableName() string {
	return "learning_objectives"
}

type CourseEnrollment struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseId   uuid.UUID `gorm:"type:uuid;not null;index"`
	CourseName string    `gorm:"type:text;not null;index:idx_enrollment_course_user,unique,priority:1"`
	UserId     string    `gorm:"type:text;not null;index:idx_enrollment_course_user,unique,priority:2"`
	Role       string    `gorm:"type:text;not null;default:'student'"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
