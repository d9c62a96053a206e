package entity

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	Id        uuid.UUID
	Name      string
	Items     []*CourseItem
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type CourseItem struct {
	Id        uuid.UUID
	CourseId  uuid.UUID
	Title     string
	Published bool
	Position  int
	CreatedAt time.Time
}

type LearningObjective struct {
	Id           uuid.UUID
	CourseId     uuid.UUID
	CourseItemId *uuid.UUID
	Text         string
	Position     int
	CreatedAt    time.Time
}

type CourseEnrollment struct {
	Id         uuid.UUID
	CourseId   uuid.UUID
	CourseName string
	UserId     string
	Role       string
	CreatedAt  time.Time
}
