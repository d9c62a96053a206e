package entity

import (
	"time"

	"github.com/google/uuid"
)

type StruggleProfile struct {
	Id            uuid.UUID
	UserId        string
	CourseName    string
	StruggleWords []string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
