package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type StruggleProfile struct {
	Id            uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        string                      `gorm:"type:text;not null;index:idx_struggle_course_user,unique,priority:2"`
	CourseName    string                      `gorm:"type:text;not null;index:idx_struggle_course_user,unique,priority:1"`
	StruggleWords datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime"`
}

func (StruggleProfile) TableName() string {
	return "struggle_profiles"
}
