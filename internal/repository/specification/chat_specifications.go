package specification

import (
	"gorm.io/gorm"
)

type ByChatID struct {
	ChatID string
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

// OwnedBy scopes rows to one (course, user) pair
type OwnedBy struct {
	CourseName string
	UserID     string
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("course_name = ? AND user_id = ?", s.CourseName, s.UserID)
}
