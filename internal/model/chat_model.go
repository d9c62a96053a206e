package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Chat struct {
	Id         string         `gorm:"type:text;primaryKey"`
	UserId     string         `gorm:"type:text;not null;index:idx_chats_course_user,priority:2"`
	CourseName string         `gorm:"type:text;not null;index:idx_chats_course_user,priority:1"`
	Title      string         `gorm:"type:text;not null"`
	Messages   []ChatMessage  `gorm:"foreignKey:ChatId;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Chat) TableName() string {
	return "chats"
}

type ChatMessage struct {
	Id                 string                      `gorm:"type:text;primaryKey"`
	ChatId             string                      `gorm:"type:text;not null;index"`
	Sender             string                      `gorm:"type:text;not null"`
	UserId             string                      `gorm:"type:text;not null"`
	CourseName         string                      `gorm:"type:text;not null"`
	Text               string                      `gorm:"type:text;not null"`
	TimestampMs        int64                       `gorm:"not null;index"`
	RetrievedDocuments datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt          time.Time                   `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
