package entity

import (
	"time"
)

type Chat struct {
	Id         string
	UserId     string
	CourseName string
	Title      string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

type ChatMessage struct {
	Id                 string
	ChatId             string
	Sender             string
	UserId             string
	CourseName         string
	Text               string
	TimestampMs        int64
	RetrievedDocuments []string
	CreatedAt          time.Time
}
