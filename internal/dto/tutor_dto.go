package dto

import (
	"time"

	"ai-tutor-be/pkg/llm"
)

type InitializeSessionRequest struct {
	UserID     string    `json:"user_id" validate:"required,max=128"`
	CourseName string    `json:"course_name" validate:"required,max=128"`
	Date       time.Time `json:"date" validate:"required"`
}

type RestoreSessionRequest struct {
	ChatID     string `json:"chat_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required,max=128"`
	CourseName string `json:"course_name" validate:"required,max=128"`
}

type SubmitTurnRequest struct {
	ChatID     string `json:"chat_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required,max=128"`
	CourseName string `json:"course_name" validate:"required,max=128"`
	Text       string `json:"text" validate:"required,max=8000"`
}

type UpdateChatTitleRequest struct {
	ChatID     string `json:"chat_id" validate:"required"`
	UserID     string `json:"user_id" validate:"required,max=128"`
	CourseName string `json:"course_name" validate:"required,max=128"`
	Title      string `json:"title" validate:"required,max=200"`
}

// AnalysisJobMessage is the queued form of a struggle analysis request
type AnalysisJobMessage struct {
	ChatID     string        `json:"chat_id"`
	UserID     string        `json:"user_id"`
	CourseName string        `json:"course_name"`
	Window     []llm.Message `json:"window"`
}
