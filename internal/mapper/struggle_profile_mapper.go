package mapper

import (
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
)

type StruggleProfileMapper struct{}

func NewStruggleProfileMapper() *StruggleProfileMapper {
	return &StruggleProfileMapper{}
}

func (m *StruggleProfileMapper) ToEntity(p *model.StruggleProfile) *entity.StruggleProfile {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	words := make([]string, len(p.StruggleWords))
	copy(words, p.StruggleWords)

	return &entity.StruggleProfile{
		Id:            p.Id,
		UserId:        p.UserId,
		CourseName:    p.CourseName,
		StruggleWords: words,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}

func (m *StruggleProfileMapper) ToModel(p *entity.StruggleProfile) *model.StruggleProfile {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	words := p.StruggleWords
	if words == nil {
		words = []string{}
	}

	return &model.StruggleProfile{
		Id:            p.Id,
		UserId:        p.UserId,
		CourseName:    p.CourseName,
		StruggleWords: words,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}
