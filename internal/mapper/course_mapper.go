package mapper

import (
	"time"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/model"
)

type CourseMapper struct{}

func NewCourseMapper() *CourseMapper {
	return &CourseMapper{}
}

func (m *CourseMapper) CourseToEntity(c *model.Course) *entity.Course {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	items := make([]*entity.CourseItem, len(c.Items))
	for i := range c.Items {
		items[i] = m.CourseItemToEntity(&c.Items[i])
	}

	return &entity.Course{
		Id:        c.Id,
		Name:      c.Name,
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *CourseMapper) CourseToModel(c *entity.Course) *model.Course {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	items := make([]model.CourseItem, len(c.Items))
	for i, item := range c.Items {
		items[i] = *m.CourseItemToModel(item)
	}

	return &model.Course{
		Id:        c.Id,
		Name:      c.Name,
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *CourseMapper) CourseItemToEntity(i *model.CourseItem) *entity.CourseItem {
	if i == nil {
		return nil
	}
	return &entity.CourseItem{
		Id:        i.Id,
		CourseId:  i.CourseId,
		Title:     i.Title,
		Published: i.Published,
		Position:  i.Position,
		CreatedAt: i.CreatedAt,
	}
}

func (m *CourseMapper) CourseItemToModel(i *entity.CourseItem) *model.CourseItem {
	if i == nil {
		return nil
	}
	return &model.CourseItem{
		Id:        i.Id,
		CourseId:  i.CourseId,
		Title:     i.Title,
		Published: i.Published,
		Position:  i.Position,
		CreatedAt: i.CreatedAt,
	}
}

func (m *CourseMapper) LearningObjectiveToEntity(o *model.LearningObjective) *entity.LearningObjective {
	if o == nil {
		return nil
	}
	return &entity.LearningObjective{
		Id:           o.Id,
		CourseId:     o.CourseId,
		CourseItemId: o.CourseItemId,
		Text:         o.Text,
		Position:     o.Position,
		CreatedAt:    o.CreatedAt,
	}
}

func (m *CourseMapper) LearningObjectiveToModel(o *entity.LearningObjective) *model.LearningObjective {
	if o == nil {
		return nil
	}
	return &model.LearningObjective{
		Id:           o.Id,
		CourseId:     o.CourseId,
		CourseItemId: o.CourseItemId,
		Text:         o.Text,
		Position:     o.Position,
		CreatedAt:    o.CreatedAt,
	}
}

func (m *CourseMapper) EnrollmentToEntity(e *model.CourseEnrollment) *entity.CourseEnrollment {
	if e == nil {
		return nil
	}
	return &entity.CourseEnrollment{
		Id:         e.Id,
		CourseId:   e.CourseId,
		CourseName: e.CourseName,
		UserId:     e.UserId,
		Role:       e.Role,
		CreatedAt:  e.CreatedAt,
	}
}

func (m *CourseMapper) EnrollmentToModel(e *entity.CourseEnrollment) *model.CourseEnrollment {
	if e == nil {
		return nil
	}
	return &model.CourseEnrollment{
		Id:         e.Id,
		CourseId:   e.CourseId,
		CourseName: e.CourseName,
		UserId:     e.UserId,
		Role:       e.Role,
		CreatedAt:  e.CreatedAt,
	}
}
