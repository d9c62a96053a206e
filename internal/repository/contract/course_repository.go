package contract

import (
	"context"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/repository/specification"
)

type CourseRepository interface {
	Create(ctx context.Context, course *entity.Course) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Course, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

type LearningObjectiveRepository interface {
	CreateBulk(ctx context.Context, objectives []*entity.LearningObjective) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningObjective, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *entity.CourseEnrollment) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CourseEnrollment, error)
}
