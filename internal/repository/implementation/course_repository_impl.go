package implementation

import (
	"context"
	"errors"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type CourseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CourseMapper
}

func NewCourseRepository(db *gorm.DB) contract.CourseRepository {
	return &CourseRepositoryImpl{
		db:     db,
		mapper: mapper.NewCourseMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CourseRepositoryImpl) Create(ctx context.Context, course *entity.Course) error {
	m := r.mapper.CourseToModel(course)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*course = *r.mapper.CourseToEntity(m)
	return nil
}

// FindOne always preloads items ordered by position
func (r *CourseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Course, error) {
	var m model.Course
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	query = specification.Preload{Association: "Items", Order: "position ASC"}.Apply(query)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.CourseToEntity(&m), nil
}

func (r *CourseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Course{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type LearningObjectiveRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CourseMapper
}

func NewLearningObjectiveRepository(db *gorm.DB) contract.LearningObjectiveRepository {
	return &LearningObjectiveRepositoryImpl{
		db:     db,
		mapper: mapper.NewCourseMapper(),
	}
}

func (r *LearningObjectiveRepositoryImpl) CreateBulk(ctx context.Context, objectives []*entity.LearningObjective) error {
	if len(objectives) == 0 {
		return nil
	}
	models := make([]*model.LearningObjective, len(objectives))
	for i, o := range objectives {
		models[i] = r.mapper.LearningObjectiveToModel(o)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*objectives[i] = *r.mapper.LearningObjectiveToEntity(m)
	}
	return nil
}

func (r *LearningObjectiveRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningObjective, error) {
	var models []*model.LearningObjective
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.LearningObjective, len(models))
	for i, m := range models {
		entities[i] = r.mapper.LearningObjectiveToEntity(m)
	}
	return entities, nil
}

type EnrollmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CourseMapper
}

func NewEnrollmentRepository(db *gorm.DB) contract.EnrollmentRepository {
	return &EnrollmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewCourseMapper(),
	}
}

func (r *EnrollmentRepositoryImpl) Create(ctx context.Context, enrollment *entity.CourseEnrollment) error {
	m := r.mapper.EnrollmentToModel(enrollment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*enrollment = *r.mapper.EnrollmentToEntity(m)
	return nil
}

func (r *EnrollmentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CourseEnrollment, error) {
	var m model.CourseEnrollment
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EnrollmentToEntity(&m), nil
}
