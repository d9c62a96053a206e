package implementation

import (
	"context"
	"errors"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/mapper"
	"ai-tutor-be/internal/model"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/specification"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StruggleProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StruggleProfileMapper
}

func NewStruggleProfileRepository(db *gorm.DB) contract.StruggleProfileRepository {
	return &StruggleProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewStruggleProfileMapper(),
	}
}

func (r *StruggleProfileRepositoryImpl) Create(ctx context.Context, profile *entity.StruggleProfile) error {
	m := r.mapper.ToModel(profile)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*profile = *r.mapper.ToEntity(m)
	return nil
}

func (r *StruggleProfileRepositoryImpl) UpdateWords(ctx context.Context, courseName, userId string, words []string) error {
	res := r.db.WithContext(ctx).
		Model(&model.StruggleProfile{}).
		Where("course_name = ? AND user_id = ?", courseName, userId).
		Update("struggle_words", datatypes.JSONSlice[string](words))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *StruggleProfileRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.StruggleProfile, error) {
	var m model.StruggleProfile
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
