package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// Specification narrows a query; repositories apply them in order
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// IncludeDeleted lifts GORM's soft-delete scope so tombstoned rows are visible
type IncludeDeleted struct{}

func (s IncludeDeleted) Apply(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// Preload eagerly loads an association
type Preload struct {
	Association string
	Order       string
}

func (s Preload) Apply(db *gorm.DB) *gorm.DB {
	if s.Order == "" {
		return db.Preload(s.Association)
	}
	return db.Preload(s.Association, func(tx *gorm.DB) *gorm.DB {
		return tx.Order(s.Order)
	})
}
