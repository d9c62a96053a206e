package rag

import (
	"context"
	"strings"

	"ai-tutor-be/pkg/store"
)

// Filterable metadata fields
const (
	FieldCourseName = "courseName"
	FieldItemTitle  = "itemTitle"
)

type Operator string

const (
	OpEqual Operator = "eq"
	OpIn    Operator = "in"
)

// Condition is one structural constraint on chunk metadata
type Condition struct {
	Field    string
	Operator Operator
	Values   []string
}

// Filter is a conjunction of conditions
type Filter struct {
	Conditions []Condition
}

func Equal(field, value string) Condition {
	return Condition{Field: field, Operator: OpEqual, Values: []string{value}}
}

func In(field string, values ...string) Condition {
	return Condition{Field: field, Operator: OpIn, Values: values}
}

func And(conds ...Condition) *Filter {
	return &Filter{Conditions: conds}
}

// Matches evaluates the filter against chunk metadata. A nil filter matches everything.
func (f *Filter) Matches(meta store.ChunkMetadata) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Conditions {
		var actual string
		switch c.Field {
		case FieldCourseName:
			actual = meta.CourseName
		case FieldItemTitle:
			actual = meta.ItemTitle
		default:
			return false
		}
		if !c.matches(actual) {
			return false
		}
	}
	return true
}

func (c Condition) matches(actual string) bool {
	switch c.Operator {
	case OpEqual:
		return len(c.Values) == 1 && c.Values[0] == actual
	case OpIn:
		for _, v := range c.Values {
			if v == actual {
				return true
			}
		}
	}
	return false
}

func (f *Filter) String() string {
	if f == nil {
		return "<none>"
	}
	parts := make([]string, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		parts = append(parts, c.Field+" "+string(c.Operator)+" ["+strings.Join(c.Values, ", ")+"]")
	}
	return strings.Join(parts, " AND ")
}

type Options struct {
	Limit          int
	ScoreThreshold float64
	Filter         *Filter
}

// Retriever returns ranked course chunks for a query
type Retriever interface {
	RetrieveContext(ctx context.Context, query string, opts Options) ([]store.RetrievedChunk, error)
}
