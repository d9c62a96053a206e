package memory

import (
	"context"
	"testing"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseCache_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	c := NewCourseCache(time.Minute, 0, nil, logger.NewNopLogger())

	t.Run("miss on unknown course", func(t *testing.T) {
		_, ok := c.GetCourse(ctx, "unknown")
		assert.False(t, ok)
	})

	t.Run("round trip returns a private copy", func(t *testing.T) {
		course := &store.Course{
			ID:   "c-1",
			Name: "CS101",
			Items: []store.CourseItem{
				{ID: "i-1", Title: "Week 1", Published: true},
			},
		}
		c.SetCourse(ctx, course)

		got, ok := c.GetCourse(ctx, "CS101")
		require.True(t, ok)
		assert.Equal(t, course, got)

		got.Items[0].Title = "mutated"
		again, ok := c.GetCourse(ctx, "CS101")
		require.True(t, ok)
		assert.Equal(t, "Week 1", again.Items[0].Title)
	})

	t.Run("objectives and invalidation", func(t *testing.T) {
		c.SetObjectives(ctx, "c-1", []string{"Recursion", "Big-O"})
		objs, ok := c.GetObjectives(ctx, "c-1")
		require.True(t, ok)
		assert.Equal(t, []string{"Recursion", "Big-O"}, objs)

		c.Invalidate(ctx, &store.Course{ID: "c-1", Name: "CS101"})
		_, ok = c.GetObjectives(ctx, "c-1")
		assert.False(t, ok)
		_, ok = c.GetCourse(ctx, "CS101")
		assert.False(t, ok)
	})
}
