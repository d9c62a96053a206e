package memory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/store"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	courseKeyPrefix     = "tutor:course:"
	objectivesKeyPrefix = "tutor:objectives:"
)

// CourseCache keeps course metadata in process memory (L1) and, when a redis
// client is given, in a shared redis keyspace (L2). Misses fall through to the
// caller, which is expected to Set the value it loaded.
type CourseCache struct {
	l1     *cache.Cache
	l2     redis.UniversalClient
	l2TTL  time.Duration
	logger logger.ILogger
}

func NewCourseCache(l1TTL, l2TTL time.Duration, rdb redis.UniversalClient, log logger.ILogger) *CourseCache {
	if l1TTL <= 0 {
		l1TTL = 5 * time.Minute
	}
	if l2TTL <= 0 {
		l2TTL = 30 * time.Minute
	}
	return &CourseCache{
		l1:     cache.New(l1TTL, 2*l1TTL),
		l2:     rdb,
		l2TTL:  l2TTL,
		logger: log,
	}
}

func (c *CourseCache) GetCourse(ctx context.Context, name string) (*store.Course, bool) {
	var course store.Course
	if !c.get(ctx, courseKeyPrefix+name, &course) {
		return nil, false
	}
	return &course, true
}

func (c *CourseCache) SetCourse(ctx context.Context, course *store.Course) {
	if course == nil {
		return
	}
	c.set(ctx, courseKeyPrefix+course.Name, course)
}

func (c *CourseCache) GetObjectives(ctx context.Context, courseID string) ([]string, bool) {
	var objectives []string
	if !c.get(ctx, objectivesKeyPrefix+courseID, &objectives) {
		return nil, false
	}
	return objectives, true
}

func (c *CourseCache) SetObjectives(ctx context.Context, courseID string, objectives []string) {
	c.set(ctx, objectivesKeyPrefix+courseID, objectives)
}

// Invalidate drops a course and its objectives from both tiers
func (c *CourseCache) Invalidate(ctx context.Context, course *store.Course) {
	if course == nil {
		return
	}
	keys := []string{courseKeyPrefix + course.Name, objectivesKeyPrefix + course.ID}
	for _, k := range keys {
		c.l1.Delete(k)
	}
	if c.l2 != nil {
		if err := c.l2.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn("COURSE_CACHE", "Failed to invalidate redis keys", map[string]interface{}{
				"course": course.Name,
				"error":  err.Error(),
			})
		}
	}
}

// get decodes into dst; L1 stores the encoded bytes so callers never share mutable state
func (c *CourseCache) get(ctx context.Context, key string, dst interface{}) bool {
	if raw, found := c.l1.Get(key); found {
		if err := json.Unmarshal(raw.([]byte), dst); err == nil {
			return true
		}
		c.l1.Delete(key)
	}

	if c.l2 == nil {
		return false
	}

	raw, err := c.l2.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("COURSE_CACHE", "Redis read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}

	// Promote to L1
	c.l1.Set(key, raw, cache.DefaultExpiration)
	return true
}

func (c *CourseCache) set(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.l1.Set(key, raw, cache.DefaultExpiration)

	if c.l2 == nil {
		return
	}
	if err := c.l2.Set(ctx, key, raw, c.l2TTL).Err(); err != nil {
		c.logger.Warn("COURSE_CACHE", "Redis write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
