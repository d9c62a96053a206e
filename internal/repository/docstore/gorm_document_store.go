package docstore

import (
	"context"
	"errors"
	"fmt"

	"ai-tutor-be/internal/entity"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentStore serves store.DocumentStore from postgres, with course
// metadata fronted by the tiered course cache.
type GormDocumentStore struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.CourseCache
	logger     logger.ILogger
}

func NewGormDocumentStore(uowFactory unitofwork.RepositoryFactory, cache *memory.CourseCache, log logger.ILogger) *GormDocumentStore {
	return &GormDocumentStore{
		uowFactory: uowFactory,
		cache:      cache,
		logger:     log,
	}
}

func (s *GormDocumentStore) GetCourseByName(ctx context.Context, name string) (*store.Course, error) {
	if s.cache != nil {
		if course, ok := s.cache.GetCourse(ctx, name); ok {
			return course, nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	c, err := uow.CourseRepository().FindOne(ctx, specification.ByName{Name: name})
	if err != nil {
		return nil, fmt.Errorf("find course %q: %w", name, err)
	}
	if c == nil {
		return nil, nil
	}

	course := courseToStore(c)
	if s.cache != nil {
		s.cache.SetCourse(ctx, course)
	}
	return course, nil
}

func (s *GormDocumentStore) GetAllLearningObjectives(ctx context.Context, courseID string) ([]string, error) {
	if s.cache != nil {
		if objectives, ok := s.cache.GetObjectives(ctx, courseID); ok {
			return objectives, nil
		}
	}

	id, err := uuid.Parse(courseID)
	if err != nil {
		return nil, fmt.Errorf("invalid course id %q: %w", courseID, err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.LearningObjectiveRepository().FindAll(ctx,
		specification.ByCourseID{CourseID: id},
		specification.OrderBy{Field: "position"},
	)
	if err != nil {
		return nil, fmt.Errorf("find learning objectives: %w", err)
	}

	objectives := make([]string, 0, len(rows))
	for _, o := range rows {
		objectives = append(objectives, o.Text)
	}
	if s.cache != nil {
		s.cache.SetObjectives(ctx, courseID, objectives)
	}
	return objectives, nil
}

// GetUserChats includes soft-deleted chats so callers can tell "deleted" from "never existed"
func (s *GormDocumentStore) GetUserChats(ctx context.Context, courseName, userID string) ([]*store.PersistedChat, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.IncludeDeleted{},
		specification.OwnedBy{CourseName: courseName, UserID: userID},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, fmt.Errorf("find chats: %w", err)
	}

	result := make([]*store.PersistedChat, 0, len(chats))
	msgRepo := uow.ChatMessageRepository()
	for _, c := range chats {
		msgs, err := msgRepo.FindAll(ctx,
			specification.ByChatID{ChatID: c.Id},
			specification.OrderBy{Field: "timestamp_ms"},
			specification.OrderBy{Field: "created_at"},
		)
		if err != nil {
			return nil, fmt.Errorf("find messages of chat %s: %w", c.Id, err)
		}
		result = append(result, chatToStore(c, msgs))
	}
	return result, nil
}

func (s *GormDocumentStore) EnsureChat(ctx context.Context, chat *store.PersistedChat) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatRepository().Create(ctx, &entity.Chat{
		Id:         chat.ID,
		UserId:     chat.UserID,
		CourseName: chat.CourseName,
		Title:      chat.Title,
		CreatedAt:  chat.CreatedAt,
	})
}

func (s *GormDocumentStore) AppendChatMessages(ctx context.Context, chatID string, messages ...store.ChatMessage) error {
	rows := make([]*entity.ChatMessage, len(messages))
	for i, m := range messages {
		rows[i] = &entity.ChatMessage{
			Id:                 m.ID,
			ChatId:             chatID,
			Sender:             string(m.Sender),
			UserId:             m.UserID,
			CourseName:         m.CourseName,
			Text:               m.Text,
			TimestampMs:        m.TimestampMs,
			RetrievedDocuments: m.RetrievedDocuments,
		}
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatMessageRepository().CreateBulk(ctx, rows)
}

func (s *GormDocumentStore) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := uow.ChatRepository().UpdateTitle(ctx, chatID, title)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (s *GormDocumentStore) GetStruggleProfile(ctx context.Context, courseName, userID string) (*store.StruggleProfile, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	p, err := uow.StruggleProfileRepository().FindOne(ctx, specification.OwnedBy{CourseName: courseName, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("find struggle profile: %w", err)
	}
	if p == nil {
		return nil, nil
	}
	return profileToStore(p), nil
}

// InitializeStruggleProfile creates an empty profile, or returns the existing one
func (s *GormDocumentStore) InitializeStruggleProfile(ctx context.Context, enrollment *store.Enrollment) (*store.StruggleProfile, error) {
	if enrollment == nil {
		return nil, errors.New("enrollment is required")
	}

	var profile *entity.StruggleProfile
	created := false
	err := s.uowFactory.WithinTransaction(ctx, func(uow unitofwork.UnitOfWork) error {
		repo := uow.StruggleProfileRepository()
		existing, err := repo.FindOne(ctx, specification.OwnedBy{CourseName: enrollment.CourseName, UserID: enrollment.UserID})
		if err != nil {
			return err
		}
		if existing != nil {
			profile = existing
			return nil
		}

		profile = &entity.StruggleProfile{
			UserId:        enrollment.UserID,
			CourseName:    enrollment.CourseName,
			StruggleWords: []string{},
		}
		if err := repo.Create(ctx, profile); err != nil {
			return fmt.Errorf("create struggle profile: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return profileToStore(profile), nil
	}

	s.logger.Info("DOCSTORE", "Struggle profile initialized", map[string]interface{}{
		"user_id":     enrollment.UserID,
		"course_name": enrollment.CourseName,
	})
	return profileToStore(profile), nil
}

func (s *GormDocumentStore) UpdateStruggleProfile(ctx context.Context, courseName, userID string, words []string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := uow.StruggleProfileRepository().UpdateWords(ctx, courseName, userID, words)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (s *GormDocumentStore) GetEnrollment(ctx context.Context, courseName, userID string) (*store.Enrollment, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	e, err := uow.EnrollmentRepository().FindOne(ctx, specification.OwnedBy{CourseName: courseName, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	if e == nil {
		return nil, nil
	}
	return &store.Enrollment{UserID: e.UserId, CourseName: e.CourseName, Role: e.Role}, nil
}

func courseToStore(c *entity.Course) *store.Course {
	course := &store.Course{
		ID:    c.Id.String(),
		Name:  c.Name,
		Items: make([]store.CourseItem, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		course.Items = append(course.Items, store.CourseItem{
			ID:        item.Id.String(),
			Title:     item.Title,
			Published: item.Published,
		})
	}
	return course
}

func chatToStore(c *entity.Chat, msgs []*entity.ChatMessage) *store.PersistedChat {
	chat := &store.PersistedChat{
		ID:         c.Id,
		UserID:     c.UserId,
		CourseName: c.CourseName,
		Title:      c.Title,
		CreatedAt:  c.CreatedAt,
		DeletedAt:  c.DeletedAt,
		IsDeleted:  c.IsDeleted,
		Messages:   make([]store.ChatMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		chat.Messages = append(chat.Messages, store.ChatMessage{
			ID:                 m.Id,
			Sender:             store.Sender(m.Sender),
			UserID:             m.UserId,
			CourseName:         m.CourseName,
			Text:               m.Text,
			TimestampMs:        m.TimestampMs,
			RetrievedDocuments: m.RetrievedDocuments,
		})
	}
	return chat
}

func profileToStore(p *entity.StruggleProfile) *store.StruggleProfile {
	profile := &store.StruggleProfile{
		UserID:        p.UserId,
		CourseName:    p.CourseName,
		StruggleWords: append([]string(nil), p.StruggleWords...),
	}
	if p.UpdatedAt != nil {
		profile.UpdatedAt = *p.UpdatedAt
	} else {
		profile.UpdatedAt = p.CreatedAt
	}
	return profile
}
