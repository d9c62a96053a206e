package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/idgen"
	"ai-tutor-be/pkg/tutor/prompt"
	"ai-tutor-be/pkg/tutor/retrieval"
	"ai-tutor-be/pkg/tutor/session"
	"ai-tutor-be/pkg/tutor/struggle"
	"ai-tutor-be/pkg/tutor/title"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ai-tutor-be/internal/service"

// ITutorService is the conversation facade used by callers
type ITutorService interface {
	InitializeSession(ctx context.Context, userID, courseName string, date time.Time) (string, store.ChatMessage, error)
	RestoreSession(ctx context.Context, chatID, courseName, userID string) (bool, error)
	DeleteSession(chatID string) bool
	SubmitTurn(ctx context.Context, req dto.SubmitTurnRequest, onChunk func(string)) (*TurnResult, error)
	UpdateChatTitle(ctx context.Context, chatID, userID, courseName, title string) error
	Shutdown()
}

// TurnResult is the finalized bot message plus every side channel that failed along the way
type TurnResult struct {
	Message      store.ChatMessage
	SoftFailures []store.SoftFailure
	Title        string
}

// HasSoftFailure reports whether the given side channel failed during the turn
func (r *TurnResult) HasSoftFailure(ch store.Channel) bool {
	for _, f := range r.SoftFailures {
		if f.Channel == ch {
			return true
		}
	}
	return false
}

type tutorService struct {
	cfg        config.TutorConfig
	sessions   *session.Store
	gateway    *retrieval.Gateway
	analyzer   *struggle.Analyzer
	dispatcher IAnalysisDispatcher
	docs       store.DocumentStore
	publisher  events.Publisher
	ids        idgen.Generator
	validate   *validator.Validate
	logger     logger.ILogger
	tracer     trace.Tracer
	now        func() time.Time
}

func NewTutorService(
	cfg config.TutorConfig,
	sessions *session.Store,
	gateway *retrieval.Gateway,
	analyzer *struggle.Analyzer,
	dispatcher IAnalysisDispatcher,
	docs store.DocumentStore,
	publisher events.Publisher,
	log logger.ILogger,
) ITutorService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if dispatcher == nil {
		dispatcher = NewInlineAnalysisDispatcher(analyzer)
	}
	if cfg.MaxMessagesPerChat <= 0 {
		cfg.MaxMessagesPerChat = 50
	}
	return &tutorService{
		cfg:        cfg,
		sessions:   sessions,
		gateway:    gateway,
		analyzer:   analyzer,
		dispatcher: dispatcher,
		docs:       docs,
		publisher:  publisher,
		ids:        idgen.Deterministic{},
		validate:   validator.New(),
		logger:     log,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

func (s *tutorService) InitializeSession(ctx context.Context, userID, courseName string, date time.Time) (string, store.ChatMessage, error) {
	req := dto.InitializeSessionRequest{UserID: userID, CourseName: courseName, Date: date}
	if err := s.validate.Struct(req); err != nil {
		return "", store.ChatMessage{}, fmt.Errorf("%w: %v", store.ErrInvalidRequest, err)
	}
	return s.sessions.InitializeSession(ctx, userID, courseName, date)
}

func (s *tutorService) RestoreSession(ctx context.Context, chatID, courseName, userID string) (bool, error) {
	req := dto.RestoreSessionRequest{ChatID: chatID, UserID: userID, CourseName: courseName}
	if err := s.validate.Struct(req); err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrInvalidRequest, err)
	}
	return s.sessions.RestoreSession(ctx, chatID, courseName, userID)
}

func (s *tutorService) DeleteSession(chatID string) bool {
	return s.sessions.DeleteSession(chatID)
}

func (s *tutorService) SubmitTurn(ctx context.Context, req dto.SubmitTurnRequest, onChunk func(string)) (*TurnResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidRequest, err)
	}

	ctx, span := s.tracer.Start(ctx, "tutor.SubmitTurn", trace.WithAttributes(
		attribute.String("chat.id", req.ChatID),
		attribute.String("course.name", req.CourseName),
	))
	defer span.End()

	result, err := s.submitTurn(ctx, req, onChunk)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("turn.soft_failures", len(result.SoftFailures)))
	return result, nil
}

func (s *tutorService) submitTurn(ctx context.Context, req dto.SubmitTurnRequest, onChunk func(string)) (*TurnResult, error) {
	// 1. Rearm before anything can suspend
	if !s.sessions.Touch(req.ChatID) {
		return nil, store.ErrNotFound
	}

	// 2. Validate
	sess, ok := s.sessions.Get(req.ChatID)
	if !ok || sess.UserID != req.UserID || sess.CourseName != req.CourseName {
		return nil, store.ErrNotFound
	}
	if userTurns(sess.TurnLog()) >= s.cfg.MaxMessagesPerChat {
		s.logger.Info("TUTOR", "Chat message limit reached", map[string]interface{}{
			"chat_id": req.ChatID,
			"limit":   s.cfg.MaxMessagesPerChat,
		})
		return nil, store.ErrRateLimitExceeded
	}

	result := &TurnResult{}

	// 3. Struggle analysis; eligibility is decided on the pre-turn snapshot and
	// the window ends with the question being asked now
	if snapshot := sess.Messages(); s.analyzer != nil && s.analyzer.Eligible(snapshot) {
		actx, span := s.tracer.Start(ctx, "tutor.analysis")
		window := append(snapshot, llm.Message{Role: llm.RoleUser, Content: req.Text})
		failure := s.dispatcher.Dispatch(actx, dto.AnalysisJobMessage{
			ChatID:     req.ChatID,
			UserID:     req.UserID,
			CourseName: req.CourseName,
			Window:     window,
		})
		if failure != nil {
			span.RecordError(failure.Err)
			result.SoftFailures = append(result.SoftFailures, *failure)
		}
		span.End()
	}

	// 4. Retrieval
	rctx, rspan := s.tracer.Start(ctx, "tutor.retrieval")
	chunks, failure := s.gateway.RetrieveWithOutcome(rctx, req.Text, req.CourseName, s.cfg.RetrievalLimit, s.cfg.RetrievalScoreThreshold)
	rspan.SetAttributes(attribute.Int("retrieval.chunks", len(chunks)))
	if failure != nil {
		rspan.RecordError(failure.Err)
		result.SoftFailures = append(result.SoftFailures, *failure)
	}
	rspan.End()

	// 5. Prompt assembly; the template is used only when something was retrieved
	promptText := req.Text
	if len(chunks) > 0 {
		promptText = prompt.WithContext(req.Text, retrieval.FormatContext(chunks))
	}

	// 6. Append and generate
	userTs := s.now().UnixMilli()
	userMsg := store.ChatMessage{
		ID:          s.ids.MessageID(req.Text, req.ChatID, userTs),
		Sender:      store.SenderUser,
		UserID:      req.UserID,
		CourseName:  req.CourseName,
		Text:        req.Text,
		TimestampMs: userTs,
	}
	if err := sess.AppendUserTurn(promptText, userMsg); err != nil {
		return nil, err
	}
	if failure := s.persist(ctx, req.ChatID, userMsg); failure != nil {
		result.SoftFailures = append(result.SoftFailures, *failure)
	}

	response, err := s.generate(ctx, sess, onChunk)
	if err != nil {
		s.logger.Error("TUTOR", "Generation failed", map[string]interface{}{
			"chat_id": req.ChatID,
			"error":   err.Error(),
		})
		return nil, &store.GenerationError{ChatID: req.ChatID, Cause: err}
	}

	// 7. Finalize
	botTs := s.now().UnixMilli()
	botMsg := store.ChatMessage{
		ID:                 s.ids.MessageID(response, req.ChatID, botTs),
		Sender:             store.SenderBot,
		UserID:             req.UserID,
		CourseName:         req.CourseName,
		Text:               response,
		TimestampMs:        botTs,
		RetrievedDocuments: retrieval.Contents(chunks),
	}
	if err := sess.AppendBotTurn(botMsg); err != nil {
		return nil, err
	}
	result.Message = botMsg

	if failure := s.persist(ctx, req.ChatID, botMsg); failure != nil {
		result.SoftFailures = append(result.SoftFailures, *failure)
	}

	// 8. Title maintenance
	t, failure := s.maintainTitle(ctx, sess, response)
	result.Title = t
	if failure != nil {
		result.SoftFailures = append(result.SoftFailures, *failure)
	}

	return result, nil
}

// persist writes one turn-log message; the live session stays authoritative on failure
func (s *tutorService) persist(ctx context.Context, chatID string, msg store.ChatMessage) *store.SoftFailure {
	if err := s.docs.AppendChatMessages(ctx, chatID, msg); err != nil {
		s.logger.Warn("TUTOR", "Failed to persist message", map[string]interface{}{
			"chat_id": chatID,
			"sender":  string(msg.Sender),
			"error":   err.Error(),
		})
		return &store.SoftFailure{Channel: store.ChannelPersistence, Err: err}
	}
	return nil
}

func (s *tutorService) generate(ctx context.Context, sess *session.Session, onChunk func(string)) (string, error) {
	ctx, span := s.tracer.Start(ctx, "tutor.generate")
	defer span.End()

	response, err := sess.Stream(ctx, func(chunk string) error {
		if onChunk != nil {
			onChunk(chunk)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", err
	}
	if strings.TrimSpace(response) == "" {
		return "", errors.New("provider returned an empty response")
	}
	span.SetAttributes(attribute.Int("response.length", len(response)))
	return response, nil
}

// maintainTitle replaces the placeholder title once. A failed write leaves the
// placeholder in place so the next turn tries again.
func (s *tutorService) maintainTitle(ctx context.Context, sess *session.Session, response string) (string, *store.SoftFailure) {
	if !sess.NeedsTitle() {
		return sess.Title(), nil
	}
	derived := title.Derive(response)
	if derived == "" {
		return sess.Title(), nil
	}

	if err := s.docs.UpdateChatTitle(ctx, sess.ChatID, derived); err != nil {
		s.logger.Warn("TUTOR", "Failed to update chat title", map[string]interface{}{
			"chat_id": sess.ChatID,
			"error":   err.Error(),
		})
		return sess.Title(), &store.SoftFailure{Channel: store.ChannelTitle, Err: err}
	}
	sess.SetTitle(derived)
	s.publish(ctx, events.NewChatTitleSet(sess.ChatID, sess.UserID, sess.CourseName, derived))
	return derived, nil
}

func (s *tutorService) UpdateChatTitle(ctx context.Context, chatID, userID, courseName, newTitle string) error {
	req := dto.UpdateChatTitleRequest{ChatID: chatID, UserID: userID, CourseName: courseName, Title: strings.TrimSpace(newTitle)}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidRequest, err)
	}

	current, sess, err := s.currentTitle(ctx, chatID, userID, courseName)
	if err != nil {
		return err
	}
	if !title.IsSentinel(current) {
		return store.ErrTitleAlreadySet
	}

	if err := s.docs.UpdateChatTitle(ctx, chatID, req.Title); err != nil {
		return fmt.Errorf("update chat title: %w", err)
	}
	if sess != nil {
		sess.SetTitle(req.Title)
	}
	s.publish(ctx, events.NewChatTitleSet(chatID, userID, courseName, req.Title))
	return nil
}

// currentTitle prefers the live session and falls back to the persisted chat
func (s *tutorService) currentTitle(ctx context.Context, chatID, userID, courseName string) (string, *session.Session, error) {
	if sess, ok := s.sessions.Get(chatID); ok {
		if sess.UserID != userID || sess.CourseName != courseName {
			return "", nil, store.ErrNotFound
		}
		return sess.Title(), sess, nil
	}

	chats, err := s.docs.GetUserChats(ctx, courseName, userID)
	if err != nil {
		return "", nil, fmt.Errorf("load chats: %w", err)
	}
	for _, c := range chats {
		if c.ID == chatID && !c.IsDeleted {
			return c.Title, nil, nil
		}
	}
	return "", nil, store.ErrNotFound
}

func (s *tutorService) Shutdown() {
	s.sessions.Shutdown()
}

func (s *tutorService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("TUTOR", "Failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func userTurns(log []store.ChatMessage) int {
	n := 0
	for _, m := range log {
		if m.Sender == store.SenderUser {
			n++
		}
	}
	return n
}

// NewSessionEventHook publishes eviction and deletion events for removed sessions
func NewSessionEventHook(publisher events.Publisher, log logger.ILogger) session.RemovalHook {
	return func(sess *session.Session, reason session.RemovalReason) {
		var event events.Event
		switch reason {
		case session.RemovedEvicted:
			event = events.NewSessionEvicted(sess.ChatID, sess.UserID, sess.CourseName)
		case session.RemovedDeleted:
			event = events.NewSessionDeleted(sess.ChatID, sess.UserID, sess.CourseName)
		default:
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.Publish(ctx, event); err != nil {
			log.Warn("TUTOR", "Failed to publish session event", map[string]interface{}{
				"event":   event.EventType(),
				"chat_id": sess.ChatID,
				"error":   err.Error(),
			})
		}
	}
}
