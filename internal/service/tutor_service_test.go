package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/llm/mock"
	"ai-tutor-be/pkg/rag"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/retrieval"
	"ai-tutor-be/pkg/tutor/session"
	"ai-tutor-be/pkg/tutor/struggle"
	"ai-tutor-be/pkg/tutor/title"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2024, 9, 3, 9, 30, 0, 0, time.UTC)

type stubRetriever struct {
	mu      sync.Mutex
	chunks  []store.RetrievedChunk
	err     error
	queries []string
}

func (r *stubRetriever) RetrieveContext(_ context.Context, query string, _ rag.Options) ([]store.RetrievedChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	return r.chunks, nil
}

func (r *stubRetriever) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	svc       ITutorService
	docs      *memory.DocumentStore
	provider  *mock.Provider
	retriever *stubRetriever
	sessions  *session.Store
	events    *recordingPublisher
}

func newFixture(t *testing.T, published bool) *fixture {
	t.Helper()

	docs := memory.NewDocumentStore()
	docs.SeedCourse(store.Course{
		ID:   "course-chbe",
		Name: "CHBE241",
		Items: []store.CourseItem{
			{ID: "w3", Title: "Week 3", Published: published},
		},
	}, []string{"Explain the second law of thermodynamics"})
	docs.Enroll(store.Enrollment{UserID: "u1", CourseName: "CHBE241", Role: "student"})

	provider := mock.NewProvider()
	retriever := &stubRetriever{chunks: []store.RetrievedChunk{{
		Content:  "Entropy is...",
		Metadata: store.ChunkMetadata{CourseName: "CHBE241", ItemTitle: "Week 3", TopicOrWeekTitle: "Week 3"},
	}}}
	pub := &recordingPublisher{}
	log := logger.NewNopLogger()

	sessions := session.NewStore(docs, provider, time.Minute, log, session.WithRemovalHook(NewSessionEventHook(pub, log)))
	t.Cleanup(sessions.Shutdown)

	analyzer := struggle.NewAnalyzer(docs, provider, pub, struggle.DefaultThreshold, log)
	svc := NewTutorService(
		config.TutorConfig{MaxMessagesPerChat: 50, RetrievalLimit: 5, RetrievalScoreThreshold: 0.5},
		sessions,
		retrieval.NewGateway(docs, retriever, log),
		analyzer,
		nil,
		docs,
		pub,
		log,
	)

	return &fixture{svc: svc, docs: docs, provider: provider, retriever: retriever, sessions: sessions, events: pub}
}

func (f *fixture) start(t *testing.T) string {
	t.Helper()
	chatID, _, err := f.svc.InitializeSession(context.Background(), "u1", "CHBE241", testDate)
	require.NoError(t, err)
	return chatID
}

func (f *fixture) turn(chatID, text string) (*TurnResult, error) {
	return f.svc.SubmitTurn(context.Background(), dto.SubmitTurnRequest{
		ChatID:     chatID,
		UserID:     "u1",
		CourseName: "CHBE241",
		Text:       text,
	}, nil)
}

func lastPrompt(p *mock.Provider) string {
	histories := p.StreamedHistories()
	if len(histories) == 0 {
		return ""
	}
	h := histories[len(histories)-1]
	return h[len(h)-1].Content
}

func TestSubmitTurn_EndToEnd(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	chatID, greeting, err := f.svc.InitializeSession(ctx, "u1", "CHBE241", testDate)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(chatID, "u1-CHBE241-"))
	assert.Len(t, strings.TrimPrefix(chatID, "u1-CHBE241-"), 12)
	assert.Equal(t, store.SenderBot, greeting.Sender)

	var streamed strings.Builder
	res, err := f.svc.SubmitTurn(ctx, dto.SubmitTurnRequest{
		ChatID: chatID, UserID: "u1", CourseName: "CHBE241", Text: "What is entropy?",
	}, func(chunk string) { streamed.WriteString(chunk) })
	require.NoError(t, err)

	assert.NotEmpty(t, streamed.String())
	assert.Equal(t, streamed.String(), res.Message.Text)
	assert.Equal(t, store.SenderBot, res.Message.Sender)
	assert.Equal(t, []string{"Entropy is..."}, res.Message.RetrievedDocuments)
	assert.Empty(t, res.SoftFailures)

	sent := lastPrompt(f.provider)
	assert.Contains(t, sent, "Chapter: Week 3")
	assert.Contains(t, sent, "Entropy is...")
	assert.Contains(t, sent, "What is entropy?")

	chat, ok := f.docs.Chat(chatID)
	require.True(t, ok)
	assert.NotEqual(t, store.DefaultChatTitle, chat.Title)
	assert.Equal(t, title.Derive(res.Message.Text), chat.Title)
	assert.LessOrEqual(t, len(strings.Fields(chat.Title)), 10)
	assert.Equal(t, chat.Title, res.Title)
	assert.Len(t, chat.Messages, 3)

	sess, ok := f.sessions.Get(chatID)
	require.True(t, ok)
	log := sess.TurnLog()
	require.Len(t, log, 3)
	assert.Equal(t, "What is entropy?", log[1].Text)
	assert.Equal(t, res.Message, log[2])

	assert.Contains(t, f.events.types(), events.TypeChatTitleSet)
}

func TestSubmitTurn_UnpublishedCourseSendsRawText(t *testing.T) {
	f := newFixture(t, false)
	chatID := f.start(t)

	res, err := f.turn(chatID, "What is entropy?")
	require.NoError(t, err)

	assert.Equal(t, "What is entropy?", lastPrompt(f.provider))
	assert.Empty(t, res.Message.RetrievedDocuments)
	assert.Equal(t, 0, f.retriever.calls())
}

func TestSubmitTurn_RetrievalFailureIsSoft(t *testing.T) {
	f := newFixture(t, true)
	f.retriever.err = errors.New("index offline")
	chatID := f.start(t)

	res, err := f.turn(chatID, "What is entropy?")
	require.NoError(t, err)

	assert.True(t, res.HasSoftFailure(store.ChannelRetrieval))
	assert.Equal(t, "What is entropy?", lastPrompt(f.provider))
	assert.Empty(t, res.Message.RetrievedDocuments)
}

func TestSubmitTurn_RateLimit(t *testing.T) {
	f := newFixture(t, false)
	chatID := f.start(t)

	for i := 0; i < 50; i++ {
		_, err := f.turn(chatID, fmt.Sprintf("question %d", i))
		require.NoError(t, err, "turn %d", i)
	}

	sess, ok := f.sessions.Get(chatID)
	require.True(t, ok)
	before := sess.TurnCount()
	assert.Equal(t, 1+50*2, before)

	_, err := f.turn(chatID, "one more")
	assert.ErrorIs(t, err, store.ErrRateLimitExceeded)
	assert.NotErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, before, sess.TurnCount())
}

func TestSubmitTurn_TitleIsWrittenOnce(t *testing.T) {
	f := newFixture(t, false)
	chatID := f.start(t)

	f.provider.Reply = "Entropy measures how many microscopic arrangements match a macroscopic state of a system"
	first, err := f.turn(chatID, "What is entropy?")
	require.NoError(t, err)

	chat, _ := f.docs.Chat(chatID)
	assert.Equal(t, "Entropy measures how many microscopic arrangements match a macroscopic state", chat.Title)
	assert.Equal(t, chat.Title, first.Title)

	f.provider.Reply = "A completely different answer about enthalpy and heat"
	second, err := f.turn(chatID, "And enthalpy?")
	require.NoError(t, err)

	chat, _ = f.docs.Chat(chatID)
	assert.Equal(t, "Entropy measures how many microscopic arrangements match a macroscopic state", chat.Title)
	assert.Equal(t, chat.Title, second.Title)
	assert.Equal(t, 1, f.docs.TitleWrites())
}

func TestSubmitTurn_TitleFailureIsSoftAndRetried(t *testing.T) {
	f := newFixture(t, false)
	chatID := f.start(t)

	f.docs.TitleUpdateErr = errors.New("title column locked")
	res, err := f.turn(chatID, "What is entropy?")
	require.NoError(t, err)
	assert.True(t, res.HasSoftFailure(store.ChannelTitle))
	assert.Equal(t, store.DefaultChatTitle, res.Title)

	f.docs.TitleUpdateErr = nil
	res, err = f.turn(chatID, "Tell me more")
	require.NoError(t, err)
	assert.False(t, res.HasSoftFailure(store.ChannelTitle))
	assert.NotEqual(t, store.DefaultChatTitle, res.Title)
	assert.Equal(t, 1, f.docs.TitleWrites())
}

func TestSubmitTurn_PersistenceFailureIsSoft(t *testing.T) {
	f := newFixture(t, false)
	chatID := f.start(t)

	f.docs.AppendErr = errors.New("disk full")
	res, err := f.turn(chatID, "What is entropy?")
	require.NoError(t, err)
	assert.True(t, res.HasSoftFailure(store.ChannelPersistence))
}

func TestSubmitTurn_GenerationFailure(t *testing.T) {
	f := newFixture(t, false)
	chatID := f.start(t)

	providerErr := errors.New("upstream 503 from model host")
	f.provider.StreamErr = providerErr

	var chunks int
	res, err := f.svc.SubmitTurn(context.Background(), dto.SubmitTurnRequest{
		ChatID: chatID, UserID: "u1", CourseName: "CHBE241", Text: "What is entropy?",
	}, func(string) { chunks++ })

	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, store.ErrGenerationFailed)
	assert.ErrorIs(t, err, providerErr)
	assert.Equal(t, "could not generate a response, please retry", err.Error())

	var genErr *store.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, chatID, genErr.ChatID)

	sess, _ := f.sessions.Get(chatID)
	log := sess.TurnLog()
	require.Len(t, log, 2)
	assert.Equal(t, store.SenderUser, log[1].Sender)

	chat, _ := f.docs.Chat(chatID)
	assert.Equal(t, store.DefaultChatTitle, chat.Title)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, log[1].ID, chat.Messages[1].ID)
}

func TestSubmitTurn_NotFound(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.turn("u1-CHBE241-missing", "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)

	chatID := f.start(t)
	_, err = f.svc.SubmitTurn(context.Background(), dto.SubmitTurnRequest{
		ChatID: chatID, UserID: "someone-else", CourseName: "CHBE241", Text: "hello",
	}, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.True(t, f.svc.DeleteSession(chatID))
	assert.False(t, f.svc.DeleteSession(chatID))
	_, err = f.turn(chatID, "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, []string{events.TypeSessionDeleted}, f.events.types())
}

func TestSubmitTurn_InvalidRequest(t *testing.T) {
	f := newFixture(t, false)
	chatID := f.start(t)

	_, err := f.turn(chatID, "")
	assert.ErrorIs(t, err, store.ErrInvalidRequest)

	_, _, err = f.svc.InitializeSession(context.Background(), "", "CHBE241", testDate)
	assert.ErrorIs(t, err, store.ErrInvalidRequest)
}

func TestSubmitTurn_StruggleAnalysisAfterThreshold(t *testing.T) {
	f := newFixture(t, false)
	f.provider.AnalysisReply = "Entropy"
	chatID := f.start(t)

	for i := 0; i < 3; i++ {
		_, err := f.turn(chatID, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}
	assert.Empty(t, f.provider.CompletedHistories())

	_, err := f.turn(chatID, "I still do not get entropy")
	require.NoError(t, err)

	histories := f.provider.CompletedHistories()
	require.Len(t, histories, 1)
	request := histories[0][len(histories[0])-1].Content
	lines := conversationLines(t, request)
	require.Len(t, lines, 3)
	assert.Equal(t, "Student: question 2", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Tutor: [offline tutor, turn 3]"), lines[1])
	assert.Equal(t, "Student: I still do not get entropy", lines[2])

	profile, err := f.docs.GetStruggleProfile(context.Background(), "CHBE241", "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, []string{"entropy"}, profile.StruggleWords)
	assert.Contains(t, f.events.types(), events.TypeStruggleTopicsUpdated)
}

// conversationLines returns the transcript lines of an analysis request
func conversationLines(t *testing.T, request string) []string {
	t.Helper()
	start := strings.Index(request, "<conversation>\n")
	end := strings.Index(request, "</conversation>")
	require.True(t, start >= 0 && end > start, "request has no conversation block")
	body := strings.TrimSpace(request[start+len("<conversation>\n") : end])
	return strings.Split(body, "\n")
}

func TestSubmitTurn_AnalysisFailureDoesNotFailTurn(t *testing.T) {
	f := newFixture(t, false)
	f.provider.ChatErr = errors.New("analysis model down")
	chatID := f.start(t)

	var last *TurnResult
	for i := 0; i < 4; i++ {
		res, err := f.turn(chatID, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
		last = res
	}
	assert.True(t, last.HasSoftFailure(store.ChannelAnalysis))
	assert.NotEmpty(t, last.Message.Text)
}

func TestRestoreThenSubmit(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	chatID := f.start(t)

	_, err := f.turn(chatID, "What is entropy?")
	require.NoError(t, err)
	require.True(t, f.svc.DeleteSession(chatID))

	ok, err := f.svc.RestoreSession(ctx, chatID, "CHBE241", "u1")
	require.NoError(t, err)
	require.True(t, ok)

	sess, live := f.sessions.Get(chatID)
	require.True(t, live)
	assert.Equal(t, 3, sess.TurnCount())
	assert.False(t, sess.NeedsTitle())

	_, err = f.turn(chatID, "And enthalpy?")
	require.NoError(t, err)
	assert.Equal(t, 1, f.docs.TitleWrites())
}

func TestUpdateChatTitle(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the placeholder once", func(t *testing.T) {
		f := newFixture(t, false)
		chatID := f.start(t)

		err := f.svc.UpdateChatTitle(ctx, chatID, "u1", "CHBE241", "   ")
		assert.ErrorIs(t, err, store.ErrInvalidRequest)

		require.NoError(t, f.svc.UpdateChatTitle(ctx, chatID, "u1", "CHBE241", "  Thermo review  "))
		chat, _ := f.docs.Chat(chatID)
		assert.Equal(t, "Thermo review", chat.Title)

		res, err := f.turn(chatID, "What is entropy?")
		require.NoError(t, err)
		assert.Equal(t, "Thermo review", res.Title)

		err = f.svc.UpdateChatTitle(ctx, chatID, "u1", "CHBE241", "Something else")
		assert.ErrorIs(t, err, store.ErrTitleAlreadySet)
		chat, _ = f.docs.Chat(chatID)
		assert.Equal(t, "Thermo review", chat.Title)
	})

	t.Run("generated title is final", func(t *testing.T) {
		f := newFixture(t, false)
		chatID := f.start(t)
		res, err := f.turn(chatID, "What is entropy?")
		require.NoError(t, err)

		err = f.svc.UpdateChatTitle(ctx, chatID, "u1", "CHBE241", "Renamed")
		assert.ErrorIs(t, err, store.ErrTitleAlreadySet)

		require.True(t, f.svc.DeleteSession(chatID))
		err = f.svc.UpdateChatTitle(ctx, chatID, "u1", "CHBE241", "Renamed")
		assert.ErrorIs(t, err, store.ErrTitleAlreadySet)

		chat, _ := f.docs.Chat(chatID)
		assert.Equal(t, res.Title, chat.Title)
	})

	t.Run("unknown or foreign chat", func(t *testing.T) {
		f := newFixture(t, false)
		chatID := f.start(t)

		err := f.svc.UpdateChatTitle(ctx, "u1-CHBE241-missing", "u1", "CHBE241", "x")
		assert.ErrorIs(t, err, store.ErrNotFound)
		err = f.svc.UpdateChatTitle(ctx, chatID, "u2", "CHBE241", "x")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRestoreAfterGenerationFailureKeepsQuestion(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	chatID := f.start(t)

	f.provider.StreamErr = errors.New("model host unreachable")
	_, err := f.turn(chatID, "What is entropy?")
	require.ErrorIs(t, err, store.ErrGenerationFailed)

	require.True(t, f.svc.DeleteSession(chatID))
	ok, err := f.svc.RestoreSession(ctx, chatID, "CHBE241", "u1")
	require.NoError(t, err)
	require.True(t, ok)

	sess, live := f.sessions.Get(chatID)
	require.True(t, live)
	log := sess.TurnLog()
	require.Len(t, log, 2)
	assert.Equal(t, store.SenderUser, log[1].Sender)
	assert.Equal(t, "What is entropy?", log[1].Text)
}

func TestQueuedAnalysis(t *testing.T) {
	docs := memory.NewDocumentStore()
	docs.Enroll(store.Enrollment{UserID: "u1", CourseName: "CHBE241"})
	provider := mock.NewProvider()
	provider.AnalysisReply = "heat transfer"
	log := logger.NewNopLogger()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	analyzer := struggle.NewAnalyzer(docs, provider, nil, 2, log)
	consumer := NewConsumerService(pubSub, "", analyzer, log).(*consumerService)
	consumer.processed = make(chan struggle.Result, 1)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, consumer.Consume(ctx))

	dispatcher := NewQueueAnalysisDispatcher(pubSub, "")
	failure := dispatcher.Dispatch(ctx, dto.AnalysisJobMessage{
		ChatID:     "chat-1",
		UserID:     "u1",
		CourseName: "CHBE241",
		Window: []llm.Message{
			{Role: llm.RoleSystem, Content: "sys"},
			{Role: llm.RoleAssistant, Content: "hi"},
			{Role: llm.RoleUser, Content: "how does heat move?"},
			{Role: llm.RoleAssistant, Content: "by conduction"},
		},
	})
	require.Nil(t, failure)

	select {
	case res := <-consumer.processed:
		assert.Equal(t, struggle.OutcomeUpdated, res.Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("analysis job was not consumed")
	}

	profile, err := docs.GetStruggleProfile(context.Background(), "CHBE241", "u1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, []string{"heat transfer"}, profile.StruggleWords)
}

func TestConsumerDoesNotBlockOnUnreadResults(t *testing.T) {
	docs := memory.NewDocumentStore()
	docs.Enroll(store.Enrollment{UserID: "u1", CourseName: "CHBE241"})
	provider := mock.NewProvider()
	log := logger.NewNopLogger()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	consumer := NewConsumerService(pubSub, "", struggle.NewAnalyzer(docs, provider, nil, 1, log), log).(*consumerService)
	consumer.processed = make(chan struggle.Result)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, consumer.Consume(ctx))

	dispatcher := NewQueueAnalysisDispatcher(pubSub, "")
	for i := 0; i < 3; i++ {
		require.Nil(t, dispatcher.Dispatch(ctx, dto.AnalysisJobMessage{
			ChatID: "chat-1", UserID: "u1", CourseName: "CHBE241",
			Window: []llm.Message{
				{Role: llm.RoleAssistant, Content: "hi"},
				{Role: llm.RoleUser, Content: fmt.Sprintf("question %d", i)},
			},
		}))
	}

	assert.Eventually(t, func() bool {
		return len(provider.CompletedHistories()) == 3
	}, 2*time.Second, 10*time.Millisecond)
}
