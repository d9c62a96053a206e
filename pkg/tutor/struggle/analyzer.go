package struggle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/prompt"
)

const (
	// DefaultThreshold is the non-system turn count a conversation must exceed before analysis
	DefaultThreshold = 6
	windowSize       = 3
	noneReply        = "NONE"
)

type Outcome string

const (
	OutcomeSkipped     Outcome = "skipped"
	OutcomeNoNewTopics Outcome = "no_new_topics"
	OutcomeUpdated     Outcome = "updated"
	OutcomeFailed      Outcome = "failed"
)

// Result reports what one analysis did. Err is set only for OutcomeFailed.
type Result struct {
	Outcome Outcome
	Added   []string
	Topics  []string
	Err     error
}

// Analyzer extracts struggle topics from the tail of a conversation and merges
// them into the student's profile.
type Analyzer struct {
	docs      store.DocumentStore
	provider  llm.LLMProvider
	publisher events.Publisher
	threshold int
	logger    logger.ILogger
}

func NewAnalyzer(docs store.DocumentStore, provider llm.LLMProvider, publisher events.Publisher, threshold int, log logger.ILogger) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Analyzer{
		docs:      docs,
		provider:  provider,
		publisher: publisher,
		threshold: threshold,
		logger:    log,
	}
}

// Eligible reports whether a conversation is long enough to analyze
func (a *Analyzer) Eligible(window []llm.Message) bool {
	return len(nonSystem(window)) > a.threshold
}

// Analyze never returns an error to the caller; failures come back as OutcomeFailed.
func (a *Analyzer) Analyze(ctx context.Context, userID, courseName string, window []llm.Message) Result {
	turns := nonSystem(window)
	if len(turns) <= a.threshold {
		return Result{Outcome: OutcomeSkipped}
	}
	recent := turns
	if len(recent) > windowSize {
		recent = recent[len(recent)-windowSize:]
	}

	existing, err := a.existingTopics(ctx, userID, courseName)
	if err != nil {
		return a.failed(userID, courseName, fmt.Errorf("load struggle profile: %w", err))
	}

	conv := llm.NewConversation(a.provider, llm.WithTemperature(0))
	if err := conv.AddMessage(llm.RoleSystem, analysisInstructions); err != nil {
		return a.failed(userID, courseName, err)
	}
	if err := conv.AddMessage(llm.RoleUser, analysisRequest(existing, recent)); err != nil {
		return a.failed(userID, courseName, err)
	}

	reply, err := conv.Send(ctx)
	if err != nil {
		return a.failed(userID, courseName, fmt.Errorf("analysis request: %w", err))
	}

	candidate := parseTopic(reply)
	if candidate == "" || isDuplicate(candidate, existing) {
		a.logger.Debug("STRUGGLE", "No new struggle topic", map[string]interface{}{
			"user_id":     userID,
			"course_name": courseName,
			"reply":       reply,
		})
		return Result{Outcome: OutcomeNoNewTopics, Topics: existing}
	}

	merged, err := a.UpdateStruggleWords(ctx, userID, courseName, []string{candidate})
	if err != nil {
		return a.failed(userID, courseName, err)
	}

	a.logger.Info("STRUGGLE", "Struggle topics updated", map[string]interface{}{
		"user_id":     userID,
		"course_name": courseName,
		"added":       candidate,
		"total":       len(merged),
	})

	added := []string{candidate}
	if err := a.publisher.Publish(ctx, events.NewStruggleTopicsUpdated(userID, courseName, added, merged)); err != nil {
		a.logger.Warn("STRUGGLE", "Failed to publish struggle update", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return Result{Outcome: OutcomeUpdated, Added: added, Topics: merged}
}

// UpdateStruggleWords merges newTopics into the stored set and persists the result.
// The profile is created from the course roster on first use.
func (a *Analyzer) UpdateStruggleWords(ctx context.Context, userID, courseName string, newTopics []string) ([]string, error) {
	profile, err := a.docs.GetStruggleProfile(ctx, courseName, userID)
	if err != nil {
		return nil, fmt.Errorf("load struggle profile: %w", err)
	}

	if profile == nil {
		enrollment, err := a.docs.GetEnrollment(ctx, courseName, userID)
		if err != nil {
			return nil, fmt.Errorf("load enrollment: %w", err)
		}
		if enrollment == nil {
			return nil, fmt.Errorf("user %s is not enrolled in %s", userID, courseName)
		}
		profile, err = a.docs.InitializeStruggleProfile(ctx, enrollment)
		if err != nil {
			return nil, fmt.Errorf("initialize struggle profile: %w", err)
		}
	}

	merged := Merge(profile.StruggleWords, newTopics)
	if err := a.docs.UpdateStruggleProfile(ctx, courseName, userID, merged); err != nil {
		return nil, fmt.Errorf("persist struggle profile: %w", err)
	}
	return merged, nil
}

func (a *Analyzer) existingTopics(ctx context.Context, userID, courseName string) ([]string, error) {
	profile, err := a.docs.GetStruggleProfile(ctx, courseName, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	return Merge(profile.StruggleWords, nil), nil
}

func (a *Analyzer) failed(userID, courseName string, err error) Result {
	a.logger.Warn("STRUGGLE", "Struggle analysis failed", map[string]interface{}{
		"user_id":     userID,
		"course_name": courseName,
		"error":       err.Error(),
	})
	return Result{Outcome: OutcomeFailed, Err: err}
}

// Merge normalizes both sets, unions them and sorts. Never drops a topic.
func Merge(existing, additions []string) []string {
	set := make(map[string]struct{}, len(existing)+len(additions))
	for _, group := range [][]string{existing, additions} {
		for _, t := range group {
			if n := Normalize(t); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func Normalize(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// isDuplicate drops candidates equal to, containing, or contained in a known topic
func isDuplicate(candidate string, existing []string) bool {
	for _, e := range existing {
		if e == "" {
			continue
		}
		if candidate == e || strings.Contains(candidate, e) || strings.Contains(e, candidate) {
			return true
		}
	}
	return false
}

func parseTopic(reply string) string {
	line := strings.TrimSpace(reply)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimPrefix(line, "Topic:")
	line = strings.Trim(line, " \t\"'`*.-")
	if strings.EqualFold(line, noneReply) {
		return ""
	}
	return Normalize(line)
}

func nonSystem(window []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(window))
	for _, m := range window {
		if m.Role != llm.RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

const analysisInstructions = `You review tutoring conversations to find concepts a student keeps struggling with.
Answer with a single short topic name (at most four words), or NONE.
Answer NONE when the student is not clearly struggling, or when the topic is already on file,
including when it is a substring, superset or paraphrase of a topic on file.`

func analysisRequest(existing []string, recent []llm.Message) string {
	var b strings.Builder
	b.WriteString(prompt.AnalysisMarker + "\n\n")

	b.WriteString("<topics_on_file>\n")
	if len(existing) == 0 {
		b.WriteString("(none)\n")
	}
	for _, t := range existing {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("</topics_on_file>\n\n")

	b.WriteString("<conversation>\n")
	for _, m := range recent {
		speaker := "Tutor"
		text := m.Content
		if m.Role == llm.RoleUser {
			speaker = "Student"
			text = prompt.StripContext(text)
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, text)
	}
	b.WriteString("</conversation>\n\n")
	b.WriteString("Which single new struggle topic, if any, does this conversation reveal?")
	return b.String()
}
