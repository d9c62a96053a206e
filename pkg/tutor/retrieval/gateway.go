package retrieval

import (
	"context"
	"fmt"
	"strings"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/rag"
	"ai-tutor-be/pkg/store"
)

const chunkDelimiter = "\n\n---\n\n"

// Gateway scopes retrieval to the published material of one course
type Gateway struct {
	docs      store.DocumentStore
	retriever rag.Retriever
	logger    logger.ILogger
}

func NewGateway(docs store.DocumentStore, retriever rag.Retriever, log logger.ILogger) *Gateway {
	return &Gateway{
		docs:      docs,
		retriever: retriever,
		logger:    log,
	}
}

// Retrieve returns ranked chunks, or an empty result when the course is unknown,
// has nothing published, or the provider fails.
func (g *Gateway) Retrieve(ctx context.Context, query, courseName string, limit int, scoreThreshold float64) []store.RetrievedChunk {
	chunks, _ := g.RetrieveWithOutcome(ctx, query, courseName, limit, scoreThreshold)
	return chunks
}

// RetrieveWithOutcome is Retrieve plus the soft failure that emptied the result, if any
func (g *Gateway) RetrieveWithOutcome(ctx context.Context, query, courseName string, limit int, scoreThreshold float64) ([]store.RetrievedChunk, *store.SoftFailure) {
	course, err := g.docs.GetCourseByName(ctx, courseName)
	if err != nil {
		return nil, g.fail(courseName, fmt.Errorf("course lookup: %w", err))
	}
	if course == nil {
		g.logger.Debug("RETRIEVAL", "Course not found, skipping retrieval", map[string]interface{}{
			"course_name": courseName,
		})
		return nil, nil
	}

	published := course.PublishedItemTitles()
	if len(published) == 0 {
		g.logger.Debug("RETRIEVAL", "Course has no published items, skipping retrieval", map[string]interface{}{
			"course_name": courseName,
		})
		return nil, nil
	}

	filter := rag.And(
		rag.Equal(rag.FieldCourseName, courseName),
		rag.In(rag.FieldItemTitle, published...),
	)

	chunks, err := g.retriever.RetrieveContext(ctx, query, rag.Options{
		Limit:          limit,
		ScoreThreshold: scoreThreshold,
		Filter:         filter,
	})
	if err != nil {
		return nil, g.fail(courseName, err)
	}
	return chunks, nil
}

func (g *Gateway) fail(courseName string, err error) *store.SoftFailure {
	g.logger.Warn("RETRIEVAL", "Retrieval failed, continuing without context", map[string]interface{}{
		"course_name": courseName,
		"error":       err.Error(),
	})
	return &store.SoftFailure{Channel: store.ChannelRetrieval, Err: err}
}

// FormatContext renders chunks as one delimited block, labels before bodies.
// No chunks means no block at all.
func FormatContext(chunks []store.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		var b strings.Builder
		if label := strings.TrimSpace(c.Metadata.TopicOrWeekTitle); label != "" {
			fmt.Fprintf(&b, "Chapter: %s\n", label)
		}
		if len(c.Metadata.LearningObjectives) > 0 {
			b.WriteString("Learning objectives:\n")
			for _, o := range c.Metadata.LearningObjectives {
				fmt.Fprintf(&b, "- %s\n", o)
			}
		}
		b.WriteString(c.Content)
		parts = append(parts, b.String())
	}
	return strings.Join(parts, chunkDelimiter)
}

// Contents lists chunk bodies in rank order
func Contents(chunks []store.RetrievedChunk) []string {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}
