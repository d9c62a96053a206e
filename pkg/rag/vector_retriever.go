package rag

import (
	"context"
	"fmt"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/specification"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/store"
)

const defaultLimit = 5

// VectorRetriever embeds the query and runs a pgvector cosine search over course_chunks
type VectorRetriever struct {
	embedder   embedding.EmbeddingProvider
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewVectorRetriever(embedder embedding.EmbeddingProvider, uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *VectorRetriever {
	return &VectorRetriever{
		embedder:   embedder,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (r *VectorRetriever) RetrieveContext(ctx context.Context, query string, opts Options) ([]store.RetrievedChunk, error) {
	specs, err := filterToSpecifications(opts.Filter)
	if err != nil {
		return nil, err
	}

	emb, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.CourseChunkRepository().SearchSimilarWithScore(ctx, emb.Embedding.Values, limit, opts.ScoreThreshold, specs...)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	r.logger.Debug("RAG", "Vector search completed", map[string]interface{}{
		"filter":  opts.Filter.String(),
		"results": len(scored),
	})

	chunks := make([]store.RetrievedChunk, 0, len(scored))
	for _, s := range scored {
		chunks = append(chunks, store.RetrievedChunk{
			Content: s.Chunk.Content,
			Score:   float32(s.Similarity),
			Metadata: store.ChunkMetadata{
				CourseName:         s.Chunk.CourseName,
				ItemTitle:          s.Chunk.ItemTitle,
				TopicOrWeekTitle:   s.Chunk.TopicTitle,
				LearningObjectives: s.Chunk.LearningObjectives,
			},
		})
	}
	return chunks, nil
}

func filterToSpecifications(f *Filter) ([]specification.Specification, error) {
	if f == nil {
		return nil, nil
	}
	specs := make([]specification.Specification, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		switch {
		case c.Field == FieldCourseName && c.Operator == OpEqual && len(c.Values) == 1:
			specs = append(specs, specification.ChunkInCourse{CourseName: c.Values[0]})
		case c.Field == FieldItemTitle && c.Operator == OpIn:
			specs = append(specs, specification.ChunkInItems{ItemTitles: c.Values})
		case c.Field == FieldItemTitle && c.Operator == OpEqual && len(c.Values) == 1:
			specs = append(specs, specification.ChunkInItems{ItemTitles: c.Values})
		default:
			return nil, fmt.Errorf("unsupported filter condition: %s %s", c.Field, c.Operator)
		}
	}
	return specs, nil
}
