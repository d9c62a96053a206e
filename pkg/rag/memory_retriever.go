package rag

import (
	"context"
	"sort"
	"strings"

	"ai-tutor-be/pkg/store"
)

// MemoryRetriever ranks an in-process corpus by word overlap with the query.
// Used in dev mode where no vector database is available.
type MemoryRetriever struct {
	chunks []store.RetrievedChunk
}

func NewMemoryRetriever(chunks []store.RetrievedChunk) *MemoryRetriever {
	return &MemoryRetriever{chunks: append([]store.RetrievedChunk(nil), chunks...)}
}

func (r *MemoryRetriever) RetrieveContext(_ context.Context, query string, opts Options) ([]store.RetrievedChunk, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	var ranked []store.RetrievedChunk
	for _, c := range r.chunks {
		if !opts.Filter.Matches(c.Metadata) {
			continue
		}
		score := overlap(terms, tokenize(c.Content))
		if score <= 0 || score < opts.ScoreThreshold {
			continue
		}
		hit := c
		hit.Score = float32(score)
		ranked = append(ranked, hit)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()[]{}\"'`")
		if len(w) > 2 {
			out[w] = true
		}
	}
	return out
}

// overlap is the fraction of query terms present in the document
func overlap(query, doc map[string]bool) float64 {
	hits := 0
	for t := range query {
		if doc[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
