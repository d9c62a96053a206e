package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/struggle"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// AnalysisTopic is the watermill topic carrying queued struggle analyses
const AnalysisTopic = "tutor.struggle_analysis"

// IAnalysisDispatcher hands a conversation snapshot to the struggle analyzer.
// A returned soft failure means the analysis was attempted and did not succeed.
type IAnalysisDispatcher interface {
	Dispatch(ctx context.Context, job dto.AnalysisJobMessage) *store.SoftFailure
}

type inlineAnalysisDispatcher struct {
	analyzer *struggle.Analyzer
}

// NewInlineAnalysisDispatcher runs the analysis within the turn
func NewInlineAnalysisDispatcher(analyzer *struggle.Analyzer) IAnalysisDispatcher {
	return &inlineAnalysisDispatcher{analyzer: analyzer}
}

func (d *inlineAnalysisDispatcher) Dispatch(ctx context.Context, job dto.AnalysisJobMessage) *store.SoftFailure {
	if d.analyzer == nil {
		return nil
	}
	res := d.analyzer.Analyze(ctx, job.UserID, job.CourseName, job.Window)
	if res.Outcome == struggle.OutcomeFailed {
		return &store.SoftFailure{Channel: store.ChannelAnalysis, Err: res.Err}
	}
	return nil
}

type queueAnalysisDispatcher struct {
	publisher message.Publisher
	topic     string
}

// NewQueueAnalysisDispatcher publishes the job for the analysis consumer; the turn does not wait
func NewQueueAnalysisDispatcher(publisher message.Publisher, topic string) IAnalysisDispatcher {
	if topic == "" {
		topic = AnalysisTopic
	}
	return &queueAnalysisDispatcher{publisher: publisher, topic: topic}
}

func (d *queueAnalysisDispatcher) Dispatch(ctx context.Context, job dto.AnalysisJobMessage) *store.SoftFailure {
	payload, err := json.Marshal(job)
	if err != nil {
		return &store.SoftFailure{Channel: store.ChannelAnalysis, Err: fmt.Errorf("encode analysis job: %w", err)}
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := d.publisher.Publish(d.topic, msg); err != nil {
		return &store.SoftFailure{Channel: store.ChannelAnalysis, Err: fmt.Errorf("enqueue analysis job: %w", err)}
	}
	return nil
}
