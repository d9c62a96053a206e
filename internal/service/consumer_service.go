package service

import (
	"context"
	"encoding/json"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/tutor/struggle"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService runs queued struggle analyses
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	analyzer   *struggle.Analyzer
	logger     logger.ILogger
	// processed, when set, receives each result without ever blocking the loop
	processed chan struggle.Result
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	analyzer *struggle.Analyzer,
	log logger.ILogger,
) IConsumerService {
	if topicName == "" {
		topicName = AnalysisTopic
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		analyzer:   analyzer,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			res := cs.processMessage(ctx, msg)
			select {
			case cs.processed <- res:
			default:
			}
		}
	}()

	return nil
}

// processMessage always acks: analysis is best-effort and a retry would re-ask the model
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) struggle.Result {
	defer msg.Ack()

	var job dto.AnalysisJobMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal analysis job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return struggle.Result{Outcome: struggle.OutcomeFailed, Err: err}
	}

	res := cs.analyzer.Analyze(ctx, job.UserID, job.CourseName, job.Window)
	cs.logger.Debug("CONSUMER", "Analysis job processed", map[string]interface{}{
		"chat_id": job.ChatID,
		"outcome": string(res.Outcome),
	})
	return res
}
