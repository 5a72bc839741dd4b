package repository

import (
	"context"
	"fmt"

	"StockScan/internal/domain/models"
	"StockScan/pkg/kafka"
)

// KafkaCandidatePublisher pushes final candidates onto a Kafka topic,
// keyed by ticker so downstream consumers see per-ticker ordering.
// Delivery is best effort; a failed publish never fails the run.
type KafkaCandidatePublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaCandidatePublisher(producer *kafka.Producer, topic string) *KafkaCandidatePublisher {
	return &KafkaCandidatePublisher{producer: producer, topic: topic}
}

// candidateEvent is the published payload shape.
type candidateEvent struct {
	RunID     string                 `json:"run_id"`
	Rank      int                    `json:"rank"`
	Candidate models.ScoredCandidate `json:"candidate"`
}

func (p *KafkaCandidatePublisher) PublishCandidates(ctx context.Context, runID string, candidates []models.ScoredCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(candidates))
	for i, c := range candidates {
		messages = append(messages, kafka.Message{
			Key:   []byte(c.Ticker),
			Value: candidateEvent{RunID: runID, Rank: i + 1, Candidate: c},
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, messages); err != nil {
		return fmt.Errorf("publish %d candidates for %s: %w", len(candidates), runID, err)
	}
	return nil
}

func (p *KafkaCandidatePublisher) Close() error {
	return p.producer.Close()
}
