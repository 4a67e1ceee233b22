package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ApprovalEvent is published whenever an approval request is raised or
// decided. Downstream consumers (notification center, reporting) subscribe to
// these instead of polling the store.
type ApprovalEvent struct {
	Type        string    `json:"type"` // "approval.requested" or "approval.decided"
	WorkOrderID string    `json:"work_order_id"`
	ApprovalID  string    `json:"approval_id"`
	ActorUserID string    `json:"actor_user_id"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher emits approval lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event ApprovalEvent) error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ApprovalEvent) error { return nil }

// KafkaPublisher emits approval events to a Kafka topic, keyed by work order
// so per-order ordering is preserved.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ApprovalEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal approval event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.WorkOrderID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce approval event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
