package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher delivers audit events to whatever sink is configured.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// NoopPublisher discards events. Used when no audit sink is configured.
type NoopPublisher struct{}

func (NoopPublisher) Emit(context.Context, Event) error { return nil }

// KafkaPublisher produces audit events as JSON records on a topic.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaPublisher connects to the given brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect audit brokers: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

// Emit produces the event synchronously so callers can surface delivery
// failures in their own logs. Audit volume is low enough that the extra
// round trip does not matter.
func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{Topic: p.topic, Key: []byte(event.Type), Value: payload}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close releases the kafka client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
