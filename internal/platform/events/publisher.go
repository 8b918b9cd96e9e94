package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Topic is the audit stream all pipeline events are published to.
const Topic = "reglens.audit"

// Event is a best-effort audit record of a pipeline outcome. It never feeds
// back into the request path.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Substance  string    `json:"substance"`
	Source     string    `json:"source,omitempty"`
	Records    int       `json:"records"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	TypeResolved = "substance_resolved"
	TypeEnriched = "substance_enriched"
)

// Publisher writes audit events to Kafka, fire-and-forget. A nil *Publisher
// is valid and drops all events, so callers never branch on configuration.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewPublisher connects to the given brokers (comma-separated) and ensures
// the audit topic exists. Returns nil, nil if brokers is empty.
func NewPublisher(brokers string, logger *slog.Logger) (*Publisher, error) {
	if brokers == "" {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.RequiredAcks(kgo.LeaderAck()),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordDeliveryTimeout(10*time.Second),
		kgo.DisableIdempotentWrite(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, Topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create audit topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create audit topic %s: %w", res.Topic, res.Err)
		}
	}

	return &Publisher{client: client, logger: logger}, nil
}

// Emit publishes an event asynchronously. Delivery failures are logged and
// otherwise ignored; emission must never affect the request outcome.
func (p *Publisher) Emit(ctx context.Context, e Event) {
	if p == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(e)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal audit event", "error", err, "type", e.Type)
		return
	}

	record := &kgo.Record{
		Topic: Topic,
		Key:   []byte(e.Substance),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish audit event",
				"error", err,
				"type", e.Type,
				"substance", e.Substance,
			)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
