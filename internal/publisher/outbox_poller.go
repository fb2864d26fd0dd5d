package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/repository"
	"github.com/segmentio/kafka-go"
)

const OrderEventsTopic = "order-events"

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller relays order events committed to the outbox table to Kafka.
// Delivery is at least once: an event is marked processed only after the
// broker acknowledged it.
type OutboxPoller struct {
	eventTick time.Duration
	purgeTick time.Duration
	retention time.Duration
	batchSize int
	repo      repository.OutboxStore
	writer    MessageWriter
	metrics   *metrics.DomainMetrics
	log       *slog.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewOutboxPoller(repo repository.OutboxStore, writer MessageWriter, m *metrics.DomainMetrics, log *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		eventTick: time.Second,
		purgeTick: time.Hour,
		retention: 7 * 24 * time.Hour,
		batchSize: 100,
		repo:      repo,
		writer:    writer,
		metrics:   m,
		log:       log,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	purgeTicker := time.NewTicker(p.purgeTick)
	defer eventTicker.Stop()
	defer purgeTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-purgeTicker.C:
			p.purgeProcessedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to fetch outbox events", slog.String("error", err.Error()))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.metrics.OutboxPublishErrs.Inc()
			p.log.ErrorContext(ctx, "failed to publish outbox event",
				slog.Int64("event_id", event.ID), slog.String("error", err.Error()))
			// keep per-aggregate order: later events of the batch wait too
			return
		}
		p.metrics.OutboxPublished.Inc()

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.ErrorContext(ctx, "failed to mark outbox event as processed",
				slog.Int64("event_id", event.ID), slog.String("error", err.Error()))
			return
		}
	}
}

func (p *OutboxPoller) purgeProcessedEvents(ctx context.Context) {
	n, err := p.repo.PurgeProcessedEvents(ctx, time.Now().Add(-p.retention))
	if err != nil {
		p.log.ErrorContext(ctx, "failed to purge outbox events", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		p.log.InfoContext(ctx, "purged outbox events", slog.Int64("count", n))
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id, keeps one order's events on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
