package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/internal/messaging"
	"github.com/shahanursiam/sampletrack/internal/metrics"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

// MovementPublisher drains unpublished movement log entries onto the event
// queue. Publishing is decoupled from the write path so a queue outage never
// blocks or loses an audit record; entries are retried on the next run.
type MovementPublisher struct {
	store     repositories.Store
	bus       messaging.ServiceBusClient
	metrics   *metrics.Metrics
	batchSize int
}

// NewMovementPublisher creates a new movement publisher.
func NewMovementPublisher(store repositories.Store, bus messaging.ServiceBusClient, m *metrics.Metrics, batchSize int) *MovementPublisher {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &MovementPublisher{store: store, bus: bus, metrics: m, batchSize: batchSize}
}

// PublishPending sends one batch of unpublished entries, oldest first. A
// send failure stops the batch; the remainder is picked up next run.
func (p *MovementPublisher) PublishPending(ctx context.Context) error {
	entries, err := p.store.Movements().GetUnpublished(ctx, p.batchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	published := 0
	for i := range entries {
		entry := &entries[i]
		if err := p.bus.SendMessage(ctx, messaging.EventFromLog(entry)); err != nil {
			log.Error().Err(err).Str("entry_id", entry.ID.String()).Msg("failed to publish movement event")
			break
		}
		if err := p.store.Movements().MarkPublished(ctx, entry.ID); err != nil {
			return err
		}
		published++
	}

	if p.metrics != nil {
		p.metrics.IncrementCounterBy("movement_events_published", int64(published))
	}
	log.Info().Int("published", published).Int("pending", len(entries)-published).Msg("movement publish run complete")
	return nil
}
