package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/movelog"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

type stubBus struct {
	sent    int
	failAft int
}

func (b *stubBus) SendMessage(ctx context.Context, body interface{}) error {
	if b.failAft > 0 && b.sent >= b.failAft {
		return errors.New("queue unavailable")
	}
	b.sent++
	return nil
}

func (b *stubBus) Close() error { return nil }

func seedMovement(t *testing.T, store repositories.Store, sampleID uuid.UUID) {
	t.Helper()
	require.NoError(t, movelog.Record(context.Background(), store.Movements(), movelog.Entry{
		SampleID: sampleID,
		Action:   models.ActionCreated,
		By:       uuid.New(),
	}))
}

func TestPublishPendingMarksEntries(t *testing.T) {
	store := repositories.NewMemoryStore()
	bus := &stubBus{}
	pub := NewMovementPublisher(store, bus, nil, 10)

	sampleID := uuid.New()
	seedMovement(t, store, sampleID)
	seedMovement(t, store, sampleID)

	require.NoError(t, pub.PublishPending(context.Background()))
	require.Equal(t, 2, bus.sent)

	pending, err := store.Movements().GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestPublishPendingStopsOnSendFailure(t *testing.T) {
	store := repositories.NewMemoryStore()
	bus := &stubBus{failAft: 1}
	pub := NewMovementPublisher(store, bus, nil, 10)

	sampleID := uuid.New()
	seedMovement(t, store, sampleID)
	seedMovement(t, store, sampleID)

	require.NoError(t, pub.PublishPending(context.Background()))
	require.Equal(t, 1, bus.sent)

	// The failed entry stays queued for the next run.
	pending, err := store.Movements().GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}
