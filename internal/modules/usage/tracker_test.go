package usage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/events"
	"github.com/aristath/satellite/internal/modules/usage"
	testingpkg "github.com/aristath/satellite/internal/testing"
)

func TestTracker_ActivateAndSummary(t *testing.T) {
	clock := testingpkg.NewFakeClock(testingpkg.FixedTime)
	repo := testingpkg.NewMockRepository(clock)
	tracker := usage.NewTracker(repo, zerolog.Nop())
	ctx := context.Background()

	for _, id := range []string{"formation-3-50-30-20", "formation-3-50-30-20", "formation-2-80-20"} {
		_, err := tracker.Activate(ctx, id)
		require.NoError(t, err)
		clock.AdvanceDays(1)
	}

	records, err := tracker.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	summary, err := tracker.Summary(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary.MostUsed)
	assert.Equal(t, "formation-3-50-30-20", summary.MostUsed.FormationID)
	assert.Equal(t, 3, summary.TotalActivations)
}

func TestTracker_RecalculateAll(t *testing.T) {
	repo := testingpkg.NewMockRepository(testingpkg.NewFakeClock(testingpkg.FixedTime))
	tracker := usage.NewTracker(repo, zerolog.Nop())
	ctx := context.Background()

	_, err := tracker.Activate(ctx, "formation-2-80-20")
	require.NoError(t, err)

	first, err := tracker.RecalculateAll(ctx)
	require.NoError(t, err)
	second, err := tracker.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTracker_WrapsRepositoryErrors(t *testing.T) {
	repo := testingpkg.NewMockRepository(nil)
	tracker := usage.NewTracker(repo, zerolog.Nop())
	failure := domain.NewRepositoryError("upsert_formation_usage", domain.RepositoryErrorQuery, errors.New("syntax"))
	repo.SetError(testingpkg.OpUpsertFormationUsage, failure)

	_, err := tracker.Activate(context.Background(), "formation-2-80-20")
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "failed to activate formation")
}

func TestTracker_RecalculateAllEmitsEvent(t *testing.T) {
	repo := testingpkg.NewMockRepository(testingpkg.NewFakeClock(testingpkg.FixedTime))
	bus := events.NewBus(zerolog.Nop())
	tracker := usage.NewTracker(repo, zerolog.Nop()).WithEmitter(events.NewManager(bus, zerolog.Nop()))
	ctx := context.Background()

	var received []*events.Event
	bus.Subscribe(events.UsageRecalculated, func(e *events.Event) { received = append(received, e) })

	_, err := tracker.Activate(ctx, "formation-2-80-20")
	require.NoError(t, err)
	_, err = tracker.RecalculateAll(ctx)
	require.NoError(t, err)

	require.Len(t, received, 1)
	data, ok := received[0].Data.(*events.UsageRecalculatedData)
	require.True(t, ok)
	assert.Equal(t, 1, data.Records)
}
