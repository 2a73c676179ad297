package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/satellite/internal/domain"
)

// RepositoryFactory builds a fresh, empty repository driven by clock
type RepositoryFactory func(t *testing.T, clock domain.Clock) domain.Repository

// RunRepositoryContract exercises behaviour every domain.Repository must share
func RunRepositoryContract(t *testing.T, newRepo RepositoryFactory) {
	t.Run("empty state", func(t *testing.T) {
		repo := newRepo(t, NewFakeClock(FixedTime))
		ctx := context.Background()

		settings, err := repo.GetSettings(ctx)
		require.NoError(t, err)
		assert.Nil(t, settings)

		budget, err := repo.GetBudget(ctx)
		require.NoError(t, err)
		assert.Nil(t, budget)

		holdings, err := repo.GetHoldings(ctx)
		require.NoError(t, err)
		assert.Empty(t, holdings)

		records, err := repo.GetFormationUsage(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)

		latest, err := repo.GetMostRecentFormationChange(ctx)
		require.NoError(t, err)
		assert.Nil(t, latest)

		assert.NoError(t, repo.Ping(ctx))
	})

	t.Run("settings created lazily with defaults", func(t *testing.T) {
		clock := NewFakeClock(FixedTime)
		repo := newRepo(t, clock)
		ctx := context.Background()

		created, err := repo.UpsertSettings(ctx, domain.SettingsUpdate{AutoCheckEnabled: Ptr(false)})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, domain.DefaultFormationID, created.CurrentFormationID)
		assert.False(t, created.AutoCheckEnabled)
		assert.True(t, FixedTime.Equal(created.LastCheckDate))

		clock.AdvanceDays(1)
		updated, err := repo.UpsertSettings(ctx, domain.SettingsUpdate{
			CurrentFormationID: Ptr("formation-2-80-20"),
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "formation-2-80-20", updated.CurrentFormationID)
		assert.False(t, updated.AutoCheckEnabled)
		assert.True(t, FixedTime.Equal(updated.LastCheckDate))
		assert.True(t, clock.Now().Equal(updated.UpdatedAt))

		stored, err := repo.GetSettings(ctx)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "formation-2-80-20", stored.CurrentFormationID)
		assert.True(t, created.CreatedAt.Equal(stored.CreatedAt))
	})

	t.Run("budget created lazily with defaults", func(t *testing.T) {
		repo := newRepo(t, NewFakeClock(FixedTime))
		ctx := context.Background()

		budget, err := repo.UpsertBudget(ctx, domain.BudgetUpdate{Profit: Ptr(600.0)})
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultFunds, budget.Funds)
		assert.Equal(t, domain.DefaultStart, budget.Start)
		assert.Equal(t, 600.0, budget.Profit)
		assert.Equal(t, 10.0, budget.ReturnPercentage)

		budget, err = repo.UpsertBudget(ctx, domain.BudgetUpdate{Funds: Ptr(8000.0)})
		require.NoError(t, err)
		assert.Equal(t, 8000.0, budget.Funds)
		assert.Equal(t, 600.0, budget.Profit)

		stored, err := repo.GetBudget(ctx)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, budget.ID, stored.ID)
		assert.Equal(t, 8000.0, stored.Funds)
		assert.Equal(t, 10.0, stored.ReturnPercentage)
	})

	t.Run("holdings replace and order", func(t *testing.T) {
		repo := newRepo(t, NewFakeClock(FixedTime))
		ctx := context.Background()

		fixtures := NewHoldingFixtures()
		reversed := []domain.Holding{fixtures[2], fixtures[1], fixtures[0]}

		stored, err := repo.ReplaceHoldings(ctx, reversed)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, []string{"NVDA", "MSFT", "GOOGL"}, tickers(stored))
		assert.Equal(t, "h-nvda", stored[0].ID)

		stored, err = repo.ReplaceHoldings(ctx, []domain.Holding{
			{Ticker: "CRWD", Tier: 2, EntryPrice: 150, HoldShares: 1, GoalShares: 12},
		})
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.NotEmpty(t, stored[0].ID)
		assert.Equal(t, "CRWD", stored[0].Ticker)

		stored, err = repo.ReplaceHoldings(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("holding upsert and delete", func(t *testing.T) {
		repo := newRepo(t, NewFakeClock(FixedTime))
		ctx := context.Background()

		h, err := repo.UpsertHolding(ctx, domain.Holding{Ticker: "NVDA", Tier: 1, EntryPrice: 100, GoalShares: 30})
		require.NoError(t, err)
		require.NotEmpty(t, h.ID)

		h.HoldShares = 5
		_, err = repo.UpsertHolding(ctx, *h)
		require.NoError(t, err)

		holdings, err := repo.GetHoldings(ctx)
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		assert.Equal(t, 5, holdings[0].HoldShares)

		require.NoError(t, repo.DeleteHolding(ctx, "does-not-exist"))
		require.NoError(t, repo.DeleteHolding(ctx, h.ID))

		holdings, err = repo.GetHoldings(ctx)
		require.NoError(t, err)
		assert.Empty(t, holdings)

		_, err = repo.ReplaceHoldings(ctx, NewHoldingFixtures())
		require.NoError(t, err)
		require.NoError(t, repo.ClearAllHoldings(ctx))
		holdings, err = repo.GetHoldings(ctx)
		require.NoError(t, err)
		assert.Empty(t, holdings)
	})

	t.Run("usage switch between formations", func(t *testing.T) {
		clock := NewFakeClock(FixedTime)
		repo := newRepo(t, clock)
		ctx := context.Background()

		for _, id := range []string{"A", "A", "B"} {
			_, err := repo.UpsertFormationUsage(ctx, id)
			require.NoError(t, err)
			clock.AdvanceDays(1)
		}

		records, err := repo.GetFormationUsage(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)

		// most recently used first
		assert.Equal(t, "B", records[0].FormationID)
		assert.Equal(t, 1, records[0].UsageCount)
		assert.Equal(t, 2, records[0].TotalDays)
		assert.Equal(t, 50.0, records[0].UsagePercentage)

		assert.Equal(t, "A", records[1].FormationID)
		assert.Equal(t, 2, records[1].UsageCount)
		assert.Equal(t, 3, records[1].TotalDays)
		assert.Equal(t, 66.67, records[1].UsagePercentage)
	})

	t.Run("usage percentages stay bounded", func(t *testing.T) {
		clock := NewFakeClock(FixedTime)
		repo := newRepo(t, clock)
		ctx := context.Background()

		sequence := []string{"A", "B", "B", "C", "A", "A", "C", "B", "A", "C"}
		for _, id := range sequence {
			_, err := repo.UpsertFormationUsage(ctx, id)
			require.NoError(t, err)
			clock.AdvanceDays(1)
		}

		records, err := repo.RecalculateFormationUsage(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		for _, r := range records {
			assert.LessOrEqual(t, r.UsageCount, r.TotalDays, r.FormationID)
			assert.GreaterOrEqual(t, r.UsagePercentage, 0.0)
			assert.LessOrEqual(t, r.UsagePercentage, 100.0)
		}
	})

	t.Run("history newest first", func(t *testing.T) {
		clock := NewFakeClock(FixedTime)
		repo := newRepo(t, clock)
		ctx := context.Background()

		require.NoError(t, repo.AppendFormationHistory(ctx, domain.FormationHistory{
			ToFormationID: "A",
			Reason:        "Initial formation",
		}))
		clock.Advance(time.Hour)
		require.NoError(t, repo.AppendFormationHistory(ctx, domain.FormationHistory{
			FromFormationID: Ptr("A"),
			ToFormationID:   "B",
			Reason:          "Daily check detected change",
		}))

		latest, err := repo.GetMostRecentFormationChange(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "B", latest.ToFormationID)
		require.NotNil(t, latest.FromFormationID)
		assert.Equal(t, "A", *latest.FromFormationID)
		assert.NotEmpty(t, latest.ID)

		all, err := repo.ListFormationHistory(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "A", all[1].ToFormationID)
		assert.Nil(t, all[1].FromFormationID)
		assert.True(t, FixedTime.Equal(all[1].ChangedAt))

		limited, err := repo.ListFormationHistory(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("history ties keep insertion order", func(t *testing.T) {
		repo := newRepo(t, NewFakeClock(FixedTime))
		ctx := context.Background()

		for _, id := range []string{"A", "B", "C"} {
			require.NoError(t, repo.AppendFormationHistory(ctx, domain.FormationHistory{ToFormationID: id}))
		}

		latest, err := repo.GetMostRecentFormationChange(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "C", latest.ToFormationID)
	})

	t.Run("concurrent activations serialise", func(t *testing.T) {
		repo := newRepo(t, NewFakeClock(FixedTime))
		ctx := context.Background()

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.UpsertFormationUsage(ctx, "A"); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		records, err := repo.GetFormationUsage(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, workers, records[0].UsageCount)
		assert.Equal(t, workers, records[0].TotalDays)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := newRepo(t, NewFakeClock(FixedTime))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.UpsertSettings(ctx, domain.SettingsUpdate{})
		require.Error(t, err)

		var repoErr *domain.RepositoryError
		require.ErrorAs(t, err, &repoErr)
	})
}

func tickers(holdings []domain.Holding) []string {
	out := make([]string, len(holdings))
	for i, h := range holdings {
		out[i] = h.Ticker
	}
	return out
}
