package allocation

import (
	"testing"

	"github.com/aristath/satellite/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeTier() domain.Formation {
	return domain.Formation{ID: "formation-3-50-30-20", TierCount: 3, Percentages: []float64{50, 30, 20}}
}

func TestBuildPlan_TierTargetsAndProgress(t *testing.T) {
	budget := domain.Budget{Funds: 6000, Start: 6000, Profit: 300}
	holdings := []domain.Holding{
		{ID: "h2", Ticker: "META", Tier: 1, EntryPrice: 300, HoldShares: 2},
		{ID: "h1", Ticker: "NVDA", Tier: 1, EntryPrice: 150, HoldShares: 10},
		{ID: "h3", Ticker: "MSFT", Tier: 2, EntryPrice: 400, HoldShares: 1},
	}

	plan := BuildPlan(threeTier(), budget, holdings, nil)

	require.Len(t, plan.Tiers, 3)
	assert.Equal(t, 3000.0, plan.Tiers[0].TargetAmount)
	assert.Equal(t, 1800.0, plan.Tiers[1].TargetAmount)
	assert.Equal(t, 1200.0, plan.Tiers[2].TargetAmount)

	tier1 := plan.Tiers[0]
	require.Len(t, tier1.Positions, 2)
	assert.Equal(t, "META", tier1.Positions[0].Ticker)
	assert.Equal(t, 2100.0, tier1.InvestedAmount)
	assert.Equal(t, 70.0, tier1.Progress)
	assert.Equal(t, 900.0, tier1.AdditionalNeeded)

	assert.Empty(t, plan.Tiers[2].Positions)
	assert.Equal(t, 0.0, plan.Tiers[2].Progress)

	assert.Equal(t, 2500.0, plan.Summary.TotalInvested)
	assert.Equal(t, 3500.0, plan.Summary.RemainingFunds)
	assert.Equal(t, 41.67, plan.Summary.InvestmentProgress)
	assert.Equal(t, 5.0, plan.Summary.ReturnPercentage)
	// No prices supplied: current value equals cost
	assert.Equal(t, 0.0, plan.Summary.TotalProfitLoss)
}

func TestBuildPlan_UsesSuppliedPrices(t *testing.T) {
	budget := domain.Budget{Funds: 6000}
	holdings := []domain.Holding{
		{ID: "h1", Ticker: "NVDA", Tier: 1, EntryPrice: 100, HoldShares: 10},
	}

	plan := BuildPlan(threeTier(), budget, holdings, Prices{"NVDA": 120})

	pos := plan.Tiers[0].Positions[0]
	assert.Equal(t, 1200.0, pos.CurrentValue)
	assert.Equal(t, 200.0, pos.ProfitLoss)
	assert.Equal(t, 20.0, pos.ProfitLossPercentage)
	assert.Equal(t, 200.0, plan.Summary.TotalProfitLoss)
	assert.Equal(t, 20.0, plan.Summary.TotalProfitLossPercentage)
}

func TestBuildPlan_OutOfRangeTierIsUnassigned(t *testing.T) {
	holdings := []domain.Holding{
		{ID: "h1", Ticker: "NVDA", Tier: 5, EntryPrice: 100, HoldShares: 1},
	}

	plan := BuildPlan(threeTier(), domain.Budget{Funds: 1000}, holdings, nil)

	require.Len(t, plan.Unassigned, 1)
	assert.Equal(t, "NVDA", plan.Unassigned[0].Ticker)
	assert.Equal(t, 100.0, plan.Summary.TotalInvested)
}

func TestGoalSharesFor(t *testing.T) {
	f := threeTier()
	assert.Equal(t, 20, GoalSharesFor(f, 6000, 1, 150))
	assert.Equal(t, 12, GoalSharesFor(f, 6000, 2, 150))
	assert.Equal(t, 0, GoalSharesFor(f, 6000, 4, 150))
	assert.Equal(t, 0, GoalSharesFor(f, 6000, 1, 0))
}
