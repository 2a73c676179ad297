package allocation

import (
	"sort"

	"github.com/aristath/satellite/internal/domain"
)

// Position is a holding valued against a current price
type Position struct {
	domain.Holding
	CurrentPrice         float64 `json:"currentPrice"`
	InvestedAmount       float64 `json:"investedAmount"`
	CurrentValue         float64 `json:"currentValue"`
	ProfitLoss           float64 `json:"profitLoss"`
	ProfitLossPercentage float64 `json:"profitLossPercentage"`
}

// Tier is the allocation state of one formation tier
type Tier struct {
	Positions        []Position `json:"positions"`
	Tier             int        `json:"tier"`
	Percentage       float64    `json:"percentage"`
	TargetAmount     float64    `json:"targetAmount"`
	InvestedAmount   float64    `json:"investedAmount"`
	CurrentValue     float64    `json:"currentValue"`
	Progress         float64    `json:"progress"`
	AdditionalNeeded float64    `json:"additionalNeeded"`
}

// Summary aggregates the whole portfolio
type Summary struct {
	TotalInvested             float64 `json:"totalInvested"`
	TotalCurrentValue         float64 `json:"totalCurrentValue"`
	TotalProfitLoss           float64 `json:"totalProfitLoss"`
	TotalProfitLossPercentage float64 `json:"totalProfitLossPercentage"`
	RemainingFunds            float64 `json:"remainingFunds"`
	InvestmentProgress        float64 `json:"investmentProgress"`
	ReturnPercentage          float64 `json:"returnPercentage"`
}

// Plan is the full allocation view for one formation and budget
type Plan struct {
	Formation  domain.Formation `json:"formation"`
	Tiers      []Tier           `json:"tiers"`
	Unassigned []Position       `json:"unassigned"`
	Summary    Summary          `json:"summary"`
	Funds      float64          `json:"funds"`
}

// Prices maps an upper-case ticker to a manually supplied current price
type Prices map[string]float64

// priceFor falls back to the entry price when no current price is known
func (p Prices) priceFor(h domain.Holding) float64 {
	if price, ok := p[h.Ticker]; ok && price > 0 {
		return price
	}
	return h.EntryPrice
}

// GoalSharesFor computes the goal share count of a holding under a formation
func GoalSharesFor(f domain.Formation, funds float64, tier int, price float64) int {
	return GoalShares(TierTargetAmount(funds, f.TierPercentage(tier)), price)
}

func valuePosition(h domain.Holding, price float64) Position {
	return Position{
		Holding:              h,
		CurrentPrice:         price,
		InvestedAmount:       InvestmentAmount(h.HoldShares, h.EntryPrice),
		CurrentValue:         CurrentValue(h.HoldShares, price),
		ProfitLoss:           ProfitLoss(h.HoldShares, h.EntryPrice, price),
		ProfitLossPercentage: ProfitLossPercentage(h.EntryPrice, price),
	}
}

// BuildPlan splits holdings into the formation's tiers and values them.
// Holdings whose tier lies outside the formation are reported as unassigned.
func BuildPlan(f domain.Formation, budget domain.Budget, holdings []domain.Holding, prices Prices) Plan {
	plan := Plan{
		Formation:  f,
		Funds:      budget.Funds,
		Tiers:      make([]Tier, f.TierCount),
		Unassigned: []Position{},
	}

	for i := range plan.Tiers {
		pct := f.TierPercentage(i + 1)
		plan.Tiers[i] = Tier{
			Tier:         i + 1,
			Percentage:   pct,
			TargetAmount: TierTargetAmount(budget.Funds, pct),
			Positions:    []Position{},
		}
	}

	sorted := append([]domain.Holding(nil), holdings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tier != sorted[j].Tier {
			return sorted[i].Tier < sorted[j].Tier
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})

	var all []Position
	for _, h := range sorted {
		pos := valuePosition(h, prices.priceFor(h))
		all = append(all, pos)
		if h.Tier < 1 || h.Tier > f.TierCount {
			plan.Unassigned = append(plan.Unassigned, pos)
			continue
		}
		t := &plan.Tiers[h.Tier-1]
		t.Positions = append(t.Positions, pos)
		t.InvestedAmount += pos.InvestedAmount
		t.CurrentValue += pos.CurrentValue
	}

	for i := range plan.Tiers {
		t := &plan.Tiers[i]
		t.InvestedAmount = Round2(t.InvestedAmount)
		t.CurrentValue = Round2(t.CurrentValue)
		t.Progress = TierProgress(t.TargetAmount, t.InvestedAmount)
		t.AdditionalNeeded = AdditionalInvestmentNeeded(t.TargetAmount, t.InvestedAmount)
	}

	plan.Summary = Summarize(all, budget)
	return plan
}

// Summarize aggregates valued positions against the budget
func Summarize(positions []Position, budget domain.Budget) Summary {
	var invested, current float64
	for _, p := range positions {
		invested += p.InvestedAmount
		current += p.CurrentValue
	}
	invested = Round2(invested)
	current = Round2(current)
	profitLoss := Round2(current - invested)

	return Summary{
		TotalInvested:             invested,
		TotalCurrentValue:         current,
		TotalProfitLoss:           profitLoss,
		TotalProfitLossPercentage: Percentage(profitLoss, invested),
		RemainingFunds:            Round2(budget.Funds - invested),
		InvestmentProgress:        TierProgress(budget.Funds, invested),
		ReturnPercentage:          ReturnPercentage(budget.Profit, budget.Start),
	}
}
