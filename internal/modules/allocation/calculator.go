// Package allocation derives tier targets, goal shares and portfolio figures
// from a formation, a budget and the recorded holdings.
//
// Every calculator function is total: invalid inputs such as a zero price or a
// zero baseline degrade to 0 instead of returning an error.
package allocation

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// roundHalfUp rounds to places decimals with exact halves going toward +Inf
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// Round2 rounds x half-up to two decimal places
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return roundHalfUp(decimal.NewFromFloat(x), 2).InexactFloat64()
}

// Percentage returns round2(part/whole*100), or 0 when whole <= 0
func Percentage(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	ratio := decimal.NewFromFloat(part).Div(decimal.NewFromFloat(whole)).Mul(hundred)
	return roundHalfUp(ratio, 2).InexactFloat64()
}

// GoalShares is the whole number of shares that deploys targetAmount at
// currentPrice. Returns 0 when the price is not positive.
func GoalShares(targetAmount, currentPrice float64) int {
	if currentPrice <= 0 || targetAmount <= 0 {
		return 0
	}
	shares := decimal.NewFromFloat(targetAmount).Div(decimal.NewFromFloat(currentPrice))
	return int(roundHalfUp(shares, 0).IntPart())
}

// InvestmentAmount is shares * price
func InvestmentAmount(shares int, price float64) float64 {
	return decimal.NewFromInt(int64(shares)).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}

// CurrentValue is the value of shares at the current price
func CurrentValue(shares int, currentPrice float64) float64 {
	return InvestmentAmount(shares, currentPrice)
}

// ProfitLoss is holdShares*currentPrice - holdShares*entryPrice
func ProfitLoss(holdShares int, entryPrice, currentPrice float64) float64 {
	n := decimal.NewFromInt(int64(holdShares))
	current := n.Mul(decimal.NewFromFloat(currentPrice))
	cost := n.Mul(decimal.NewFromFloat(entryPrice))
	return current.Sub(cost).InexactFloat64()
}

// ProfitLossPercentage is the price change relative to the entry price
func ProfitLossPercentage(entryPrice, currentPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	return Percentage(currentPrice-entryPrice, entryPrice)
}

// TierProgress is the invested share of a tier target, capped at 100
func TierProgress(targetAmount, investedAmount float64) float64 {
	if targetAmount <= 0 {
		return 0
	}
	return math.Min(100, Percentage(investedAmount, targetAmount))
}

// ReturnPercentage is profit relative to the principal baseline
func ReturnPercentage(profit, start float64) float64 {
	if start <= 0 {
		return 0
	}
	return Percentage(profit, start)
}

// TierTargetAmount is totalFunds * percentage / 100
func TierTargetAmount(totalFunds, percentage float64) float64 {
	return decimal.NewFromFloat(totalFunds).
		Mul(decimal.NewFromFloat(percentage)).
		Div(hundred).
		InexactFloat64()
}

// AdditionalInvestmentNeeded is the amount still missing to reach the target
func AdditionalInvestmentNeeded(targetAmount, investedAmount float64) float64 {
	diff := decimal.NewFromFloat(targetAmount).Sub(decimal.NewFromFloat(investedAmount))
	if diff.IsNegative() {
		return 0
	}
	return diff.InexactFloat64()
}

// AnnualReturn is the compound annual growth rate in percent
func AnnualReturn(initialValue, currentValue, years float64) float64 {
	if initialValue <= 0 || currentValue <= 0 || years <= 0 {
		return 0
	}
	return Round2((math.Pow(currentValue/initialValue, 1/years) - 1) * 100)
}
