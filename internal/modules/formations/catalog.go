// Package formations holds the compiled-in formation catalog and the allowed ticker set.
package formations

import (
	"sort"
	"strings"

	"github.com/aristath/satellite/internal/domain"
)

// DefaultFormationID is the formation selected when settings are bootstrapped
const DefaultFormationID = domain.DefaultFormationID

var catalog = []domain.Formation{
	{
		ID:          "formation-2-80-20",
		Name:        "2 tiers 80-20%",
		Description: "Concentrated core position with one satellite",
		TierCount:   2,
		Percentages: []float64{80, 20},
	},
	{
		ID:          "formation-3-50-30-20",
		Name:        "3 tiers 50-30-20%",
		Description: "Balanced three-tier split",
		TierCount:   3,
		Percentages: []float64{50, 30, 20},
	},
	{
		ID:          "formation-4-40-30-20-10",
		Name:        "4 tiers 40-30-20-10%",
		Description: "Four tiers with a long tail",
		TierCount:   4,
		Percentages: []float64{40, 30, 20, 10},
	},
	{
		ID:          "formation-5-30-25-20-15-10",
		Name:        "5 tiers 30-25-20-15-10%",
		Description: "Diversified five-tier split",
		TierCount:   5,
		Percentages: []float64{30, 25, 20, 15, 10},
	},
}

var byID = func() map[string]domain.Formation {
	m := make(map[string]domain.Formation, len(catalog))
	for _, f := range catalog {
		m[f.ID] = f
	}
	return m
}()

// All returns a copy of the formation catalog ordered by tier count
func All() []domain.Formation {
	out := make([]domain.Formation, len(catalog))
	for i, f := range catalog {
		f.Percentages = append([]float64(nil), f.Percentages...)
		out[i] = f
	}
	return out
}

// Get looks up a formation by ID
func Get(id string) (domain.Formation, bool) {
	f, ok := byID[id]
	if !ok {
		return domain.Formation{}, false
	}
	f.Percentages = append([]float64(nil), f.Percentages...)
	return f, true
}

// Exists reports whether id names a catalog formation
func Exists(id string) bool {
	_, ok := byID[id]
	return ok
}

var tickers = []domain.Ticker{
	{Symbol: "AMZN", Name: "Amazon.com Inc", Sector: "Consumer Discretionary"},
	{Symbol: "AVGO", Name: "Broadcom Inc", Sector: "Technology"},
	{Symbol: "COIN", Name: "Coinbase Global Inc", Sector: "Financial Services"},
	{Symbol: "CRM", Name: "Salesforce Inc", Sector: "Technology"},
	{Symbol: "CRWD", Name: "CrowdStrike Holdings Inc", Sector: "Technology"},
	{Symbol: "GOOGL", Name: "Alphabet Inc Class A", Sector: "Communication"},
	{Symbol: "META", Name: "Meta Platforms Inc", Sector: "Communication"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: "Technology"},
	{Symbol: "NFLX", Name: "Netflix Inc", Sector: "Communication"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Sector: "Technology"},
	{Symbol: "ORCL", Name: "Oracle Corporation", Sector: "Technology"},
	{Symbol: "PLTR", Name: "Palantir Technologies Inc", Sector: "Technology"},
	{Symbol: "PYPL", Name: "PayPal Holdings Inc", Sector: "Financial Services"},
	{Symbol: "SHOP", Name: "Shopify Inc", Sector: "Technology"},
	{Symbol: "SNOW", Name: "Snowflake Inc", Sector: "Technology"},
	{Symbol: "SQ", Name: "Block Inc", Sector: "Financial Services"},
	{Symbol: "TSLA", Name: "Tesla Inc", Sector: "Consumer Discretionary"},
	{Symbol: "UBER", Name: "Uber Technologies Inc", Sector: "Technology"},
	{Symbol: "V", Name: "Visa Inc", Sector: "Financial Services"},
	{Symbol: "WDAY", Name: "Workday Inc", Sector: "Technology"},
	{Symbol: "ZM", Name: "Zoom Video Communications Inc", Sector: "Communication"},
}

// Tickers returns the allowed ticker set
func Tickers() []domain.Ticker {
	return append([]domain.Ticker(nil), tickers...)
}

// TickersBySector returns the allowed tickers of one sector
func TickersBySector(sector string) []domain.Ticker {
	out := make([]domain.Ticker, 0)
	for _, t := range tickers {
		if strings.EqualFold(t.Sector, sector) {
			out = append(out, t)
		}
	}
	return out
}

// Sectors returns the distinct sectors, sorted
func Sectors() []string {
	seen := make(map[string]struct{})
	for _, t := range tickers {
		seen[t.Sector] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// NormalizeTicker upper-cases a ticker and reports whether it is allowed
func NormalizeTicker(symbol string) (string, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, t := range tickers {
		if t.Symbol == symbol {
			return symbol, true
		}
	}
	return symbol, false
}
