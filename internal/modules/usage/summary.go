package usage

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/allocation"
)

// Share is one formation's slice of all recorded activations
type Share struct {
	FormationID     string  `json:"formationId"`
	UsageCount      int     `json:"usageCount"`
	Share           float64 `json:"share"`
	UsagePercentage float64 `json:"usagePercentage"`
}

// Summary describes how activations are spread across formations.
// Diversity is the Shannon entropy of the shares normalised to [0,1] and
// Concentration is their Herfindahl index.
type Summary struct {
	MostUsed              *Share  `json:"mostUsed"`
	Shares                []Share `json:"shares"`
	TrackedDays           int     `json:"trackedDays"`
	TotalActivations      int     `json:"totalActivations"`
	Diversity             float64 `json:"diversity"`
	Concentration         float64 `json:"concentration"`
	MeanUsagePercentage   float64 `json:"meanUsagePercentage"`
	StdDevUsagePercentage float64 `json:"stdDevUsagePercentage"`
}

// Summarize computes distribution statistics over usage records
func Summarize(records []domain.FormationUsage) Summary {
	summary := Summary{Shares: []Share{}}
	if len(records) == 0 {
		return summary
	}

	counts := make([]float64, len(records))
	percentages := make([]float64, len(records))
	for i, r := range records {
		counts[i] = float64(r.UsageCount)
		percentages[i] = r.UsagePercentage
		summary.TotalActivations += r.UsageCount
		if r.TotalDays > summary.TrackedDays {
			summary.TrackedDays = r.TotalDays
		}
	}

	summary.MeanUsagePercentage = allocation.Round2(stat.Mean(percentages, nil))
	if len(percentages) > 1 {
		summary.StdDevUsagePercentage = allocation.Round2(stat.StdDev(percentages, nil))
	}

	total := floats.Sum(counts)
	if total == 0 {
		for _, r := range records {
			summary.Shares = append(summary.Shares, Share{FormationID: r.FormationID, UsagePercentage: r.UsagePercentage})
		}
		return summary
	}

	shares := make([]float64, len(counts))
	copy(shares, counts)
	floats.Scale(1/total, shares)

	best := 0
	for i, r := range records {
		summary.Shares = append(summary.Shares, Share{
			FormationID:     r.FormationID,
			UsageCount:      r.UsageCount,
			Share:           allocation.Round2(shares[i] * 100),
			UsagePercentage: r.UsagePercentage,
		})
		if r.UsageCount > records[best].UsageCount ||
			(r.UsageCount == records[best].UsageCount && r.LastUsedDate.After(records[best].LastUsedDate)) {
			best = i
		}
	}
	mostUsed := summary.Shares[best]
	summary.MostUsed = &mostUsed

	summary.Concentration = allocation.Round2(floats.Dot(shares, shares))
	if len(shares) > 1 {
		summary.Diversity = allocation.Round2(stat.Entropy(shares) / math.Log(float64(len(shares))))
	}

	return summary
}
