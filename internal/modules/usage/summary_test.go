package usage

import (
	"testing"
	"time"

	"github.com/aristath/satellite/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Nil(t, s.MostUsed)
	assert.Empty(t, s.Shares)
	assert.Equal(t, 0, s.TotalActivations)
}

func TestSummarize_EvenSplit(t *testing.T) {
	records := []domain.FormationUsage{
		{FormationID: "A", UsageCount: 5, TotalDays: 10, UsagePercentage: 50},
		{FormationID: "B", UsageCount: 5, TotalDays: 10, UsagePercentage: 50},
	}

	s := Summarize(records)

	assert.Equal(t, 10, s.TotalActivations)
	assert.Equal(t, 10, s.TrackedDays)
	assert.Equal(t, 1.0, s.Diversity)
	assert.Equal(t, 0.5, s.Concentration)
	assert.Equal(t, 50.0, s.MeanUsagePercentage)
	assert.Equal(t, 0.0, s.StdDevUsagePercentage)
	require.Len(t, s.Shares, 2)
	assert.Equal(t, 50.0, s.Shares[0].Share)
}

func TestSummarize_SingleFormationIsFullyConcentrated(t *testing.T) {
	records := []domain.FormationUsage{
		{FormationID: "A", UsageCount: 3, TotalDays: 3, UsagePercentage: 100},
	}

	s := Summarize(records)

	require.NotNil(t, s.MostUsed)
	assert.Equal(t, "A", s.MostUsed.FormationID)
	assert.Equal(t, 1.0, s.Concentration)
	assert.Equal(t, 0.0, s.Diversity)
}

func TestSummarize_MostUsedTieBreaksOnRecency(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 0, 1)
	records := []domain.FormationUsage{
		{FormationID: "A", UsageCount: 2, TotalDays: 4, LastUsedDate: older},
		{FormationID: "B", UsageCount: 2, TotalDays: 4, LastUsedDate: newer},
	}

	s := Summarize(records)

	require.NotNil(t, s.MostUsed)
	assert.Equal(t, "B", s.MostUsed.FormationID)
}
