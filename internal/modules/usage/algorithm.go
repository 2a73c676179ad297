// Package usage maintains per-formation usage counters. Every daily
// activation advances the day counter of every tracked formation by one and
// the usage counter of the active formation by one, so all percentages share
// the same elapsed-day denominator.
package usage

import (
	"time"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/allocation"
)

// Activation is the result of applying one daily activation
type Activation struct {
	// Records holds every record after the activation, the new one last when created
	Records   []domain.FormationUsage
	Activated domain.FormationUsage
	Created   bool
}

// Percentage is round2(usageCount/totalDays*100), or 0 when no days are tracked
func Percentage(usageCount, totalDays int) float64 {
	return allocation.Percentage(float64(usageCount), float64(totalDays))
}

// Activate applies one activation of formationID to records. The input slice
// is not modified. newID supplies the ID of a record created for a formation
// seen for the first time.
func Activate(records []domain.FormationUsage, formationID string, now time.Time, newID func() string) Activation {
	out := make([]domain.FormationUsage, len(records))
	copy(out, records)

	activated := -1
	globalTotalDays := 0
	for i := range out {
		if out[i].TotalDays > globalTotalDays {
			globalTotalDays = out[i].TotalDays
		}
		if out[i].FormationID == formationID {
			activated = i
		}
	}

	for i := range out {
		r := &out[i]
		if i == activated {
			r.UsageCount++
			r.LastUsedDate = now
		}
		r.TotalDays++
		r.UsagePercentage = Percentage(r.UsageCount, r.TotalDays)
	}

	if activated >= 0 {
		return Activation{Records: out, Activated: out[activated]}
	}

	// First sighting joins the existing cohort's day count
	if globalTotalDays < 1 {
		globalTotalDays = 1
	}
	created := domain.FormationUsage{
		ID:              newID(),
		FormationID:     formationID,
		UsageCount:      1,
		TotalDays:       globalTotalDays,
		UsagePercentage: Percentage(1, globalTotalDays),
		LastUsedDate:    now,
		CreatedAt:       now,
	}
	out = append(out, created)

	return Activation{Records: out, Activated: created, Created: true}
}

// RecalculateAll recomputes every percentage from the stored counters
func RecalculateAll(records []domain.FormationUsage) []domain.FormationUsage {
	out := make([]domain.FormationUsage, len(records))
	for i, r := range records {
		r.UsagePercentage = Percentage(r.UsageCount, r.TotalDays)
		out[i] = r
	}
	return out
}
