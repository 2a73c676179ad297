package domain

import (
	"context"
	"time"
)

// Repository is the persistence contract consumed by the tracker, the daily
// check and the portfolio service. Implementations must apply the batch
// operations (ReplaceHoldings, UpsertFormationUsage, RecalculateFormationUsage)
// atomically and serialise writes to the singleton records.
type Repository interface {
	// GetSettings returns the current settings or nil when none exist
	GetSettings(ctx context.Context) (*Settings, error)
	// UpsertSettings applies a partial update, creating the record if needed
	UpsertSettings(ctx context.Context, update SettingsUpdate) (*Settings, error)

	// GetBudget returns the budget or nil when none exists
	GetBudget(ctx context.Context) (*Budget, error)
	UpsertBudget(ctx context.Context, update BudgetUpdate) (*Budget, error)

	// GetHoldings returns all holdings ordered by tier then ticker
	GetHoldings(ctx context.Context) ([]Holding, error)
	UpsertHolding(ctx context.Context, h Holding) (*Holding, error)
	DeleteHolding(ctx context.Context, id string) error
	ClearAllHoldings(ctx context.Context) error
	// ReplaceHoldings clears the set and inserts holdings in one unit
	ReplaceHoldings(ctx context.Context, holdings []Holding) ([]Holding, error)

	// GetFormationUsage returns usage records, most recently used first
	GetFormationUsage(ctx context.Context) ([]FormationUsage, error)
	// UpsertFormationUsage activates formationID for the current day across all records
	UpsertFormationUsage(ctx context.Context, formationID string) (*FormationUsage, error)
	// RecalculateFormationUsage recomputes every usage percentage from stored counters
	RecalculateFormationUsage(ctx context.Context) ([]FormationUsage, error)

	// GetMostRecentFormationChange returns the newest history entry or nil
	GetMostRecentFormationChange(ctx context.Context) (*FormationHistory, error)
	AppendFormationHistory(ctx context.Context, entry FormationHistory) error
	ListFormationHistory(ctx context.Context, limit int) ([]FormationHistory, error)

	Ping(ctx context.Context) error
}

// Clock abstracts the current time so checks can be driven deterministically
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
