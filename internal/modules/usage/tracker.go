package usage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/events"
)

// Repository is the slice of the persistence contract the tracker needs
type Repository interface {
	GetFormationUsage(ctx context.Context) ([]domain.FormationUsage, error)
	UpsertFormationUsage(ctx context.Context, formationID string) (*domain.FormationUsage, error)
	RecalculateFormationUsage(ctx context.Context) ([]domain.FormationUsage, error)
}

// EventEmitter publishes domain events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// Tracker exposes the usage operations over a repository
type Tracker struct {
	repo    Repository
	emitter EventEmitter
	log     zerolog.Logger
}

// NewTracker creates a new usage tracker
func NewTracker(repo Repository, log zerolog.Logger) *Tracker {
	return &Tracker{
		repo: repo,
		log:  log.With().Str("service", "usage_tracker").Logger(),
	}
}

// WithEmitter makes the tracker publish recalculation events
func (t *Tracker) WithEmitter(emitter EventEmitter) *Tracker {
	t.emitter = emitter
	return t
}

// Activate counts today for formationID and advances every other formation's day counter
func (t *Tracker) Activate(ctx context.Context, formationID string) (*domain.FormationUsage, error) {
	updated, err := t.repo.UpsertFormationUsage(ctx, formationID)
	if err != nil {
		return nil, fmt.Errorf("failed to activate formation %s: %w", formationID, err)
	}

	t.log.Info().
		Str("formation_id", formationID).
		Int("usage_count", updated.UsageCount).
		Int("total_days", updated.TotalDays).
		Float64("usage_percentage", updated.UsagePercentage).
		Msg("Formation usage updated")

	return updated, nil
}

// RecalculateAll recomputes every stored percentage from its counters
func (t *Tracker) RecalculateAll(ctx context.Context) ([]domain.FormationUsage, error) {
	records, err := t.repo.RecalculateFormationUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to recalculate formation usage: %w", err)
	}
	t.log.Info().Int("records", len(records)).Msg("Formation usage recalculated")
	if t.emitter != nil {
		t.emitter.Emit("usage", &events.UsageRecalculatedData{Records: len(records)})
	}
	return records, nil
}

// List returns all usage records, most recently used first
func (t *Tracker) List(ctx context.Context) ([]domain.FormationUsage, error) {
	records, err := t.repo.GetFormationUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get formation usage: %w", err)
	}
	return records, nil
}

// Summary returns distribution statistics over all usage records
func (t *Tracker) Summary(ctx context.Context) (Summary, error) {
	records, err := t.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records), nil
}
