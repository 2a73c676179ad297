// Package memory provides a Repository kept entirely in process memory.
// It backs development mode and tests behind the same contract as SQLite.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/allocation"
	"github.com/aristath/satellite/internal/modules/usage"
)

// Repository is an in-memory domain.Repository. A single mutex serialises
// every write so batch operations apply atomically.
type Repository struct {
	settings *domain.Settings
	budget   *domain.Budget
	holdings map[string]domain.Holding
	usage    map[string]domain.FormationUsage // key: formation ID
	history  []domain.FormationHistory
	clock    domain.Clock
	mu       sync.RWMutex
	log      zerolog.Logger
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository creates an empty in-memory repository. A nil clock uses the system clock.
func NewRepository(clock domain.Clock, log zerolog.Logger) *Repository {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Repository{
		holdings: make(map[string]domain.Holding),
		usage:    make(map[string]domain.FormationUsage),
		clock:    clock,
		log:      log.With().Str("repository", "memory").Logger(),
	}
}

func checkContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return domain.ClassifyError(op, err)
	}
	return nil
}

// GetSettings returns a copy of the settings or nil
func (r *Repository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if err := checkContext(ctx, "get_settings"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.settings == nil {
		return nil, nil
	}
	s := *r.settings
	return &s, nil
}

// UpsertSettings applies a partial update, creating defaults first when absent
func (r *Repository) UpsertSettings(ctx context.Context, update domain.SettingsUpdate) (*domain.Settings, error) {
	if err := checkContext(ctx, "upsert_settings"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if r.settings == nil {
		r.settings = &domain.Settings{
			ID:                 "settings-" + uuid.NewString(),
			CurrentFormationID: domain.DefaultFormationID,
			LastCheckDate:      now,
			AutoCheckEnabled:   true,
			CreatedAt:          now,
		}
	}
	if update.CurrentFormationID != nil {
		r.settings.CurrentFormationID = *update.CurrentFormationID
	}
	if update.LastCheckDate != nil {
		r.settings.LastCheckDate = update.LastCheckDate.UTC()
	}
	if update.AutoCheckEnabled != nil {
		r.settings.AutoCheckEnabled = *update.AutoCheckEnabled
	}
	r.settings.UpdatedAt = now

	s := *r.settings
	return &s, nil
}

// GetBudget returns a copy of the budget or nil
func (r *Repository) GetBudget(ctx context.Context) (*domain.Budget, error) {
	if err := checkContext(ctx, "get_budget"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.budget == nil {
		return nil, nil
	}
	b := *r.budget
	return &b, nil
}

// UpsertBudget applies a partial update, creating defaults first when absent
func (r *Repository) UpsertBudget(ctx context.Context, update domain.BudgetUpdate) (*domain.Budget, error) {
	if err := checkContext(ctx, "upsert_budget"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.budget == nil {
		r.budget = &domain.Budget{
			ID:    "budget-" + uuid.NewString(),
			Funds: domain.DefaultFunds,
			Start: domain.DefaultStart,
		}
	}
	if update.Funds != nil {
		r.budget.Funds = *update.Funds
	}
	if update.Start != nil {
		r.budget.Start = *update.Start
	}
	if update.Profit != nil {
		r.budget.Profit = *update.Profit
	}
	r.budget.ReturnPercentage = allocation.ReturnPercentage(r.budget.Profit, r.budget.Start)
	r.budget.UpdatedAt = r.clock.Now()

	b := *r.budget
	return &b, nil
}

// GetHoldings returns all holdings ordered by tier then ticker
func (r *Repository) GetHoldings(ctx context.Context) ([]domain.Holding, error) {
	if err := checkContext(ctx, "get_holdings"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedHoldings(), nil
}

func (r *Repository) sortedHoldings() []domain.Holding {
	out := make([]domain.Holding, 0, len(r.holdings))
	for _, h := range r.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		if out[i].Ticker != out[j].Ticker {
			return out[i].Ticker < out[j].Ticker
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Repository) putHolding(h domain.Holding) domain.Holding {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.UpdatedAt = r.clock.Now()
	r.holdings[h.ID] = h
	return h
}

// UpsertHolding inserts or replaces a holding keyed by ID
func (r *Repository) UpsertHolding(ctx context.Context, h domain.Holding) (*domain.Holding, error) {
	if err := checkContext(ctx, "upsert_holding"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.putHolding(h)
	return &stored, nil
}

// DeleteHolding removes a holding; deleting a missing ID is not an error
func (r *Repository) DeleteHolding(ctx context.Context, id string) error {
	if err := checkContext(ctx, "delete_holding"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.holdings, id)
	return nil
}

// ClearAllHoldings removes every holding
func (r *Repository) ClearAllHoldings(ctx context.Context) error {
	if err := checkContext(ctx, "clear_holdings"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.holdings = make(map[string]domain.Holding)
	return nil
}

// ReplaceHoldings swaps the full holding set under one lock
func (r *Repository) ReplaceHoldings(ctx context.Context, holdings []domain.Holding) ([]domain.Holding, error) {
	if err := checkContext(ctx, "replace_holdings"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.holdings = make(map[string]domain.Holding, len(holdings))
	for _, h := range holdings {
		r.putHolding(h)
	}

	r.log.Debug().Int("count", len(holdings)).Msg("Holdings replaced")
	return r.sortedHoldings(), nil
}

func (r *Repository) sortedUsage() []domain.FormationUsage {
	out := make([]domain.FormationUsage, 0, len(r.usage))
	for _, u := range r.usage {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUsedDate.Equal(out[j].LastUsedDate) {
			return out[i].LastUsedDate.After(out[j].LastUsedDate)
		}
		return out[i].FormationID < out[j].FormationID
	})
	return out
}

// GetFormationUsage returns usage records, most recently used first
func (r *Repository) GetFormationUsage(ctx context.Context) ([]domain.FormationUsage, error) {
	if err := checkContext(ctx, "get_formation_usage"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedUsage(), nil
}

// UpsertFormationUsage applies one daily activation across every record
func (r *Repository) UpsertFormationUsage(ctx context.Context, formationID string) (*domain.FormationUsage, error) {
	if err := checkContext(ctx, "upsert_formation_usage"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	result := usage.Activate(r.sortedUsage(), formationID, r.clock.Now(), func() string {
		return "usage-" + uuid.NewString()
	})
	for _, u := range result.Records {
		r.usage[u.FormationID] = u
	}

	activated := result.Activated
	return &activated, nil
}

// RecalculateFormationUsage recomputes every percentage from stored counters
func (r *Repository) RecalculateFormationUsage(ctx context.Context) ([]domain.FormationUsage, error) {
	if err := checkContext(ctx, "recalculate_formation_usage"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range usage.RecalculateAll(r.sortedUsage()) {
		r.usage[u.FormationID] = u
	}
	return r.sortedUsage(), nil
}

// GetMostRecentFormationChange returns the newest history entry or nil.
// Entries with equal timestamps resolve to the one appended last.
func (r *Repository) GetMostRecentFormationChange(ctx context.Context) (*domain.FormationHistory, error) {
	if err := checkContext(ctx, "get_recent_formation_change"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.newestFirst()
	if len(history) == 0 {
		return nil, nil
	}
	h := history[0]
	return &h, nil
}

// AppendFormationHistory appends one entry to the log
func (r *Repository) AppendFormationHistory(ctx context.Context, entry domain.FormationHistory) error {
	if err := checkContext(ctx, "append_formation_history"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = "history-" + uuid.NewString()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = r.clock.Now()
	}
	entry.ChangedAt = entry.ChangedAt.UTC()
	if entry.FromFormationID != nil {
		from := *entry.FromFormationID
		entry.FromFormationID = &from
	}
	r.history = append(r.history, entry)
	return nil
}

// ListFormationHistory returns up to limit entries, newest first. limit <= 0 returns all.
func (r *Repository) ListFormationHistory(ctx context.Context, limit int) ([]domain.FormationHistory, error) {
	if err := checkContext(ctx, "list_formation_history"); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.newestFirst()
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (r *Repository) newestFirst() []domain.FormationHistory {
	out := make([]domain.FormationHistory, len(r.history))
	for i, h := range r.history {
		out[len(r.history)-1-i] = h
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangedAt.After(out[j].ChangedAt)
	})
	return out
}

// Ping always succeeds unless the context is done
func (r *Repository) Ping(ctx context.Context) error {
	return checkContext(ctx, "ping")
}
