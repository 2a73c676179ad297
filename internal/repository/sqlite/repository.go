// Package sqlite implements the Repository contract on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/database"
	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/allocation"
	"github.com/aristath/satellite/internal/modules/usage"
)

// timeLayout is fixed width so stored timestamps sort lexicographically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository is a domain.Repository backed by the satellite database.
// Batch operations each run in a single immediate transaction.
type Repository struct {
	db    *sql.DB
	clock domain.Clock
	log   zerolog.Logger
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository creates a new SQLite repository. A nil clock uses the system clock.
func NewRepository(db *sql.DB, clock domain.Clock, log zerolog.Logger) *Repository {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Repository{
		db:    db,
		clock: clock,
		log:   log.With().Str("repository", "sqlite").Logger(),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func (r *Repository) fail(op string, err error) error {
	return domain.ClassifyError(op, err, classifySQLite)
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// ----------------------------------------------------------------------------
// Settings

const selectSettings = `
	SELECT id, current_formation_id, last_check_date, auto_check_enabled, created_at, updated_at
	FROM settings
	ORDER BY updated_at DESC, rowid DESC
	LIMIT 1`

func getSettings(ctx context.Context, q querier) (*domain.Settings, error) {
	var s domain.Settings
	var lastCheck, createdAt, updatedAt string
	err := q.QueryRowContext(ctx, selectSettings).Scan(
		&s.ID, &s.CurrentFormationID, &lastCheck, &s.AutoCheckEnabled, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	if s.LastCheckDate, err = parseTime(lastCheck); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSettings returns the current settings or nil
func (r *Repository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	s, err := getSettings(ctx, r.db)
	if err != nil {
		return nil, r.fail("get_settings", err)
	}
	return s, nil
}

// UpsertSettings applies a partial update, creating defaults first when absent
func (r *Repository) UpsertSettings(ctx context.Context, update domain.SettingsUpdate) (*domain.Settings, error) {
	var result *domain.Settings
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		now := r.clock.Now()
		current, err := getSettings(ctx, tx)
		if err != nil {
			return err
		}

		created := current == nil
		if created {
			current = &domain.Settings{
				ID:                 "settings-" + uuid.NewString(),
				CurrentFormationID: domain.DefaultFormationID,
				LastCheckDate:      now,
				AutoCheckEnabled:   true,
				CreatedAt:          now,
			}
		}
		if update.CurrentFormationID != nil {
			current.CurrentFormationID = *update.CurrentFormationID
		}
		if update.LastCheckDate != nil {
			current.LastCheckDate = update.LastCheckDate.UTC()
		}
		if update.AutoCheckEnabled != nil {
			current.AutoCheckEnabled = *update.AutoCheckEnabled
		}
		current.UpdatedAt = now

		if created {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO settings (id, current_formation_id, last_check_date, auto_check_enabled, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				current.ID, current.CurrentFormationID, formatTime(current.LastCheckDate),
				current.AutoCheckEnabled, formatTime(current.CreatedAt), formatTime(current.UpdatedAt),
			)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE settings
				SET current_formation_id = ?, last_check_date = ?, auto_check_enabled = ?, updated_at = ?
				WHERE id = ?`,
				current.CurrentFormationID, formatTime(current.LastCheckDate),
				current.AutoCheckEnabled, formatTime(current.UpdatedAt), current.ID,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to write settings: %w", err)
		}

		result = current
		return nil
	})
	if err != nil {
		return nil, r.fail("upsert_settings", err)
	}
	return result, nil
}

// ----------------------------------------------------------------------------
// Budget

func getBudget(ctx context.Context, q querier) (*domain.Budget, error) {
	var b domain.Budget
	var updatedAt string
	err := q.QueryRowContext(ctx, `
		SELECT id, funds, start, profit, updated_at
		FROM budget
		ORDER BY updated_at DESC, rowid DESC
		LIMIT 1`,
	).Scan(&b.ID, &b.Funds, &b.Start, &b.Profit, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query budget: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	b.ReturnPercentage = allocation.ReturnPercentage(b.Profit, b.Start)
	return &b, nil
}

// GetBudget returns the budget or nil
func (r *Repository) GetBudget(ctx context.Context) (*domain.Budget, error) {
	b, err := getBudget(ctx, r.db)
	if err != nil {
		return nil, r.fail("get_budget", err)
	}
	return b, nil
}

// UpsertBudget applies a partial update, creating defaults first when absent
func (r *Repository) UpsertBudget(ctx context.Context, update domain.BudgetUpdate) (*domain.Budget, error) {
	var result *domain.Budget
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getBudget(ctx, tx)
		if err != nil {
			return err
		}

		created := current == nil
		if created {
			current = &domain.Budget{
				ID:    "budget-" + uuid.NewString(),
				Funds: domain.DefaultFunds,
				Start: domain.DefaultStart,
			}
		}
		if update.Funds != nil {
			current.Funds = *update.Funds
		}
		if update.Start != nil {
			current.Start = *update.Start
		}
		if update.Profit != nil {
			current.Profit = *update.Profit
		}
		current.UpdatedAt = r.clock.Now()
		current.ReturnPercentage = allocation.ReturnPercentage(current.Profit, current.Start)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO budget (id, funds, start, profit, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				funds = excluded.funds,
				start = excluded.start,
				profit = excluded.profit,
				updated_at = excluded.updated_at`,
			current.ID, current.Funds, current.Start, current.Profit, formatTime(current.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to write budget: %w", err)
		}

		result = current
		return nil
	})
	if err != nil {
		return nil, r.fail("upsert_budget", err)
	}
	return result, nil
}

// ----------------------------------------------------------------------------
// Holdings

func getHoldings(ctx context.Context, q querier) ([]domain.Holding, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, ticker, tier, entry_price, hold_shares, goal_shares, updated_at
		FROM holdings
		ORDER BY tier ASC, ticker ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]domain.Holding, 0)
	for rows.Next() {
		var h domain.Holding
		var updatedAt string
		if err := rows.Scan(&h.ID, &h.Ticker, &h.Tier, &h.EntryPrice, &h.HoldShares, &h.GoalShares, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

func (r *Repository) putHolding(ctx context.Context, q querier, h domain.Holding) (domain.Holding, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.UpdatedAt = r.clock.Now()

	_, err := q.ExecContext(ctx, `
		INSERT INTO holdings (id, ticker, tier, entry_price, hold_shares, goal_shares, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ticker = excluded.ticker,
			tier = excluded.tier,
			entry_price = excluded.entry_price,
			hold_shares = excluded.hold_shares,
			goal_shares = excluded.goal_shares,
			updated_at = excluded.updated_at`,
		h.ID, h.Ticker, h.Tier, h.EntryPrice, h.HoldShares, h.GoalShares, formatTime(h.UpdatedAt),
	)
	if err != nil {
		return domain.Holding{}, fmt.Errorf("failed to write holding %s: %w", h.ID, err)
	}
	return h, nil
}

// GetHoldings returns all holdings ordered by tier then ticker
func (r *Repository) GetHoldings(ctx context.Context) ([]domain.Holding, error) {
	holdings, err := getHoldings(ctx, r.db)
	if err != nil {
		return nil, r.fail("get_holdings", err)
	}
	return holdings, nil
}

// UpsertHolding inserts or replaces a holding keyed by ID
func (r *Repository) UpsertHolding(ctx context.Context, h domain.Holding) (*domain.Holding, error) {
	stored, err := r.putHolding(ctx, r.db, h)
	if err != nil {
		return nil, r.fail("upsert_holding", err)
	}
	return &stored, nil
}

// DeleteHolding removes a holding; deleting a missing ID is not an error
func (r *Repository) DeleteHolding(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM holdings WHERE id = ?", id); err != nil {
		return r.fail("delete_holding", fmt.Errorf("failed to delete holding %s: %w", id, err))
	}
	return nil
}

// ClearAllHoldings removes every holding
func (r *Repository) ClearAllHoldings(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM holdings"); err != nil {
		return r.fail("clear_holdings", fmt.Errorf("failed to clear holdings: %w", err))
	}
	return nil
}

// ReplaceHoldings clears and reinserts the holding set in one transaction
func (r *Repository) ReplaceHoldings(ctx context.Context, holdings []domain.Holding) ([]domain.Holding, error) {
	var result []domain.Holding
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM holdings"); err != nil {
			return fmt.Errorf("failed to clear holdings: %w", err)
		}
		for _, h := range holdings {
			if _, err := r.putHolding(ctx, tx, h); err != nil {
				return err
			}
		}

		var err error
		result, err = getHoldings(ctx, tx)
		return err
	})
	if err != nil {
		return nil, r.fail("replace_holdings", err)
	}

	r.log.Debug().Int("count", len(result)).Msg("Holdings replaced")
	return result, nil
}

// ----------------------------------------------------------------------------
// Formation usage

func getFormationUsage(ctx context.Context, q querier) ([]domain.FormationUsage, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, formation_id, usage_count, total_days, usage_percentage, last_used_date, created_at
		FROM formation_usage
		ORDER BY last_used_date DESC, formation_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query formation usage: %w", err)
	}
	defer rows.Close()

	records := make([]domain.FormationUsage, 0)
	for rows.Next() {
		var u domain.FormationUsage
		var lastUsed, createdAt string
		if err := rows.Scan(&u.ID, &u.FormationID, &u.UsageCount, &u.TotalDays, &u.UsagePercentage, &lastUsed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan formation usage: %w", err)
		}
		if u.LastUsedDate, err = parseTime(lastUsed); err != nil {
			return nil, err
		}
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		records = append(records, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating formation usage: %w", err)
	}
	return records, nil
}

func putFormationUsage(ctx context.Context, tx *sql.Tx, records []domain.FormationUsage) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO formation_usage (id, formation_id, usage_count, total_days, usage_percentage, last_used_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(formation_id) DO UPDATE SET
			usage_count = excluded.usage_count,
			total_days = excluded.total_days,
			usage_percentage = excluded.usage_percentage,
			last_used_date = excluded.last_used_date`)
	if err != nil {
		return fmt.Errorf("failed to prepare formation usage upsert: %w", err)
	}
	defer stmt.Close()

	for _, u := range records {
		lastUsed := ""
		if !u.LastUsedDate.IsZero() {
			lastUsed = formatTime(u.LastUsedDate)
		}
		if _, err := stmt.ExecContext(ctx,
			u.ID, u.FormationID, u.UsageCount, u.TotalDays, u.UsagePercentage, lastUsed, formatTime(u.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to write usage for %s: %w", u.FormationID, err)
		}
	}
	return nil
}

// GetFormationUsage returns usage records, most recently used first
func (r *Repository) GetFormationUsage(ctx context.Context) ([]domain.FormationUsage, error) {
	records, err := getFormationUsage(ctx, r.db)
	if err != nil {
		return nil, r.fail("get_formation_usage", err)
	}
	return records, nil
}

// UpsertFormationUsage applies one daily activation across every record in one transaction
func (r *Repository) UpsertFormationUsage(ctx context.Context, formationID string) (*domain.FormationUsage, error) {
	var activated domain.FormationUsage
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		records, err := getFormationUsage(ctx, tx)
		if err != nil {
			return err
		}

		result := usage.Activate(records, formationID, r.clock.Now(), func() string {
			return "usage-" + uuid.NewString()
		})
		if err := putFormationUsage(ctx, tx, result.Records); err != nil {
			return err
		}

		activated = result.Activated
		return nil
	})
	if err != nil {
		return nil, r.fail("upsert_formation_usage", err)
	}
	return &activated, nil
}

// RecalculateFormationUsage recomputes every percentage from stored counters
func (r *Repository) RecalculateFormationUsage(ctx context.Context) ([]domain.FormationUsage, error) {
	var result []domain.FormationUsage
	err := database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		records, err := getFormationUsage(ctx, tx)
		if err != nil {
			return err
		}
		result = usage.RecalculateAll(records)
		return putFormationUsage(ctx, tx, result)
	})
	if err != nil {
		return nil, r.fail("recalculate_formation_usage", err)
	}
	return result, nil
}

// ----------------------------------------------------------------------------
// Formation history

func scanHistory(rows *sql.Rows) (domain.FormationHistory, error) {
	var h domain.FormationHistory
	var from sql.NullString
	var changedAt string
	if err := rows.Scan(&h.ID, &from, &h.ToFormationID, &changedAt, &h.Reason); err != nil {
		return h, fmt.Errorf("failed to scan formation history: %w", err)
	}
	if from.Valid {
		id := from.String
		h.FromFormationID = &id
	}
	var err error
	h.ChangedAt, err = parseTime(changedAt)
	return h, err
}

func (r *Repository) listHistory(ctx context.Context, limit int) ([]domain.FormationHistory, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_formation_id, to_formation_id, changed_at, reason
		FROM formation_history
		ORDER BY changed_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query formation history: %w", err)
	}
	defer rows.Close()

	history := make([]domain.FormationHistory, 0)
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating formation history: %w", err)
	}
	return history, nil
}

// GetMostRecentFormationChange returns the newest history entry or nil
func (r *Repository) GetMostRecentFormationChange(ctx context.Context) (*domain.FormationHistory, error) {
	history, err := r.listHistory(ctx, 1)
	if err != nil {
		return nil, r.fail("get_recent_formation_change", err)
	}
	if len(history) == 0 {
		return nil, nil
	}
	return &history[0], nil
}

// AppendFormationHistory appends one entry to the log
func (r *Repository) AppendFormationHistory(ctx context.Context, entry domain.FormationHistory) error {
	if entry.ID == "" {
		entry.ID = "history-" + uuid.NewString()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = r.clock.Now()
	}

	var from sql.NullString
	if entry.FromFormationID != nil {
		from = sql.NullString{String: *entry.FromFormationID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO formation_history (id, from_formation_id, to_formation_id, changed_at, reason)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, from, entry.ToFormationID, formatTime(entry.ChangedAt), entry.Reason,
	)
	if err != nil {
		return r.fail("append_formation_history", fmt.Errorf("failed to insert formation history: %w", err))
	}
	return nil
}

// ListFormationHistory returns up to limit entries, newest first. limit <= 0 returns all.
func (r *Repository) ListFormationHistory(ctx context.Context, limit int) ([]domain.FormationHistory, error) {
	history, err := r.listHistory(ctx, limit)
	if err != nil {
		return nil, r.fail("list_formation_history", err)
	}
	return history, nil
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return r.fail("ping", err)
	}
	return nil
}
