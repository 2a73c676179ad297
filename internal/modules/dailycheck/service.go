// Package dailycheck runs the once-per-day formation check: it records
// formation transitions in the history log, counts the day towards the
// active formation's usage and stamps the check date.
package dailycheck

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/events"
)

// History reasons written by the check
const (
	ReasonInitial = "Initial formation"
	ReasonChanged = "Daily check detected change"
)

// Skip reasons reported in Result.SkipReason
const (
	SkipAlreadyChecked = "already_checked_today"
	SkipAutoCheckOff   = "auto_check_disabled"
	SkipNotInitialized = "not_initialized"
)

const moduleName = "dailycheck"

// Repository is the slice of the persistence contract the check needs
type Repository interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
	UpsertSettings(ctx context.Context, update domain.SettingsUpdate) (*domain.Settings, error)
	GetMostRecentFormationChange(ctx context.Context) (*domain.FormationHistory, error)
	AppendFormationHistory(ctx context.Context, entry domain.FormationHistory) error
}

// UsageActivator counts one day of usage for a formation
type UsageActivator interface {
	Activate(ctx context.Context, formationID string) (*domain.FormationUsage, error)
}

// EventEmitter publishes domain events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// Result describes the outcome of one check
type Result struct {
	CheckedAt           time.Time              `json:"checkedAt"`
	PreviousFormationID *string                `json:"previousFormationId"`
	UpdatedUsage        *domain.FormationUsage `json:"updatedUsage,omitempty"`
	CurrentFormationID  string                 `json:"currentFormationId"`
	SkipReason          string                 `json:"skipReason,omitempty"`
	HasChanged          bool                   `json:"hasChanged"`
	Skipped             bool                   `json:"skipped"`
}

// Service is the daily check orchestrator
type Service struct {
	repo    Repository
	usage   UsageActivator
	emitter EventEmitter
	clock   domain.Clock
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewService creates a new daily check service. A nil clock uses the system
// clock and a nil emitter disables events.
func NewService(repo Repository, usage UsageActivator, emitter EventEmitter, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Service{
		repo:    repo,
		usage:   usage,
		emitter: emitter,
		clock:   clock,
		log:     log.With().Str("service", "daily_check").Logger(),
	}
}

// sameUTCDay compares calendar dates in UTC
func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// CheckAndUpdate runs the check at most once per UTC day. Repository errors
// are returned as-is; steps already applied are not rolled back.
func (s *Service) CheckAndUpdate(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, domain.ErrNotInitialized
	}

	now := s.clock.Now().UTC()
	current := settings.CurrentFormationID

	if sameUTCDay(now, settings.LastCheckDate) {
		s.log.Debug().
			Str("formation_id", current).
			Time("last_check", settings.LastCheckDate).
			Msg("Daily check already ran today")
		return &Result{
			CheckedAt:          now,
			CurrentFormationID: current,
			SkipReason:         SkipAlreadyChecked,
			Skipped:            true,
		}, nil
	}

	latest, err := s.repo.GetMostRecentFormationChange(ctx)
	if err != nil {
		return nil, err
	}

	var previous *string
	if latest != nil {
		id := latest.ToFormationID
		previous = &id
	}
	hasChanged := previous != nil && *previous != current

	switch {
	case hasChanged:
		entry := domain.FormationHistory{
			FromFormationID: previous,
			ToFormationID:   current,
			ChangedAt:       now,
			Reason:          ReasonChanged,
		}
		if err := s.repo.AppendFormationHistory(ctx, entry); err != nil {
			return nil, err
		}
		s.log.Info().
			Str("from", *previous).
			Str("to", current).
			Msg("Formation change detected")
		s.emit(&events.FormationChangedData{
			FromFormationID: previous,
			ToFormationID:   current,
			Reason:          ReasonChanged,
		})
	case latest == nil:
		entry := domain.FormationHistory{
			ToFormationID: current,
			ChangedAt:     now,
			Reason:        ReasonInitial,
		}
		if err := s.repo.AppendFormationHistory(ctx, entry); err != nil {
			return nil, err
		}
		s.log.Info().Str("formation_id", current).Msg("Initial formation recorded")
	}

	updated, err := s.usage.Activate(ctx, current)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.UpsertSettings(ctx, domain.SettingsUpdate{LastCheckDate: &now}); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("formation_id", current).
		Bool("has_changed", hasChanged).
		Int("usage_count", updated.UsageCount).
		Int("total_days", updated.TotalDays).
		Msg("Daily check completed")
	s.emit(&events.DailyCheckCompletedData{
		CurrentFormationID: current,
		UsageCount:         updated.UsageCount,
		TotalDays:          updated.TotalDays,
		UsagePercentage:    updated.UsagePercentage,
		HasChanged:         hasChanged,
	})

	return &Result{
		CheckedAt:           now,
		PreviousFormationID: previous,
		UpdatedUsage:        updated,
		CurrentFormationID:  current,
		HasChanged:          hasChanged,
	}, nil
}

// RunScheduled is the entry point for the scheduler. It skips without error
// when settings are missing or auto-check is turned off.
func (s *Service) RunScheduled(ctx context.Context) (*Result, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &Result{CheckedAt: s.clock.Now().UTC(), SkipReason: SkipNotInitialized, Skipped: true}, nil
	}
	if !settings.AutoCheckEnabled {
		s.log.Info().Msg("Auto-check disabled, skipping scheduled daily check")
		return &Result{
			CheckedAt:          s.clock.Now().UTC(),
			CurrentFormationID: settings.CurrentFormationID,
			SkipReason:         SkipAutoCheckOff,
			Skipped:            true,
		}, nil
	}
	return s.CheckAndUpdate(ctx)
}

func (s *Service) emit(data events.EventData) {
	if s.emitter != nil {
		s.emitter.Emit(moduleName, data)
	}
}
