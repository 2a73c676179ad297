package portfolio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/events"
	"github.com/aristath/satellite/internal/modules/formations"
)

const moduleName = "portfolio"

// EventEmitter publishes domain events
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// Service reads and edits the portfolio data set
type Service struct {
	repo    domain.Repository
	emitter EventEmitter
	clock   domain.Clock
	log     zerolog.Logger
}

// NewService creates a new portfolio service. A nil emitter disables events.
func NewService(repo domain.Repository, emitter EventEmitter, clock domain.Clock, log zerolog.Logger) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Service{
		repo:    repo,
		emitter: emitter,
		clock:   clock,
		log:     log.With().Str("service", "portfolio").Logger(),
	}
}

func (s *Service) defaultSettings() domain.Settings {
	now := s.clock.Now()
	return domain.Settings{
		ID:                 "default-settings",
		CurrentFormationID: domain.DefaultFormationID,
		LastCheckDate:      now,
		AutoCheckEnabled:   true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *Service) defaultBudget() domain.Budget {
	return domain.Budget{
		ID:        "default-budget",
		Funds:     domain.DefaultFunds,
		Start:     domain.DefaultStart,
		UpdatedAt: s.clock.Now(),
	}
}

// GetAllData returns the full data set. Missing singletons are filled with
// defaults in the response only.
func (s *Service) GetAllData(ctx context.Context) (*DataSet, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	budget, err := s.repo.GetBudget(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	holdings, err := s.repo.GetHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	usageStats, err := s.repo.GetFormationUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load formation usage: %w", err)
	}

	data := &DataSet{
		Settings:   s.defaultSettings(),
		Budget:     s.defaultBudget(),
		Holdings:   holdings,
		Formations: formations.All(),
		UsageStats: usageStats,
	}
	if settings != nil {
		data.Settings = *settings
	}
	if budget != nil {
		data.Budget = *budget
	}
	if data.Holdings == nil {
		data.Holdings = []domain.Holding{}
	}
	if data.UsageStats == nil {
		data.UsageStats = []domain.FormationUsage{}
	}
	return data, nil
}

// SaveData validates req in full, then applies the budget, settings and
// holdings edits in that order and returns the resulting data set.
// Selecting a formation does not count usage.
func (s *Service) SaveData(ctx context.Context, req SaveRequest) (*DataSet, error) {
	current, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	formation, err := ValidateSaveRequest(req, current)
	if err != nil {
		return nil, err
	}

	budget, err := s.saveBudget(ctx, req.Budget)
	if err != nil {
		return nil, err
	}

	if err := s.saveSettings(ctx, req); err != nil {
		return nil, err
	}

	if len(req.Holdings) > 0 {
		funds := domain.DefaultFunds
		if budget != nil {
			funds = budget.Funds
		}

		stored, err := s.repo.ReplaceHoldings(ctx, toHoldings(req.Holdings, formation, funds))
		if err != nil {
			return nil, fmt.Errorf("failed to replace holdings: %w", err)
		}

		tickers := make([]string, len(stored))
		for i, h := range stored {
			tickers[i] = h.Ticker
		}
		s.log.Info().Int("count", len(stored)).Str("formation_id", formation.ID).Msg("Holdings replaced")
		s.emit(&events.HoldingsReplacedData{Tickers: tickers, Count: len(stored)})
	}

	return s.GetAllData(ctx)
}

// saveBudget applies a budget edit and returns the budget in effect after it
func (s *Service) saveBudget(ctx context.Context, in *BudgetInput) (*domain.Budget, error) {
	if in == nil {
		budget, err := s.repo.GetBudget(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load budget: %w", err)
		}
		return budget, nil
	}

	budget, err := s.repo.UpsertBudget(ctx, domain.BudgetUpdate{
		Funds:  in.Funds,
		Start:  in.Start,
		Profit: in.Profit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update budget: %w", err)
	}

	s.log.Info().
		Float64("funds", budget.Funds).
		Float64("start", budget.Start).
		Float64("profit", budget.Profit).
		Msg("Budget updated")
	s.emit(&events.BudgetUpdatedData{
		Funds:            budget.Funds,
		Start:            budget.Start,
		Profit:           budget.Profit,
		ReturnPercentage: budget.ReturnPercentage,
	})
	return budget, nil
}

func (s *Service) saveSettings(ctx context.Context, req SaveRequest) error {
	if req.Settings == nil && req.FormationID == nil {
		return nil
	}

	var update domain.SettingsUpdate
	if req.Settings != nil {
		update.CurrentFormationID = req.Settings.CurrentFormationID
		update.AutoCheckEnabled = req.Settings.AutoCheckEnabled
	}
	if req.FormationID != nil {
		update.CurrentFormationID = req.FormationID
	}

	settings, err := s.repo.UpsertSettings(ctx, update)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	s.log.Info().
		Str("formation_id", settings.CurrentFormationID).
		Bool("auto_check_enabled", settings.AutoCheckEnabled).
		Msg("Settings updated")
	s.emit(&events.SettingsChangedData{
		CurrentFormationID: settings.CurrentFormationID,
		AutoCheckEnabled:   settings.AutoCheckEnabled,
	})
	return nil
}

// Initialize creates the default settings and budget when absent. Existing
// records are left untouched.
func (s *Service) Initialize(ctx context.Context) (*InitResult, error) {
	result := &InitResult{}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		settings, err = s.repo.UpsertSettings(ctx, domain.SettingsUpdate{})
		if err != nil {
			return nil, fmt.Errorf("failed to create default settings: %w", err)
		}
		result.SettingsCreated = true
	}

	budget, err := s.repo.GetBudget(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	if budget == nil {
		budget, err = s.repo.UpsertBudget(ctx, domain.BudgetUpdate{})
		if err != nil {
			return nil, fmt.Errorf("failed to create default budget: %w", err)
		}
		result.BudgetCreated = true
	}

	result.Settings = *settings
	result.Budget = *budget

	if result.SettingsCreated || result.BudgetCreated {
		s.log.Info().
			Bool("settings_created", result.SettingsCreated).
			Bool("budget_created", result.BudgetCreated).
			Msg("Defaults initialized")
	}
	return result, nil
}

// DeleteHolding removes one holding. Deleting an unknown ID succeeds.
func (s *Service) DeleteHolding(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewValidationError("id", "holding ID is required")
	}
	if err := s.repo.DeleteHolding(ctx, id); err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	s.log.Info().Str("holding_id", id).Msg("Holding deleted")
	s.emit(&events.HoldingDeletedData{ID: id})
	return nil
}

// History returns up to limit formation transitions, newest first
func (s *Service) History(ctx context.Context, limit int) ([]domain.FormationHistory, error) {
	history, err := s.repo.ListFormationHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list formation history: %w", err)
	}
	return history, nil
}

func (s *Service) emit(data events.EventData) {
	if s.emitter != nil {
		s.emitter.Emit(moduleName, data)
	}
}
