package allocation

import (
	"context"
	"fmt"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/formations"
	"github.com/rs/zerolog"
)

// StateReader is the read side of the repository the plan is built from
type StateReader interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
	GetBudget(ctx context.Context) (*domain.Budget, error)
	GetHoldings(ctx context.Context) ([]domain.Holding, error)
}

// Service builds allocation plans from persisted state
type Service struct {
	repo StateReader
	log  zerolog.Logger
}

// NewService creates a new allocation service
func NewService(repo StateReader, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "allocation").Logger(),
	}
}

// CurrentPlan builds the plan for the active formation and the stored budget
func (s *Service) CurrentPlan(ctx context.Context, prices Prices) (*Plan, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		return nil, domain.ErrNotInitialized
	}

	formation, ok := formations.Get(settings.CurrentFormationID)
	if !ok {
		return nil, &domain.ValidationError{
			Field:   "currentFormationId",
			Message: fmt.Sprintf("unknown formation %q", settings.CurrentFormationID),
			Code:    domain.CodeInvalidFormation,
		}
	}

	budget, err := s.repo.GetBudget(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	if budget == nil {
		return nil, domain.ErrNotInitialized
	}

	holdings, err := s.repo.GetHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	plan := BuildPlan(formation, *budget, holdings, prices)

	s.log.Debug().
		Str("formation", formation.ID).
		Int("holdings", len(holdings)).
		Float64("invested", plan.Summary.TotalInvested).
		Msg("Built allocation plan")

	return &plan, nil
}
