package testing

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/repository/memory"
)

// Operation names accepted by MockRepository.SetError
const (
	OpGetSettings                  = "GetSettings"
	OpUpsertSettings               = "UpsertSettings"
	OpGetBudget                    = "GetBudget"
	OpUpsertBudget                 = "UpsertBudget"
	OpGetHoldings                  = "GetHoldings"
	OpUpsertHolding                = "UpsertHolding"
	OpDeleteHolding                = "DeleteHolding"
	OpClearAllHoldings             = "ClearAllHoldings"
	OpReplaceHoldings              = "ReplaceHoldings"
	OpGetFormationUsage            = "GetFormationUsage"
	OpUpsertFormationUsage         = "UpsertFormationUsage"
	OpRecalculateFormationUsage    = "RecalculateFormationUsage"
	OpGetMostRecentFormationChange = "GetMostRecentFormationChange"
	OpAppendFormationHistory       = "AppendFormationHistory"
	OpListFormationHistory         = "ListFormationHistory"
	OpPing                         = "Ping"
)

// MockRepository is a domain.Repository backed by the in-memory repository
// with per-operation error injection and call counting.
type MockRepository struct {
	inner  *memory.Repository
	mu     sync.RWMutex
	errors map[string]error
	calls  map[string]int
}

var _ domain.Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository driven by clock
func NewMockRepository(clock domain.Clock) *MockRepository {
	return &MockRepository{
		inner:  memory.NewRepository(clock, zerolog.Nop()),
		errors: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// SetError makes op return err until cleared with a nil err
func (m *MockRepository) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, op)
		return
	}
	m.errors[op] = err
}

// Calls returns how many times op was invoked
func (m *MockRepository) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

func (m *MockRepository) enter(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.errors[op]
}

// GetSettings returns the settings
func (m *MockRepository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if err := m.enter(OpGetSettings); err != nil {
		return nil, err
	}
	return m.inner.GetSettings(ctx)
}

// UpsertSettings applies a settings update
func (m *MockRepository) UpsertSettings(ctx context.Context, update domain.SettingsUpdate) (*domain.Settings, error) {
	if err := m.enter(OpUpsertSettings); err != nil {
		return nil, err
	}
	return m.inner.UpsertSettings(ctx, update)
}

// GetBudget returns the budget
func (m *MockRepository) GetBudget(ctx context.Context) (*domain.Budget, error) {
	if err := m.enter(OpGetBudget); err != nil {
		return nil, err
	}
	return m.inner.GetBudget(ctx)
}

// UpsertBudget applies a budget update
func (m *MockRepository) UpsertBudget(ctx context.Context, update domain.BudgetUpdate) (*domain.Budget, error) {
	if err := m.enter(OpUpsertBudget); err != nil {
		return nil, err
	}
	return m.inner.UpsertBudget(ctx, update)
}

// GetHoldings returns all holdings
func (m *MockRepository) GetHoldings(ctx context.Context) ([]domain.Holding, error) {
	if err := m.enter(OpGetHoldings); err != nil {
		return nil, err
	}
	return m.inner.GetHoldings(ctx)
}

// UpsertHolding stores a holding
func (m *MockRepository) UpsertHolding(ctx context.Context, h domain.Holding) (*domain.Holding, error) {
	if err := m.enter(OpUpsertHolding); err != nil {
		return nil, err
	}
	return m.inner.UpsertHolding(ctx, h)
}

// DeleteHolding removes a holding
func (m *MockRepository) DeleteHolding(ctx context.Context, id string) error {
	if err := m.enter(OpDeleteHolding); err != nil {
		return err
	}
	return m.inner.DeleteHolding(ctx, id)
}

// ClearAllHoldings removes every holding
func (m *MockRepository) ClearAllHoldings(ctx context.Context) error {
	if err := m.enter(OpClearAllHoldings); err != nil {
		return err
	}
	return m.inner.ClearAllHoldings(ctx)
}

// ReplaceHoldings swaps the holding set
func (m *MockRepository) ReplaceHoldings(ctx context.Context, holdings []domain.Holding) ([]domain.Holding, error) {
	if err := m.enter(OpReplaceHoldings); err != nil {
		return nil, err
	}
	return m.inner.ReplaceHoldings(ctx, holdings)
}

// GetFormationUsage returns usage records
func (m *MockRepository) GetFormationUsage(ctx context.Context) ([]domain.FormationUsage, error) {
	if err := m.enter(OpGetFormationUsage); err != nil {
		return nil, err
	}
	return m.inner.GetFormationUsage(ctx)
}

// UpsertFormationUsage activates a formation for the day
func (m *MockRepository) UpsertFormationUsage(ctx context.Context, formationID string) (*domain.FormationUsage, error) {
	if err := m.enter(OpUpsertFormationUsage); err != nil {
		return nil, err
	}
	return m.inner.UpsertFormationUsage(ctx, formationID)
}

// RecalculateFormationUsage recomputes percentages
func (m *MockRepository) RecalculateFormationUsage(ctx context.Context) ([]domain.FormationUsage, error) {
	if err := m.enter(OpRecalculateFormationUsage); err != nil {
		return nil, err
	}
	return m.inner.RecalculateFormationUsage(ctx)
}

// GetMostRecentFormationChange returns the newest history entry
func (m *MockRepository) GetMostRecentFormationChange(ctx context.Context) (*domain.FormationHistory, error) {
	if err := m.enter(OpGetMostRecentFormationChange); err != nil {
		return nil, err
	}
	return m.inner.GetMostRecentFormationChange(ctx)
}

// AppendFormationHistory appends a history entry
func (m *MockRepository) AppendFormationHistory(ctx context.Context, entry domain.FormationHistory) error {
	if err := m.enter(OpAppendFormationHistory); err != nil {
		return err
	}
	return m.inner.AppendFormationHistory(ctx, entry)
}

// ListFormationHistory returns history entries
func (m *MockRepository) ListFormationHistory(ctx context.Context, limit int) ([]domain.FormationHistory, error) {
	if err := m.enter(OpListFormationHistory); err != nil {
		return nil, err
	}
	return m.inner.ListFormationHistory(ctx, limit)
}

// Ping checks availability
func (m *MockRepository) Ping(ctx context.Context) error {
	if err := m.enter(OpPing); err != nil {
		return err
	}
	return m.inner.Ping(ctx)
}
