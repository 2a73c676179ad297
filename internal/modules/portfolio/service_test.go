package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/events"
	testingpkg "github.com/aristath/satellite/internal/testing"
)

type recordingEmitter struct {
	types []events.EventType
}

func (e *recordingEmitter) Emit(_ string, data events.EventData) {
	e.types = append(e.types, data.EventType())
}

func newTestService(t *testing.T) (*Service, *testingpkg.MockRepository, *recordingEmitter) {
	t.Helper()
	clock := testingpkg.NewFakeClock(testingpkg.FixedTime)
	repo := testingpkg.NewMockRepository(clock)
	emitter := &recordingEmitter{}
	return NewService(repo, emitter, clock, zerolog.New(nil).Level(zerolog.Disabled)), repo, emitter
}

func TestGetAllData_DefaultsWithoutPersisting(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	data, err := service.GetAllData(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultFormationID, data.Settings.CurrentFormationID)
	assert.True(t, data.Settings.AutoCheckEnabled)
	assert.Equal(t, 6000.0, data.Budget.Funds)
	assert.Equal(t, 6000.0, data.Budget.Start)
	assert.NotNil(t, data.Holdings)
	assert.NotNil(t, data.UsageStats)
	assert.Len(t, data.Formations, 4)

	settings, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings)
	budget, err := repo.GetBudget(ctx)
	require.NoError(t, err)
	assert.Nil(t, budget)
}

func TestSaveData_AppliesBudgetSettingsAndHoldings(t *testing.T) {
	service, repo, emitter := newTestService(t)
	ctx := context.Background()

	data, err := service.SaveData(ctx, SaveRequest{
		Budget:      &BudgetInput{Funds: testingpkg.Ptr(6000.0), Profit: testingpkg.Ptr(300.0)},
		FormationID: testingpkg.Ptr("formation-3-50-30-20"),
		Holdings: []HoldingInput{
			{ID: "h1", Ticker: "nvda", Tier: 1, EntryPrice: 150, HoldShares: 4, GoalShares: testingpkg.Ptr(999)},
			{Ticker: "MSFT", Tier: 2, EntryPrice: 400, HoldShares: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 5.0, data.Budget.ReturnPercentage)
	assert.Equal(t, "formation-3-50-30-20", data.Settings.CurrentFormationID)
	require.Len(t, data.Holdings, 2)

	nvda := data.Holdings[0]
	assert.Equal(t, "h1", nvda.ID)
	assert.Equal(t, "NVDA", nvda.Ticker)
	// tier 1 of 50/30/20 on 6000 is 3000; 3000/150
	assert.Equal(t, 20, nvda.GoalShares)

	msft := data.Holdings[1]
	assert.NotEmpty(t, msft.ID)
	// tier 2 target 1800; 1800/400 = 4.5 rounds half-up
	assert.Equal(t, 5, msft.GoalShares)

	assert.Equal(t, 0, repo.Calls(testingpkg.OpUpsertFormationUsage))
	assert.Equal(t, []events.EventType{
		events.BudgetUpdated,
		events.SettingsChanged,
		events.HoldingsReplaced,
	}, emitter.types)
}

func TestSaveData_FullReplaceSemantics(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.SaveData(ctx, SaveRequest{Holdings: []HoldingInput{
		{Ticker: "NVDA", Tier: 1, EntryPrice: 100},
		{Ticker: "GOOGL", Tier: 3, EntryPrice: 200},
	}})
	require.NoError(t, err)

	data, err := service.SaveData(ctx, SaveRequest{Holdings: []HoldingInput{
		{Ticker: "CRWD", Tier: 2, EntryPrice: 120},
	}})
	require.NoError(t, err)
	require.Len(t, data.Holdings, 1)
	assert.Equal(t, "CRWD", data.Holdings[0].Ticker)

	// an empty list leaves holdings alone
	data, err = service.SaveData(ctx, SaveRequest{Holdings: []HoldingInput{}})
	require.NoError(t, err)
	assert.Len(t, data.Holdings, 1)
}

func TestSaveData_GoalSharesUseNewFundsAndFormation(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	data, err := service.SaveData(ctx, SaveRequest{
		Budget:      &BudgetInput{Funds: testingpkg.Ptr(10000.0)},
		FormationID: testingpkg.Ptr("formation-2-80-20"),
		Holdings:    []HoldingInput{{Ticker: "NVDA", Tier: 1, EntryPrice: 100}},
	})
	require.NoError(t, err)
	require.Len(t, data.Holdings, 1)
	assert.Equal(t, 80, data.Holdings[0].GoalShares)
}

func TestSaveData_ValidationRejectsBeforeWriting(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.SaveData(ctx, SaveRequest{
		Budget:   &BudgetInput{Funds: testingpkg.Ptr(5000.0)},
		Holdings: []HoldingInput{{Ticker: "NVDA", Tier: 4, EntryPrice: 100}},
	})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "holdings[0].tier", vErr.Field)
	assert.Equal(t, 0, repo.Calls(testingpkg.OpUpsertBudget))
	assert.Equal(t, 0, repo.Calls(testingpkg.OpReplaceHoldings))
}

func TestSaveData_UnknownFormation(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.SaveData(context.Background(), SaveRequest{FormationID: testingpkg.Ptr("formation-9")})

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.CodeInvalidFormation, vErr.Code)
}

func TestSaveData_RepositoryFailure(t *testing.T) {
	service, repo, _ := newTestService(t)
	repo.SetError(testingpkg.OpReplaceHoldings,
		domain.NewRepositoryError("replace_holdings", domain.RepositoryErrorConstraint, errors.New("CHECK failed")))

	_, err := service.SaveData(context.Background(), SaveRequest{
		Holdings: []HoldingInput{{Ticker: "NVDA", Tier: 1, EntryPrice: 100}},
	})

	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, domain.RepositoryErrorConstraint, repoErr.Kind)
}

func TestInitialize_Idempotent(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := service.Initialize(ctx)
	require.NoError(t, err)
	assert.True(t, first.SettingsCreated)
	assert.True(t, first.BudgetCreated)
	assert.Equal(t, domain.DefaultFormationID, first.Settings.CurrentFormationID)
	assert.True(t, testingpkg.FixedTime.Equal(first.Settings.LastCheckDate))
	assert.Equal(t, 6000.0, first.Budget.Funds)
	assert.Equal(t, 0.0, first.Budget.Profit)

	_, err = repo.UpsertBudget(ctx, domain.BudgetUpdate{Funds: testingpkg.Ptr(1234.0)})
	require.NoError(t, err)

	second, err := service.Initialize(ctx)
	require.NoError(t, err)
	assert.False(t, second.SettingsCreated)
	assert.False(t, second.BudgetCreated)
	assert.Equal(t, first.Settings.ID, second.Settings.ID)
	assert.Equal(t, 1234.0, second.Budget.Funds)
}

func TestDeleteHolding(t *testing.T) {
	service, repo, emitter := newTestService(t)
	ctx := context.Background()

	_, err := repo.ReplaceHoldings(ctx, testingpkg.NewHoldingFixtures())
	require.NoError(t, err)

	require.NoError(t, service.DeleteHolding(ctx, "h-msft"))
	holdings, err := repo.GetHoldings(ctx)
	require.NoError(t, err)
	assert.Len(t, holdings, 2)
	assert.Equal(t, []events.EventType{events.HoldingDeleted}, emitter.types)

	var vErr *domain.ValidationError
	assert.ErrorAs(t, service.DeleteHolding(ctx, ""), &vErr)
}

func TestHistory(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"formation-3-50-30-20", "formation-2-80-20"} {
		require.NoError(t, repo.AppendFormationHistory(ctx, domain.FormationHistory{ToFormationID: id}))
	}

	history, err := service.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "formation-2-80-20", history[0].ToFormationID)
}
