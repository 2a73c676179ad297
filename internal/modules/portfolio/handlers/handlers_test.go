package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/portfolio"
	testingpkg "github.com/aristath/satellite/internal/testing"
)

type envelope[T any] struct {
	Data    T              `json:"data"`
	Error   *api.ErrorBody `json:"error"`
	Success bool           `json:"success"`
}

func setupRouter(t *testing.T) (chi.Router, *testingpkg.MockRepository) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	clock := testingpkg.NewFakeClock(testingpkg.FixedTime)
	repo := testingpkg.NewMockRepository(clock)
	handler := NewHandler(portfolio.NewService(repo, nil, clock, log), api.NewResponder(false, log), log)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router, repo
}

func do(router chi.Router, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRegisterRoutes(t *testing.T) {
	router, _ := setupRouter(t)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/data"},
		{http.MethodPost, "/api/init"},
		{http.MethodGet, "/api/formations"},
		{http.MethodGet, "/api/tickers"},
		{http.MethodGet, "/api/history"},
		{http.MethodDelete, "/api/holdings/abc"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := do(router, tc.method, tc.path, nil)
			assert.NotEqual(t, http.StatusNotFound, w.Code)
			assert.NotEqual(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}

func TestHandleSaveDataThenGet(t *testing.T) {
	router, _ := setupRouter(t)

	body, err := json.Marshal(map[string]interface{}{
		"budget":      map[string]interface{}{"funds": 6000, "start": 6000, "profit": 300},
		"formationId": "formation-3-50-30-20",
		"holdings": []map[string]interface{}{
			{"id": "h1", "ticker": "NVDA", "tier": 1, "entryPrice": 150, "holdShares": 5, "goalShares": 1},
		},
	})
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/api/data", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[portfolio.DataSet](t, w)
	assert.True(t, saved.Success)
	assert.Equal(t, 5.0, saved.Data.Budget.ReturnPercentage)
	require.Len(t, saved.Data.Holdings, 1)
	assert.Equal(t, 20, saved.Data.Holdings[0].GoalShares)

	w = do(router, http.MethodGet, "/api/data", nil)
	require.Equal(t, http.StatusOK, w.Code)
	loaded := decode[portfolio.DataSet](t, w)
	assert.Equal(t, saved.Data.Holdings, loaded.Data.Holdings)
	assert.Len(t, loaded.Data.Formations, 4)
}

func TestHandleSaveData_ValidationErrors(t *testing.T) {
	router, repo := setupRouter(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"budget":`, domain.CodeValidation},
		{"negative funds", `{"budget":{"funds":-5}}`, domain.CodeValidation},
		{"unknown formation", `{"formationId":"formation-1"}`, domain.CodeInvalidFormation},
		{"bad ticker", `{"holdings":[{"ticker":"XYZ","tier":1,"entryPrice":1,"holdShares":0}]}`, domain.CodeValidation},
		{"repeated holding id", `{"budget":{"funds":9000},"holdings":[` +
			`{"id":"x","ticker":"NVDA","tier":1,"entryPrice":100,"holdShares":1},` +
			`{"id":"x","ticker":"MSFT","tier":2,"entryPrice":400,"holdShares":1}]}`, domain.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/data", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode[json.RawMessage](t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	assert.Equal(t, 0, repo.Calls(testingpkg.OpUpsertBudget))
	assert.Equal(t, 0, repo.Calls(testingpkg.OpReplaceHoldings))
}

func TestHandleSaveData_OversizedBody(t *testing.T) {
	router, repo := setupRouter(t)

	body := []byte(`{"formationId":"` + strings.Repeat("x", api.MaxBodyBytes) + `"}`)
	w := do(router, http.MethodPost, "/api/data", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	env := decode[json.RawMessage](t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, api.CodePayloadTooLarge, env.Error.Code)
	assert.Equal(t, 0, repo.Calls(testingpkg.OpUpsertSettings))
}

func TestHandleGetData_Msgpack(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("Accept", "application/msgpack")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.ContentTypeMsgpack, w.Header().Get("Content-Type"))

	var decoded map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, true, decoded["success"])
	data, ok := decoded["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "formations")
	assert.Contains(t, data, "usageStats")
}

func TestHandleInit(t *testing.T) {
	router, repo := setupRouter(t)

	w := do(router, http.MethodPost, "/api/init", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode[portfolio.InitResult](t, w)
	assert.True(t, env.Data.SettingsCreated)
	assert.True(t, env.Data.BudgetCreated)

	w = do(router, http.MethodPost, "/api/init", nil)
	env = decode[portfolio.InitResult](t, w)
	assert.False(t, env.Data.SettingsCreated)
	assert.Equal(t, 1, repo.Calls(testingpkg.OpUpsertSettings))
}

func TestHandleGetTickers(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/tickers", nil)
	all := decode[[]domain.Ticker](t, w)
	assert.Len(t, all.Data, 21)

	w = do(router, http.MethodGet, "/api/tickers?sector=communication", nil)
	filtered := decode[[]domain.Ticker](t, w)
	require.NotEmpty(t, filtered.Data)
	for _, tk := range filtered.Data {
		assert.Equal(t, "Communication", tk.Sector)
	}
}

func TestHandleGetHistory(t *testing.T) {
	router, repo := setupRouter(t)

	require.NoError(t, repo.AppendFormationHistory(context.Background(), domain.FormationHistory{ToFormationID: "formation-2-80-20"}))

	w := do(router, http.MethodGet, "/api/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode[[]domain.FormationHistory](t, w)
	require.Len(t, env.Data, 1)

	w = do(router, http.MethodGet, "/api/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDeleteHolding(t *testing.T) {
	router, repo := setupRouter(t)

	_, err := repo.ReplaceHoldings(context.Background(), testingpkg.NewHoldingFixtures())
	require.NoError(t, err)

	w := do(router, http.MethodDelete, "/api/holdings/h-nvda", nil)
	require.Equal(t, http.StatusOK, w.Code)

	holdings, err := repo.GetHoldings(context.Background())
	require.NoError(t, err)
	assert.Len(t, holdings, 2)
}
