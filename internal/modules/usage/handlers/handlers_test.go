package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/usage"
	testingpkg "github.com/aristath/satellite/internal/testing"
)

func setup(t *testing.T) (chi.Router, *testingpkg.MockRepository) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := testingpkg.NewMockRepository(testingpkg.NewFakeClock(testingpkg.FixedTime))
	handler := NewHandler(usage.NewTracker(repo, log), api.NewResponder(false, log), log)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router, repo
}

func get(router chi.Router, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRegisterRoutes(t *testing.T) {
	router, _ := setup(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/usage"},
		{http.MethodGet, "/api/usage/summary"},
		{http.MethodPost, "/api/usage/recalculate"},
	} {
		w := get(router, tc.method, tc.path)
		assert.Equal(t, http.StatusOK, w.Code, tc.path)
	}
}

func TestHandleGetUsage(t *testing.T) {
	router, repo := setup(t)
	_, err := repo.UpsertFormationUsage(context.Background(), "formation-3-50-30-20")
	require.NoError(t, err)

	w := get(router, http.MethodGet, "/api/usage")
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data []domain.FormationUsage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, 100.0, env.Data[0].UsagePercentage)
}

func TestHandleGetSummary_Empty(t *testing.T) {
	router, _ := setup(t)

	w := get(router, http.MethodGet, "/api/usage/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data usage.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Nil(t, env.Data.MostUsed)
	assert.Equal(t, 0, env.Data.TrackedDays)
}

func TestHandleRecalculate_DatabaseError(t *testing.T) {
	router, repo := setup(t)
	repo.SetError(testingpkg.OpRecalculateFormationUsage,
		domain.NewRepositoryError("recalculate_formation_usage", domain.RepositoryErrorConstraint, errors.New("CHECK")))

	w := get(router, http.MethodPost, "/api/usage/recalculate")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), api.CodeDatabaseConstraint)
}
