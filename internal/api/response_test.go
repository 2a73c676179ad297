package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/satellite/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.NewValidationError("tier", "bad"), http.StatusBadRequest, domain.CodeValidation},
		{"invalid formation", &domain.ValidationError{Message: "x", Code: domain.CodeInvalidFormation}, http.StatusBadRequest, domain.CodeInvalidFormation},
		{"not initialized", domain.ErrNotInitialized, http.StatusInternalServerError, CodeNotInitialized},
		{"connection", domain.NewRepositoryError("op", domain.RepositoryErrorConnection, errors.New("x")), http.StatusInternalServerError, CodeDatabaseConnection},
		{"timeout", domain.NewRepositoryError("op", domain.RepositoryErrorTimeout, errors.New("x")), http.StatusInternalServerError, CodeDatabaseTimeout},
		{"auth", domain.NewRepositoryError("op", domain.RepositoryErrorAuthentication, errors.New("x")), http.StatusInternalServerError, CodeDatabaseAuth},
		{"query", domain.NewRepositoryError("op", domain.RepositoryErrorQuery, errors.New("x")), http.StatusInternalServerError, CodeDatabaseQuery},
		{"constraint", domain.NewRepositoryError("op", domain.RepositoryErrorConstraint, errors.New("x")), http.StatusInternalServerError, CodeDatabaseConstraint},
		{"unknown repo", domain.NewRepositoryError("op", domain.RepositoryErrorUnknown, errors.New("x")), http.StatusInternalServerError, CodeDatabase},
		{"body too large", fmt.Errorf("%w: limit is 1 bytes", ErrBodyTooLarge), http.StatusRequestEntityTooLarge, CodePayloadTooLarge},
		{"other", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := Classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestResponder_JSON(t *testing.T) {
	rs := NewResponder(false, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	w := httptest.NewRecorder()

	rs.JSON(w, req, http.StatusOK, map[string]int{"answer": 42})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(42), body["data"].(map[string]interface{})["answer"])
	assert.NotContains(t, body, "error")
}

func TestResponder_ErrorHidesDetailsOutsideDevMode(t *testing.T) {
	rs := NewResponder(false, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/api/cron", nil)
	w := httptest.NewRecorder()

	rs.Error(w, req, domain.NewRepositoryError("op", domain.RepositoryErrorQuery, errors.New("secret sql")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret sql")

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, CodeDatabaseQuery, body.Error.Code)
	assert.Nil(t, body.Error.Details)
}

func TestResponder_ErrorDetailsInDevMode(t *testing.T) {
	rs := NewResponder(true, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/api/cron", nil)
	w := httptest.NewRecorder()

	Timing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.Error(w, r, errors.New("boom"))
	})).ServeHTTP(w, req)

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "boom", body.Error.Details["cause"])
	assert.Contains(t, body.Error.Details, "processingTime")
	assert.Contains(t, body.Error.Details, "requestId")
}

func TestResponder_Msgpack(t *testing.T) {
	rs := NewResponder(false, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("Accept", ContentTypeMsgpack)
	w := httptest.NewRecorder()

	rs.JSON(w, req, http.StatusOK, map[string]string{"formation": "formation-3-50-30-20"})

	assert.Equal(t, ContentTypeMsgpack, w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "formation-3-50-30-20", body["data"].(map[string]interface{})["formation"])
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Funds float64 `json:"funds"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"funds": 12.5, "updatedAt": "2025-03-10T09:30:00Z"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, 12.5, v.Funds)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"empty", ``},
		{"trailing value", `{"funds": 1} {"funds": 2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var vErr *domain.ValidationError
			assert.ErrorAs(t, DecodeJSON(httptest.NewRecorder(), req, &v), &vErr)
		})
	}
}

func TestDecodeJSON_RejectsOversizedBody(t *testing.T) {
	var v map[string]interface{}
	body := `{"pad": "` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	err := DecodeJSON(httptest.NewRecorder(), req, &v)
	require.ErrorIs(t, err, ErrBodyTooLarge)

	status, code, _ := Classify(err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, CodePayloadTooLarge, code)
}
