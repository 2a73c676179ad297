// Package api holds the response envelope shared by every HTTP handler.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/satellite/internal/domain"
)

// Error codes
const (
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeNotInitialized     = "NOT_INITIALIZED"
	CodeDatabase           = "DATABASE_ERROR"
	CodeDatabaseConnection = "DATABASE_CONNECTION_ERROR"
	CodeDatabaseTimeout    = "DATABASE_TIMEOUT_ERROR"
	CodeDatabaseAuth       = "DATABASE_AUTH_ERROR"
	CodeDatabaseQuery      = "DATABASE_QUERY_ERROR"
	CodeDatabaseConstraint = "DATABASE_CONSTRAINT_ERROR"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
)

// MaxBodyBytes caps the size of a decoded request body
const MaxBodyBytes = 1 << 20

// ErrBodyTooLarge is returned by DecodeJSON when the body exceeds MaxBodyBytes
var ErrBodyTooLarge = errors.New("request body too large")

// ContentTypeMsgpack is negotiated through the Accept header
const ContentTypeMsgpack = "application/x-msgpack"

// Envelope is the body of every API response
type Envelope struct {
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
	Success   bool        `json:"success"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// Responder writes envelopes. Error details are only exposed in dev mode.
type Responder struct {
	log     zerolog.Logger
	devMode bool
}

// NewResponder creates a new responder
func NewResponder(devMode bool, log zerolog.Logger) *Responder {
	return &Responder{
		devMode: devMode,
		log:     log.With().Str("component", "responder").Logger(),
	}
}

// DevMode reports whether error details are exposed
func (rs *Responder) DevMode() bool {
	return rs.devMode
}

// JSON writes a successful envelope, encoded as msgpack when the client asks for it
func (rs *Responder) JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	rs.write(w, r, status, Envelope{Success: true, Timestamp: time.Now().UTC(), Data: data})
}

// Error maps err onto a status code and error code and writes the envelope
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := Classify(err)
	if status >= http.StatusInternalServerError {
		rs.log.Error().Err(err).Str("code", code).Str("path", r.URL.Path).Msg("Request failed")
	}
	rs.ErrorWithCode(w, r, status, code, message, err)
}

// ErrorWithCode writes an error envelope with an explicit status and code
func (rs *Responder) ErrorWithCode(w http.ResponseWriter, r *http.Request, status int, code, message string, cause error) {
	body := &ErrorBody{Code: code, Message: message}
	if rs.devMode {
		body.Details = rs.details(r, cause)
	}
	rs.write(w, r, status, Envelope{Success: false, Timestamp: time.Now().UTC(), Error: body})
}

func (rs *Responder) details(r *http.Request, cause error) map[string]interface{} {
	details := map[string]interface{}{
		"requestId": middleware.GetReqID(r.Context()),
		"method":    r.Method,
		"path":      r.URL.Path,
	}
	if start, ok := RequestStart(r.Context()); ok {
		details["processingTime"] = time.Since(start).String()
	}
	if cause != nil {
		details["cause"] = cause.Error()
	}
	return details
}

func (rs *Responder) write(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	if WantsMsgpack(r) {
		payload, err := EncodeMsgpack(env)
		if err == nil {
			w.Header().Set("Content-Type", ContentTypeMsgpack)
			w.WriteHeader(status)
			if _, err := w.Write(payload); err != nil {
				rs.log.Error().Err(err).Msg("Failed to write msgpack response")
			}
			return
		}
		rs.log.Warn().Err(err).Msg("Failed to encode msgpack response, falling back to JSON")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		rs.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WantsMsgpack reports whether the Accept header prefers msgpack
func WantsMsgpack(r *http.Request) bool {
	if r == nil {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, ContentTypeMsgpack) || strings.Contains(accept, "application/msgpack")
}

// EncodeMsgpack encodes v with json field names so both encodings share keys
func EncodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Classify maps an error onto HTTP status, error code and a client-safe message
func Classify(err error) (int, string, string) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		code := vErr.Code
		if code == "" {
			code = domain.CodeValidation
		}
		return http.StatusBadRequest, code, vErr.Error()
	}

	if errors.Is(err, ErrBodyTooLarge) {
		return http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large"
	}

	if errors.Is(err, domain.ErrNotInitialized) {
		return http.StatusInternalServerError, CodeNotInitialized, "Settings have not been initialized"
	}

	var repoErr *domain.RepositoryError
	if errors.As(err, &repoErr) {
		switch repoErr.Kind {
		case domain.RepositoryErrorConnection:
			return http.StatusInternalServerError, CodeDatabaseConnection, "Database connection failed"
		case domain.RepositoryErrorTimeout:
			return http.StatusInternalServerError, CodeDatabaseTimeout, "Database operation timed out"
		case domain.RepositoryErrorAuthentication:
			return http.StatusInternalServerError, CodeDatabaseAuth, "Database authentication failed"
		case domain.RepositoryErrorQuery:
			return http.StatusInternalServerError, CodeDatabaseQuery, "Database query failed"
		case domain.RepositoryErrorConstraint:
			return http.StatusInternalServerError, CodeDatabaseConstraint, "Database constraint violated"
		default:
			return http.StatusInternalServerError, CodeDatabase, "Database operation failed"
		}
	}

	return http.StatusInternalServerError, CodeInternal, "Internal server error"
}

type startKey struct{}

// RequestStart returns the time the request entered the router
func RequestStart(ctx context.Context) (time.Time, bool) {
	start, ok := ctx.Value(startKey{}).(time.Time)
	return start, ok
}

// Timing stores the request start time for processing-time details
func Timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), startKey{}, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DecodeJSON decodes a single JSON value of at most MaxBodyBytes into a typed
// request struct. Unknown fields are ignored so GET payloads can be posted back.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return &domain.ValidationError{Message: "Invalid request body: " + err.Error(), Code: domain.CodeValidation}
	}
	if dec.More() {
		return &domain.ValidationError{Message: "Invalid request body: unexpected data after JSON value", Code: domain.CodeValidation}
	}
	return nil
}
