// Package handlers provides HTTP handlers for the allocation plan.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/allocation"
	"github.com/aristath/satellite/internal/modules/formations"
	"github.com/aristath/satellite/internal/utils"
)

// Handler handles allocation HTTP requests
type Handler struct {
	service *allocation.Service
	resp    *api.Responder
	log     zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(service *allocation.Service, resp *api.Responder, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		resp:    resp,
		log:     log.With().Str("handler", "allocation").Logger(),
	}
}

// HandleGetAllocation returns the tier plan and summary for the active formation
// GET /api/allocation?prices=NVDA:120.5,MSFT:410
func (h *Handler) HandleGetAllocation(w http.ResponseWriter, r *http.Request) {
	prices, err := ParsePrices(r.URL.Query()["prices"])
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	plan, err := h.service.CurrentPlan(r.Context(), prices)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, plan)
}

// ParsePrices reads TICKER:PRICE pairs separated by commas. Values may be
// split across several query parameters.
func ParsePrices(values []string) (allocation.Prices, error) {
	prices := make(allocation.Prices)
	for _, value := range values {
		for _, pair := range utils.ParseCSV(value) {
			symbol, rawPrice, ok := strings.Cut(pair, ":")
			if !ok {
				return nil, domain.NewValidationError("prices", "expected TICKER:PRICE, got %q", pair)
			}
			ticker, known := formations.NormalizeTicker(symbol)
			if !known {
				return nil, domain.NewValidationError("prices", "invalid ticker symbol: %q", symbol)
			}
			price, err := strconv.ParseFloat(strings.TrimSpace(rawPrice), 64)
			if err != nil || price <= 0 {
				return nil, domain.NewValidationError("prices", "price for %s must be a positive number", ticker)
			}
			prices[ticker] = price
		}
	}
	return prices, nil
}
