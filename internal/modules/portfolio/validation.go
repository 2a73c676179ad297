package portfolio

import (
	"fmt"
	"math"

	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/allocation"
	"github.com/aristath/satellite/internal/modules/formations"
)

func validFloat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// targetFormationID is the formation that will be active once req is applied
func targetFormationID(req SaveRequest, current *domain.Settings) string {
	if req.FormationID != nil {
		return *req.FormationID
	}
	if req.Settings != nil && req.Settings.CurrentFormationID != nil {
		return *req.Settings.CurrentFormationID
	}
	if current != nil {
		return current.CurrentFormationID
	}
	return domain.DefaultFormationID
}

// ValidateSaveRequest checks every field of req before anything is written
// and returns the formation the holdings are validated against.
func ValidateSaveRequest(req SaveRequest, current *domain.Settings) (domain.Formation, error) {
	if b := req.Budget; b != nil {
		if b.Funds != nil && (!validFloat(*b.Funds) || *b.Funds < 0) {
			return domain.Formation{}, domain.NewValidationError("budget.funds", "funds must be a number >= 0")
		}
		if b.Start != nil && (!validFloat(*b.Start) || *b.Start < 0) {
			return domain.Formation{}, domain.NewValidationError("budget.start", "start must be a number >= 0")
		}
		if b.Profit != nil && !validFloat(*b.Profit) {
			return domain.Formation{}, domain.NewValidationError("budget.profit", "profit must be a number")
		}
	}

	for _, id := range []*string{req.FormationID, settingsFormation(req.Settings)} {
		if id != nil && !formations.Exists(*id) {
			return domain.Formation{}, invalidFormation(*id)
		}
	}

	formationID := targetFormationID(req, current)
	formation, ok := formations.Get(formationID)
	if !ok {
		return domain.Formation{}, invalidFormation(formationID)
	}

	seen := make(map[string]bool, len(req.Holdings))
	for i, h := range req.Holdings {
		if err := validateHolding(i, h, formation); err != nil {
			return domain.Formation{}, err
		}
		if h.ID == "" {
			continue
		}
		if seen[h.ID] {
			return domain.Formation{}, domain.NewValidationError(fmt.Sprintf("holdings[%d].id", i), "duplicate holding ID %q", h.ID)
		}
		seen[h.ID] = true
	}
	return formation, nil
}

func settingsFormation(s *SettingsInput) *string {
	if s == nil {
		return nil
	}
	return s.CurrentFormationID
}

func invalidFormation(id string) error {
	return &domain.ValidationError{
		Field:   "formationId",
		Message: fmt.Sprintf("unknown formation ID: %s", id),
		Code:    domain.CodeInvalidFormation,
	}
}

func validateHolding(i int, h HoldingInput, f domain.Formation) error {
	field := fmt.Sprintf("holdings[%d]", i)

	if _, ok := formations.NormalizeTicker(h.Ticker); !ok {
		return domain.NewValidationError(field+".ticker", "invalid ticker symbol: %q", h.Ticker)
	}
	if h.Tier < 1 || h.Tier > f.TierCount {
		return domain.NewValidationError(field+".tier", "tier must be between 1 and %d for %s", f.TierCount, f.ID)
	}
	if !validFloat(h.EntryPrice) || h.EntryPrice <= 0 {
		return domain.NewValidationError(field+".entryPrice", "entry price must be a positive number")
	}
	if h.HoldShares < 0 {
		return domain.NewValidationError(field+".holdShares", "hold shares must be >= 0")
	}
	return nil
}

// toHoldings normalises validated input and recomputes goal shares
func toHoldings(inputs []HoldingInput, f domain.Formation, funds float64) []domain.Holding {
	out := make([]domain.Holding, 0, len(inputs))
	for _, in := range inputs {
		ticker, _ := formations.NormalizeTicker(in.Ticker)
		out = append(out, domain.Holding{
			ID:         in.ID,
			Ticker:     ticker,
			Tier:       in.Tier,
			EntryPrice: in.EntryPrice,
			HoldShares: in.HoldShares,
			GoalShares: allocation.GoalSharesFor(f, funds, in.Tier, in.EntryPrice),
		})
	}
	return out
}
