// Package portfolio serves the combined budget, settings and holdings data
// set and applies edits to it.
package portfolio

import (
	"github.com/aristath/satellite/internal/domain"
)

// DataSet is the full state returned by GET and POST /api/data
type DataSet struct {
	Budget     domain.Budget           `json:"budget"`
	Settings   domain.Settings         `json:"settings"`
	Holdings   []domain.Holding        `json:"holdings"`
	Formations []domain.Formation      `json:"formations"`
	UsageStats []domain.FormationUsage `json:"usageStats"`
}

// BudgetInput is a partial budget edit
type BudgetInput struct {
	Funds  *float64 `json:"funds,omitempty"`
	Start  *float64 `json:"start,omitempty"`
	Profit *float64 `json:"profit,omitempty"`
}

// SettingsInput is a partial settings edit
type SettingsInput struct {
	CurrentFormationID *string `json:"currentFormationId,omitempty"`
	AutoCheckEnabled   *bool   `json:"autoCheckEnabled,omitempty"`
}

// HoldingInput is one holding as sent by the client. GoalShares is accepted
// for compatibility but recomputed on save.
type HoldingInput struct {
	GoalShares *int    `json:"goalShares,omitempty"`
	ID         string  `json:"id"`
	Ticker     string  `json:"ticker"`
	Tier       int     `json:"tier"`
	EntryPrice float64 `json:"entryPrice"`
	HoldShares int     `json:"holdShares"`
}

// SaveRequest is the body of POST /api/data
type SaveRequest struct {
	Budget      *BudgetInput   `json:"budget,omitempty"`
	Settings    *SettingsInput `json:"settings,omitempty"`
	FormationID *string        `json:"formationId,omitempty"`
	Holdings    []HoldingInput `json:"holdings,omitempty"`
}

// InitResult reports what Initialize created
type InitResult struct {
	Settings        domain.Settings `json:"settings"`
	Budget          domain.Budget   `json:"budget"`
	SettingsCreated bool            `json:"settingsCreated"`
	BudgetCreated   bool            `json:"budgetCreated"`
}
