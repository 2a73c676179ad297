// Package domain provides core domain models and types.
package domain

import "time"

// Formation is a named split of the budget across tiers with fixed weights
type Formation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TierCount   int       `json:"tierCount"`
	Percentages []float64 `json:"percentages"`
}

// TierPercentage returns the weight of a 1-based tier, or 0 when out of range
func (f Formation) TierPercentage(tier int) float64 {
	if tier < 1 || tier > len(f.Percentages) {
		return 0
	}
	return f.Percentages[tier-1]
}

// Settings is the singleton record holding the active formation and check metadata
type Settings struct {
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	LastCheckDate      time.Time `json:"lastCheckDate"`
	ID                 string    `json:"id"`
	CurrentFormationID string    `json:"currentFormationId"`
	AutoCheckEnabled   bool      `json:"autoCheckEnabled"`
}

// SettingsUpdate is a partial update of Settings. Nil fields are left untouched.
type SettingsUpdate struct {
	CurrentFormationID *string
	LastCheckDate      *time.Time
	AutoCheckEnabled   *bool
}

// Budget is the singleton capital record
type Budget struct {
	UpdatedAt        time.Time `json:"updatedAt"`
	ID               string    `json:"id"`
	Funds            float64   `json:"funds"`
	Start            float64   `json:"start"`
	Profit           float64   `json:"profit"`
	ReturnPercentage float64   `json:"returnPercentage"`
}

// BudgetUpdate is a partial update of Budget. Nil fields are left untouched.
type BudgetUpdate struct {
	Funds  *float64
	Start  *float64
	Profit *float64
}

// Holding is a recorded position assigned to a tier
type Holding struct {
	UpdatedAt  time.Time `json:"updatedAt"`
	ID         string    `json:"id"`
	Ticker     string    `json:"ticker"`
	Tier       int       `json:"tier"`
	EntryPrice float64   `json:"entryPrice"`
	HoldShares int       `json:"holdShares"`
	GoalShares int       `json:"goalShares"`
}

// FormationUsage tracks how many of the elapsed days a formation was active
type FormationUsage struct {
	LastUsedDate    time.Time `json:"lastUsedDate"`
	CreatedAt       time.Time `json:"createdAt"`
	ID              string    `json:"id"`
	FormationID     string    `json:"formationId"`
	UsageCount      int       `json:"usageCount"`
	TotalDays       int       `json:"totalDays"`
	UsagePercentage float64   `json:"usagePercentage"`
}

// FormationHistory is one entry of the append-only formation transition log
type FormationHistory struct {
	ChangedAt       time.Time `json:"changedAt"`
	FromFormationID *string   `json:"fromFormationId"`
	ID              string    `json:"id"`
	ToFormationID   string    `json:"toFormationId"`
	Reason          string    `json:"reason"`
}

// Ticker describes one entry of the allowed ticker set
type Ticker struct {
	Symbol string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// Defaults applied when singleton records are created lazily
const (
	DefaultFormationID = "formation-3-50-30-20"
	DefaultFunds       = 6000.0
	DefaultStart       = 6000.0
)
