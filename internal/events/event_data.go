package events

import "encoding/json"

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// FormationChangedData contains data for FormationChanged events
type FormationChangedData struct {
	FromFormationID *string `json:"fromFormationId"`
	ToFormationID   string  `json:"toFormationId"`
	Reason          string  `json:"reason"`
}

// EventType returns the event type for FormationChangedData
func (d *FormationChangedData) EventType() EventType {
	return FormationChanged
}

// DailyCheckCompletedData contains data for DailyCheckCompleted events
type DailyCheckCompletedData struct {
	CurrentFormationID string  `json:"currentFormationId"`
	UsageCount         int     `json:"usageCount"`
	TotalDays          int     `json:"totalDays"`
	UsagePercentage    float64 `json:"usagePercentage"`
	HasChanged         bool    `json:"hasChanged"`
}

// EventType returns the event type for DailyCheckCompletedData
func (d *DailyCheckCompletedData) EventType() EventType {
	return DailyCheckCompleted
}

// BudgetUpdatedData contains data for BudgetUpdated events
type BudgetUpdatedData struct {
	Funds            float64 `json:"funds"`
	Start            float64 `json:"start"`
	Profit           float64 `json:"profit"`
	ReturnPercentage float64 `json:"returnPercentage"`
}

// EventType returns the event type for BudgetUpdatedData
func (d *BudgetUpdatedData) EventType() EventType {
	return BudgetUpdated
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	CurrentFormationID string `json:"currentFormationId"`
	AutoCheckEnabled   bool   `json:"autoCheckEnabled"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() EventType {
	return SettingsChanged
}

// HoldingsReplacedData contains data for HoldingsReplaced events
type HoldingsReplacedData struct {
	Tickers []string `json:"tickers"`
	Count   int      `json:"count"`
}

// EventType returns the event type for HoldingsReplacedData
func (d *HoldingsReplacedData) EventType() EventType {
	return HoldingsReplaced
}

// HoldingDeletedData contains data for HoldingDeleted events
type HoldingDeletedData struct {
	ID string `json:"id"`
}

// EventType returns the event type for HoldingDeletedData
func (d *HoldingDeletedData) EventType() EventType {
	return HoldingDeleted
}

// UsageRecalculatedData contains data for UsageRecalculated events
type UsageRecalculatedData struct {
	Records int `json:"records"`
}

// EventType returns the event type for UsageRecalculatedData
func (d *UsageRecalculatedData) EventType() EventType {
	return UsageRecalculated
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Path      string  `json:"path"`
	RemoteKey string  `json:"remoteKey,omitempty"`
	SizeBytes int64   `json:"sizeBytes"`
	Duration  float64 `json:"duration"`
	Rotated   int     `json:"rotated"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Context map[string]interface{} `json:"context,omitempty"`
	Error   string                 `json:"error"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Data map[string]interface{} `json:"-"`
	Type EventType              `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON encodes the raw map
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON decodes into the raw map
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
