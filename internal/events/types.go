package events

import (
	"encoding/json"
	"time"
)

// EventType represents different event types
type EventType string

const (
	// Daily check events
	FormationChanged    EventType = "FORMATION_CHANGED"
	DailyCheckCompleted EventType = "DAILY_CHECK_COMPLETED"

	// Portfolio events
	BudgetUpdated    EventType = "BUDGET_UPDATED"
	SettingsChanged  EventType = "SETTINGS_CHANGED"
	HoldingsReplaced EventType = "HOLDINGS_REPLACED"
	HoldingDeleted   EventType = "HOLDING_DELETED"

	// Maintenance events
	UsageRecalculated EventType = "USAGE_RECALCULATED"
	BackupCompleted   EventType = "BACKUP_COMPLETED"

	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
}

// MarshalJSON encodes Data through its concrete type
func (e *Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON decodes Data into the type registered for the event type
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		e.Data = nil
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case FormationChanged:
		eventData = &FormationChangedData{}
	case DailyCheckCompleted:
		eventData = &DailyCheckCompletedData{}
	case BudgetUpdated:
		eventData = &BudgetUpdatedData{}
	case SettingsChanged:
		eventData = &SettingsChangedData{}
	case HoldingsReplaced:
		eventData = &HoldingsReplacedData{}
	case HoldingDeleted:
		eventData = &HoldingDeletedData{}
	case UsageRecalculated:
		eventData = &UsageRecalculatedData{}
	case BackupCompleted:
		eventData = &BackupCompletedData{}
	case ErrorOccurred:
		eventData = &ErrorEventData{}
	default:
		eventData = &GenericEventData{Type: aux.Type}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}
