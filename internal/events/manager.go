package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	now func() time.Time
	log zerolog.Logger
}

// NewManager creates a new event manager. A nil bus only logs.
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		now: func() time.Time { return time.Now().UTC() },
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the bus events are published on
func (m *Manager) Bus() *Bus {
	return m.bus
}

// Emit logs an event and publishes it on the bus
func (m *Manager) Emit(module string, data EventData) {
	event := &Event{
		Type:      data.EventType(),
		Timestamp: m.now(),
		Data:      data,
		Module:    module,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		m.log.Warn().Err(err).Str("event_type", string(event.Type)).Msg("Failed to encode event")
		eventJSON = []byte("{}")
	}
	m.log.Info().
		Str("event_type", string(event.Type)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	if m.bus != nil {
		m.bus.Publish(event)
	}
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.Emit(module, &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	})
}
