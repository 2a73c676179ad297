package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/satellite/internal/events"
)

const (
	streamBufferSize  = 100
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 5 * time.Second
)

// StreamMessage is one frame sent over the events websocket
type StreamMessage struct {
	Timestamp time.Time        `json:"timestamp"`
	Data      events.EventData `json:"data,omitempty"`
	Type      string           `json:"type"`
	Module    string           `json:"module,omitempty"`
}

// EventsStreamHandler streams bus events to websocket clients
type EventsStreamHandler struct {
	bus       *events.Bus
	heartbeat time.Duration
	log       zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus:       bus,
		heartbeat: heartbeatInterval,
		log:       log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws. The optional types query parameter
// is a comma-separated event type filter.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	var allowed map[events.EventType]bool
	if filter := r.URL.Query().Get("types"); filter != "" {
		allowed = make(map[events.EventType]bool)
		for _, t := range strings.Split(filter, ",") {
			allowed[events.EventType(strings.TrimSpace(t))] = true
		}
	}

	eventChan := make(chan *events.Event, streamBufferSize)
	id := h.bus.SubscribeAll(func(event *events.Event) {
		if allowed != nil && !allowed[event.Type] {
			return
		}
		// Non-blocking send (drop if channel full)
		select {
		case eventChan <- event:
		default:
			h.log.Warn().Str("event_type", string(event.Type)).Msg("Event channel full, dropping event")
		}
	})
	defer h.bus.Unsubscribe(id)

	// clients only listen; CloseRead handles their control frames
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Int("filters", len(allowed)).Msg("Client connected to event stream")

	if err := h.write(ctx, conn, StreamMessage{Type: "connected", Timestamp: time.Now().UTC()}); err != nil {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			msg := StreamMessage{
				Type:      string(event.Type),
				Module:    event.Module,
				Timestamp: event.Timestamp,
				Data:      event.Data,
			}
			if err := h.write(ctx, conn, msg); err != nil {
				return
			}

		case <-heartbeat.C:
			if err := h.write(ctx, conn, StreamMessage{Type: "heartbeat", Timestamp: time.Now().UTC()}); err != nil {
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.log.Debug().Err(err).Str("type", msg.Type).Msg("Failed to write to event stream")
		return err
	}
	return nil
}
