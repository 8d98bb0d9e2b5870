// Package hooks dispatches conversation lifecycle events to observers such
// as the terminal renderer and the turn journal.
package hooks

import (
	"context"
	"sync"

	"github.com/soyeahso/sumai/internal/logging"
)

// Event names emitted by the conversation controller.
const (
	EventTurnStarted       = "turn_started"
	EventTurnCompleted     = "turn_completed"
	EventTurnFailed        = "turn_failed"
	EventTurnDiscarded     = "turn_discarded"
	EventSessionAssigned   = "session_assigned"
	EventConversationReset = "conversation_reset"
	EventStatsUpdated      = "stats_updated"
	EventNotice            = "notice"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventTurnStarted,
	EventTurnCompleted,
	EventTurnFailed,
	EventTurnDiscarded,
	EventSessionAssigned,
	EventConversationReset,
	EventStatsUpdated,
	EventNotice,
}

// Payload carries event data to handlers. Generation is the conversation
// generation the event belongs to.
type Payload struct {
	Event      string         `json:"event"`
	Generation uint64         `json:"generation"`
	Data       map[string]any `json:"data,omitempty"`
}

// String returns a data field as a string, or "" if missing.
func (p Payload) String(key string) string {
	s, _ := p.Data[key].(string)
	return s
}

// Handler handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and Off.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// OnAll registers one handler for every known event.
func (m *Manager) OnAll(name string, handler Handler) {
	for _, event := range AllEvents {
		m.On(event, name, handler)
	}
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := m.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	m.handlers[event] = filtered
}

// Emit dispatches an event to all registered handlers synchronously, in
// registration order. Errors are logged and do not stop later handlers.
// A nil Manager drops the event.
func (m *Manager) Emit(ctx context.Context, p Payload) {
	if m == nil {
		return
	}

	m.mu.RLock()
	handlers := make([]namedHandler, len(m.handlers[p.Event]))
	copy(handlers, m.handlers[p.Event])
	m.mu.RUnlock()

	for _, h := range handlers {
		if err := h.handler(ctx, p); err != nil {
			m.log.Warn().
				Err(err).
				Str("event", p.Event).
				Str("handler", h.name).
				Msg("hook handler error")
		}
	}
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}
