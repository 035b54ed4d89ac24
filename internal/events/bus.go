// Package events provides an in-process publish/subscribe hub for system
// events. Services publish after state changes; the SSE stream handler
// subscribes per connection so the dashboard updates without polling.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a category of system event
type EventType string

const (
	PriceUpdated        EventType = "price_updated"
	RatesUpdated        EventType = "rates_updated"
	TransactionRecorded EventType = "transaction_recorded"
	TransactionDeleted  EventType = "transaction_deleted"
	TransactionRestored EventType = "transaction_restored"
	SnapshotRecorded    EventType = "snapshot_recorded"
	HoldingChanged      EventType = "holding_changed"
	NetWorthCalculated  EventType = "networth_calculated"
	BudgetPeriodCreated EventType = "budget_period_created"
	AnomaliesDetected   EventType = "anomalies_detected"
	SettingsChanged     EventType = "settings_changed"
	JobStarted          EventType = "job_started"
	JobCompleted        EventType = "job_completed"
	JobFailed           EventType = "job_failed"
	ErrorOccurred       EventType = "error_occurred"
)

// Event is a single published occurrence
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Type      EventType   `json:"type"`
	Module    string      `json:"module"`
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block.
type Handler func(*Event)

// Bus fans events out to subscribers by type
type Bus struct {
	subs   map[EventType]map[int]Handler
	log    zerolog.Logger
	mu     sync.RWMutex
	nextID int
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[EventType]map[int]Handler),
		log:  log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for one event type and returns a function
// that removes the subscription. Stream handlers must call it on disconnect
// or the handler leaks.
func (b *Bus) Subscribe(t EventType, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[t] == nil {
		b.subs[t] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[t][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[t], id)
	}
}

// Publish delivers an event to every handler subscribed to its type
func (b *Bus) Publish(t EventType, module string, data interface{}) {
	event := &Event{
		Type:      t,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[t]))
	for _, h := range b.subs[t] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}

	if len(handlers) > 0 {
		b.log.Debug().
			Str("type", string(t)).
			Str("module", module).
			Int("handlers", len(handlers)).
			Msg("Event published")
	}
}
