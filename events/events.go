package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEarningRecorded EventType = "earning_recorded"
	EventTypeBatchCreated    EventType = "batch_created"
	EventTypeBatchProcessed  EventType = "batch_processed"
	EventTypeBatchFailed     EventType = "batch_failed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EarningRecordedEvent represents a revenue record written for a
// completed order
type EarningRecordedEvent struct {
	ShopID           int64
	OrderID          string
	TotalAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	ShopEarning      decimal.Decimal
}

func (e EarningRecordedEvent) Type() EventType {
	return EventTypeEarningRecorded
}

// BatchCreatedEvent represents a payment batch aggregated from unpaid
// revenue records
type BatchCreatedEvent struct {
	BatchID     string
	StartDate   time.Time
	EndDate     time.Time
	TotalShops  int
	TotalAmount decimal.Decimal
}

func (e BatchCreatedEvent) Type() EventType {
	return EventTypeBatchCreated
}

// BatchProcessedEvent represents a batch that completed settlement
type BatchProcessedEvent struct {
	BatchID        string
	PaymentID      string
	RecordsUpdated int
	TotalAmount    decimal.Decimal
}

func (e BatchProcessedEvent) Type() EventType {
	return EventTypeBatchProcessed
}

// BatchFailedEvent represents a batch whose settlement run was aborted
type BatchFailedEvent struct {
	BatchID string
	Reason  string
}

func (e BatchFailedEvent) Type() EventType {
	return EventTypeBatchFailed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so a slow subscriber cannot block the caller.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and
// flushes them to the real bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit; uses
// a background context because the transaction context may already be
// done by the time subscribers run.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
