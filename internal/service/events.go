package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of a lifecycle event.
type EventType string

const (
	EventPaymentAdded      EventType = "payment_added"
	EventPaymentCompleted  EventType = "payment_completed"
	EventPaymentSuccessful EventType = "payment_successful"
	EventPaymentError      EventType = "payment_error"
	EventDeliveryError     EventType = "delivery_error"
)

// Event is an append-only lifecycle notice consumed by external
// auditing and observability collaborators.
type Event struct {
	ID        string
	Type      EventType
	UserID    int
	OrderID   string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

// EventSink publishes lifecycle events. Implementations must be safe for
// concurrent use; publishing failures never abort the payment flow.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// LogEventSink writes events to the process log.
type LogEventSink struct{}

// NewLogEventSink creates a new LogEventSink.
func NewLogEventSink() *LogEventSink {
	return &LogEventSink{}
}

// Publish logs the event.
func (s *LogEventSink) Publish(ctx context.Context, event Event) error {
	log.Printf("[EVENT] Type=%s, OrderID=%s, UserID=%d, Message=%s",
		event.Type, event.OrderID, event.UserID, event.Message)

	return nil
}

// newEvent builds an event with id and timestamp set.
func newEvent(eventType EventType, userID int, orderID, message string, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		UserID:    userID,
		OrderID:   orderID,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now(),
	}
}
