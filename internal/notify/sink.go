// Package notify is the fire-and-forget channel for user-visible cart
// warnings. Producers publish and move on; delivery failures never affect the
// operation that raised the warning.
package notify

import (
	"io"
	"log"

	"github.com/asaskevich/EventBus"
)

// Kind classifies a notification for the UI layer.
type Kind string

const (
	KindCappedToStock    Kind = "capped_to_stock"
	KindOutOfStock       Kind = "out_of_stock"
	KindAdjusted         Kind = "adjusted_due_to_stock"
	KindCheckoutRejected Kind = "checkout_rejected"
)

const topic = "cart:notifications"

// Notification is one user-visible warning or error.
type Notification struct {
	Kind    Kind
	Message string
	ItemIDs []string
}

// Sink fans notifications out to subscribers over an in-process event bus.
type Sink struct {
	bus    EventBus.Bus
	logger *log.Logger
}

func NewSink(logger *log.Logger) *Sink {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Sink{bus: EventBus.New(), logger: logger}
}

// Publish delivers the notification to current subscribers. Fire and forget.
func (s *Sink) Publish(n Notification) {
	s.logger.Printf("notify: kind=%s items=%d msg=%s", n.Kind, len(n.ItemIDs), n.Message)
	s.bus.Publish(topic, n)
}

// Subscribe registers a handler for all notifications.
func (s *Sink) Subscribe(fn func(Notification)) error {
	return s.bus.Subscribe(topic, fn)
}

// Unsubscribe removes a previously registered handler.
func (s *Sink) Unsubscribe(fn func(Notification)) error {
	return s.bus.Unsubscribe(topic, fn)
}
