package order

import (
	"time"

	"github.com/nrbrt02/fast-shopping/internal/entity"
)

// Event types published on the orders topic.
const (
	EventOrderCreated   = "order.created"
	EventOrderConverted = "order.converted"
)

// EventEnvelope is the part of every order event needed to dispatch it.
type EventEnvelope struct {
	Type string `json:"type"`
}

// OrderCreatedEvent is emitted when a new draft order is persisted.
type OrderCreatedEvent struct {
	Type        string    `json:"type"`
	EventID     string    `json:"event_id"`
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	Status      string    `json:"status"`
	CustomerID  int64     `json:"customer_id"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderConvertedEvent is emitted after a draft becomes a standing order.
type OrderConvertedEvent struct {
	Type        string    `json:"type"`
	EventID     string    `json:"event_id"`
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	DraftNumber string    `json:"draft_number"`
	Status      string    `json:"status"`
	CustomerID  int64     `json:"customer_id"`
	TotalAmount string    `json:"total_amount"`
	ConvertedAt time.Time `json:"converted_at"`
}

func newOrderCreatedEvent(eventID string, o *entity.Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		Type:        EventOrderCreated,
		EventID:     eventID,
		ID:          o.ID,
		Number:      o.Number,
		Status:      string(o.Status),
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		CreatedAt:   o.CreatedAt,
	}
}

func newOrderConvertedEvent(eventID string, o *entity.Order, draftNumber string) OrderConvertedEvent {
	return OrderConvertedEvent{
		Type:        EventOrderConverted,
		EventID:     eventID,
		ID:          o.ID,
		Number:      o.Number,
		DraftNumber: draftNumber,
		Status:      string(o.Status),
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		ConvertedAt: o.UpdatedAt,
	}
}
