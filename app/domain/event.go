package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventProductCreated     = "product.created"
	EventProductUpdated     = "product.updated"
	EventProductDeleted     = "product.deleted"
	EventStockUpdated       = "product.stock.updated"
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderDeleted       = "order.deleted"
	EventOrderStatusChanged = "order.status.changed"
	EventClientCreated      = "client.created"
	EventClientUpdated      = "client.updated"
	EventClientDeleted      = "client.deleted"
)

// DomainEvent is the wire envelope for everything this service publishes.
type DomainEvent struct {
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
}

func NewDomainEvent(eventType, source string, payload any, at time.Time) (DomainEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return DomainEvent{
		Type:          eventType,
		Payload:       raw,
		Timestamp:     at.UTC(),
		SourceService: source,
	}, nil
}

// Event is implemented by every typed inbound event.
type Event interface {
	EventType() string
}

// ID accepts both JSON strings and numbers. Other services are not
// consistent about the id type they send.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type ProductSnapshot struct {
	ID    ID      `json:"id" validate:"required"`
	Name  string  `json:"nom"`
	Price float64 `json:"prix"`
	Stock int64   `json:"stock"`
}

type ProductCreated struct {
	ProductSnapshot
}

func (ProductCreated) EventType() string { return EventProductCreated }

type ProductUpdated struct {
	ProductSnapshot
}

func (ProductUpdated) EventType() string { return EventProductUpdated }

type ProductDeleted struct {
	ProductID ID `json:"productId" validate:"required"`
}

func (ProductDeleted) EventType() string { return EventProductDeleted }

type StockUpdated struct {
	ProductID string `json:"productId"`
	NewStock  int64  `json:"newStock"`
}

func (StockUpdated) EventType() string { return EventStockUpdated }

type OrderLine struct {
	ProductID ID    `json:"id_prod" validate:"required"`
	Quantity  int64 `json:"quantite" validate:"gt=0"`
}

type OrderCreated struct {
	OrderID ID          `json:"orderId" validate:"required"`
	Lines   []OrderLine `json:"produits" validate:"required,min=1,dive"`
}

func (OrderCreated) EventType() string { return EventOrderCreated }

type OrderSnapshot struct {
	OrderID ID          `json:"orderId" validate:"required"`
	Status  string      `json:"status,omitempty"`
	Lines   []OrderLine `json:"produits,omitempty" validate:"omitempty,dive"`
}

type OrderUpdated struct {
	OrderSnapshot
}

func (OrderUpdated) EventType() string { return EventOrderUpdated }

type OrderDeleted struct {
	OrderSnapshot
}

func (OrderDeleted) EventType() string { return EventOrderDeleted }

type OrderStatusChanged struct {
	OrderID ID     `json:"orderId" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

func (OrderStatusChanged) EventType() string { return EventOrderStatusChanged }

type ClientSnapshot struct {
	ID    ID     `json:"id" validate:"required"`
	Name  string `json:"nom,omitempty"`
	Email string `json:"email,omitempty"`
}

type ClientCreated struct {
	ClientSnapshot
}

func (ClientCreated) EventType() string { return EventClientCreated }

type ClientUpdated struct {
	ClientSnapshot
}

func (ClientUpdated) EventType() string { return EventClientUpdated }

type ClientDeleted struct {
	ClientSnapshot
}

func (ClientDeleted) EventType() string { return EventClientDeleted }

// InboundMessage is what the consumer hands to logging and metrics for one
// delivery. The broker owns it until it is acked or nacked.
type InboundMessage struct {
	DeliveryTag uint64
	Body        []byte
	Queue       string
}
