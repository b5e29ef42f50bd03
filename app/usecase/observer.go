package usecase

import (
	"context"
	"log/slog"

	"catalog-service/app/domain"
)

// Observer records events this service listens to but does not act on yet.
type Observer struct{}

func NewObserver() *Observer {
	return &Observer{}
}

func (o *Observer) Observe(ctx context.Context, ev domain.Event) error {
	attrs := []any{"event", ev.EventType()}

	switch e := ev.(type) {
	case domain.ProductCreated:
		attrs = append(attrs, "productID", e.ID, "stock", e.Stock)
	case domain.ProductUpdated:
		attrs = append(attrs, "productID", e.ID, "stock", e.Stock)
	case domain.ProductDeleted:
		attrs = append(attrs, "productID", e.ProductID)
	case domain.OrderUpdated:
		attrs = append(attrs, "orderID", e.OrderID, "status", e.Status)
	case domain.OrderDeleted:
		attrs = append(attrs, "orderID", e.OrderID)
	case domain.OrderStatusChanged:
		attrs = append(attrs, "orderID", e.OrderID, "status", e.Status)
	case domain.ClientCreated:
		attrs = append(attrs, "clientID", e.ID)
	case domain.ClientUpdated:
		attrs = append(attrs, "clientID", e.ID)
	case domain.ClientDeleted:
		attrs = append(attrs, "clientID", e.ID)
	}

	slog.InfoContext(ctx, "[Observer] Observe", attrs...)
	return nil
}
