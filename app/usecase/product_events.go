package usecase

import (
	"context"
	"log/slog"
	"time"

	"catalog-service/app/domain"
	"catalog-service/config"
)

type productEvents struct {
	publisher domain.EventPublisher
	source    string
	now       func() time.Time
}

func NewProductEvents(publisher domain.EventPublisher, cfg *config.Config) domain.ProductEventPublisher {
	return &productEvents{
		publisher: publisher,
		source:    cfg.ServiceName,
		now:       time.Now,
	}
}

// Publish wraps payload in a DomainEvent and routes it by eventName.
func (u *productEvents) Publish(ctx context.Context, eventName string, payload any) error {
	event, err := domain.NewDomainEvent(eventName, u.source, payload, u.now())
	if err != nil {
		slog.ErrorContext(ctx, "[productEvents] Publish", "newDomainEvent", err)
		return err
	}
	return u.publisher.Publish(ctx, eventName, event)
}

func (u *productEvents) ProductCreated(ctx context.Context, product domain.Product) error {
	return u.Publish(ctx, domain.EventProductCreated, product)
}

func (u *productEvents) ProductUpdated(ctx context.Context, product domain.Product) error {
	return u.Publish(ctx, domain.EventProductUpdated, product)
}

func (u *productEvents) ProductDeleted(ctx context.Context, productID string) error {
	return u.Publish(ctx, domain.EventProductDeleted, domain.ProductDeleted{ProductID: domain.ID(productID)})
}

func (u *productEvents) StockUpdated(ctx context.Context, productID string, newStock int64) error {
	return u.Publish(ctx, domain.EventStockUpdated, domain.StockUpdated{ProductID: productID, NewStock: newStock})
}
