package domain

import "context"

// EventPublisher sends a domain event to the route registered under key.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event DomainEvent) error
}

type StockMessage struct {
	ProductID string `json:"product_id"`
	Available int64  `json:"available"`
}

// StockNotifier mirrors stock levels to consumers outside the AMQP topology.
type StockNotifier interface {
	PublishStockAvailable(ctx context.Context, data StockMessage) error
}

// ProductEventPublisher is what product controllers call after a write.
type ProductEventPublisher interface {
	Publish(ctx context.Context, eventName string, payload any) error
	ProductCreated(ctx context.Context, product Product) error
	ProductUpdated(ctx context.Context, product Product) error
	ProductDeleted(ctx context.Context, productID string) error
	StockUpdated(ctx context.Context, productID string, newStock int64) error
}
