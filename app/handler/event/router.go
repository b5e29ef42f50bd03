package event

import (
	"context"
	"fmt"

	"catalog-service/app/domain"
	"catalog-service/app/repository/broker"
)

// Subscriber attaches a handler to an inbound routing key.
type Subscriber interface {
	Subscribe(key string, h broker.Handler) error
}

// SetupRouter subscribes a handler for every inbound key. Keys without a
// dedicated reaction go to observe.
func SetupRouter(sub Subscriber, stock domain.StockService, observe broker.Handler) error {
	routes := map[string]broker.Handler{
		domain.EventOrderCreated: OrderCreated(stock),
	}

	for _, key := range broker.InboundKeys {
		h, ok := routes[key]
		if !ok {
			h = observe
		}
		if err := sub.Subscribe(key, h); err != nil {
			return fmt.Errorf("subscribe %s: %w", key, err)
		}
	}
	return nil
}

func OrderCreated(stock domain.StockService) broker.Handler {
	return func(ctx context.Context, ev domain.Event) error {
		order, ok := ev.(domain.OrderCreated)
		if !ok {
			return fmt.Errorf("%w: unexpected %T on %s", domain.ErrInternal, ev, domain.EventOrderCreated)
		}
		return stock.HandleOrderCreated(ctx, order)
	}
}
