package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"catalog-service/app/domain"
	"catalog-service/pkg/metrics"
)

const stockMirrorLabel = "stock.available"

type stockUsecase struct {
	inventory     domain.InventoryService
	events        domain.ProductEventPublisher
	stockNotifier domain.StockNotifier
	metrics       *metrics.Metrics
}

func NewStockUsecase(inventory domain.InventoryService, events domain.ProductEventPublisher, stockNotifier domain.StockNotifier, m *metrics.Metrics) domain.StockService {
	return &stockUsecase{inventory, events, stockNotifier, m}
}

// HandleOrderCreated reduces stock line by line and stops at the first
// failure. Lines applied before the failure are not rolled back.
func (u *stockUsecase) HandleOrderCreated(ctx context.Context, order domain.OrderCreated) error {
	for i, line := range order.Lines {
		product, err := u.inventory.ReduceStock(ctx, domain.StockAdjustmentRequest{
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
		})
		if err != nil {
			slog.ErrorContext(ctx, "[stockUsecase] HandleOrderCreated",
				"orderID", order.OrderID,
				"line", i,
				"productID", line.ProductID,
				"reduceStock", err)
			return fmt.Errorf("order %s line %d: %w", order.OrderID, i, err)
		}

		u.notifyStock(ctx, product)
	}

	slog.InfoContext(ctx, "[stockUsecase] HandleOrderCreated", "orderID", order.OrderID, "lines", len(order.Lines))
	return nil
}

func (u *stockUsecase) notifyStock(ctx context.Context, product domain.Product) {
	if err := u.events.StockUpdated(ctx, product.ID, product.Stock); err != nil {
		slog.WarnContext(ctx, "[stockUsecase] HandleOrderCreated", "publishStockUpdated", err)
	}

	err := u.stockNotifier.PublishStockAvailable(ctx, domain.StockMessage{
		ProductID: product.ID,
		Available: product.Stock,
	})
	if err != nil {
		u.metrics.MessageFailed(stockMirrorLabel, metrics.KindNotify)
		slog.WarnContext(ctx, "[stockUsecase] HandleOrderCreated", "publishStockAvailable", err)
	}
}
