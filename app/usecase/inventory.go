package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"catalog-service/app/domain"
)

type inventoryUsecase struct {
	productRepo domain.ProductRepository
}

func NewInventoryUsecase(productRepo domain.ProductRepository) domain.InventoryService {
	return &inventoryUsecase{productRepo}
}

func (u *inventoryUsecase) ReduceStock(ctx context.Context, req domain.StockAdjustmentRequest) (domain.Product, error) {
	if req.ProductID == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	if req.Quantity <= 0 {
		return domain.Product{}, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrValidation, req.Quantity)
	}

	product, err := u.productRepo.DecrementStock(ctx, req.ProductID, req.Quantity)
	if err != nil {
		slog.ErrorContext(ctx, "[inventoryUsecase] ReduceStock", "decrementStock", err)
		return domain.Product{}, err
	}

	return product, nil
}
