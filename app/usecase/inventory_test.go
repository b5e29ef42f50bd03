package usecase

import (
	"context"
	"testing"

	"catalog-service/app/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryUsecase_ReduceStock(t *testing.T) {
	products := newMemoryProducts(map[string]int64{"1": 5, "2": 2})
	inventory := NewInventoryUsecase(products)
	ctx := context.Background()

	product, err := inventory.ReduceStock(ctx, domain.StockAdjustmentRequest{ProductID: "1", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), product.Stock)
	assert.Equal(t, int64(2), products.level("1"))

	tests := []struct {
		name    string
		req     domain.StockAdjustmentRequest
		wantErr error
	}{
		{"insufficient", domain.StockAdjustmentRequest{ProductID: "2", Quantity: 3}, domain.ErrStockInsufficient},
		{"unknown product", domain.StockAdjustmentRequest{ProductID: "9", Quantity: 1}, domain.ErrNotFound},
		{"zero quantity", domain.StockAdjustmentRequest{ProductID: "1", Quantity: 0}, domain.ErrValidation},
		{"negative quantity", domain.StockAdjustmentRequest{ProductID: "1", Quantity: -2}, domain.ErrValidation},
		{"missing id", domain.StockAdjustmentRequest{Quantity: 1}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inventory.ReduceStock(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, int64(2), products.level("2"))
}
