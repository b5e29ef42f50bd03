package domain

import (
	"context"
	"time"
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"nom"`
	Description *string   `json:"description"`
	Price       float64   `json:"prix"`
	Stock       int64     `json:"stock"`
	PhotoURL    *string   `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockAdjustmentRequest is derived from one order line and never persisted.
type StockAdjustmentRequest struct {
	ProductID string
	Quantity  int64
}

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (Product, error)
	// DecrementStock subtracts quantity only when enough stock is left.
	// It returns ErrNotFound or ErrStockInsufficient otherwise.
	DecrementStock(ctx context.Context, id string, quantity int64) (Product, error)
}

// InventoryService is the collaborator the stock reaction calls into.
type InventoryService interface {
	ReduceStock(ctx context.Context, req StockAdjustmentRequest) (Product, error)
}

// StockService applies the stock side effects of orders placed elsewhere.
type StockService interface {
	HandleOrderCreated(ctx context.Context, order OrderCreated) error
}
