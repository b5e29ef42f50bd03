package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"catalog-service/app/domain"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type productRepository struct {
	conn Querier
}

func NewProductRepository(conn Querier) domain.ProductRepository {
	return &productRepository{conn}
}

const productColumns = `id, nom, description, prix, stock, photo_url, created_at, updated_at`

func (r *productRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	pid, err := parseProductID(id)
	if err != nil {
		return domain.Product{}, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.conn.QueryRow(ctx, query, pid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
		}
		slog.ErrorContext(ctx, "[productRepository] GetByID", "scan", err)
		return domain.Product{}, err
	}

	return product, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, id string, quantity int64) (domain.Product, error) {
	pid, err := parseProductID(id)
	if err != nil {
		return domain.Product{}, err
	}

	query := `UPDATE products SET stock = stock - $2, updated_at = now()
	WHERE id = $1 AND stock >= $2
	RETURNING ` + productColumns

	product, err := scanProduct(r.conn.QueryRow(ctx, query, pid, quantity))
	if err == nil {
		slog.InfoContext(ctx, "[productRepository] DecrementStock", "productID", id, "quantity", quantity, "stock", product.Stock)
		return product, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		slog.ErrorContext(ctx, "[productRepository] DecrementStock", "update", err)
		return domain.Product{}, err
	}

	// Nothing updated: the product is missing or has too little stock.
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{}, fmt.Errorf("%w: product %s has %d, requested %d",
		domain.ErrStockInsufficient, id, current.Stock, quantity)
}

func parseProductID(id string) (int64, error) {
	pid, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: product %q", domain.ErrNotFound, id)
	}
	return pid, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p  domain.Product
		id int64
	)
	if err := row.Scan(&id, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.PhotoURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	p.ID = strconv.FormatInt(id, 10)
	return p, nil
}
