package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

type catalog struct {
	db *sql.DB
}

// NewCatalog создаёт PostgreSQL-реализацию каталога товаров.
func NewCatalog(store *Store) domain.Catalog {
	return &catalog{db: store.DB()}
}

func (c *catalog) GetProduct(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		product domain.Product
		price   string
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, shop_id, name, price, stock_count, is_active
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.ShopID, &product.Name, &price, &product.StockCount, &product.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse product price: %w", err)
	}
	product.Price = parsed

	return product, nil
}

// AdjustStock изменяет остаток товара одним условным UPDATE, поэтому
// конкурентные списания не могут увести остаток в минус.
func (c *catalog) AdjustStock(id string, qty int32, mode domain.StockAdjustMode) error {
	if qty <= 0 {
		return domain.ErrInvalidRequest
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		res sql.Result
		err error
	)
	switch mode {
	case domain.StockDecrementIfSufficient:
		res, err = c.db.ExecContext(ctx, `
			UPDATE products
			SET stock_count = stock_count - $2
			WHERE id = $1
			  AND stock_count >= $2
		`, id, qty)
	case domain.StockIncrement:
		res, err = c.db.ExecContext(ctx, `
			UPDATE products
			SET stock_count = stock_count + $2
			WHERE id = $1
		`, id, qty)
	default:
		return domain.ErrInvalidRequest
	}
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := c.productExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrProductNotFound
		}
		return domain.ErrInsufficientStock
	}

	return nil
}

func (c *catalog) productExists(ctx context.Context, id string) (bool, error) {
	var found string
	err := c.db.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check product exists: %w", err)
}

var _ domain.Catalog = (*catalog)(nil)
