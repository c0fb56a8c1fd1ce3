package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

type cartSource struct {
	db *sql.DB
}

// NewCartSource создаёт PostgreSQL-реализацию источника корзины.
func NewCartSource(store *Store) domain.CartSource {
	return &cartSource{db: store.DB()}
}

func (s *cartSource) Items(buyerID string) ([]domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, qty
		FROM cart_items
		WHERE buyer_id = $1
		ORDER BY added_at ASC, product_id ASC
	`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Qty); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

func (s *cartSource) Clear(buyerID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE buyer_id = $1`, buyerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return nil
}

var _ domain.CartSource = (*cartSource)(nil)
