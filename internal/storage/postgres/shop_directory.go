package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

type shopDirectory struct {
	db *sql.DB
}

// NewShopDirectory создаёт PostgreSQL-реализацию справочника магазинов.
func NewShopDirectory(store *Store) domain.ShopDirectory {
	return &shopDirectory{db: store.DB()}
}

func (d *shopDirectory) GetShop(id string) (domain.Shop, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var shop domain.Shop
	err := d.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, is_active
		FROM shops
		WHERE id = $1
	`, id).Scan(&shop.ID, &shop.OwnerID, &shop.Name, &shop.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Shop{}, domain.ErrShopNotFound
		}
		return domain.Shop{}, fmt.Errorf("select shop: %w", err)
	}

	return shop, nil
}

var _ domain.ShopDirectory = (*shopDirectory)(nil)
