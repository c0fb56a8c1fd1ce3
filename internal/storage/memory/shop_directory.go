package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// ShopDirectory — in-memory справочник магазинов.
type ShopDirectory struct {
	mu    sync.RWMutex
	shops map[string]domain.Shop
}

// NewShopDirectory создаёт пустой справочник.
func NewShopDirectory() *ShopDirectory {
	return &ShopDirectory{
		shops: make(map[string]domain.Shop),
	}
}

// Put добавляет или заменяет магазин.
func (d *ShopDirectory) Put(shop domain.Shop) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shops[shop.ID] = shop
}

// GetShop возвращает магазин или ErrShopNotFound.
func (d *ShopDirectory) GetShop(id string) (domain.Shop, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	shop, ok := d.shops[id]
	if !ok {
		return domain.Shop{}, domain.ErrShopNotFound
	}
	return shop, nil
}

var _ domain.ShopDirectory = (*ShopDirectory)(nil)
