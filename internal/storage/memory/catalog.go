package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// Catalog — in-memory каталог товаров. Изменение остатков выполняется
// атомарно под мьютексом, чтобы не допустить ухода остатка в минус
// при конкурентных списаниях.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewCatalog создаёт пустой каталог.
func NewCatalog() *Catalog {
	return &Catalog{
		products: make(map[string]domain.Product),
	}
}

// Put добавляет или заменяет товар в каталоге.
func (c *Catalog) Put(product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = product
}

// GetProduct возвращает товар или ErrProductNotFound.
func (c *Catalog) GetProduct(id string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// AdjustStock изменяет остаток товара. В режиме StockDecrementIfSufficient
// списание выполняется только если остатка хватает, иначе возвращается
// ErrInsufficientStock без изменения состояния.
func (c *Catalog) AdjustStock(id string, qty int32, mode domain.StockAdjustMode) error {
	if qty <= 0 {
		return domain.ErrInvalidRequest
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	product, ok := c.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}

	switch mode {
	case domain.StockDecrementIfSufficient:
		if product.StockCount < qty {
			return domain.ErrInsufficientStock
		}
		product.StockCount -= qty
	case domain.StockIncrement:
		product.StockCount += qty
	default:
		return domain.ErrInvalidRequest
	}

	c.products[id] = product
	return nil
}

var _ domain.Catalog = (*Catalog)(nil)
