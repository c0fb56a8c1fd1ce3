package memory_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
	"github.com/vladislavdragonenkov/marketplace/internal/storage/memory"
)

func newProduct(stock int32) domain.Product {
	return domain.Product{
		ID:         "product-1",
		ShopID:     "shop-1",
		Name:       "Керамическая кружка",
		Price:      decimal.RequireFromString("12.50"),
		StockCount: stock,
		IsActive:   true,
	}
}

func TestCatalog_GetProduct(t *testing.T) {
	catalog := memory.NewCatalog()
	catalog.Put(newProduct(5))

	product, err := catalog.GetProduct("product-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product.StockCount != 5 {
		t.Fatalf("expected stock 5, got %d", product.StockCount)
	}

	if _, err := catalog.GetProduct("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalog_AdjustStockDecrement(t *testing.T) {
	catalog := memory.NewCatalog()
	catalog.Put(newProduct(5))

	if err := catalog.AdjustStock("product-1", 3, domain.StockDecrementIfSufficient); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}

	err := catalog.AdjustStock("product-1", 3, domain.StockDecrementIfSufficient)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	product, err := catalog.GetProduct("product-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product.StockCount != 2 {
		t.Fatalf("expected stock 2 after rejected decrement, got %d", product.StockCount)
	}
}

func TestCatalog_AdjustStockIncrement(t *testing.T) {
	catalog := memory.NewCatalog()
	catalog.Put(newProduct(1))

	if err := catalog.AdjustStock("product-1", 4, domain.StockIncrement); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	product, err := catalog.GetProduct("product-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product.StockCount != 5 {
		t.Fatalf("expected stock 5, got %d", product.StockCount)
	}
}

func TestCatalog_AdjustStockInvalidQty(t *testing.T) {
	catalog := memory.NewCatalog()
	catalog.Put(newProduct(5))

	if err := catalog.AdjustStock("product-1", 0, domain.StockDecrementIfSufficient); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCatalog_ConcurrentDecrement(t *testing.T) {
	catalog := memory.NewCatalog()
	catalog.Put(newProduct(50))

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := catalog.AdjustStock("product-1", 1, domain.StockDecrementIfSufficient); err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	if got := len(succeeded); got != 50 {
		t.Fatalf("expected exactly 50 successful decrements, got %d", got)
	}

	product, err := catalog.GetProduct("product-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product.StockCount != 0 {
		t.Fatalf("expected stock 0, got %d", product.StockCount)
	}
}
