package orders

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
	"github.com/vladislavdragonenkov/marketplace/internal/storage/memory"
)

type fixture struct {
	svc     *Service
	orders  domain.OrderRepository
	catalog *memory.Catalog
	shops   *memory.ShopDirectory
	cart    *memory.CartStore
	outbox  domain.OutboxRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := memory.NewCatalog()
	shops := memory.NewShopDirectory()
	cart := memory.NewCartStore()
	ordersRepo := memory.NewOrderRepository()
	outbox := memory.NewOutboxRepository()

	shops.Put(domain.Shop{ID: "shop-1", OwnerID: "seller-1", Name: "Shop One", IsActive: true})
	catalog.Put(domain.Product{
		ID: "p1", ShopID: "shop-1", Name: "Widget",
		Price: decimal.RequireFromString("10.00"), StockCount: 10, IsActive: true,
	})
	catalog.Put(domain.Product{
		ID: "p2", ShopID: "shop-1", Name: "Gadget",
		Price: decimal.RequireFromString("3.50"), StockCount: 2, IsActive: true,
	})

	svc := NewServiceWithoutMetrics(ordersRepo, catalog, shops, cart,
		outbox, memory.NewTimelineRepository(), nil)

	return &fixture{svc: svc, orders: ordersRepo, catalog: catalog, shops: shops, cart: cart, outbox: outbox}
}

func (f *fixture) stock(t *testing.T, productID string) int32 {
	t.Helper()
	product, err := f.catalog.GetProduct(productID)
	require.NoError(t, err)
	return product.StockCount
}

func TestPlaceOrder_DecrementsStockAndComputesTotal(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 1},
	}, "address-1")
	require.NoError(t, err)

	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.True(t, order.Total.Equal(decimal.RequireFromString("23.50")), "total = %s", order.Total)
	require.Len(t, order.Items, 2)

	require.EqualValues(t, 8, f.stock(t, "p1"))
	require.EqualValues(t, 1, f.stock(t, "p2"))

	stored, err := f.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, stored.ID)
}

func TestPlaceOrder_InsufficientStockLeavesEverythingIntact(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{
		{ProductID: "p1", Qty: 1},
		{ProductID: "p2", Qty: 3},
	}, "address-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	require.EqualValues(t, 10, f.stock(t, "p1"))
	require.EqualValues(t, 2, f.stock(t, "p2"))

	list, err := f.orders.ListByBuyer("buyer-1", 0)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestPlaceOrder_DuplicateLinesAggregateAgainstStock(t *testing.T) {
	f := newFixture(t)

	// Две строки по одному товару суммарно превышают остаток,
	// хотя каждая по отдельности проходит.
	_, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{
		{ProductID: "p2", Qty: 1},
		{ProductID: "p2", Qty: 2},
	}, "address-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.EqualValues(t, 2, f.stock(t, "p2"))
}

func TestPlaceOrder_PriceCapturedAtPlacement(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{
		{ProductID: "p1", Qty: 1},
	}, "address-1")
	require.NoError(t, err)

	// Изменение цены в каталоге не влияет на уже оформленный заказ.
	f.catalog.Put(domain.Product{
		ID: "p1", ShopID: "shop-1", Name: "Widget",
		Price: decimal.RequireFromString("99.00"), StockCount: 9, IsActive: true,
	})

	stored, err := f.orders.Get(order.ID)
	require.NoError(t, err)
	require.True(t, stored.Total.Equal(decimal.RequireFromString("10.00")))
	require.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)
	one := []domain.CartItem{{ProductID: "p1", Qty: 1}}

	cases := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{"empty buyer", func() error {
			_, err := f.svc.PlaceOrder("", "shop-1", one, "address-1")
			return err
		}, domain.ErrInvalidRequest},
		{"empty address", func() error {
			_, err := f.svc.PlaceOrder("buyer-1", "shop-1", one, "")
			return err
		}, domain.ErrInvalidRequest},
		{"no items", func() error {
			_, err := f.svc.PlaceOrder("buyer-1", "shop-1", nil, "address-1")
			return err
		}, domain.ErrInvalidRequest},
		{"unknown shop", func() error {
			_, err := f.svc.PlaceOrder("buyer-1", "no-such-shop", one, "address-1")
			return err
		}, domain.ErrShopUnavailable},
		{"unknown product", func() error {
			_, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{{ProductID: "ghost", Qty: 1}}, "address-1")
			return err
		}, domain.ErrProductUnavailable},
		{"zero qty", func() error {
			_, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{{ProductID: "p1", Qty: 0}}, "address-1")
			return err
		}, domain.ErrInsufficientStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.run(), tc.wantErr)
		})
	}
}

func TestPlaceOrder_ProductFromAnotherShop(t *testing.T) {
	f := newFixture(t)
	f.shops.Put(domain.Shop{ID: "shop-2", OwnerID: "seller-2", Name: "Shop Two", IsActive: true})
	f.catalog.Put(domain.Product{
		ID: "foreign", ShopID: "shop-2", Name: "Foreign",
		Price: decimal.RequireFromString("1.00"), StockCount: 5, IsActive: true,
	})

	_, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{
		{ProductID: "p1", Qty: 1},
		{ProductID: "foreign", Qty: 1},
	}, "address-1")
	require.ErrorIs(t, err, domain.ErrProductNotInShop)
	require.EqualValues(t, 10, f.stock(t, "p1"))
}

func TestPlaceOrder_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	f.catalog.Put(domain.Product{
		ID: "p1", ShopID: "shop-1", Name: "Widget",
		Price: decimal.RequireFromString("10.00"), StockCount: 10, IsActive: false,
	})

	_, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{{ProductID: "p1", Qty: 1}}, "address-1")
	require.ErrorIs(t, err, domain.ErrProductUnavailable)
}

// flakyCatalog проходит валидацию, но роняет списание по заданному товару.
// Нужен, чтобы проверить компенсацию уже выполненных списаний.
type flakyCatalog struct {
	*memory.Catalog
	failDecrementFor string
}

func (f *flakyCatalog) AdjustStock(productID string, qty int32, mode domain.StockAdjustMode) error {
	if mode == domain.StockDecrementIfSufficient && productID == f.failDecrementFor {
		return fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, productID)
	}
	return f.Catalog.AdjustStock(productID, qty, mode)
}

func TestPlaceOrder_CompensatesPartialReservation(t *testing.T) {
	f := newFixture(t)
	catalog := &flakyCatalog{Catalog: f.catalog, failDecrementFor: "p2"}
	svc := NewServiceWithoutMetrics(f.orders, catalog, f.shops, f.cart,
		f.outbox, memory.NewTimelineRepository(), nil)

	_, err := svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{
		{ProductID: "p1", Qty: 4},
		{ProductID: "p2", Qty: 1},
	}, "address-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Списание по p1 прошло до сбоя на p2 и должно быть возвращено.
	require.EqualValues(t, 10, f.stock(t, "p1"))
	require.EqualValues(t, 2, f.stock(t, "p2"))
}

func TestPlaceOrder_EmitsOutboxEvent(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{{ProductID: "p1", Qty: 1}}, "address-1")
	require.NoError(t, err)

	pending, err := f.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, order.ID, pending[0].AggregateID)
}

func TestPlaceFromCart_SplitsByShop(t *testing.T) {
	f := newFixture(t)
	f.shops.Put(domain.Shop{ID: "shop-2", OwnerID: "seller-2", Name: "Shop Two", IsActive: true})
	f.catalog.Put(domain.Product{
		ID: "p3", ShopID: "shop-2", Name: "Trinket",
		Price: decimal.RequireFromString("5.00"), StockCount: 4, IsActive: true,
	})

	f.cart.SetItems("buyer-1", []domain.CartItem{
		{ProductID: "p1", Qty: 1},
		{ProductID: "p3", Qty: 2},
	})

	placed, err := f.svc.PlaceFromCart("buyer-1", "address-1")
	require.NoError(t, err)
	require.Len(t, placed, 2)
	require.Equal(t, "shop-1", placed[0].ShopID)
	require.Equal(t, "shop-2", placed[1].ShopID)
	require.True(t, placed[1].Total.Equal(decimal.RequireFromString("10.00")))

	items, err := f.cart.Items("buyer-1")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestPlaceFromCart_PartialFailureKeepsPlacedOrdersAndCart(t *testing.T) {
	f := newFixture(t)
	f.shops.Put(domain.Shop{ID: "shop-2", OwnerID: "seller-2", Name: "Shop Two", IsActive: true})
	f.catalog.Put(domain.Product{
		ID: "p3", ShopID: "shop-2", Name: "Trinket",
		Price: decimal.RequireFromString("5.00"), StockCount: 1, IsActive: true,
	})

	f.cart.SetItems("buyer-1", []domain.CartItem{
		{ProductID: "p1", Qty: 1},
		{ProductID: "p3", Qty: 5},
	})

	placed, err := f.svc.PlaceFromCart("buyer-1", "address-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	require.Len(t, placed, 1)
	require.Equal(t, "shop-1", placed[0].ShopID)

	// Корзина не очищается при частичном сбое.
	items, cartErr := f.cart.Items("buyer-1")
	require.NoError(t, cartErr)
	require.Len(t, items, 2)
}

func TestPlaceFromCart_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceFromCart("buyer-1", "address-1")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}
