package domain

import "github.com/shopspring/decimal"

// Product — read-модель товара из каталога. Движок заказов читает её и
// меняет только stock_count, и только через Catalog.AdjustStock.
type Product struct {
	ID         string
	ShopID     string
	Name       string
	Price      decimal.Decimal
	StockCount int32
	IsActive   bool
}

// Shop — read-модель магазина: активность и владелец.
type Shop struct {
	ID       string
	OwnerID  string
	Name     string
	IsActive bool
}

// CartItem — позиция корзины покупателя: вход для оформления заказа.
type CartItem struct {
	ProductID string
	Qty       int32
}

// StockAdjustMode задаёт режим атомарной корректировки остатка.
type StockAdjustMode string

const (
	// StockDecrementIfSufficient уменьшает остаток на qty, только если его хватает.
	// Проверка и запись выполняются как одна атомарная операция хранилища.
	StockDecrementIfSufficient StockAdjustMode = "decrement_if_sufficient"
	// StockIncrement увеличивает остаток на qty (компенсация при отмене).
	StockIncrement StockAdjustMode = "increment"
)

// Catalog описывает доступ к каталогу товаров.
type Catalog interface {
	// GetProduct возвращает товар или ErrProductNotFound.
	GetProduct(id string) (Product, error)
	// AdjustStock атомарно корректирует остаток товара.
	// Для StockDecrementIfSufficient возвращает ErrInsufficientStock,
	// если остатка не хватает; ErrProductNotFound — если товара нет.
	AdjustStock(id string, qty int32, mode StockAdjustMode) error
}

// ShopDirectory описывает доступ к справочнику магазинов.
type ShopDirectory interface {
	// GetShop возвращает магазин или ErrShopNotFound.
	GetShop(id string) (Shop, error)
}

// CartSource отдаёт текущие позиции корзины покупателя.
// Корзиной управляет внешний сервис; движок только читает её при чекауте.
type CartSource interface {
	Items(buyerID string) ([]CartItem, error)
	Clear(buyerID string) error
}
