package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа на маркетплейсе.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, сток зарезервирован, ждёт подтверждения продавца.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — продавец подтвердил заказ.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен покупателю. Терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён, резерв стока возвращён. Терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// allowedNext задаёт граф допустимых переходов статуса.
// Терминальные статусы (delivered, cancelled) исходящих рёбер не имеют.
var allowedNext = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, является ли статус терминальным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo проверяет, разрешён ли переход из текущего статуса в target.
// Переход в тот же статус запрещён.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s == target {
		return false
	}
	for _, next := range allowedNext[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Role описывает отношение запрашивающего пользователя к заказу.
type Role string

const (
	// RoleBuyer — пользователь разместил этот заказ.
	RoleBuyer Role = "buyer"
	// RoleSeller — пользователь владеет магазином, к которому привязан заказ.
	RoleSeller Role = "seller"
)

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — идентификатор товара в каталоге.
	ProductID string
	// Qty — количество единиц товара.
	Qty int32
	// UnitPrice — цена за единицу на момент оформления заказа.
	// Снимок неизменяем: дальнейшие изменения цены в каталоге на заказ не влияют.
	UnitPrice decimal.Decimal
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Subtotal возвращает qty * unit price для позиции.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Qty))
}

// Order агрегирует состояние заказа и его позиции.
// Заказ всегда привязан ровно к одному магазину; чекаут корзины с товарами
// нескольких магазинов порождает несколько заказов.
type Order struct {
	ID        string
	BuyerID   string
	ShopID    string
	Status    OrderStatus
	Items     []OrderItem
	Total     decimal.Decimal
	AddressID string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.BuyerID == "" {
		errs = append(errs, ErrBuyerRequired)
	}
	if o.ShopID == "" {
		errs = append(errs, ErrShopRequired)
	}
	if o.AddressID == "" {
		errs = append(errs, ErrAddressRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.Total.IsNegative() {
		errs = append(errs, ErrTotalNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * unit price.
	calc := decimal.Zero
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc = calc.Add(item.Subtotal())
	}
	if !calc.Equal(o.Total) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
