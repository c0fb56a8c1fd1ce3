package domain

import "errors"

// Ошибки валидации и бизнес-ошибки движка заказов. Транспортный слой
// сопоставляет их с HTTP-статусами через errors.Is; конкретный товар или
// заказ добавляется обёрткой fmt.Errorf("%w: ...").
var (
	// ErrInvalidRequest — запрос не прошёл базовую валидацию (пустой список позиций и т.п.).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrShopUnavailable — магазин не существует или деактивирован.
	ErrShopUnavailable = errors.New("shop unavailable")
	// ErrProductUnavailable — товар не существует или деактивирован.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrProductNotInShop — товар не принадлежит магазину, указанному в заказе.
	ErrProductNotInShop = errors.New("product does not belong to shop")
	// ErrInsufficientStock — запрошенное количество превышает остаток товара.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUnauthorized — пользователь не является ни покупателем, ни продавцом этого заказа.
	ErrUnauthorized = errors.New("user is not authorized to view this order")
	// ErrForbidden - роль пользователя не даёт права на это действие.
	ErrForbidden = errors.New("action is not allowed for this role")
	// ErrInvalidTransition — запрошенный переход статуса не разрешён таблицей переходов.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Ошибка отсутствующего идентификатора покупателя.
	ErrBuyerRequired = errors.New("buyer_id is required")
	// Ошибка отсутствующего идентификатора магазина.
	ErrShopRequired = errors.New("shop_id is required")
	// Ошибка отсутствующего адреса доставки.
	ErrAddressRequired = errors.New("address_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item unit price must be non-negative")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("order total must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")

	// ErrProductNotFound возвращается каталогом, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrShopNotFound возвращается справочником магазинов, если магазин не найден.
	ErrShopNotFound = errors.New("shop not found")

	// ErrOrderExists возвращается при попытке создать заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хэш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже зарегистрирован для такого же запроса.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound — записи по ключу нет.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
