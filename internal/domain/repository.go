package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderExists, если запись с таким ID уже есть.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByBuyer возвращает заказы покупателя, новые первыми.
	// limit > 0 ограничивает выборку.
	ListByBuyer(buyerID string, limit int) ([]Order, error)
	// ListByShop возвращает заказы магазина, новые первыми.
	ListByShop(shopID string, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}
