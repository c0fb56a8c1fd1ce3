package kafka

import "time"

// EventType определяет тип события заказа.
type EventType string

const (
	EventTypeOrderPlaced        EventType = "order.placed"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeOrderCancelled     EventType = "order.cancelled"
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "marketplace.order.events"
	TopicDeadLetterQueue = "marketplace.dlq"
)

// OrderEventType переводит имя события из outbox в тип события для внешних
// потребителей. Неизвестные имена пробрасываются как есть.
func OrderEventType(outboxEventType string) EventType {
	switch outboxEventType {
	case "OrderPlaced":
		return EventTypeOrderPlaced
	case "OrderStatusChanged":
		return EventTypeOrderStatusChanged
	case "OrderCancelled":
		return EventTypeOrderCancelled
	default:
		return EventType(outboxEventType)
	}
}

// Kafka headers для retry логики.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие заказа для внешних потребителей.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	BuyerID   string                 `json:"buyer_id"`
	ShopID    string                 `json:"shop_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, buyerID, shopID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		BuyerID:   buyerID,
		ShopID:    shopID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
