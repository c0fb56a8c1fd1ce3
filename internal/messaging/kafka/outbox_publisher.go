package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic
// в виде типизированных OrderEvent.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	// Ключ партиционирования: все события одного заказа идут в одну partition.
	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	return p.producer.PublishEvent(p.topic, key, orderEventFromOutbox(event))
}

// orderEventFromOutbox собирает типизированное событие из outbox-записи.
// Известные поля payload поднимаются в событие, остальные уходят в Metadata
// вместе с идентификатором outbox-записи.
func orderEventFromOutbox(event domain.OutboxMessage) *OrderEvent {
	fields := make(map[string]interface{})
	if len(event.Payload) > 0 {
		_ = json.Unmarshal(event.Payload, &fields)
	}

	orderID := popString(fields, "order_id")
	if orderID == "" {
		orderID = event.AggregateID
	}
	buyerID := popString(fields, "buyer_id")
	shopID := popString(fields, "shop_id")
	status := popString(fields, "status")

	fields["outbox_id"] = event.ID
	fields["aggregate_type"] = event.AggregateType

	return NewOrderEvent(OrderEventType(event.EventType), orderID, buyerID, shopID, status, fields)
}

func popString(fields map[string]interface{}, key string) string {
	value, ok := fields[key]
	if !ok {
		return ""
	}
	delete(fields, key)
	text, _ := value.(string)
	return text
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
