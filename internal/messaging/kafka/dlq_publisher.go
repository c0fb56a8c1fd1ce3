package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// DeadLetterTopicPublisher отправляет события, исчерпавшие попытки публикации,
// в DLQ topic. Контекст сбоя уходит в Kafka headers, чтобы reprocessing-утилиты
// не разбирали payload ради числа попыток и текста ошибки.
type DeadLetterTopicPublisher struct {
	producer      *Producer
	topic         string
	originalTopic string
}

// NewDLQPublisher создаёт DLQ-паблишер. originalTopic — topic, публикация в
// который не удалась; он проставляется в header для реповтора.
func NewDLQPublisher(producer *Producer, topic, originalTopic string) *DeadLetterTopicPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	if originalTopic == "" {
		originalTopic = TopicOrderEvents
	}
	return &DeadLetterTopicPublisher{
		producer:      producer,
		topic:         topic,
		originalTopic: originalTopic,
	}
}

func (p *DeadLetterTopicPublisher) PublishDeadLetter(event domain.OutboxMessage, attempts int, publishErr error) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}

	errText := ""
	if publishErr != nil {
		errText = publishErr.Error()
	}
	headers := map[string]string{
		HeaderRetryCount:    strconv.Itoa(attempts),
		HeaderOriginalTopic: p.originalTopic,
		HeaderErrorMessage:  errText,
		HeaderFailedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	envelope := struct {
		ID            string          `json:"id"`
		AggregateType string          `json:"aggregate_type"`
		AggregateID   string          `json:"aggregate_id"`
		EventType     string          `json:"event_type"`
		Payload       json.RawMessage `json:"payload"`
	}{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
	}

	return p.producer.PublishEventWithHeaders(p.topic, key, envelope, headers)
}

var _ domain.DeadLetterPublisher = (*DeadLetterTopicPublisher)(nil)
