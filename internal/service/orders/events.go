package orders

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// Типы событий жизненного цикла заказа, попадающих в outbox и timeline.
const (
	eventOrderPlaced        = "OrderPlaced"
	eventOrderStatusChanged = "OrderStatusChanged"
	eventOrderCancelled     = "OrderCancelled"
)

func (s *Service) emitStatusEvent(order *domain.Order) {
	payload := map[string]any{
		"status":     order.Status,
		"updated_at": order.UpdatedAt.Format(time.RFC3339Nano),
		"ts":         order.UpdatedAt.Format(time.RFC3339Nano),
	}
	s.emitEvent(order, eventOrderStatusChanged, payload)
}

// emitEvent кладёт событие в outbox для публикации и дублирует его в timeline
// заказа. Сбой любой из записей логируется и не прерывает основную операцию.
func (s *Service) emitEvent(order *domain.Order, eventType string, payload map[string]any) {
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["order_id"] = order.ID
	payload["buyer_id"] = order.BuyerID
	payload["shop_id"] = order.ShopID
	if _, ok := payload["status"]; !ok {
		payload["status"] = string(order.Status)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	if s.outbox != nil {
		msg := domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   order.ID,
			EventType:     eventType,
			Payload:       data,
		}
		if _, err := s.outbox.Enqueue(msg); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    eventType,
			}).Error("enqueue event failed")
		} else if s.metrics != nil {
			s.metrics.RecordOutboxEvent()
		}
	}

	if s.timeline != nil {
		occurred := time.Now().UTC()
		if ts, ok := payload["ts"].(string); ok {
			if parsed, parseErr := time.Parse(time.RFC3339Nano, ts); parseErr == nil {
				occurred = parsed
			}
		}

		var reason string
		if r, ok := payload["reason"].(string); ok {
			reason = r
		}

		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     eventType,
			Reason:   reason,
			Occurred: occurred,
		}
		if err := s.timeline.Append(event); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    eventType,
			}).Warn("append timeline event failed")
		} else if s.metrics != nil {
			s.metrics.RecordTimelineEvent()
		}
	}
}
