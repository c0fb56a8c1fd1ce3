package orders

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// TransitionStatus переводит заказ в target по таблице переходов.
// Переходы в confirmed/shipped/delivered доступны только продавцу;
// target=cancelled направляется в общий путь отмены с возвратом стока.
func (s *Service) TransitionStatus(orderID, requesterID string, target domain.OrderStatus) (domain.Order, error) {
	if !target.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, target)
	}

	order, role, err := s.resolveAccess(orderID, requesterID)
	if err != nil {
		return domain.Order{}, err
	}

	if role != domain.RoleSeller {
		return domain.Order{}, fmt.Errorf("%w: only the seller can update order status", domain.ErrForbidden)
	}

	if target == domain.OrderStatusCancelled {
		return s.cancel(order)
	}

	if !order.Status.CanTransitionTo(target) {
		return domain.Order{}, fmt.Errorf("%w: from %q to %q", domain.ErrInvalidTransition, order.Status, target)
	}

	if err := s.persistStatus(&order, target); err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransition(string(target))
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("order status updated")

	return order, nil
}

// CancelOrder отменяет заказ по инициативе покупателя или продавца.
// Отмена возможна только из статуса pending.
func (s *Service) CancelOrder(orderID, requesterID string) (domain.Order, error) {
	order, _, err := s.resolveAccess(orderID, requesterID)
	if err != nil {
		return domain.Order{}, err
	}
	return s.cancel(order)
}

// cancel переводит заказ в cancelled и возвращает сток по всем позициям.
// Сначала фиксируется статус: optimistic locking гарантирует, что отмена
// пройдёт ровно один раз, и сток не будет возвращён дважды при гонке.
// Возврат по каждой позиции — best-effort: пропавший из каталога товар
// логируется и пропускается, отмена заказа из-за него не откатывается.
func (s *Service) cancel(order domain.Order) (domain.Order, error) {
	if order.Status != domain.OrderStatusPending {
		return domain.Order{}, fmt.Errorf("%w: can only cancel order while it is pending", domain.ErrInvalidTransition)
	}

	if err := s.persistStatus(&order, domain.OrderStatusCancelled); err != nil {
		return domain.Order{}, err
	}

	for _, item := range order.Items {
		if err := s.catalog.AdjustStock(item.ProductID, item.Qty, domain.StockIncrement); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
				"qty":        item.Qty,
			}).Warn("failed to restore stock for cancelled order item")
			if s.metrics != nil {
				s.metrics.RecordStockRestoreFailure()
			}
		}
	}

	s.emitEvent(&order, eventOrderCancelled, map[string]any{
		"ts": order.UpdatedAt.Format(time.RFC3339Nano),
	})

	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}
	s.logger.WithField("order_id", order.ID).Info("order cancelled")

	return order, nil
}

// persistStatus меняет статус заказа с учётом optimistic locking и эмитит
// событие статуса. При конфликте версий заказ перечитывается один раз;
// если переход из свежего статуса всё ещё разрешён, запись повторяется.
func (s *Service) persistStatus(order *domain.Order, target domain.OrderStatus) error {
	const maxAttempts = 2

	for attempt := 0; attempt < maxAttempts; attempt++ {
		previous := order.Status
		order.Status = target
		order.UpdatedAt = time.Now().UTC()

		if err := s.orders.Save(*order); err != nil {
			order.Status = previous

			if domain.IsVersionConflict(err) {
				fresh, loadErr := s.orders.Get(order.ID)
				if loadErr != nil {
					s.logger.WithError(loadErr).WithField("order_id", order.ID).Error("failed to reload order after version conflict")
					return loadErr
				}
				if !fresh.Status.CanTransitionTo(target) {
					return fmt.Errorf("%w: from %q to %q", domain.ErrInvalidTransition, fresh.Status, target)
				}
				*order = fresh
				continue
			}

			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"attempt":  attempt + 1,
			}).Error("failed to persist status")
			return err
		}

		order.Version++
		s.emitStatusEvent(order)
		return nil
	}

	return domain.ErrOrderVersionConflict
}
