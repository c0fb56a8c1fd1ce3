package orders

import (
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// GetOrder загружает заказ и определяет роль запрашивающего пользователя.
// Это единственные ворота перед чтением или изменением заказа конечным
// пользователем; оформление (PlaceOrder) их не использует — заказа ещё нет.
func (s *Service) GetOrder(orderID, requesterID string) (domain.Order, domain.Role, error) {
	return s.resolveAccess(orderID, requesterID)
}

// resolveAccess возвращает заказ и роль пользователя по отношению к нему.
// Пользователь, одновременно являющийся покупателем и владельцем магазина
// (self-dealing), отклоняется: роли несут разные права на изменение, и
// молчаливый выбор одной из них спрятал бы ошибку в правах доступа.
func (s *Service) resolveAccess(orderID, requesterID string) (domain.Order, domain.Role, error) {
	if orderID == "" {
		return domain.Order{}, "", fmt.Errorf("%w: order id is required", domain.ErrInvalidRequest)
	}
	if requesterID == "" {
		return domain.Order{}, "", domain.ErrUnauthorized
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, "", fmt.Errorf("%w: order %s", domain.ErrOrderNotFound, orderID)
		}
		return domain.Order{}, "", fmt.Errorf("load order %s: %w", orderID, err)
	}

	shop, err := s.shops.GetShop(order.ShopID)
	if err != nil {
		return domain.Order{}, "", fmt.Errorf("load shop %s for order %s: %w", order.ShopID, orderID, err)
	}

	isBuyer := order.BuyerID == requesterID
	isSeller := shop.OwnerID == requesterID

	switch {
	case isBuyer && isSeller:
		return domain.Order{}, "", domain.ErrUnauthorized
	case isBuyer:
		return order, domain.RoleBuyer, nil
	case isSeller:
		return order, domain.RoleSeller, nil
	default:
		return domain.Order{}, "", domain.ErrUnauthorized
	}
}
