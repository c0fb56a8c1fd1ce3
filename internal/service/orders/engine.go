package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
	"github.com/vladislavdragonenkov/marketplace/internal/metrics"
)

// Service — движок заказов: оформление с резервированием стока,
// разрешение доступа и машина статусов.
type Service struct {
	orders   domain.OrderRepository
	catalog  domain.Catalog
	shops    domain.ShopDirectory
	cart     domain.CartSource
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
}

// NewService конструирует движок заказов с зависимостями.
func NewService(
	orders domain.OrderRepository,
	catalog domain.Catalog,
	shops domain.ShopDirectory,
	cart domain.CartSource,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &Service{
		orders:   orders,
		catalog:  catalog,
		shops:    shops,
		cart:     cart,
		outbox:   outbox,
		timeline: timeline,
		logger:   logger,
		metrics:  metrics.NewOrderMetrics(),
	}
}

// NewServiceWithoutMetrics конструирует движок без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	catalog domain.Catalog,
	shops domain.ShopDirectory,
	cart domain.CartSource,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	svc := NewService(orders, catalog, shops, cart, outbox, timeline, logger)
	svc.metrics = nil
	return svc
}

// reservedItem — позиция с зафиксированной ценой, прошедшая предварительную валидацию.
type reservedItem struct {
	productID string
	qty       int32
	unitPrice decimal.Decimal
}

// PlaceOrder оформляет заказ: валидирует магазин и все позиции, затем
// атомарно списывает сток по каждой позиции. Резервирование выполняется
// по принципу «всё или ничего»: если списание по какой-то позиции не
// удалось, уже выполненные списания компенсируются обратными инкрементами.
func (s *Service) PlaceOrder(buyerID, shopID string, items []domain.CartItem, addressID string) (domain.Order, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordPlacementStarted()
		defer func() {
			s.metrics.RecordPlacementFinished()
			s.metrics.RecordPlacementDuration(time.Since(start))
		}()
	}

	order, err := s.placeOrder(buyerID, shopID, items, addressID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordPlacementFailed(failureReason(err))
		}
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced()
	}
	return order, nil
}

func (s *Service) placeOrder(buyerID, shopID string, items []domain.CartItem, addressID string) (domain.Order, error) {
	if buyerID == "" {
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, domain.ErrBuyerRequired)
	}
	if shopID == "" {
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, domain.ErrShopRequired)
	}
	if addressID == "" {
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, domain.ErrAddressRequired)
	}

	shop, err := s.shops.GetShop(shopID)
	if err != nil {
		if errors.Is(err, domain.ErrShopNotFound) {
			return domain.Order{}, fmt.Errorf("%w: shop %s", domain.ErrShopUnavailable, shopID)
		}
		return domain.Order{}, fmt.Errorf("load shop %s: %w", shopID, err)
	}
	if !shop.IsActive {
		return domain.Order{}, fmt.Errorf("%w: shop %s", domain.ErrShopUnavailable, shopID)
	}

	if len(items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, domain.ErrItemsRequired)
	}

	reserved, err := s.validateItems(shopID, items)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.reserveStock(reserved); err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	orderItems := make([]domain.OrderItem, 0, len(reserved))
	total := decimal.Zero
	for _, r := range reserved {
		item := domain.OrderItem{
			ID:        uuid.NewString(),
			ProductID: r.productID,
			Qty:       r.qty,
			UnitPrice: r.unitPrice,
			CreatedAt: now,
		}
		orderItems = append(orderItems, item)
		total = total.Add(item.Subtotal())
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		ShopID:    shopID,
		Status:    domain.OrderStatusPending,
		Items:     orderItems,
		Total:     total,
		AddressID: addressID,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.releaseStock(reserved)
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, joinErrors(errs))
	}

	if err := s.orders.Create(order); err != nil {
		// Заказ не сохранился, возвращаем зарезервированный сток.
		s.releaseStock(reserved)
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order")
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	s.emitEvent(&order, eventOrderPlaced, map[string]any{
		"buyer_id": order.BuyerID,
		"shop_id":  order.ShopID,
		"total":    order.Total.String(),
		"status":   string(order.Status),
		"ts":       order.CreatedAt.Format(time.RFC3339Nano),
	})

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"shop_id":  order.ShopID,
		"items":    len(order.Items),
		"total":    order.Total.String(),
	}).Info("order placed")

	return order, nil
}

// validateItems проверяет все позиции до какого-либо списания стока.
// Количество агрегируется по товару, чтобы дубли одной позиции не прошли
// проверку по отдельности и не завалили резервирование на втором списании.
func (s *Service) validateItems(shopID string, items []domain.CartItem) ([]reservedItem, error) {
	reserved := make([]reservedItem, 0, len(items))
	requestedPer := make(map[string]int64, len(items))

	for _, item := range items {
		product, err := s.catalog.GetProduct(item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %s", domain.ErrProductUnavailable, item.ProductID)
			}
			return nil, fmt.Errorf("load product %s: %w", item.ProductID, err)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: product %s", domain.ErrProductUnavailable, product.ID)
		}
		if product.ShopID != shopID {
			return nil, fmt.Errorf("%w: product %s", domain.ErrProductNotInShop, product.ID)
		}
		if item.Qty <= 0 {
			return nil, fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, product.ID)
		}

		requestedPer[product.ID] += int64(item.Qty)
		if requestedPer[product.ID] > int64(product.StockCount) {
			return nil, fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, product.ID)
		}

		reserved = append(reserved, reservedItem{
			productID: product.ID,
			qty:       item.Qty,
			unitPrice: product.Price,
		})
	}

	return reserved, nil
}

// reserveStock последовательно списывает сток по позициям. При сбое на
// k-й позиции списания 0..k-1 компенсируются, ошибка возвращается вызывающему.
func (s *Service) reserveStock(reserved []reservedItem) error {
	for idx, r := range reserved {
		err := s.catalog.AdjustStock(r.productID, r.qty, domain.StockDecrementIfSufficient)
		if err == nil {
			continue
		}

		s.releaseStock(reserved[:idx])

		switch {
		case errors.Is(err, domain.ErrInsufficientStock):
			return fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, r.productID)
		case errors.Is(err, domain.ErrProductNotFound):
			return fmt.Errorf("%w: product %s", domain.ErrProductUnavailable, r.productID)
		default:
			return fmt.Errorf("reserve stock for product %s: %w", r.productID, err)
		}
	}
	return nil
}

// releaseStock возвращает ранее списанный сток. Сбой по отдельной позиции
// логируется и не прерывает компенсацию остальных.
func (s *Service) releaseStock(reserved []reservedItem) {
	for _, r := range reserved {
		if err := s.catalog.AdjustStock(r.productID, r.qty, domain.StockIncrement); err != nil {
			s.logger.WithError(err).WithField("product_id", r.productID).Warn("failed to release reserved stock")
			if s.metrics != nil {
				s.metrics.RecordStockRestoreFailure()
			}
		}
	}
}

// PlaceFromCart оформляет заказы из корзины покупателя: позиции группируются
// по магазину, на каждый магазин создаётся отдельный заказ. Корзина
// очищается, только если все заказы оформлены успешно; уже созданные заказы
// при частичном сбое остаются в силе.
func (s *Service) PlaceFromCart(buyerID, addressID string) ([]domain.Order, error) {
	if s.cart == nil {
		return nil, fmt.Errorf("%w: cart source is not configured", domain.ErrInvalidRequest)
	}

	items, err := s.cart.Items(buyerID)
	if err != nil {
		return nil, fmt.Errorf("load cart for buyer %s: %w", buyerID, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidRequest)
	}

	// Группируем позиции по магазину, сохраняя порядок их появления в корзине.
	shopOrder := make([]string, 0, 2)
	byShop := make(map[string][]domain.CartItem)
	for _, item := range items {
		product, err := s.catalog.GetProduct(item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %s", domain.ErrProductUnavailable, item.ProductID)
			}
			return nil, fmt.Errorf("load product %s: %w", item.ProductID, err)
		}
		if _, seen := byShop[product.ShopID]; !seen {
			shopOrder = append(shopOrder, product.ShopID)
		}
		byShop[product.ShopID] = append(byShop[product.ShopID], item)
	}

	placed := make([]domain.Order, 0, len(shopOrder))
	for _, shopID := range shopOrder {
		order, err := s.PlaceOrder(buyerID, shopID, byShop[shopID], addressID)
		if err != nil {
			return placed, fmt.Errorf("checkout shop %s: %w", shopID, err)
		}
		placed = append(placed, order)
	}

	if err := s.cart.Clear(buyerID); err != nil {
		s.logger.WithError(err).WithField("buyer_id", buyerID).Warn("failed to clear cart after checkout")
	}

	return placed, nil
}

// ListBuyerOrders возвращает заказы покупателя, новые первыми.
func (s *Service) ListBuyerOrders(buyerID string) ([]domain.Order, error) {
	if buyerID == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, domain.ErrBuyerRequired)
	}
	return s.orders.ListByBuyer(buyerID, 0)
}

// ListShopOrders возвращает заказы магазина, новые первыми.
// Доступ только для владельца магазина.
func (s *Service) ListShopOrders(shopID, requesterID string) ([]domain.Order, error) {
	if shopID == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, domain.ErrShopRequired)
	}

	shop, err := s.shops.GetShop(shopID)
	if err != nil {
		if errors.Is(err, domain.ErrShopNotFound) {
			return nil, fmt.Errorf("%w: shop %s", domain.ErrShopUnavailable, shopID)
		}
		return nil, fmt.Errorf("load shop %s: %w", shopID, err)
	}
	if shop.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: only the shop owner can list shop orders", domain.ErrForbidden)
	}

	return s.orders.ListByShop(shopID, 0)
}

// ListTimeline возвращает события жизненного цикла заказа.
// Доступ разрешается по тем же правилам, что и к самому заказу.
func (s *Service) ListTimeline(orderID, requesterID string) ([]domain.TimelineEvent, error) {
	if _, _, err := s.resolveAccess(orderID, requesterID); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	return s.timeline.List(orderID)
}

// failureReason сводит ошибку оформления к метке для метрик.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrShopUnavailable):
		return "shop_unavailable"
	case errors.Is(err, domain.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, domain.ErrProductNotInShop):
		return "product_not_in_shop"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	default:
		return "internal"
	}
}

func joinErrors(errs []error) string {
	msg := ""
	for i, err := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += err.Error()
	}
	return msg
}
