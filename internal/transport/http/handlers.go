package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
	"github.com/vladislavdragonenkov/marketplace/internal/service/orders"
)

// Handler связывает HTTP-слой с сервисом заказов.
type Handler struct {
	orders      *orders.Service
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
}

// NewHandler создаёт HTTP handler. idempotency может быть nil,
// тогда Idempotency-Key игнорируется.
func NewHandler(service *orders.Service, idempotency domain.IdempotencyRepository, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-handler")
	}
	return &Handler{
		orders:      service,
		idempotency: idempotency,
		logger:      logger,
	}
}

// placeOrder обрабатывает POST /orders.
// Тело запроса биндится через ShouldBindBodyWith, чтобы сырые байты
// остались доступны для хэша идемпотентности.
func (h *Handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	done, err := h.beginIdempotent(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if done {
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.CartItem{ProductID: item.ProductID, Qty: item.Qty})
	}

	order, err := h.orders.PlaceOrder(requesterID(c), req.ShopID, items, req.AddressID)
	if err != nil {
		// Тело ошибки сохраняется для replay по тому же ключу.
		status, body := errorResponse(err)
		raw, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			raw = nil
		}
		h.finishIdempotent(c, status, raw, false)
		c.AbortWithStatusJSON(status, body)
		return
	}

	h.respondIdempotent(c, http.StatusCreated, toOrderResponse(order))
}

// checkout обрабатывает POST /orders/checkout: оформление всей корзины.
func (h *Handler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	placed, err := h.orders.PlaceFromCart(requesterID(c), req.AddressID)
	if err != nil {
		// Частично оформленные заказы возвращаем вместе с ошибкой.
		if len(placed) > 0 {
			c.AbortWithStatusJSON(statusForError(err), gin.H{
				"error":  err.Error(),
				"orders": toOrderListResponse(placed),
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"orders": toOrderListResponse(placed)})
}

// getOrder обрабатывает GET /orders/:id.
func (h *Handler) getOrder(c *gin.Context) {
	order, role, err := h.orders.GetOrder(c.Param("id"), requesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := toOrderResponse(order)
	resp.Role = string(role)
	c.JSON(http.StatusOK, resp)
}

// getTimeline обрабатывает GET /orders/:id/timeline.
func (h *Handler) getTimeline(c *gin.Context) {
	events, err := h.orders.ListTimeline(c.Param("id"), requesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": toTimelineResponse(events)})
}

// transitionStatus обрабатывает POST /orders/:id/status.
func (h *Handler) transitionStatus(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	order, err := h.orders.TransitionStatus(c.Param("id"), requesterID(c), domain.OrderStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// cancelOrder обрабатывает POST /orders/:id/cancel.
func (h *Handler) cancelOrder(c *gin.Context) {
	order, err := h.orders.CancelOrder(c.Param("id"), requesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// listMyOrders обрабатывает GET /orders.
func (h *Handler) listMyOrders(c *gin.Context) {
	list, err := h.orders.ListBuyerOrders(requesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": toOrderListResponse(list)})
}

// listShopOrders обрабатывает GET /shops/:id/orders.
func (h *Handler) listShopOrders(c *gin.Context) {
	list, err := h.orders.ListShopOrders(c.Param("id"), requesterID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": toOrderListResponse(list)})
}
