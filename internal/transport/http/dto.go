package http

import (
	"time"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

type placeOrderRequest struct {
	ShopID    string             `json:"shop_id" binding:"required"`
	AddressID string             `json:"address_id" binding:"required"`
	Items     []orderItemRequest `json:"items" binding:"required"`
}

type orderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       int32  `json:"qty" binding:"required"`
}

type checkoutRequest struct {
	AddressID string `json:"address_id" binding:"required"`
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type orderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	BuyerID   string              `json:"buyer_id"`
	ShopID    string              `json:"shop_id"`
	Status    string              `json:"status"`
	Items     []orderItemResponse `json:"items"`
	Total     string              `json:"total"`
	AddressID string              `json:"address_id"`
	Version   int64               `json:"version"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Role      string              `json:"role,omitempty"`
}

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Subtotal:  item.Subtotal().StringFixed(2),
		})
	}
	return orderResponse{
		ID:        order.ID,
		BuyerID:   order.BuyerID,
		ShopID:    order.ShopID,
		Status:    string(order.Status),
		Items:     items,
		Total:     order.Total.StringFixed(2),
		AddressID: order.AddressID,
		Version:   order.Version,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func toOrderListResponse(orders []domain.Order) []orderResponse {
	result := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, toOrderResponse(order))
	}
	return result
}

func toTimelineResponse(events []domain.TimelineEvent) []timelineEventResponse {
	result := make([]timelineEventResponse, 0, len(events))
	for _, event := range events {
		result = append(result, timelineEventResponse{
			Type:     event.Type,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}
	return result
}
