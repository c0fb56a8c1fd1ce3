package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:      "order-1",
		BuyerID: "buyer-1",
		ShopID:  "shop-1",
		Status:  domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{
				ID:        "item-1",
				ProductID: "product-1",
				Qty:       5,
				UnitPrice: decimal.RequireFromString("10.00"),
				CreatedAt: now,
			},
		},
		Total:     decimal.RequireFromString("50.00"),
		AddressID: "address-1",
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no buyer",
			mut: func(o *domain.Order) {
				o.BuyerID = ""
			},
		},
		{
			name: "no shop",
			mut: func(o *domain.Order) {
				o.ShopID = ""
			},
		},
		{
			name: "no address",
			mut: func(o *domain.Order) {
				o.AddressID = ""
			},
		},
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
			},
		},
		{
			name: "zero qty",
			mut: func(o *domain.Order) {
				o.Items[0].Qty = 0
			},
		},
		{
			name: "negative price",
			mut: func(o *domain.Order) {
				o.Items[0].UnitPrice = decimal.RequireFromString("-1")
			},
		},
		{
			name: "total mismatch",
			mut: func(o *domain.Order) {
				o.Total = decimal.RequireFromString("49.99")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if errs := order.ValidateInvariants(); len(errs) == 0 {
				t.Fatalf("expected validation errors, got none")
			}
		})
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	item := domain.OrderItem{Qty: 3, UnitPrice: decimal.RequireFromString("9.99")}
	if got := item.Subtotal(); !got.Equal(decimal.RequireFromString("29.97")) {
		t.Fatalf("expected subtotal 29.97, got %s", got)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    domain.OrderStatus
		to      domain.OrderStatus
		allowed bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusConfirmed, true},
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusPending, domain.OrderStatusShipped, false},
		{domain.OrderStatusPending, domain.OrderStatusDelivered, false},
		{domain.OrderStatusPending, domain.OrderStatusPending, false},
		{domain.OrderStatusConfirmed, domain.OrderStatusShipped, true},
		{domain.OrderStatusConfirmed, domain.OrderStatusCancelled, false},
		{domain.OrderStatusConfirmed, domain.OrderStatusDelivered, false},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, false},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{domain.OrderStatusDelivered, domain.OrderStatusShipped, false},
		{domain.OrderStatusCancelled, domain.OrderStatusPending, false},
		{domain.OrderStatusCancelled, domain.OrderStatusConfirmed, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !domain.OrderStatusDelivered.Terminal() {
		t.Fatal("delivered must be terminal")
	}
	if !domain.OrderStatusCancelled.Terminal() {
		t.Fatal("cancelled must be terminal")
	}
	if domain.OrderStatusPending.Terminal() || domain.OrderStatusConfirmed.Terminal() || domain.OrderStatusShipped.Terminal() {
		t.Fatal("pending/confirmed/shipped must not be terminal")
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []domain.OrderStatus{
		domain.OrderStatusPending, domain.OrderStatusConfirmed,
		domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled,
	} {
		if !s.Valid() {
			t.Fatalf("status %s must be valid", s)
		}
	}
	if domain.OrderStatus("paid").Valid() {
		t.Fatal("unknown status must be invalid")
	}
}
