package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

func placeTestOrder(t *testing.T, f *fixture) domain.Order {
	t.Helper()
	order, err := f.svc.PlaceOrder("buyer-1", "shop-1", []domain.CartItem{{ProductID: "p1", Qty: 1}}, "address-1")
	require.NoError(t, err)
	return order
}

func TestGetOrder_BuyerRole(t *testing.T) {
	f := newFixture(t)
	placed := placeTestOrder(t, f)

	order, role, err := f.svc.GetOrder(placed.ID, "buyer-1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleBuyer, role)
	require.Equal(t, placed.ID, order.ID)
}

func TestGetOrder_SellerRole(t *testing.T) {
	f := newFixture(t)
	placed := placeTestOrder(t, f)

	_, role, err := f.svc.GetOrder(placed.ID, "seller-1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleSeller, role)
}

func TestGetOrder_StrangerDenied(t *testing.T) {
	f := newFixture(t)
	placed := placeTestOrder(t, f)

	_, _, err := f.svc.GetOrder(placed.ID, "stranger")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetOrder_SelfDealingDenied(t *testing.T) {
	f := newFixture(t)

	// Владелец магазина оформил заказ в собственном магазине.
	placed, err := f.svc.PlaceOrder("seller-1", "shop-1", []domain.CartItem{{ProductID: "p1", Qty: 1}}, "address-1")
	require.NoError(t, err)

	_, _, accessErr := f.svc.GetOrder(placed.ID, "seller-1")
	require.ErrorIs(t, accessErr, domain.ErrUnauthorized)
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.GetOrder("no-such-order", "buyer-1")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetOrder_EmptyRequester(t *testing.T) {
	f := newFixture(t)
	placed := placeTestOrder(t, f)

	_, _, err := f.svc.GetOrder(placed.ID, "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestListShopOrders_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	placeTestOrder(t, f)

	list, err := f.svc.ListShopOrders("shop-1", "seller-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.svc.ListShopOrders("shop-1", "buyer-1")
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListBuyerOrders(t *testing.T) {
	f := newFixture(t)
	placeTestOrder(t, f)
	placeTestOrder(t, f)

	list, err := f.svc.ListBuyerOrders("buyer-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	empty, err := f.svc.ListBuyerOrders("someone-else")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestListTimeline_AccessGated(t *testing.T) {
	f := newFixture(t)
	placed := placeTestOrder(t, f)

	events, err := f.svc.ListTimeline(placed.ID, "buyer-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "OrderPlaced", events[0].Type)

	_, err = f.svc.ListTimeline(placed.ID, "stranger")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
