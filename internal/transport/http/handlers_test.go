package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
	"github.com/vladislavdragonenkov/marketplace/internal/service/orders"
	"github.com/vladislavdragonenkov/marketplace/internal/storage/memory"
)

type testEnv struct {
	router  *gin.Engine
	catalog *memory.Catalog
	shops   *memory.ShopDirectory
	cart    *memory.CartStore
}

const (
	testBuyerID  = "buyer-1"
	testSellerID = "seller-1"
	testShopID   = "shop-1"
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := memory.NewCatalog()
	shops := memory.NewShopDirectory()
	cart := memory.NewCartStore()

	shops.Put(domain.Shop{ID: testShopID, OwnerID: testSellerID, Name: "Test Shop", IsActive: true})
	catalog.Put(domain.Product{
		ID:         "product-1",
		ShopID:     testShopID,
		Name:       "Widget",
		Price:      decimal.RequireFromString("10.00"),
		StockCount: 5,
		IsActive:   true,
	})

	service := orders.NewServiceWithoutMetrics(
		memory.NewOrderRepository(),
		catalog,
		shops,
		cart,
		memory.NewOutboxRepository(),
		memory.NewTimelineRepository(),
		nil,
	)
	handler := NewHandler(service, memory.NewIdempotencyRepository(), nil)

	return &testEnv{
		router:  NewRouter(handler, nil),
		catalog: catalog,
		shops:   shops,
		cart:    cart,
	}
}

func (e *testEnv) do(t *testing.T, method, path, userID string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func placePayload(qty int32) map[string]any {
	return map[string]any{
		"shop_id":    testShopID,
		"address_id": "address-1",
		"items": []map[string]any{
			{"product_id": "product-1", "qty": qty},
		},
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(2), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	require.Equal(t, testBuyerID, resp.BuyerID)
	require.Equal(t, "pending", resp.Status)
	require.Equal(t, "20.00", resp.Total)
	require.Len(t, resp.Items, 1)

	product, err := env.catalog.GetProduct("product-1")
	require.NoError(t, err)
	require.EqualValues(t, 3, product.StockCount)
}

func TestPlaceOrder_MissingIdentity(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/orders", "", placePayload(1), nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(6), nil)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Сток не должен измениться после отклонённого оформления.
	product, err := env.catalog.GetProduct("product-1")
	require.NoError(t, err)
	require.EqualValues(t, 5, product.StockCount)
}

func TestPlaceOrder_InactiveShop(t *testing.T) {
	env := newTestEnv(t)
	env.shops.Put(domain.Shop{ID: testShopID, OwnerID: testSellerID, Name: "Test Shop", IsActive: false})

	w := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(1), nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestPlaceOrder_IdempotentReplay(t *testing.T) {
	env := newTestEnv(t)
	headers := map[string]string{"Idempotency-Key": "key-1"}

	first := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(2), headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(2), headers)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())
	require.JSONEq(t, first.Body.String(), second.Body.String())

	// Повтор не списывает сток второй раз.
	product, err := env.catalog.GetProduct("product-1")
	require.NoError(t, err)
	require.EqualValues(t, 3, product.StockCount)
}

func TestPlaceOrder_IdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	env := newTestEnv(t)
	headers := map[string]string{"Idempotency-Key": "key-1"}

	first := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(1), headers)
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(2), headers)
	require.Equal(t, http.StatusUnprocessableEntity, second.Code, second.Body.String())
}

func TestPlaceOrder_FailedPlacementReplaysErrorBody(t *testing.T) {
	env := newTestEnv(t)
	headers := map[string]string{"Idempotency-Key": "key-failed"}

	first := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(6), headers)
	require.Equal(t, http.StatusConflict, first.Code, first.Body.String())
	require.Contains(t, first.Body.String(), "insufficient stock")

	// Повтор по тому же ключу возвращает сохранённый статус и тело ошибки.
	second := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(6), headers)
	require.Equal(t, http.StatusConflict, second.Code, second.Body.String())
	require.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestGetOrder_Roles(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(1), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var placed orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	buyerView := env.do(t, http.MethodGet, "/orders/"+placed.ID, testBuyerID, nil, nil)
	require.Equal(t, http.StatusOK, buyerView.Code)
	var buyerResp orderResponse
	require.NoError(t, json.Unmarshal(buyerView.Body.Bytes(), &buyerResp))
	require.Equal(t, "buyer", buyerResp.Role)

	sellerView := env.do(t, http.MethodGet, "/orders/"+placed.ID, testSellerID, nil, nil)
	require.Equal(t, http.StatusOK, sellerView.Code)
	var sellerResp orderResponse
	require.NoError(t, json.Unmarshal(sellerView.Body.Bytes(), &sellerResp))
	require.Equal(t, "seller", sellerResp.Role)

	strangerView := env.do(t, http.MethodGet, "/orders/"+placed.ID, "stranger", nil, nil)
	require.Equal(t, http.StatusForbidden, strangerView.Code)
}

func TestTransitionStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(1), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var placed orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	// Покупатель не может подтверждать заказ.
	denied := env.do(t, http.MethodPost, "/orders/"+placed.ID+"/status", testBuyerID,
		map[string]string{"status": "confirmed"}, nil)
	require.Equal(t, http.StatusForbidden, denied.Code)

	confirmed := env.do(t, http.MethodPost, "/orders/"+placed.ID+"/status", testSellerID,
		map[string]string{"status": "confirmed"}, nil)
	require.Equal(t, http.StatusOK, confirmed.Code, confirmed.Body.String())
	var resp orderResponse
	require.NoError(t, json.Unmarshal(confirmed.Body.Bytes(), &resp))
	require.Equal(t, "confirmed", resp.Status)

	// Перескок pending→delivered запрещён машиной статусов.
	invalid := env.do(t, http.MethodPost, "/orders/"+placed.ID+"/status", testSellerID,
		map[string]string{"status": "delivered"}, nil)
	require.Equal(t, http.StatusConflict, invalid.Code)
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(3), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var placed orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	cancelled := env.do(t, http.MethodPost, "/orders/"+placed.ID+"/cancel", testBuyerID, nil, nil)
	require.Equal(t, http.StatusOK, cancelled.Code, cancelled.Body.String())
	var resp orderResponse
	require.NoError(t, json.Unmarshal(cancelled.Body.Bytes(), &resp))
	require.Equal(t, "cancelled", resp.Status)

	product, err := env.catalog.GetProduct("product-1")
	require.NoError(t, err)
	require.EqualValues(t, 5, product.StockCount)

	// Повторная отмена уже отменённого заказа отклоняется.
	again := env.do(t, http.MethodPost, "/orders/"+placed.ID+"/cancel", testBuyerID, nil, nil)
	require.Equal(t, http.StatusConflict, again.Code)
}

func TestCheckout_FromCart(t *testing.T) {
	env := newTestEnv(t)
	env.cart.SetItems(testBuyerID, []domain.CartItem{{ProductID: "product-1", Qty: 2}})

	w := env.do(t, http.MethodPost, "/orders/checkout", testBuyerID,
		map[string]string{"address_id": "address-1"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Orders []orderResponse `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	require.Equal(t, "20.00", resp.Orders[0].Total)

	// Корзина очищается после успешного оформления.
	items, err := env.cart.Items(testBuyerID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/orders/checkout", testBuyerID,
		map[string]string{"address_id": "address-1"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(1), nil).Code)
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(1), nil).Code)

	mine := env.do(t, http.MethodGet, "/orders", testBuyerID, nil, nil)
	require.Equal(t, http.StatusOK, mine.Code)
	var myResp struct {
		Orders []orderResponse `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(mine.Body.Bytes(), &myResp))
	require.Len(t, myResp.Orders, 2)

	shopList := env.do(t, http.MethodGet, "/shops/"+testShopID+"/orders", testSellerID, nil, nil)
	require.Equal(t, http.StatusOK, shopList.Code)
	var shopResp struct {
		Orders []orderResponse `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(shopList.Body.Bytes(), &shopResp))
	require.Len(t, shopResp.Orders, 2)

	// Не-владелец не видит заказы магазина.
	denied := env.do(t, http.MethodGet, "/shops/"+testShopID+"/orders", testBuyerID, nil, nil)
	require.Equal(t, http.StatusForbidden, denied.Code)
}

func TestTimeline(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/orders", testBuyerID, placePayload(1), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var placed orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	require.Equal(t, http.StatusOK,
		env.do(t, http.MethodPost, "/orders/"+placed.ID+"/status", testSellerID,
			map[string]string{"status": "confirmed"}, nil).Code)

	timeline := env.do(t, http.MethodGet, "/orders/"+placed.ID+"/timeline", testBuyerID, nil, nil)
	require.Equal(t, http.StatusOK, timeline.Code, timeline.Body.String())

	var resp struct {
		Events []timelineEventResponse `json:"events"`
	}
	require.NoError(t, json.Unmarshal(timeline.Body.Bytes(), &resp))
	require.GreaterOrEqual(t, len(resp.Events), 2)

	// Посторонний не видит timeline заказа.
	denied := env.do(t, http.MethodGet, "/orders/"+placed.ID+"/timeline", "stranger", nil, nil)
	require.Equal(t, http.StatusForbidden, denied.Code)
}
