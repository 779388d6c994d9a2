package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, server.Client())
}

func TestClient_ListCartPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cart", r.URL.Path)
		assert.Equal(t, "c-1", r.URL.Query().Get("customerId"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"status":200,"message":"ok","data":{"number":1,"totalPages":2,"content":[
			{"id":"l-1","quantity":2,"price":0,"productDetail":{"id":"pd-1","price":100000,
				"product":{"id":"p-1","name":"Tee"},"attributes":[{"name":"Size","value":"M"}]}},
			{"id":"l-2","quantity":1,"price":5000}
		]}}`))
	})

	page, err := client.ListCartPage(context.Background(), "c-1", 1, 20)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Lines, 2)
	assert.Equal(t, domain.CartLine{
		ID:              "l-1",
		ProductID:       "p-1",
		ProductDetailID: "pd-1",
		Name:            "Tee",
		UnitPrice:       100000,
		Quantity:        2,
		Attributes:      []domain.Attribute{{Name: "Size", Value: "M"}},
	}, page.Lines[0])
	assert.Empty(t, page.Lines[1].ProductDetailID)
	assert.Equal(t, int64(5000), page.Lines[1].UnitPrice)
}

func TestClient_ListVouchers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discount/customer/c-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":200,"data":[
			{"id":"v-1","code":"HALF","title":"50% off","discountType":"PERCENT","percent":50,"maxDiscount":10000,"minOrderValue":0,"endDate":"2030-01-01T00:00:00Z"},
			{"id":"v-2","code":"MINUS20","title":"Giảm 20% phí ship","discountType":"FIXED","amount":20000,"endDate":"2030-01-01T00:00:00Z"},
			{"id":"v-3","code":"SHIP","discountType":"FREESHIP","maxDiscount":15000,"endDate":"2030-01-01T00:00:00Z"},
			{"id":"v-4","code":"ODD","discountType":"MYSTERY","endDate":"2030-01-01T00:00:00Z"}
		]}`))
	})

	vouchers, err := client.ListVouchers(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, vouchers, 4)

	assert.Equal(t, domain.DiscountPercentage, vouchers[0].Rule.Kind)
	assert.True(t, decimal.NewFromInt(50).Equal(vouchers[0].Rule.Percent))
	assert.Equal(t, int64(10000), vouchers[0].Rule.Cap)
	// the title mentions a percentage but the structured type says fixed
	assert.Equal(t, domain.DiscountFixed, vouchers[1].Rule.Kind)
	assert.Equal(t, int64(20000), vouchers[1].Rule.Amount)
	assert.Equal(t, domain.DiscountFreeShipping, vouchers[2].Rule.Kind)
	assert.Equal(t, domain.DiscountKind(""), vouchers[3].Rule.Kind)
}

func TestClient_CreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get(IdempotencyHeader))

		var submission domain.OrderSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&submission))
		assert.Equal(t, domain.PaymentMethodCash, submission.PaymentMethod)
		assert.Equal(t, []domain.OrderItem{{ProductDetailID: "pd-1", Quantity: 2}}, submission.Items)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":201,"message":"created","data":{"order":{"id":"o-1","code":"ORD-001","totalOrderPrice":210000},"shipping":{"orderCode":"GHN1","fee":30000}}}`))
	})

	placed, err := client.CreateOrder(context.Background(), "key-1", domain.OrderSubmission{
		CustomerID:    "c-1",
		AddressID:     "a-1",
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []domain.OrderItem{{ProductDetailID: "pd-1", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "o-1", placed.Order.ID)
	assert.Equal(t, "ORD-001", placed.Order.Code)
	require.NotNil(t, placed.Order.TotalOrderPrice)
	assert.Equal(t, int64(210000), *placed.Order.TotalOrderPrice)
	require.NotNil(t, placed.Shipping)
	assert.Equal(t, "GHN1", placed.Shipping.OrderCode)
}

func TestClient_CreateOrderRejected(t *testing.T) {
	t.Run("error status inside a 200 envelope", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":400,"message":"product out of stock","data":null}`))
		})

		_, err := client.CreateOrder(context.Background(), "key-1", domain.OrderSubmission{})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "product out of stock", Message(err, "fallback"))
	})

	t.Run("order without id or code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":200,"data":{"order":{"id":"o-1"}}}`))
		})

		_, err := client.CreateOrder(context.Background(), "key-1", domain.OrderSubmission{})
		assert.ErrorIs(t, err, ErrIncompleteOrder)
	})
}

func TestDecodeData(t *testing.T) {
	got, err := decodeData[string]("test", []byte(`{"data":"ok"}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	_, err = decodeData[string]("test", []byte(`{"status":500,"message":"boom"}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.Status)
}

func TestClient_CreatePaymentURL(t *testing.T) {
	t.Run("reads flat response", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payment/create", r.URL.Path)
			assert.Equal(t, "o-1", r.URL.Query().Get("orderId"))
			_, _ = w.Write([]byte(`{"status":"OK","message":"success","url":"https://pay.example/xyz"}`))
		})

		paymentURL, err := client.CreatePaymentURL(context.Background(), "o-1")
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example/xyz", paymentURL)
	})

	t.Run("rejects response without url", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"FAILED","message":"gateway down","data":{"url":"ignored"}}`))
		})

		_, err := client.CreatePaymentURL(context.Background(), "o-1")
		assert.ErrorIs(t, err, ErrNoPaymentURL)
		assert.Contains(t, err.Error(), "gateway down")
	})
}

func TestClient_Addresses(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"status":200,"data":null}`))
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"status":200,"data":{"id":"a-9"}}`))
		default:
			_, _ = w.Write([]byte(`{"status":200}`))
		}
	})
	ctx := context.Background()

	list, err := client.ListAddresses(ctx, "c-1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	id, err := client.CreateAddress(ctx, AddressPayload{CustomerID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "a-9", id)

	require.NoError(t, client.UpdateAddress(ctx, "a-9", AddressPayload{CustomerID: "c-1"}))
	require.NoError(t, client.SetDefaultAddress(ctx, "c-1", "a-9"))
	require.NoError(t, client.DeleteAddress(ctx, "a-9"))

	assert.Equal(t, []string{
		"GET /address/user/c-1",
		"POST /address",
		"PUT /address/a-9",
		"PUT /address/a-9/default?customerId=c-1",
		"DELETE /address/a-9",
	}, calls)
}
