package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "CASH"
	PaymentMethodBanking PaymentMethod = "BANKING"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodBanking
}

type OrderItem struct {
	ProductDetailID string `json:"productDetailId"`
	Quantity        int    `json:"quantity"`
}

// OrderSubmission is the create-order payload. It is built once per submit
// attempt and never mutated afterwards.
type OrderSubmission struct {
	CustomerID        string        `json:"customerId"`
	AddressID         string        `json:"addressId"`
	DiscountID        string        `json:"discountId,omitempty"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	ShippingFee       int64         `json:"shippingFee"`
	TotalProductPrice int64         `json:"totalProductPrice"`
	TotalOrderPrice   int64         `json:"totalOrderPrice"`
	Notes             string        `json:"notes,omitempty"`
	Items             []OrderItem   `json:"items"`
}

type Order struct {
	ID              string        `json:"id"`
	Code            string        `json:"code"`
	CustomerID      string        `json:"customerId"`
	Status          string        `json:"status"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	ShippingFee     int64         `json:"shippingFee"`
	TotalOrderPrice *int64        `json:"totalOrderPrice,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

type ShippingInfo struct {
	OrderCode            string    `json:"orderCode"`
	ExpectedDeliveryTime time.Time `json:"expectedDeliveryTime"`
	Fee                  int64     `json:"fee"`
}

// PlacedOrder is what the backend returns from order creation.
type PlacedOrder struct {
	Order    Order         `json:"order"`
	Shipping *ShippingInfo `json:"shipping,omitempty"`
}
