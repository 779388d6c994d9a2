package domain

import "time"

const TopicOrderPlaced = "checkout.order_placed"

type OrderPlacedEvent struct {
	IdempotencyKey    string        `json:"idempotency_key"`
	OrderID           string        `json:"order_id"`
	OrderCode         string        `json:"order_code"`
	CustomerID        string        `json:"customer_id"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	ShippingFee       int64         `json:"shipping_fee"`
	TotalProductPrice int64         `json:"total_product_price"`
	TotalOrderPrice   int64         `json:"total_order_price"`
	CleanupFailures   []string      `json:"cleanup_failures,omitempty"`
	PaymentLinkFailed bool          `json:"payment_link_failed"`
	Timestamp         time.Time     `json:"timestamp"`
}
