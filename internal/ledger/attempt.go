package ledger

import (
	"time"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

// Attempt is one placed order as seen by checkout, including the advisory
// steps that failed after the order was created.
type Attempt struct {
	ID                string               `json:"id"`
	IdempotencyKey    string               `json:"idempotency_key"`
	OrderID           string               `json:"order_id"`
	OrderCode         string               `json:"order_code"`
	CustomerID        string               `json:"customer_id"`
	PaymentMethod     domain.PaymentMethod `json:"payment_method"`
	ShippingFee       int64                `json:"shipping_fee"`
	TotalProductPrice int64                `json:"total_product_price"`
	TotalOrderPrice   int64                `json:"total_order_price"`
	CleanupFailures   []string             `json:"cleanup_failures"`
	PaymentLinkFailed bool                 `json:"payment_link_failed"`
	PlacedAt          time.Time            `json:"placed_at"`
	RecordedAt        time.Time            `json:"recorded_at"`
}

// NeedsAttention reports whether an operator should follow up on the attempt.
func (a Attempt) NeedsAttention() bool {
	return len(a.CleanupFailures) > 0 || a.PaymentLinkFailed
}

func attemptFromEvent(e domain.OrderPlacedEvent) Attempt {
	failures := e.CleanupFailures
	if failures == nil {
		failures = []string{}
	}
	return Attempt{
		IdempotencyKey:    e.IdempotencyKey,
		OrderID:           e.OrderID,
		OrderCode:         e.OrderCode,
		CustomerID:        e.CustomerID,
		PaymentMethod:     e.PaymentMethod,
		ShippingFee:       e.ShippingFee,
		TotalProductPrice: e.TotalProductPrice,
		TotalOrderPrice:   e.TotalOrderPrice,
		CleanupFailures:   failures,
		PaymentLinkFailed: e.PaymentLinkFailed,
		PlacedAt:          e.Timestamp,
	}
}
