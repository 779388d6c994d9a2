package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

const IdempotencyHeader = "Idempotency-Key"

// ErrIncompleteOrder is returned when order creation answers without an
// order id or code.
var ErrIncompleteOrder = errors.New("order response carried no order id or code")

// CreateOrder submits the order once. The idempotency key lets the backend
// collapse duplicate submissions of the same attempt.
func (c *Client) CreateOrder(ctx context.Context, idempotencyKey string, submission domain.OrderSubmission) (domain.PlacedOrder, error) {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(IdempotencyHeader, idempotencyKey)
	}

	body, err := c.transport.Do(ctx, http.MethodPost, "/order", header, submission)
	if err != nil {
		return domain.PlacedOrder{}, err
	}
	placed, err := decodeData[domain.PlacedOrder]("create order", body)
	if err != nil {
		return domain.PlacedOrder{}, err
	}
	if placed.Order.ID == "" || placed.Order.Code == "" {
		return domain.PlacedOrder{}, fmt.Errorf("create order: %w", ErrIncompleteOrder)
	}
	return placed, nil
}
