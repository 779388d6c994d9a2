package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/messaging"
)

type Store interface {
	Record(ctx context.Context, a *Attempt) (bool, error)
	GetByOrderCode(ctx context.Context, code string) (*Attempt, error)
	List(ctx context.Context, f Filter) ([]Attempt, error)
}

// Recorder turns order_placed events into ledger rows.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Handle is a messaging.Handler. Undecodable or incomplete events are
// poison; storage errors are returned so the message is redelivered.
func (r *Recorder) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w: %w", messaging.ErrPoison, err)
	}
	if event.IdempotencyKey == "" || event.OrderID == "" {
		return fmt.Errorf("order placed event without idempotency key or order id: %w", messaging.ErrPoison)
	}

	attempt := attemptFromEvent(event)
	inserted, err := r.store.Record(ctx, &attempt)
	if err != nil {
		r.logger.Error("failed to record checkout attempt", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("record attempt: %w", err)
	}

	if !inserted {
		r.logger.Info("duplicate order placed event ignored", "order_id", event.OrderID, "idempotency_key", event.IdempotencyKey)
		return nil
	}

	if attempt.NeedsAttention() {
		r.logger.Warn("checkout attempt needs attention",
			"order_id", event.OrderID,
			"order_code", event.OrderCode,
			"cleanup_failures", len(event.CleanupFailures),
			"payment_link_failed", event.PaymentLinkFailed,
		)
	} else {
		r.logger.Info("checkout attempt recorded", "order_id", event.OrderID, "order_code", event.OrderCode)
	}
	return nil
}
