package session

import (
	"context"
	"errors"
	"time"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/location"
	"github.com/joao-fontenele/storefront-checkout/internal/pricing"
)

var (
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrSubmitInProgress = errors.New("checkout submit already in progress")
)

// Session is the form state of one checkout. Prices are not stored; they are
// recomputed from Lines, ShippingQuote and Voucher on every read.
type Session struct {
	ID            string               `json:"id"`
	CustomerID    string               `json:"customerId"`
	Lines         []domain.CartLine    `json:"lines"`
	Location      location.Selection   `json:"location"`
	AddressID     string               `json:"addressId,omitempty"`
	Voucher       *domain.Voucher      `json:"voucher,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Note          string               `json:"note,omitempty"`
	ShippingQuote pricing.Quote        `json:"shippingQuote"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type Store interface {
	Create(ctx context.Context, s Session) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
	// AcquireSubmit takes the per-session submit lock. The returned func
	// releases it.
	AcquireSubmit(ctx context.Context, id string) (func(), error)
}
