package checkout

import (
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/pricing"
)

type State string

const (
	StateIdle                 State = "idle"
	StateValidating           State = "validating"
	StateCreating             State = "creating"
	StateCleaningCart         State = "cleaning_cart"
	StateBranching            State = "branching"
	StateRequestingPaymentURL State = "requesting_payment_url"
	StateDone                 State = "done"
)

type NavigationKind string

const (
	NavigateConfirmation NavigationKind = "confirmation"
	NavigateRedirect     NavigationKind = "redirect"
)

// Navigation is where the storefront goes after a submit: the confirmation
// page for OrderCode, or an external payment URL.
type Navigation struct {
	Kind      NavigationKind `json:"kind"`
	OrderCode string         `json:"orderCode,omitempty"`
	URL       string         `json:"url,omitempty"`
}

type Input struct {
	CustomerID     string
	AddressID      string
	Lines          []domain.CartLine
	Voucher        *domain.Voucher
	PaymentMethod  domain.PaymentMethod
	Note           string
	Quote          pricing.Quote
	IdempotencyKey string
}

// Outcome describes a finished submit attempt. On error State is StateIdle
// and Trail shows how far the attempt got.
type Outcome struct {
	State           State              `json:"state"`
	Trail           []State            `json:"trail"`
	IdempotencyKey  string             `json:"idempotencyKey,omitempty"`
	Order           domain.PlacedOrder `json:"order"`
	Pricing         pricing.Snapshot   `json:"pricing"`
	Next            Navigation         `json:"next"`
	Warnings        []string           `json:"warnings,omitempty"`
	CleanupFailures []string           `json:"cleanupFailures,omitempty"`
}
