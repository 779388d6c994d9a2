package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercentage   DiscountKind = "percentage"
	DiscountFixed        DiscountKind = "fixed"
	DiscountFreeShipping DiscountKind = "free_shipping"
)

// DiscountRule is a tagged variant: Percent and Cap apply to percentage,
// Amount to fixed, Cap to free_shipping. A non-positive Cap means uncapped.
type DiscountRule struct {
	Kind    DiscountKind    `json:"kind"`
	Percent decimal.Decimal `json:"percent"`
	Amount  int64           `json:"amount"`
	Cap     int64           `json:"cap"`
}

type Voucher struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	MinOrder    int64        `json:"minOrder"`
	Rule        DiscountRule `json:"rule"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}
