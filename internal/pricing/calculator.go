// Package pricing derives the checkout price breakdown. Everything here is a
// pure function of its inputs.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

var ErrVoucherNotEligible = errors.New("voucher not eligible")

var hundred = decimal.NewFromInt(100)

// Quote is a shipping fee quote. When Available is false the calculator
// uses its default fee.
type Quote struct {
	Fee       int64 `json:"fee"`
	Available bool  `json:"available"`
}

type Snapshot struct {
	Subtotal          int64  `json:"subtotal"`
	ShippingFee       int64  `json:"shippingFee"`
	ShippingEstimated bool   `json:"shippingEstimated"`
	Discount          int64  `json:"discount"`
	VoucherID         string `json:"voucherId,omitempty"`
	VoucherApplied    bool   `json:"voucherApplied"`
	Total             int64  `json:"total"`
	ServerConfirmed   bool   `json:"serverConfirmed"`
}

type Calculator struct {
	DefaultFee int64
}

func NewCalculator(defaultFee int64) Calculator {
	return Calculator{DefaultFee: defaultFee}
}

// Calculate prices lines with the given quote and optional voucher. An
// ineligible voucher contributes no discount.
func (c Calculator) Calculate(lines []domain.CartLine, quote Quote, voucher *domain.Voucher, now time.Time) Snapshot {
	snap := Snapshot{Subtotal: Subtotal(lines)}

	if quote.Available && quote.Fee >= 0 {
		snap.ShippingFee = quote.Fee
	} else {
		snap.ShippingFee = max(c.DefaultFee, 0)
		snap.ShippingEstimated = true
	}

	if voucher != nil {
		snap.VoucherID = voucher.ID
		if Eligible(*voucher, snap.Subtotal, now) == nil {
			snap.Discount = Discount(voucher.Rule, snap.Subtotal, snap.ShippingFee)
			snap.VoucherApplied = true
		}
	}

	snap.Total = max(snap.Subtotal+snap.ShippingFee-snap.Discount, 0)
	return snap
}

func Subtotal(lines []domain.CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.LineTotal()
	}
	return total
}

// Discount applies one rule. The result never exceeds the amount it
// discounts and a non-positive cap means uncapped.
func Discount(rule domain.DiscountRule, subtotal, shippingFee int64) int64 {
	var amount int64
	switch rule.Kind {
	case domain.DiscountFreeShipping:
		amount = applyCap(shippingFee, rule.Cap)
	case domain.DiscountPercentage:
		pct := decimal.Max(decimal.Min(rule.Percent, hundred), decimal.Zero)
		raw := decimal.NewFromInt(max(subtotal, 0)).Mul(pct).Div(hundred).Floor().IntPart()
		amount = applyCap(raw, rule.Cap)
	case domain.DiscountFixed:
		amount = min(rule.Amount, subtotal)
	}
	return max(amount, 0)
}

func applyCap(amount, limit int64) int64 {
	if limit > 0 {
		return min(amount, limit)
	}
	return amount
}

// Eligible reports why a voucher cannot be used for subtotal at now.
func Eligible(v domain.Voucher, subtotal int64, now time.Time) error {
	switch v.Rule.Kind {
	case domain.DiscountPercentage, domain.DiscountFixed, domain.DiscountFreeShipping:
	default:
		return fmt.Errorf("%w: unsupported discount type", ErrVoucherNotEligible)
	}
	if subtotal < v.MinOrder {
		return fmt.Errorf("%w: minimum order is %d", ErrVoucherNotEligible, v.MinOrder)
	}
	if !v.ExpiresAt.IsZero() && now.After(v.ExpiresAt) {
		return fmt.Errorf("%w: expired", ErrVoucherNotEligible)
	}
	return nil
}

// Resolve replaces the local estimate with the total the backend confirmed.
func Resolve(local Snapshot, serverTotal *int64) Snapshot {
	if serverTotal == nil {
		return local
	}
	local.Total = *serverTotal
	local.ServerConfirmed = true
	return local
}
