package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func lines(pairs ...int64) []domain.CartLine {
	var out []domain.CartLine
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.CartLine{ID: "l", UnitPrice: pairs[i], Quantity: int(pairs[i+1])})
	}
	return out
}

func TestCalculate(t *testing.T) {
	calc := NewCalculator(30000)
	quote := Quote{Fee: 30000, Available: true}

	t.Run("fixed voucher", func(t *testing.T) {
		v := &domain.Voucher{ID: "v1", Rule: domain.DiscountRule{Kind: domain.DiscountFixed, Amount: 20000}}

		got := calc.Calculate(lines(100000, 2), quote, v, now)

		assert.Equal(t, int64(200000), got.Subtotal)
		assert.Equal(t, int64(20000), got.Discount)
		assert.Equal(t, int64(210000), got.Total)
		assert.True(t, got.VoucherApplied)
	})

	t.Run("percentage voucher is capped", func(t *testing.T) {
		v := &domain.Voucher{Rule: domain.DiscountRule{Kind: domain.DiscountPercentage, Percent: decimal.NewFromInt(50), Cap: 10000}}

		got := calc.Calculate(lines(50000, 1), quote, v, now)

		assert.Equal(t, int64(50000), got.Subtotal)
		assert.Equal(t, int64(10000), got.Discount)
		assert.Equal(t, int64(70000), got.Total)
	})

	t.Run("no voucher", func(t *testing.T) {
		got := calc.Calculate(lines(50000, 3), quote, nil, now)

		assert.Zero(t, got.Discount)
		assert.False(t, got.VoucherApplied)
		assert.Equal(t, got.Subtotal+got.ShippingFee, got.Total)
	})

	t.Run("free shipping is capped at the fee", func(t *testing.T) {
		v := &domain.Voucher{Rule: domain.DiscountRule{Kind: domain.DiscountFreeShipping, Cap: 50000}}

		got := calc.Calculate(lines(10000, 1), quote, v, now)

		assert.Equal(t, int64(30000), got.Discount)
		assert.Equal(t, int64(10000), got.Total)
	})

	t.Run("percentage floors to whole units", func(t *testing.T) {
		v := &domain.Voucher{Rule: domain.DiscountRule{Kind: domain.DiscountPercentage, Percent: decimal.RequireFromString("12.5")}}

		got := calc.Calculate(lines(999, 1), quote, v, now)

		assert.Equal(t, int64(124), got.Discount)
	})

	t.Run("fixed amount never exceeds subtotal", func(t *testing.T) {
		v := &domain.Voucher{Rule: domain.DiscountRule{Kind: domain.DiscountFixed, Amount: 500000}}

		got := calc.Calculate(lines(10000, 1), quote, v, now)

		assert.Equal(t, int64(10000), got.Discount)
		assert.Equal(t, int64(30000), got.Total)
	})

	t.Run("missing quote falls back to the default fee", func(t *testing.T) {
		got := calc.Calculate(lines(10000, 1), Quote{}, nil, now)

		assert.Equal(t, int64(30000), got.ShippingFee)
		assert.True(t, got.ShippingEstimated)
	})

	t.Run("ineligible voucher gives no discount", func(t *testing.T) {
		v := &domain.Voucher{ID: "v2", MinOrder: 1000000, Rule: domain.DiscountRule{Kind: domain.DiscountFixed, Amount: 20000}}

		got := calc.Calculate(lines(10000, 1), quote, v, now)

		assert.Zero(t, got.Discount)
		assert.False(t, got.VoucherApplied)
		assert.Equal(t, "v2", got.VoucherID)
	})
}

func TestCalculateInvariants(t *testing.T) {
	calc := NewCalculator(30000)
	rules := []domain.DiscountRule{
		{},
		{Kind: domain.DiscountFixed, Amount: 1},
		{Kind: domain.DiscountFixed, Amount: 10_000_000},
		{Kind: domain.DiscountFixed, Amount: -500},
		{Kind: domain.DiscountPercentage, Percent: decimal.NewFromInt(150)},
		{Kind: domain.DiscountPercentage, Percent: decimal.NewFromInt(-20)},
		{Kind: domain.DiscountPercentage, Percent: decimal.NewFromInt(30), Cap: 5000},
		{Kind: domain.DiscountFreeShipping},
		{Kind: domain.DiscountFreeShipping, Cap: 1000},
	}
	carts := [][]domain.CartLine{lines(1, 1), lines(100000, 2, 35000, 3), lines(0, 5)}
	fees := []int64{0, 15000, 30000, 250000}

	for _, rule := range rules {
		for _, cart := range carts {
			for _, fee := range fees {
				v := &domain.Voucher{Rule: rule}
				quote := Quote{Fee: fee, Available: true}

				got := calc.Calculate(cart, quote, v, now)

				assert.GreaterOrEqual(t, got.Total, int64(0))
				assert.GreaterOrEqual(t, got.Discount, int64(0))
				assert.LessOrEqual(t, got.Discount, got.Subtotal+got.ShippingFee)
				assert.Equal(t, got, calc.Calculate(cart, quote, v, now))
			}
		}
	}
}

func TestEligible(t *testing.T) {
	fixed := domain.DiscountRule{Kind: domain.DiscountFixed, Amount: 1000}

	assert.NoError(t, Eligible(domain.Voucher{Rule: fixed, MinOrder: 100}, 100, now))
	assert.ErrorIs(t, Eligible(domain.Voucher{Rule: fixed, MinOrder: 101}, 100, now), ErrVoucherNotEligible)
	assert.ErrorIs(t, Eligible(domain.Voucher{Rule: fixed, ExpiresAt: now.Add(-time.Minute)}, 100, now), ErrVoucherNotEligible)
	assert.NoError(t, Eligible(domain.Voucher{Rule: fixed, ExpiresAt: now.Add(time.Minute)}, 100, now))

	err := Eligible(domain.Voucher{}, 100, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVoucherNotEligible))
}

func TestResolve(t *testing.T) {
	local := Snapshot{Subtotal: 200000, ShippingFee: 30000, Total: 230000}

	assert.Equal(t, local, Resolve(local, nil))

	server := int64(226300)
	got := Resolve(local, &server)
	assert.Equal(t, int64(226300), got.Total)
	assert.True(t, got.ServerConfirmed)
}
