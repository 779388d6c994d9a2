package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type voucherDTO struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	MinOrderValue int64           `json:"minOrderValue"`
	DiscountType  string          `json:"discountType"`
	Percent       decimal.Decimal `json:"percent"`
	Amount        int64           `json:"amount"`
	MaxDiscount   int64           `json:"maxDiscount"`
	EndDate       time.Time       `json:"endDate"`
}

// ListVouchers returns the vouchers available to a customer. The discount
// shape comes from discountType; titles are display text only.
func (c *Client) ListVouchers(ctx context.Context, customerID string) ([]domain.Voucher, error) {
	body, err := c.transport.Do(ctx, http.MethodGet, "/discount/customer/"+url.PathEscape(customerID), nil, nil)
	if err != nil {
		return nil, err
	}
	dtos, err := decodeData[[]voucherDTO]("list vouchers", body)
	if err != nil {
		return nil, err
	}

	vouchers := make([]domain.Voucher, 0, len(dtos))
	for _, dto := range dtos {
		vouchers = append(vouchers, domain.Voucher{
			ID:          dto.ID,
			Code:        dto.Code,
			Title:       dto.Title,
			Description: dto.Description,
			MinOrder:    dto.MinOrderValue,
			ExpiresAt:   dto.EndDate,
			Rule:        dto.rule(),
		})
	}
	return vouchers, nil
}

func (dto voucherDTO) rule() domain.DiscountRule {
	switch strings.ToUpper(strings.TrimSpace(dto.DiscountType)) {
	case "PERCENT", "PERCENTAGE":
		return domain.DiscountRule{Kind: domain.DiscountPercentage, Percent: dto.Percent, Cap: dto.MaxDiscount}
	case "FIXED", "AMOUNT":
		return domain.DiscountRule{Kind: domain.DiscountFixed, Amount: dto.Amount}
	case "FREESHIP", "FREE_SHIPPING", "SHIPPING":
		return domain.DiscountRule{Kind: domain.DiscountFreeShipping, Cap: dto.MaxDiscount}
	default:
		return domain.DiscountRule{}
	}
}
