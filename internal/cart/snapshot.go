package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

const (
	defaultPageSize = 50
	maxPages        = 100
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnknownCartLine = errors.New("cart line not found")
)

type Pager interface {
	ListCartPage(ctx context.Context, customerID string, page, size int) (backend.CartPage, error)
}

// Provider reads the customer's server-side cart.
type Provider struct {
	pager    Pager
	pageSize int
}

func NewProvider(pager Pager) *Provider {
	return &Provider{pager: pager, pageSize: defaultPageSize}
}

// Snapshot returns the cart lines for checkout. With selectedIDs it returns
// exactly those lines in the requested order.
func (p *Provider) Snapshot(ctx context.Context, customerID string, selectedIDs []string) ([]domain.CartLine, error) {
	lines, err := p.all(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(selectedIDs) == 0 {
		if len(lines) == 0 {
			return nil, ErrEmptyCart
		}
		return lines, nil
	}
	return Select(lines, selectedIDs)
}

func (p *Provider) all(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	for page := 0; page < maxPages; page++ {
		result, err := p.pager.ListCartPage(ctx, customerID, page, p.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list cart page %d: %w", page, err)
		}
		lines = append(lines, result.Lines...)
		if len(result.Lines) == 0 || page+1 >= result.TotalPages {
			break
		}
	}
	return lines, nil
}

// Select picks the lines with the given ids, in id order. Duplicated ids are
// collapsed.
func Select(lines []domain.CartLine, ids []string) ([]domain.CartLine, error) {
	byID := make(map[string]domain.CartLine, len(lines))
	for _, line := range lines {
		byID[line.ID] = line
	}

	seen := make(map[string]struct{}, len(ids))
	selected := make([]domain.CartLine, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		line, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCartLine, id)
		}
		selected = append(selected, line)
	}
	if len(selected) == 0 {
		return nil, ErrEmptyCart
	}
	return selected, nil
}
