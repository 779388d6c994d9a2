package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type CartPage struct {
	Lines      []domain.CartLine
	Page       int
	TotalPages int
}

type cartPageDTO struct {
	Content    []cartItemDTO `json:"content"`
	Number     int           `json:"number"`
	TotalPages int           `json:"totalPages"`
}

type cartItemDTO struct {
	ID            string            `json:"id"`
	Quantity      int               `json:"quantity"`
	Price         int64             `json:"price"`
	ProductDetail *productDetailDTO `json:"productDetail"`
}

type productDetailDTO struct {
	ID      string `json:"id"`
	Price   int64  `json:"price"`
	Product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"product"`
	Attributes []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"attributes"`
}

func (c *Client) ListCartPage(ctx context.Context, customerID string, page, size int) (CartPage, error) {
	query := url.Values{}
	query.Set("customerId", customerID)
	query.Set("page", fmt.Sprint(page))
	query.Set("size", fmt.Sprint(size))

	body, err := c.transport.Do(ctx, http.MethodGet, "/cart?"+query.Encode(), nil, nil)
	if err != nil {
		return CartPage{}, err
	}
	dto, err := decodeData[cartPageDTO]("list cart", body)
	if err != nil {
		return CartPage{}, err
	}

	lines := make([]domain.CartLine, 0, len(dto.Content))
	for _, item := range dto.Content {
		lines = append(lines, item.toDomain())
	}
	return CartPage{Lines: lines, Page: dto.Number, TotalPages: dto.TotalPages}, nil
}

// DeleteCartLine removes one cart line by id.
func (c *Client) DeleteCartLine(ctx context.Context, id string) error {
	_, err := c.transport.Do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(id), nil, nil)
	return err
}

func (item cartItemDTO) toDomain() domain.CartLine {
	line := domain.CartLine{
		ID:        item.ID,
		UnitPrice: item.Price,
		Quantity:  item.Quantity,
	}
	if item.ProductDetail == nil {
		return line
	}

	detail := item.ProductDetail
	line.ProductDetailID = detail.ID
	line.ProductID = detail.Product.ID
	line.Name = detail.Product.Name
	if line.UnitPrice <= 0 {
		line.UnitPrice = detail.Price
	}
	for _, attr := range detail.Attributes {
		line.Attributes = append(line.Attributes, domain.Attribute{Name: attr.Name, Value: attr.Value})
	}
	return line
}
