package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

// AddressPayload is the body of the add/update address endpoints.
type AddressPayload struct {
	CustomerID    string `json:"customerId"`
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	Street        string `json:"street"`
	ProvinceID    int    `json:"provinceId"`
	ProvinceName  string `json:"provinceName"`
	DistrictID    int    `json:"districtId"`
	DistrictName  string `json:"districtName"`
	WardCode      string `json:"wardCode"`
	WardName      string `json:"wardName"`
	FullAddress   string `json:"fullAddress"`
}

func (c *Client) ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error) {
	body, err := c.transport.Do(ctx, http.MethodGet, "/address/user/"+url.PathEscape(customerID), nil, nil)
	if err != nil {
		return nil, err
	}
	addresses, err := decodeData[[]domain.Address]("list addresses", body)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = []domain.Address{}
	}
	return addresses, nil
}

func (c *Client) CreateAddress(ctx context.Context, payload AddressPayload) (string, error) {
	body, err := c.transport.Do(ctx, http.MethodPost, "/address", nil, payload)
	if err != nil {
		return "", err
	}
	created, err := decodeData[struct {
		ID string `json:"id"`
	}]("add address", body)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) UpdateAddress(ctx context.Context, id string, payload AddressPayload) error {
	_, err := c.transport.Do(ctx, http.MethodPut, "/address/"+url.PathEscape(id), nil, payload)
	return err
}

func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	_, err := c.transport.Do(ctx, http.MethodDelete, "/address/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) SetDefaultAddress(ctx context.Context, customerID, id string) error {
	path := "/address/" + url.PathEscape(id) + "/default?customerId=" + url.QueryEscape(customerID)
	_, err := c.transport.Do(ctx, http.MethodPut, path, nil, nil)
	return err
}
