package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

// Client talks to the GHN shipping data API. Every call goes upstream; there
// is no caching.
type Client struct {
	transport     *backend.Transport
	serviceTypeID int
}

func NewClient(baseURL, token, shopID string, serviceTypeID int, httpClient *http.Client) *Client {
	headers := func(_ context.Context, h http.Header) {
		h.Set("Token", token)
		if shopID != "" {
			h.Set("ShopId", shopID)
		}
	}
	return &Client{
		transport:     backend.NewTransport("shipping", baseURL, httpClient, backend.WithHeaders(headers)),
		serviceTypeID: serviceTypeID,
	}
}

type ghnEnvelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func decodeGHN[T any](endpoint string, body []byte) (T, error) {
	var env ghnEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if env.Code != 0 && env.Code != http.StatusOK {
		var zero T
		return zero, &backend.APIError{Status: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

func (c *Client) ListProvinces(ctx context.Context) ([]domain.Province, error) {
	body, err := c.transport.Do(ctx, http.MethodGet, "/master-data/province", nil, nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeGHN[[]struct {
		ProvinceID   int    `json:"ProvinceID"`
		ProvinceName string `json:"ProvinceName"`
	}]("province", body)
	if err != nil {
		return nil, err
	}

	provinces := make([]domain.Province, 0, len(rows))
	for _, row := range rows {
		provinces = append(provinces, domain.Province{ID: row.ProvinceID, Name: row.ProvinceName})
	}
	return provinces, nil
}

func (c *Client) ListDistricts(ctx context.Context, provinceID int) ([]domain.District, error) {
	path := "/master-data/district?province_id=" + strconv.Itoa(provinceID)
	body, err := c.transport.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeGHN[[]struct {
		DistrictID   int    `json:"DistrictID"`
		ProvinceID   int    `json:"ProvinceID"`
		DistrictName string `json:"DistrictName"`
	}]("district", body)
	if err != nil {
		return nil, err
	}

	districts := make([]domain.District, 0, len(rows))
	for _, row := range rows {
		districts = append(districts, domain.District{ID: row.DistrictID, ProvinceID: row.ProvinceID, Name: row.DistrictName})
	}
	return districts, nil
}

func (c *Client) ListWards(ctx context.Context, districtID int) ([]domain.Ward, error) {
	path := "/master-data/ward?district_id=" + strconv.Itoa(districtID)
	body, err := c.transport.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeGHN[[]struct {
		WardCode   string `json:"WardCode"`
		DistrictID int    `json:"DistrictID"`
		WardName   string `json:"WardName"`
	}]("ward", body)
	if err != nil {
		return nil, err
	}

	wards := make([]domain.Ward, 0, len(rows))
	for _, row := range rows {
		wards = append(wards, domain.Ward{Code: row.WardCode, DistrictID: row.DistrictID, Name: row.WardName})
	}
	return wards, nil
}

type FeeRequest struct {
	DistrictID     int
	WardCode       string
	WeightGrams    int
	InsuranceValue int64
}

// QuoteFee asks the shipping provider for the delivery fee to an address.
func (c *Client) QuoteFee(ctx context.Context, req FeeRequest) (int64, error) {
	payload := map[string]any{
		"service_type_id": c.serviceTypeID,
		"to_district_id":  req.DistrictID,
		"to_ward_code":    req.WardCode,
		"weight":          req.WeightGrams,
		"insurance_value": req.InsuranceValue,
	}
	body, err := c.transport.Do(ctx, http.MethodPost, "/v2/shipping-order/fee", nil, payload)
	if err != nil {
		return 0, err
	}
	fee, err := decodeGHN[struct {
		Total int64 `json:"total"`
	}]("fee", body)
	if err != nil {
		return 0, err
	}
	return fee.Total, nil
}
