package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var ErrNoPaymentURL = errors.New("payment response carried no url")

// paymentResponse is flat: unlike the other endpoints the url is not wrapped
// in the data field.
type paymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// CreatePaymentURL asks the payment gateway for a redirect URL for orderID.
func (c *Client) CreatePaymentURL(ctx context.Context, orderID string) (string, error) {
	body, err := c.transport.Do(ctx, http.MethodPost, "/payment/create?orderId="+url.QueryEscape(orderID), nil, nil)
	if err != nil {
		return "", err
	}
	return decodePaymentURL(body)
}

func decodePaymentURL(body []byte) (string, error) {
	var resp paymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode create payment response: %w", err)
	}
	if resp.URL == "" {
		if resp.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrNoPaymentURL, resp.Message)
		}
		return "", ErrNoPaymentURL
	}
	return resp.URL, nil
}
