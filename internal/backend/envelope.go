package backend

import (
	"encoding/json"
	"fmt"
)

// envelope is the {status, message, data} wrapper used by most shop API
// endpoints. Each endpoint decodes into its own concrete T.
type envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// decodeData unwraps the envelope. A non-2xx status inside an HTTP 200 body is
// an *APIError like any other upstream rejection.
func decodeData[T any](endpoint string, body []byte) (T, error) {
	var zero T
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if env.Status != 0 && (env.Status < 200 || env.Status > 299) {
		return zero, &APIError{Status: env.Status, Message: env.Message}
	}
	return env.Data, nil
}
