package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const maxResponseBytes = 4 << 20

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("backend: unavailable")

// APIError is a non-2xx answer from an upstream service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// Message returns the server-provided message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type response struct {
	status int
	body   []byte
}

const (
	defaultHalfOpenRequests = 8
	defaultOpenTimeout      = 30 * time.Second
)

// Transport performs JSON requests against one upstream base URL. Transport
// failures and 5xx answers count against the breaker; 4xx answers and
// requests the caller cancelled do not.
type Transport struct {
	baseURL  string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[response]
	headers  func(ctx context.Context, h http.Header)
	halfOpen uint32
	openFor  time.Duration
}

type TransportOption func(*Transport)

// WithHeaders adds a hook that decorates every outgoing request.
func WithHeaders(fn func(ctx context.Context, h http.Header)) TransportOption {
	return func(t *Transport) {
		t.headers = fn
	}
}

// WithHalfOpenRequests sets how many requests a half-open breaker admits
// at once. It should cover the widest fan-out a caller runs, such as
// parallel cart cleanup.
func WithHalfOpenRequests(n int) TransportOption {
	return func(t *Transport) {
		if n > 0 {
			t.halfOpen = uint32(n)
		}
	}
}

func NewTransport(name, baseURL string, client *http.Client, opts ...TransportOption) *Transport {
	t := &Transport{
		baseURL:  baseURL,
		client:   client,
		halfOpen: defaultHalfOpenRequests,
		openFor:  defaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        name,
		MaxRequests: t.halfOpen,
		Timeout:     t.openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return t
}

// Do sends body (JSON-encoded when non-nil) and returns the raw response body
// of a 2xx answer. Non-2xx answers become *APIError with the upstream message.
func (t *Transport) Do(ctx context.Context, method, path string, header http.Header, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = data
	}

	resp, err := t.breaker.Execute(func() (response, error) {
		return t.send(ctx, method, path, header, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.status < 200 || resp.status > 299 {
		return nil, &APIError{Status: resp.status, Message: errorMessage(resp.body)}
	}
	return resp.body, nil
}

func (t *Transport) send(ctx context.Context, method, path string, header http.Header, payload []byte) (response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if t.headers != nil {
		t.headers(ctx, req.Header)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return response{}, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return response{status: resp.StatusCode, body: data}, nil
}

// errorMessage extracts a human message from the error bodies seen upstream:
// {"message": ...} from the shop API and {"error": ...} from everything else.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
