package backend

import (
	"net/http"
)

// Client is the typed shop API client.
type Client struct {
	transport *Transport
}

func NewClient(baseURL string, httpClient *http.Client, opts ...TransportOption) *Client {
	opts = append([]TransportOption{WithHeaders(ForwardBearer)}, opts...)
	return &Client{
		transport: NewTransport("backend", baseURL, httpClient, opts...),
	}
}
