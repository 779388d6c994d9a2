package backend

import (
	"context"
	"net/http"
)

type bearerKey struct{}

// WithBearerToken stores the caller's access token so upstream calls made
// with ctx carry it.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

// ForwardBearer is a header hook for NewTransport.
func ForwardBearer(ctx context.Context, h http.Header) {
	if token := BearerToken(ctx); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
}
