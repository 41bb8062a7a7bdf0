package middleware

import "context"

// WithTestAccessToken injects an access token into the context. This is
// intended for handler-level unit tests that call handler methods directly
// (bypassing the BearerToken middleware).
func WithTestAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}
