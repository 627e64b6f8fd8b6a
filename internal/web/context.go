package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

// withRequestMetadata adds the client IP and User-Agent to the context so
// they are recorded with the analysis and its logs.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr) // already resolved by TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
