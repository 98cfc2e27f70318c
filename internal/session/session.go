// Package session carries the authenticated requester through request contexts.
package session

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nrbrt02/fast-shopping/internal/presentation/http/response"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

// Identity is the authenticated requester.
type Identity struct {
	CustomerID int64
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the requester identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.CustomerID > 0
}

// Parse reads a customer id as sent by the upstream auth layer.
func Parse(raw string) (Identity, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, errorbank.Unauthorized("missing or invalid customer identity")
	}
	return Identity{CustomerID: id}, nil
}

// Middleware resolves the requester from header and rejects anonymous requests.
// Token verification happens upstream; this layer only trusts the forwarded id.
func Middleware(header string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := Parse(c.Request().Header.Get(header))
			if err != nil {
				return response.New(c).WithError(err).Build()
			}
			req := c.Request()
			c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}
