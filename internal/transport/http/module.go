package http

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/session"
	ordertransport "github.com/nrbrt02/fast-shopping/internal/transport/http/order"
	producttransport "github.com/nrbrt02/fast-shopping/internal/transport/http/product"
)

// Module aggregates all HTTP transport handlers. Routes that act for a
// customer share the `name:"auth"` session middleware.
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewAuthMiddleware, fx.ResultTags(`name:"auth"`))),
	ordertransport.Module,
	producttransport.Module,
)

// NewAuthMiddleware resolves the customer from the configured header.
func NewAuthMiddleware(cfg config.Config) echo.MiddlewareFunc {
	return session.Middleware(cfg.Auth.CustomerHeader)
}
