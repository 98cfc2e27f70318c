package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/observability"
	"github.com/nrbrt02/fast-shopping/internal/presentation/http/response"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// NewEcho configures the Echo router with basic middleware.
func NewEcho(cfg config.Config, obs *observability.Manager, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(obs.PrometheusPath(), echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

// errorHandler renders errors that escape handlers, such as unknown routes,
// in the same envelope the handlers use.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *errorbank.AppError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			if appErr.Kind() == errorbank.KindInternal {
				logger.Error("http request failed", zap.String("path", c.Path()), zap.Error(err))
			}
		case errors.As(err, &httpErr):
			appErr = fromHTTPError(httpErr)
		default:
			logger.Error("http request failed", zap.String("path", c.Path()), zap.Error(err))
			appErr = errorbank.Internal("internal error", errorbank.WithCause(err))
		}

		if err := response.New(c).WithError(appErr).Build(); err != nil {
			logger.Error("write error response", zap.Error(err))
		}
	}
}

func fromHTTPError(httpErr *echo.HTTPError) *errorbank.AppError {
	message := http.StatusText(httpErr.Code)
	if m, ok := httpErr.Message.(string); ok && m != "" {
		message = m
	}
	switch httpErr.Code {
	case http.StatusBadRequest:
		return errorbank.BadRequest(message)
	case http.StatusUnauthorized:
		return errorbank.Unauthorized(message)
	case http.StatusForbidden:
		return errorbank.Forbidden(message)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return errorbank.NotFound(message)
	case http.StatusConflict:
		return errorbank.Conflict(message)
	case http.StatusUnprocessableEntity:
		return errorbank.Unprocessable(message)
	default:
		return errorbank.Internal(message)
	}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:    addr,
		Handler: e,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
