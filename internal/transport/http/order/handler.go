package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nrbrt02/fast-shopping/internal/dto"
	"github.com/nrbrt02/fast-shopping/internal/entity"
	"github.com/nrbrt02/fast-shopping/internal/presentation/http/response"
	service "github.com/nrbrt02/fast-shopping/internal/service/order"
	"github.com/nrbrt02/fast-shopping/internal/session"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/nrbrt02/fast-shopping/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Every order route requires auth.
func Register(e *echo.Echo, h *Handler, auth echo.MiddlewareFunc) {
	g := e.Group("/orders", auth)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.POST("/:id/convert", h.convert)
}

func (h *Handler) convert(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.convert", trace.WithAttributes(attribute.String("order.id", c.Param("id"))))
	defer span.End()

	identity, ok := session.FromContext(ctx)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	order, err := h.svc.ConvertDraft(ctx, c.Param("id"), identity.CustomerID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]any{"order": dto.NewOrderResponse(order)}).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err), errorbank.WithReason(service.ReasonInvalidInput))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	identity, ok := session.FromContext(ctx)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	order, err := h.svc.Get(ctx, id, identity.CustomerID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]any{"order": dto.NewOrderResponse(order)}).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	identity, ok := session.FromContext(ctx)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	limit, offset := service.ClampPage(queryInt(c, "limit"), queryInt(c, "offset"))
	orders, err := h.svc.ListForCustomer(ctx, identity.CustomerID, limit, offset)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]any{"orders": dto.NewOrderSummaries(orders)}).
		WithPage(limit, offset).
		Build()
}

type createItemPayload struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type createPayload struct {
	Items           []createItemPayload `json:"items"`
	ShippingAddress *entity.Address     `json:"shippingAddress"`
	BillingAddress  *entity.Address     `json:"billingAddress"`
	Metadata        map[string]any      `json:"metadata"`
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload createPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err), errorbank.WithReason(service.ReasonInvalidInput))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	span.SetAttributes(attribute.Int("order.item_count", len(payload.Items)))
	defer span.End()

	identity, ok := session.FromContext(ctx)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	in := service.CreateDraftInput{
		ShippingAddress: payload.ShippingAddress,
		BillingAddress:  payload.BillingAddress,
		Metadata:        payload.Metadata,
	}
	for _, item := range payload.Items {
		in.Items = append(in.Items, service.DraftItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.svc.CreateDraft(ctx, identity.CustomerID, in)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(map[string]any{"order": dto.NewOrderResponse(order)}).Build()
}

func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}
