package product

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nrbrt02/fast-shopping/internal/dto"
	"github.com/nrbrt02/fast-shopping/internal/presentation/http/response"
	service "github.com/nrbrt02/fast-shopping/internal/service/product"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/nrbrt02/fast-shopping/transport/http/product")

// Handler exposes catalogue endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a product Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Reads are public; creation needs auth.
func Register(e *echo.Echo, h *Handler, auth echo.MiddlewareFunc) {
	g := e.Group("/products")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("", h.create, auth)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "products.list")
	defer span.End()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	products, err := h.svc.List(ctx, limit, offset)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"products": dto.NewProductResponses(products)}).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err), errorbank.WithReason("invalid_input"))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.getByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"product": dto.NewProductResponse(product)}).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Quantity    int             `json:"quantity"`
		IsPublished bool            `json:"isPublished"`
		IsDigital   bool            `json:"isDigital"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err), errorbank.WithReason("invalid_input"))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.create")
	span.SetAttributes(attribute.String("product.name", payload.Name))
	defer span.End()

	product, err := h.svc.Create(ctx, service.CreateInput{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Quantity:    payload.Quantity,
		IsPublished: payload.IsPublished,
		IsDigital:   payload.IsDigital,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(map[string]any{"product": dto.NewProductResponse(product)}).Build()
}
