package order

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/database"
	"github.com/nrbrt02/fast-shopping/internal/database/databasetest"
	"github.com/nrbrt02/fast-shopping/internal/entity"
	"github.com/nrbrt02/fast-shopping/internal/messaging"
	orderrepo "github.com/nrbrt02/fast-shopping/internal/repository/order"
	productrepo "github.com/nrbrt02/fast-shopping/internal/repository/product"
	service "github.com/nrbrt02/fast-shopping/internal/service/order"
	"github.com/nrbrt02/fast-shopping/internal/session"
)

const header = "X-Customer-ID"

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Meta   map[string]any  `json:"meta"`
	Error  *struct {
		Kind    string         `json:"kind"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func setup(t *testing.T) (*echo.Echo, *database.Connections) {
	t.Helper()

	conns := databasetest.New(t)

	var cfg config.Config
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Orders.NumberPrefix = "ORD-"
	cfg.Orders.DraftPrefix = "DRAFT-"

	svc := service.NewService(service.Params{
		Connections: conns,
		Repository:  orderrepo.NewRepository(conns),
		Products:    productrepo.NewRepository(conns),
		Cache:       cache.Noop(),
		Config:      cfg,
		Logger:      zaptest.NewLogger(t),
		Publisher:   messaging.Noop("orders.events"),
	})

	e := echo.New()
	Register(e, NewHandler(svc), session.Middleware(header))
	return e, conns
}

func seedDraft(t *testing.T, conns *database.Connections, owner int64, stock, qty int) (*entity.Order, *entity.Product) {
	t.Helper()

	p := databasetest.InsertProduct(t, conns.Writer, &entity.Product{
		Name:        "Notebook",
		Price:       decimal.RequireFromString("4.00"),
		IsPublished: true,
		Quantity:    stock,
	})
	subtotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
	o := databasetest.InsertOrder(t, conns.Writer, &entity.Order{
		Number:          "DRAFT-000000001",
		Status:          entity.OrderStatusDraft,
		CustomerID:      owner,
		TotalAmount:     subtotal,
		ShippingAddress: &entity.Address{Line1: "5 Hill Rd", City: "Kigali"},
		BillingAddress:  &entity.Address{Line1: "5 Hill Rd", City: "Kigali"},
		Metadata:        map[string]any{"isDraft": true, "shippingCost": "2.00"},
		Items: []*entity.OrderItem{{
			ProductID: p.ID,
			Quantity:  qty,
			UnitPrice: p.Price,
			Subtotal:  subtotal,
			Tax:       decimal.Zero,
		}},
	})
	return o, p
}

func do(e *echo.Echo, method, path, customer, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if customer != "" {
		req.Header.Set(header, customer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestConvertEndpoint(t *testing.T) {
	e, conns := setup(t)
	draft, p := seedDraft(t, conns, 7, 3, 2)

	rec, env := do(e, http.MethodPost, fmt.Sprintf("/orders/%d/convert", draft.ID), "7", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", env.Status)

	var data struct {
		Order struct {
			Number      string         `json:"number"`
			Status      string         `json:"status"`
			TotalAmount string         `json:"total_amount"`
			Metadata    map[string]any `json:"metadata"`
			Items       []struct {
				Quantity int `json:"quantity"`
			} `json:"items"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "pending", data.Order.Status)
	assert.Equal(t, "10.00", data.Order.TotalAmount)
	assert.Regexp(t, `^ORD-\d{9}$`, data.Order.Number)
	assert.Equal(t, "DRAFT-000000001", data.Order.Metadata["draftOrderNumber"])
	assert.Len(t, data.Order.Items, 1)
	assert.Equal(t, 1, databasetest.ProductQuantity(t, conns.Writer, p.ID))
}

func TestConvertEndpointErrors(t *testing.T) {
	tests := []struct {
		name     string
		owner    int64
		stock    int
		path     func(id int64) string
		customer string
		code     int
		reason   string
	}{
		{"anonymous", 7, 5, convertPath, "", http.StatusUnauthorized, ""},
		{"garbage identity", 7, 5, convertPath, "abc", http.StatusUnauthorized, ""},
		{"other customer", 7, 5, convertPath, "8", http.StatusForbidden, "forbidden"},
		{"invalid id", 7, 5, func(int64) string { return "/orders/nope/convert" }, "7", http.StatusBadRequest, "invalid_input"},
		{"unknown id", 7, 5, func(int64) string { return "/orders/9999/convert" }, "7", http.StatusNotFound, "not_found"},
		{"out of stock", 7, 1, convertPath, "7", http.StatusBadRequest, "insufficient_stock"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, conns := setup(t)
			draft, p := seedDraft(t, conns, tc.owner, tc.stock, 2)

			rec, env := do(e, http.MethodPost, tc.path(draft.ID), tc.customer, "")

			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			assert.Equal(t, "error", env.Status)
			require.NotNil(t, env.Error)
			if tc.reason != "" {
				assert.Equal(t, tc.reason, env.Error.Details["reason"])
			}
			assert.Equal(t, tc.stock, databasetest.ProductQuantity(t, conns.Writer, p.ID))
		})
	}
}

func convertPath(id int64) string {
	return fmt.Sprintf("/orders/%d/convert", id)
}

func TestCreateAndListEndpoints(t *testing.T) {
	e, conns := setup(t)
	p := databasetest.InsertProduct(t, conns.Writer, &entity.Product{
		Name:        "Pen",
		Price:       decimal.RequireFromString("1.50"),
		IsPublished: true,
		Quantity:    10,
	})

	body := fmt.Sprintf(`{"items":[{"productId":%d,"quantity":4}],"shippingAddress":{"line1":"1 Lake St","city":"Kigali"}}`, p.ID)
	rec, env := do(e, http.MethodPost, "/orders", "7", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Order struct {
			ID          int64  `json:"id"`
			Status      string `json:"status"`
			TotalAmount string `json:"total_amount"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "draft", created.Order.Status)
	assert.Equal(t, "6.00", created.Order.TotalAmount)

	rec, env = do(e, http.MethodGet, "/orders?limit=500", "7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 100, env.Meta["limit"])
	var listed struct {
		Orders []struct {
			ID int64 `json:"id"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.Orders, 1)
	assert.Equal(t, created.Order.ID, listed.Orders[0].ID)

	rec, _ = do(e, http.MethodGet, fmt.Sprintf("/orders/%d", created.Order.ID), "8", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = do(e, http.MethodGet, fmt.Sprintf("/orders/%d", created.Order.ID), "7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
