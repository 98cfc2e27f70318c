package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{CustomerID: 42})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(42), id.CustomerID)
}

func TestParse(t *testing.T) {
	id, err := Parse(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.CustomerID)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		_, err := Parse(raw)
		assert.Error(t, err, raw)
	}
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(Middleware("X-Customer-ID"))
	e.GET("/me", func(c echo.Context) error {
		id, ok := FromContext(c.Request().Context())
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, map[string]int64{"customer": id.CustomerID})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Customer-ID", "9")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"customer":9}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}
