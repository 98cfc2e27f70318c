package product

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/database/databasetest"
	"github.com/nrbrt02/fast-shopping/internal/entity"
	repo "github.com/nrbrt02/fast-shopping/internal/repository/product"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

type mapCache map[string][]byte

func (m mapCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m[key] = value
	return nil
}

func (m mapCache) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func newService(t *testing.T) (*Service, mapCache) {
	t.Helper()

	conns := databasetest.New(t)
	c := mapCache{}
	svc := NewService(Params{
		Repository: repo.NewRepository(conns),
		Cache:      c,
		Config:     config.Config{},
		Logger:     zaptest.NewLogger(t),
	})
	return svc, c
}

func TestCreateAndGet(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name:        "  Travel mug ",
		Price:       decimal.RequireFromString("12.499"),
		Quantity:    4,
		IsPublished: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Travel mug", created.Name)
	assert.Equal(t, "12.50", created.Price.StringFixed(2))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	require.Contains(t, c, cache.Key("products", created.ID))

	var cached entity.Product
	require.NoError(t, json.Unmarshal(c[cache.Key("products", created.ID)], &cached))
	assert.Equal(t, created.ID, cached.ID)
}

func TestGetServesFromCache(t *testing.T) {
	svc, c := newService(t)

	stale, err := json.Marshal(&entity.Product{ID: 99, Name: "Cached", IsPublished: true, Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	c[cache.Key("products", 99)] = stale

	got, err := svc.Get(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Name)
}

func TestGetHidesUnpublished(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	hidden, err := svc.Create(ctx, CreateInput{Name: "Prototype", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	_, err = svc.Get(ctx, hidden.ID)
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())

	_, err = svc.Get(ctx, 4040)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)

	for name, in := range map[string]CreateInput{
		"blank name":     {Name: " ", Price: decimal.NewFromInt(1)},
		"negative price": {Name: "x", Price: decimal.NewFromInt(-1)},
		"negative stock": {Name: "x", Price: decimal.NewFromInt(1), Quantity: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), in)
			var appErr *errorbank.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())
		})
	}
}

func TestListOnlyPublished(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, published := range []bool{true, false, true} {
		_, err := svc.Create(ctx, CreateInput{Name: "Item", Price: decimal.NewFromInt(3), IsPublished: published})
		require.NoError(t, err)
	}

	products, err := svc.List(ctx, 0, -3)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}
