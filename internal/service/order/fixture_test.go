package order

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap/zaptest"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/database"
	"github.com/nrbrt02/fast-shopping/internal/database/databasetest"
	"github.com/nrbrt02/fast-shopping/internal/entity"
	"github.com/nrbrt02/fast-shopping/internal/messaging"
	repo "github.com/nrbrt02/fast-shopping/internal/repository/order"
	productrepo "github.com/nrbrt02/fast-shopping/internal/repository/product"
)

const (
	customerID = int64(7)
	strangerID = int64(8)
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	conns *database.Connections
	cache *memoryCache
	bus   *recordingBus
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conns := databasetest.New(t)

	var cfg config.Config
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Messaging.Enabled = true
	cfg.Messaging.Kafka.Topic = "orders.events"
	cfg.Orders.NumberPrefix = "ORD-"
	cfg.Orders.DraftPrefix = "DRAFT-"
	cfg.Orders.TaxRate = decimal.Zero

	mc := newMemoryCache()
	bus := &recordingBus{}

	svc := NewService(Params{
		Connections: conns,
		Repository:  repo.NewRepository(conns),
		Products:    productrepo.NewRepository(conns),
		Cache:       mc,
		Config:      cfg,
		Logger:      zaptest.NewLogger(t),
		Publisher:   bus,
	})
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, conns: conns, cache: mc, bus: bus}
}

func (f *fixture) product(t *testing.T, qty int, mods ...func(*entity.Product)) *entity.Product {
	t.Helper()

	p := &entity.Product{
		Name:        "Ceramic mug",
		Price:       decimal.RequireFromString("10.00"),
		IsPublished: true,
		Quantity:    qty,
	}
	for _, mod := range mods {
		mod(p)
	}
	return databasetest.InsertProduct(t, f.conns.Writer, p)
}

func line(p *entity.Product, qty int, subtotal, tax string) *entity.OrderItem {
	return &entity.OrderItem{
		ProductID: p.ID,
		Quantity:  qty,
		UnitPrice: p.Price,
		Subtotal:  decimal.RequireFromString(subtotal),
		Tax:       decimal.RequireFromString(tax),
	}
}

func (f *fixture) draft(t *testing.T, owner int64, items []*entity.OrderItem, mods ...func(*entity.Order)) *entity.Order {
	t.Helper()

	f.seq++
	o := &entity.Order{
		Number:      fmt.Sprintf("DRAFT-%09d", 1000+f.seq),
		Status:      entity.OrderStatusDraft,
		CustomerID:  owner,
		TotalAmount: itemsTotal(items),
		ShippingAddress: &entity.Address{
			Name:    "Ada Lovelace",
			Line1:   "12 Analytical Row",
			City:    "London",
			Country: "GB",
		},
		BillingAddress: &entity.Address{
			Line1:   "12 Analytical Row",
			City:    "London",
			Country: "GB",
		},
		Metadata: map[string]any{
			"isDraft":        true,
			"shippingCost":   4.5,
			"paymentDetails": map[string]any{"method": "card", "last4": "4242"},
			"giftNote":       "happy birthday",
		},
		Items: items,
	}
	for _, mod := range mods {
		mod(o)
	}
	return databasetest.InsertOrder(t, f.conns.Writer, o)
}

func (f *fixture) reload(t *testing.T, id int64) *entity.Order {
	t.Helper()

	o, err := repo.NewRepository(f.conns).GetByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	return databasetest.ProductQuantity(t, f.conns.Writer, id)
}

type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	c.deleted = append(c.deleted, key)
	return nil
}

type published struct {
	key   string
	value []byte
}

type recordingBus struct {
	mu       sync.Mutex
	messages []published
}

func (b *recordingBus) Publish(_ context.Context, key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, published{key: string(key), value: value})
	return nil
}

func (b *recordingBus) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *recordingBus) Topic() string { return "orders.events" }

// commitFailingDB runs the transaction body for real and then rolls back in
// place of committing, reporting err.
type commitFailingDB struct {
	db  *bun.DB
	err error
}

func (c commitFailingDB) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	_ = tx.Rollback()
	return c.err
}
