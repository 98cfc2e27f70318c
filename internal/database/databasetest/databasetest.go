// Package databasetest provides throwaway in-memory databases for tests.
package databasetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/nrbrt02/fast-shopping/internal/database"
	"github.com/nrbrt02/fast-shopping/internal/entity"
)

// New opens an isolated in-memory SQLite database with the schema applied.
// Writer and Reader share the same handle.
func New(t testing.TB) *database.Connections {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, database.CreateSchema(context.Background(), db))

	return &database.Connections{Writer: db, Reader: db}
}

// InsertProduct persists p and fills in its ID.
func InsertProduct(t testing.TB, db bun.IDB, p *entity.Product) *entity.Product {
	t.Helper()

	_, err := db.NewInsert().Model(p).Exec(context.Background())
	require.NoError(t, err)
	return p
}

// InsertOrder persists o together with its items.
func InsertOrder(t testing.TB, db bun.IDB, o *entity.Order) *entity.Order {
	t.Helper()

	ctx := context.Background()
	_, err := db.NewInsert().Model(o).Exec(ctx)
	require.NoError(t, err)

	for _, item := range o.Items {
		item.OrderID = o.ID
		_, err := db.NewInsert().Model(item).Exec(ctx)
		require.NoError(t, err)
	}
	return o
}

// ProductQuantity reads the current stock level of a product.
func ProductQuantity(t testing.TB, db bun.IDB, id int64) int {
	t.Helper()

	var qty int
	err := db.NewSelect().
		Model((*entity.Product)(nil)).
		Column("quantity").
		Where("id = ?", id).
		Scan(context.Background(), &qty)
	require.NoError(t, err)
	return qty
}
