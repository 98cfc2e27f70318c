package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/nrbrt02/fast-shopping/internal/entity"
)

// Models lists the table-backed entities in dependency order.
func Models() []any {
	return []any{
		(*entity.Product)(nil),
		(*entity.Order)(nil),
		(*entity.OrderItem)(nil),
	}
}

// CreateSchema creates any missing tables straight from the bun models.
// Production databases are managed by goose migrations instead.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}
