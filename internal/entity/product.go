package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Product is a catalogue entry with its stock level.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          int64           `bun:",pk,autoincrement"`
	Name        string          `bun:"name,notnull"`
	Description string          `bun:"description"`
	Price       decimal.Decimal `bun:"price,type:decimal(12,2),notnull"`
	IsPublished bool            `bun:"is_published,notnull"`
	IsDigital   bool            `bun:"is_digital,notnull"`
	Quantity    int             `bun:"quantity,notnull"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `bun:"updated_at,nullzero"`
}
