package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nrbrt02/fast-shopping/internal/database"
	"github.com/nrbrt02/fast-shopping/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// DemoCustomerID owns the seeded draft order.
const DemoCustomerID int64 = 1

// DemoDraftNumber is the number of the seeded draft order.
const DemoDraftNumber = "DRAFT-000000001"

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: conns.Writer, logger: logger}
}

// Run seeds the catalogue and a demo draft order.
func (s *Seeder) Run(ctx context.Context) error {
	products, err := s.Products(ctx)
	if err != nil {
		return err
	}
	return s.DraftOrder(ctx, products)
}

// Products seeds the catalogue when it is empty and returns its first entries.
func (s *Seeder) Products(ctx context.Context) ([]*entity.Product, error) {
	count, err := s.db.NewSelect().Model((*entity.Product)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	if count == 0 {
		now := time.Now().UTC()
		samples := []*entity.Product{
			{Name: "Ceramic mug", Price: decimal.RequireFromString("12.00"), Quantity: 40, IsPublished: true},
			{Name: "Linen tote", Price: decimal.RequireFromString("18.50"), Quantity: 15, IsPublished: true},
			{Name: "Field notebook", Price: decimal.RequireFromString("6.75"), Quantity: 0, IsPublished: true},
			{Name: "Recipe e-book", Price: decimal.RequireFromString("9.99"), IsPublished: true, IsDigital: true},
			{Name: "Prototype lamp", Price: decimal.RequireFromString("59.00"), Quantity: 3},
		}
		for _, p := range samples {
			p.CreatedAt = now
			p.UpdatedAt = now
		}
		if _, err := s.db.NewInsert().Model(&samples).Exec(ctx); err != nil {
			return nil, fmt.Errorf("insert products: %w", err)
		}
		s.logger.Info("seeded products", zap.Int("count", len(samples)))
	}

	var products []*entity.Product
	if err := s.db.NewSelect().Model(&products).Order("p.id ASC").Limit(2).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

// DraftOrder seeds a convertible draft for DemoCustomerID if it is missing.
func (s *Seeder) DraftOrder(ctx context.Context, products []*entity.Product) error {
	if len(products) == 0 {
		return nil
	}

	exists, err := s.db.NewSelect().Model((*entity.Order)(nil)).Where("number = ?", DemoDraftNumber).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check draft: %w", err)
	}
	if exists {
		return nil
	}

	now := time.Now().UTC()
	address := &entity.Address{Name: "Demo Shopper", Line1: "1 KN 5 Rd", City: "Kigali", Country: "RW"}
	order := &entity.Order{
		Number:          DemoDraftNumber,
		Status:          entity.OrderStatusDraft,
		PaymentStatus:   entity.PaymentStatusPending,
		CustomerID:      DemoCustomerID,
		ShippingAddress: address,
		BillingAddress:  address,
		Metadata:        map[string]any{"isDraft": true, "shippingCost": "5.00"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	total := decimal.Zero
	for _, p := range products {
		item := &entity.OrderItem{
			ProductID: p.ID,
			Quantity:  1,
			UnitPrice: p.Price,
			Subtotal:  p.Price,
			Tax:       decimal.Zero,
		}
		order.Items = append(order.Items, item)
		total = total.Add(item.Subtotal)
	}
	order.TotalAmount = total

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return fmt.Errorf("insert draft: %w", err)
		}
		for _, item := range order.Items {
			item.OrderID = order.ID
		}
		if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
			return fmt.Errorf("insert draft items: %w", err)
		}
		s.logger.Info("seeded draft order", zap.String("number", order.Number), zap.Int64("customer_id", order.CustomerID))
		return nil
	})
}
