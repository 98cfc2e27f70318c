package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nrbrt02/fast-shopping/internal/database"
	"github.com/nrbrt02/fast-shopping/internal/entity"
)

var repoTracer = otel.Tracer("github.com/nrbrt02/fast-shopping/repository/product")

var (
	// ErrNotFound is returned when a product is missing.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a decrement would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository encapsulates read/write access for products.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new product using the write connection.
func (r *Repository) Create(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Create", trace.WithAttributes(attribute.String("product.name", product.Name)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(product).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a product by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.GetByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).Where("p.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return product, nil
}

// GetByIDs fetches the given products keyed by id. Missing ids are simply absent.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.GetByIDs", trace.WithAttributes(attribute.Int("product.count", len(ids))))
	defer span.End()

	out := make(map[int64]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []*entity.Product
	err := r.reader.NewSelect().Model(&products).Where("p.id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// ListPublished pages through products visible in the storefront.
func (r *Repository) ListPublished(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.ListPublished", trace.WithAttributes(attribute.Int("query.limit", limit)))
	defer span.End()

	var products []*entity.Product
	err := r.reader.NewSelect().
		Model(&products).
		Where("p.is_published = ?", true).
		Order("p.id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return products, nil
}

// DecrementStock lowers a product's quantity through db, which is normally the
// conversion transaction. The update only applies while enough stock remains, so
// quantity never goes negative even if a concurrent writer got there first.
func (r *Repository) DecrementStock(ctx context.Context, db bun.IDB, id int64, qty int) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.DecrementStock", trace.WithAttributes(
		attribute.Int64("product.id", id),
		attribute.Int("product.decrement", qty),
	))
	defer span.End()

	if qty <= 0 {
		return fmt.Errorf("decrement must be positive, got %d", qty)
	}

	res, err := db.NewUpdate().
		Model((*entity.Product)(nil)).
		Set("quantity = quantity - ?", qty).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("quantity >= ?", qty).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		span.SetStatus(codes.Error, "insufficient stock")
		return ErrInsufficientStock
	}
	return nil
}
