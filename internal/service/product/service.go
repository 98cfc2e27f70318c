package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/entity"
	repo "github.com/nrbrt02/fast-shopping/internal/repository/product"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/nrbrt02/fast-shopping/service/product")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service serves the product catalogue.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   logger,
	}
}

// List pages through published products.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.List")
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.repo.ListPublished(ctx, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list products", errorbank.WithCause(err))
	}
	return products, nil
}

// Get retrieves a published product, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Get", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, err := s.getFromCache(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("products cache read failed", zap.Int64("id", id), zap.Error(err))
		}

		product, err = s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, errorbank.NotFound("product not found", errorbank.WithReason("not_found"))
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
		}

		if err := s.storeInCache(ctx, product); err != nil {
			s.logger.Warn("products cache write failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	if !product.IsPublished {
		return nil, errorbank.NotFound("product not found", errorbank.WithReason("not_found"))
	}
	return product, nil
}

// CreateInput describes a new catalogue entry.
type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	IsPublished bool
	IsDigital   bool
}

// Create adds a product to the catalogue.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Create")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, errorbank.BadRequest("name is required", errorbank.WithReason("invalid_input"))
	case in.Price.IsNegative():
		return nil, errorbank.BadRequest("price must not be negative", errorbank.WithReason("invalid_input"))
	case in.Quantity < 0:
		return nil, errorbank.BadRequest("quantity must not be negative", errorbank.WithReason("invalid_input"))
	}

	now := time.Now().UTC()
	product := &entity.Product{
		Name:        name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Quantity:    in.Quantity,
		IsPublished: in.IsPublished,
		IsDigital:   in.IsDigital,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create product", errorbank.WithCause(err))
	}

	s.logger.Info("product created", zap.Int64("id", product.ID), zap.String("name", product.Name))
	return product, nil
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Product, error) {
	return cache.GetJSON[entity.Product](ctx, s.cache, cache.Key("products", id))
}

func (s *Service) storeInCache(ctx context.Context, product *entity.Product) error {
	return cache.SetJSON(ctx, s.cache, cache.Key("products", product.ID), product, s.cacheTTL)
}
