package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/database"
	"github.com/nrbrt02/fast-shopping/internal/entity"
	"github.com/nrbrt02/fast-shopping/internal/messaging"
	repo "github.com/nrbrt02/fast-shopping/internal/repository/order"
	productrepo "github.com/nrbrt02/fast-shopping/internal/repository/product"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

const (
	instrumentationName = "github.com/nrbrt02/fast-shopping/service/order"

	defaultListLimit = 20
	maxListLimit     = 100
)

var serviceTracer = otel.Tracer(instrumentationName)

// txRunner opens write transactions. *bun.DB satisfies it.
type txRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

// Service encapsulates business logic around orders.
type Service struct {
	tx           txRunner
	repo         *repo.Repository
	products     *productrepo.Repository
	cache        cache.Store
	cacheTTL     time.Duration
	logger       *zap.Logger
	publisher    messaging.Client
	messaging    messagingConfig
	numbers      *NumberGenerator
	draftNumbers *NumberGenerator
	taxRate      decimal.Decimal
	conversions  metric.Int64Counter
	now          func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections *database.Connections
	Repository  *repo.Repository
	Products    *productrepo.Repository
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
	Publisher   messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	conversions, err := otel.Meter(instrumentationName).Int64Counter(
		"orders.draft_conversions",
		metric.WithDescription("Draft order conversion attempts by outcome."),
	)
	if err != nil {
		logger.Warn("draft conversion counter unavailable", zap.Error(err))
		conversions = noop.Int64Counter{}
	}

	return &Service{
		tx:        p.Connections.Writer,
		repo:      p.Repository,
		products:  p.Products,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		numbers:      NewNumberGenerator(p.Config.Orders.NumberPrefix),
		draftNumbers: NewNumberGenerator(p.Config.Orders.DraftPrefix),
		taxRate:      p.Config.Orders.TaxRate,
		conversions:  conversions,
		now:          time.Now,
	}
}

// Get retrieves an order owned by requesterID, consulting cache when available.
func (s *Service) Get(ctx context.Context, id, requesterID int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.getFromCache(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
		}

		order, err = s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, errorbank.NotFound("order not found", errorbank.WithReason(ReasonNotFound))
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
		}

		if err := s.storeInCache(ctx, order); err != nil {
			s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
		}
	}

	if order.CustomerID != requesterID {
		return nil, notOwner()
	}
	return order, nil
}

// ListForCustomer pages through the requester's orders, newest first.
func (s *Service) ListForCustomer(ctx context.Context, requesterID int64, limit, offset int) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListForCustomer", trace.WithAttributes(attribute.Int64("order.customer_id", requesterID)))
	defer span.End()

	limit, offset = ClampPage(limit, offset)
	orders, err := s.repo.ListByCustomer(ctx, requesterID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ClampPage normalises paging parameters.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// DraftItemInput is one requested line of a new draft.
type DraftItemInput struct {
	ProductID int64
	Quantity  int
}

// CreateDraftInput describes a cart being saved as a draft order.
type CreateDraftInput struct {
	Items           []DraftItemInput
	ShippingAddress *entity.Address
	BillingAddress  *entity.Address
	Metadata        map[string]any
}

// CreateDraft saves the requester's cart as a draft order priced from the current catalogue.
func (s *Service) CreateDraft(ctx context.Context, requesterID int64, in CreateDraftInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.CreateDraft", trace.WithAttributes(
		attribute.Int64("order.customer_id", requesterID),
		attribute.Int("order.item_count", len(in.Items)),
	))
	defer span.End()

	lines, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load products", errorbank.WithCause(err))
	}

	now := s.now().UTC()
	order := &entity.Order{
		Status:          entity.OrderStatusDraft,
		PaymentStatus:   entity.PaymentStatusPending,
		CustomerID:      requesterID,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		Metadata:        mergeMetadata(in.Metadata, map[string]any{MetaIsDraft: true}),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	total := decimal.Zero
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, errorbank.NotFound(fmt.Sprintf("product %d not found", line.ProductID),
				errorbank.WithReason(ReasonNotFound),
				errorbank.WithDetail("product_id", line.ProductID),
			)
		}
		if !product.IsPublished {
			return nil, productUnavailable(product.ID, product.Name)
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		tax := subtotal.Mul(s.taxRate).Round(2)
		order.Items = append(order.Items, &entity.OrderItem{
			ProductID: product.ID,
			Product:   product,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
			Tax:       tax,
		})
		total = total.Add(subtotal).Add(tax)
	}
	order.TotalAmount = total
	order.Number = s.draftNumbers.Next("")

	if err := s.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		if errors.Is(err, repo.ErrDuplicateNumber) {
			return nil, errorbank.Conflict("order number collision, please retry", errorbank.WithCause(err))
		}
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}

	s.publish(ctx, order.ID, newOrderCreatedEvent(uuid.NewString(), order))
	return order, nil
}

// mergeLines validates requested lines and folds repeated products together,
// keeping first-seen order.
func mergeLines(items []DraftItemInput) ([]DraftItemInput, error) {
	if len(items) == 0 {
		return nil, errorbank.BadRequest("at least one item is required", errorbank.WithReason(ReasonInvalidInput))
	}
	index := make(map[int64]int, len(items))
	lines := make([]DraftItemInput, 0, len(items))
	for _, item := range items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return nil, errorbank.BadRequest("items need a product id and a positive quantity",
				errorbank.WithReason(ReasonInvalidInput),
				errorbank.WithDetail("product_id", item.ProductID),
			)
		}
		if i, ok := index[item.ProductID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, item)
	}
	return lines, nil
}

func parseOrderID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Service) publish(ctx context.Context, orderID int64, event any) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", orderID)), payload); err != nil {
		s.logger.Error("publish order event", zap.Int64("id", orderID), zap.Error(err))
	}
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	return cache.GetJSON[entity.Order](ctx, s.cache, cache.Key("orders", id))
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	return cache.SetJSON(ctx, s.cache, cache.Key("orders", order.ID), order, s.cacheTTL)
}

func (s *Service) evict(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("cache eviction failed", zap.String("key", key), zap.Error(err))
		}
	}
}
