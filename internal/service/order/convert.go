package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/entity"
	repo "github.com/nrbrt02/fast-shopping/internal/repository/order"
	productrepo "github.com/nrbrt02/fast-shopping/internal/repository/product"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

// convertedColumns are the order columns rewritten by a conversion.
var convertedColumns = []string{"number", "status", "payment_status", "total_amount", "metadata", "updated_at"}

// ConvertDraft turns the requester's draft order into a pending, payable order.
//
// Validation, stock decrements and the order update run in one write transaction;
// any failure rolls all of it back. The returned order is re-read afterwards
// through the reader pool, outside that transaction.
func (s *Service) ConvertDraft(ctx context.Context, draftID string, requesterID int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ConvertDraft", trace.WithAttributes(
		attribute.String("order.draft_id", draftID),
		attribute.Int64("order.customer_id", requesterID),
	))
	defer span.End()

	id, ok := parseOrderID(draftID)
	if !ok {
		err := invalidDraftID(draftID)
		s.recordConversion(ctx, ReasonInvalidInput)
		span.SetStatus(codes.Error, ReasonInvalidInput)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("order.id", id))

	var (
		draftNumber string
		touched     []int64
	)
	err := s.tx.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		draft, err := s.repo.FindWithItems(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return draftNotFound(id)
			}
			return err
		}
		if err := checkDraft(draft, requesterID); err != nil {
			return err
		}

		touched = touched[:0]
		for _, item := range draft.Items {
			if item.Product.IsDigital {
				continue
			}
			if err := s.products.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, productrepo.ErrInsufficientStock) {
					return insufficientStock(item)
				}
				return err
			}
			touched = append(touched, item.ProductID)
		}

		now := s.now().UTC()
		finalTotal := itemsTotal(draft.Items).Add(shippingCost(draft.Metadata))
		paymentStatus := draft.PaymentStatus
		if paymentStatus == "" {
			paymentStatus = entity.PaymentStatusPending
		}
		patch := conversionPatch(draft, finalTotal, paymentStatus, now)

		draftNumber = draft.Number
		draft.Number = s.numbers.Next(draftNumber)
		draft.Status = entity.OrderStatusPending
		draft.PaymentStatus = paymentStatus
		draft.TotalAmount = finalTotal
		draft.Metadata = mergeMetadata(draft.Metadata, patch)
		draft.UpdatedAt = now

		return s.repo.Update(ctx, tx, draft, convertedColumns...)
	})
	if err != nil {
		return nil, s.conversionFailed(ctx, span, id, err)
	}

	keys := []string{cache.Key("orders", id)}
	for _, productID := range touched {
		keys = append(keys, cache.Key("products", productID))
	}
	s.evict(ctx, keys...)

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reload failed")
		s.logger.Error("converted order reload failed", zap.Int64("id", id), zap.Error(err))
		return nil, errorbank.Internal("order converted but could not be reloaded", errorbank.WithCause(err))
	}

	s.recordConversion(ctx, "success")
	s.publish(ctx, order.ID, newOrderConvertedEvent(uuid.NewString(), order, draftNumber))
	s.logger.Info("draft order converted",
		zap.Int64("id", order.ID),
		zap.String("draft_number", draftNumber),
		zap.String("number", order.Number),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	span.SetAttributes(attribute.String("order.number", order.Number))
	return order, nil
}

// checkDraft applies the ordered precondition checks to a loaded draft.
func checkDraft(draft *entity.Order, requesterID int64) error {
	if !draft.IsDraft() {
		return notDraft(draft)
	}
	if draft.CustomerID != requesterID {
		return notOwner()
	}
	if len(draft.Items) == 0 {
		return emptyDraft()
	}
	if !draft.ShippingAddress.Present() {
		return missingField("shipping address", ErrMissingShippingAddress)
	}
	if !draft.BillingAddress.Present() {
		return missingField("billing address", ErrMissingBillingAddress)
	}
	for _, item := range draft.Items {
		if item.Product == nil || !item.Product.IsPublished {
			name := ""
			if item.Product != nil {
				name = item.Product.Name
			}
			return productUnavailable(item.ProductID, name)
		}
		if !item.Product.IsDigital && item.Product.Quantity < item.Quantity {
			return insufficientStock(item)
		}
	}
	return nil
}

// conversionFailed classifies a failed conversion. Domain errors pass through
// untouched; store errors are logged and wrapped with the original as cause.
func (s *Service) conversionFailed(ctx context.Context, span trace.Span, id int64, err error) error {
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		reason := appErr.Reason()
		s.recordConversion(ctx, reason)
		span.SetStatus(codes.Error, reason)
		s.logger.Info("draft order conversion rejected",
			zap.Int64("id", id),
			zap.String("reason", reason),
			zap.String("message", appErr.Message()),
		)
		return appErr
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "conversion failed")
	s.recordConversion(ctx, "error")

	if errors.Is(err, repo.ErrDuplicateNumber) {
		s.logger.Warn("order number collision during conversion", zap.Int64("id", id), zap.Error(err))
		return errorbank.Conflict("order number collision, please retry", errorbank.WithCause(err))
	}

	s.logger.Error("draft order conversion failed", zap.Int64("id", id), zap.Error(err))
	return errorbank.Internal("failed to convert draft order", errorbank.WithCause(err))
}

func (s *Service) recordConversion(ctx context.Context, outcome string) {
	s.conversions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
