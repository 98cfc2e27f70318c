package order

import (
	"errors"
	"fmt"

	"github.com/nrbrt02/fast-shopping/internal/entity"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

// Conversion failures. Each is the cause of the *errorbank.AppError returned to callers.
var (
	ErrInvalidDraftID         = errors.New("invalid draft order id")
	ErrDraftNotFound          = errors.New("draft order not found")
	ErrNotDraft               = errors.New("order is not a draft")
	ErrNotOwner               = errors.New("order belongs to another customer")
	ErrEmptyDraft             = errors.New("draft order has no items")
	ErrMissingShippingAddress = errors.New("shipping address is required")
	ErrMissingBillingAddress  = errors.New("billing address is required")
	ErrProductUnavailable     = errors.New("product is not available")
	ErrInsufficientStock      = errors.New("insufficient stock")
)

// Reasons reported under the "reason" error detail.
const (
	ReasonInvalidInput       = "invalid_input"
	ReasonNotFound           = "not_found"
	ReasonInvalidState       = "invalid_state"
	ReasonForbidden          = "forbidden"
	ReasonMissingField       = "missing_field"
	ReasonProductUnavailable = "product_unavailable"
	ReasonInsufficientStock  = "insufficient_stock"
)

func invalidDraftID(raw string) *errorbank.AppError {
	return errorbank.BadRequest(fmt.Sprintf("invalid draft id %q", raw),
		errorbank.WithCause(ErrInvalidDraftID),
		errorbank.WithReason(ReasonInvalidInput),
	)
}

func draftNotFound(id int64) *errorbank.AppError {
	return errorbank.NotFound("draft order not found",
		errorbank.WithCause(ErrDraftNotFound),
		errorbank.WithReason(ReasonNotFound),
		errorbank.WithDetail("order_id", id),
	)
}

func notDraft(o *entity.Order) *errorbank.AppError {
	return errorbank.BadRequest("order is not a draft",
		errorbank.WithCause(ErrNotDraft),
		errorbank.WithReason(ReasonInvalidState),
		errorbank.WithDetail("status", string(o.Status)),
	)
}

func notOwner() *errorbank.AppError {
	return errorbank.Forbidden("you do not have access to this order",
		errorbank.WithCause(ErrNotOwner),
		errorbank.WithReason(ReasonForbidden),
	)
}

func emptyDraft() *errorbank.AppError {
	return errorbank.BadRequest("draft order is empty",
		errorbank.WithCause(ErrEmptyDraft),
		errorbank.WithReason(ReasonInvalidState),
	)
}

func missingField(field string, cause error) *errorbank.AppError {
	return errorbank.BadRequest(field+" is required",
		errorbank.WithCause(cause),
		errorbank.WithReason(ReasonMissingField),
		errorbank.WithDetail("field", field),
	)
}

func productUnavailable(productID int64, name string) *errorbank.AppError {
	msg := "product is no longer available"
	if name != "" {
		msg = fmt.Sprintf("product %q is no longer available", name)
	}
	return errorbank.BadRequest(msg,
		errorbank.WithCause(ErrProductUnavailable),
		errorbank.WithReason(ReasonProductUnavailable),
		errorbank.WithDetail("product_id", productID),
	)
}

func insufficientStock(item *entity.OrderItem) *errorbank.AppError {
	opts := []errorbank.Option{
		errorbank.WithCause(ErrInsufficientStock),
		errorbank.WithReason(ReasonInsufficientStock),
		errorbank.WithDetail("product_id", item.ProductID),
		errorbank.WithDetail("requested", item.Quantity),
	}
	name := ""
	if item.Product != nil {
		name = item.Product.Name
		opts = append(opts, errorbank.WithDetail("available", item.Product.Quantity))
	}
	return errorbank.BadRequest(fmt.Sprintf("insufficient stock for product %q", name), opts...)
}
