package order

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nrbrt02/fast-shopping/internal/entity"
)

// Metadata keys read or written by the order workflows.
const (
	MetaShippingCost       = "shippingCost"
	MetaPaymentDetails     = "paymentDetails"
	MetaIsDraft            = "isDraft"
	MetaConvertedFromDraft = "convertedFromDraft"
	MetaDraftOrderNumber   = "draftOrderNumber"
	MetaConvertedAt        = "convertedAt"
	MetaFinalTotal         = "finalTotal"
	MetaPaymentStatus      = "paymentStatus"
	MetaDraftTotalAmount   = "draftTotalAmount"
)

// shippingCost reads the shipping charge recorded on a draft. Unparseable or
// negative values count as zero.
func shippingCost(meta map[string]any) decimal.Decimal {
	var (
		cost decimal.Decimal
		err  error
	)
	switch v := meta[MetaShippingCost].(type) {
	case float64:
		cost = decimal.NewFromFloat(v)
	case int:
		cost = decimal.NewFromInt(int64(v))
	case int64:
		cost = decimal.NewFromInt(v)
	case json.Number:
		cost, err = decimal.NewFromString(v.String())
	case string:
		cost, err = decimal.NewFromString(strings.TrimSpace(v))
	case decimal.Decimal:
		cost = v
	default:
		return decimal.Zero
	}
	if err != nil || cost.IsNegative() {
		return decimal.Zero
	}
	return cost
}

// itemsTotal sums subtotal plus tax over every item.
func itemsTotal(items []*entity.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal).Add(item.Tax)
	}
	return total
}

// conversionPatch describes the metadata written when a draft is converted.
// It must be built before the draft's own fields are overwritten.
func conversionPatch(draft *entity.Order, finalTotal decimal.Decimal, paymentStatus entity.PaymentStatus, at time.Time) map[string]any {
	return map[string]any{
		MetaIsDraft:            false,
		MetaConvertedFromDraft: true,
		MetaDraftOrderNumber:   draft.Number,
		MetaConvertedAt:        at.UTC().Format(time.RFC3339),
		MetaFinalTotal:         finalTotal.StringFixed(2),
		MetaPaymentStatus:      string(paymentStatus),
		MetaPaymentDetails:     draft.Metadata[MetaPaymentDetails],
		MetaDraftTotalAmount:   draft.TotalAmount.StringFixed(2),
	}
}

// mergeMetadata shallow-merges patch over base into a new map.
func mergeMetadata(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
