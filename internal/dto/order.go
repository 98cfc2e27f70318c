package dto

import (
	"time"

	"github.com/nrbrt02/fast-shopping/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
// Money amounts are decimal strings with two places.
type OrderResponse struct {
	ID              int64               `json:"id"`
	Number          string              `json:"number"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status,omitempty"`
	CustomerID      int64               `json:"customer_id"`
	TotalAmount     string              `json:"total_amount"`
	ShippingAddress *entity.Address     `json:"shipping_address,omitempty"`
	BillingAddress  *entity.Address     `json:"billing_address,omitempty"`
	Metadata        map[string]any      `json:"metadata,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderItemResponse is one line of an order.
type OrderItemResponse struct {
	ID        int64            `json:"id"`
	ProductID int64            `json:"product_id"`
	Product   *ProductResponse `json:"product,omitempty"`
	Quantity  int              `json:"quantity"`
	UnitPrice string           `json:"unit_price"`
	Subtotal  string           `json:"subtotal"`
	Tax       string           `json:"tax"`
}

// OrderSummary is the list view of an order, without items.
type OrderSummary struct {
	ID            int64     `json:"id"`
	Number        string    `json:"number"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	TotalAmount   string    `json:"total_amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewOrderResponse maps an order with its loaded items.
func NewOrderResponse(o *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		resp := OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Subtotal:  item.Subtotal.StringFixed(2),
			Tax:       item.Tax.StringFixed(2),
		}
		if item.Product != nil {
			p := NewProductResponse(item.Product)
			resp.Product = &p
		}
		items = append(items, resp)
	}

	return OrderResponse{
		ID:              o.ID,
		Number:          o.Number,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		CustomerID:      o.CustomerID,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Metadata:        o.Metadata,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// NewOrderSummaries maps a page of orders for listing.
func NewOrderSummaries(orders []*entity.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderSummary{
			ID:            o.ID,
			Number:        o.Number,
			Status:        string(o.Status),
			PaymentStatus: string(o.PaymentStatus),
			TotalAmount:   o.TotalAmount.StringFixed(2),
			CreatedAt:     o.CreatedAt,
		})
	}
	return out
}
