package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "draft"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order. The zero value means unset.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order represents a purchase order stored in the relational database.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              int64           `bun:",pk,autoincrement"`
	Number          string          `bun:"number,notnull,unique"`
	Status          OrderStatus     `bun:"status,notnull"`
	PaymentStatus   PaymentStatus   `bun:"payment_status"`
	CustomerID      int64           `bun:"customer_id,notnull"`
	TotalAmount     decimal.Decimal `bun:"total_amount,type:decimal(12,2),notnull"`
	ShippingAddress *Address        `bun:"shipping_address,type:jsonb"`
	BillingAddress  *Address        `bun:"billing_address,type:jsonb"`
	Metadata        map[string]any  `bun:"metadata,type:jsonb"`
	Items           []*OrderItem    `bun:"rel:has-many,join:id=order_id"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero"`
}

// IsDraft reports whether the order is still an unconfirmed cart.
func (o *Order) IsDraft() bool {
	return o != nil && o.Status == OrderStatusDraft
}

// OrderItem is a single line of an order.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID        int64           `bun:",pk,autoincrement"`
	OrderID   int64           `bun:"order_id,notnull"`
	ProductID int64           `bun:"product_id,notnull"`
	Product   *Product        `bun:"rel:belongs-to,join:product_id=id"`
	Quantity  int             `bun:"quantity,notnull"`
	UnitPrice decimal.Decimal `bun:"unit_price,type:decimal(12,2),notnull"`
	Subtotal  decimal.Decimal `bun:"subtotal,type:decimal(12,2),notnull"`
	Tax       decimal.Decimal `bun:"tax,type:decimal(12,2),notnull"`
}

// Address is a postal address stored as JSON on the order row.
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Present reports whether the address carries enough to ship or bill to.
func (a *Address) Present() bool {
	if a == nil {
		return false
	}
	return strings.TrimSpace(a.Line1) != "" || strings.TrimSpace(a.City) != ""
}
