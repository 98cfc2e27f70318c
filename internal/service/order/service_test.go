package order

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/entity"
	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

func TestCreateDraft(t *testing.T) {
	f := newFixture(t)
	f.svc.taxRate = decimal.RequireFromString("0.1")
	mug := f.product(t, 5)
	poster := f.product(t, 2, func(p *entity.Product) {
		p.Name = "Poster"
		p.Price = decimal.RequireFromString("7.25")
	})

	got, err := f.svc.CreateDraft(context.Background(), customerID, CreateDraftInput{
		Items: []DraftItemInput{
			{ProductID: mug.ID, Quantity: 1},
			{ProductID: poster.ID, Quantity: 2},
			{ProductID: mug.ID, Quantity: 1},
		},
		ShippingAddress: &entity.Address{Line1: "1 Main St", City: "Kigali"},
		Metadata:        map[string]any{"shippingCost": 3},
	})
	require.NoError(t, err)

	assert.NotZero(t, got.ID)
	assert.Regexp(t, `^DRAFT-\d{9}$`, got.Number)
	assert.Equal(t, entity.OrderStatusDraft, got.Status)
	assert.Equal(t, entity.PaymentStatusPending, got.PaymentStatus)
	assert.Equal(t, true, got.Metadata[MetaIsDraft])
	assert.Equal(t, 3, got.Metadata[MetaShippingCost])

	require.Len(t, got.Items, 2)
	assert.Equal(t, mug.ID, got.Items[0].ProductID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "20.00", got.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "2.00", got.Items[0].Tax.StringFixed(2))
	assert.Equal(t, "14.50", got.Items[1].Subtotal.StringFixed(2))
	assert.Equal(t, "1.45", got.Items[1].Tax.StringFixed(2))
	assert.Equal(t, "37.95", got.TotalAmount.StringFixed(2))

	stored := f.reload(t, got.ID)
	assert.Equal(t, got.Number, stored.Number)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, 5, f.stock(t, mug.ID), "drafts do not reserve stock")

	require.Len(t, f.bus.messages, 1)
	assert.Equal(t, fmt.Sprintf("order-%d", got.ID), f.bus.messages[0].key)
	var event OrderCreatedEvent
	require.NoError(t, json.Unmarshal(f.bus.messages[0].value, &event))
	assert.Equal(t, EventOrderCreated, event.Type)
	assert.Equal(t, "37.95", event.TotalAmount)

	_, err = f.cache.Get(context.Background(), cache.Key("orders", got.ID))
	assert.NoError(t, err)
}

func TestCreateDraftRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	hidden := f.product(t, 5, func(p *entity.Product) { p.IsPublished = false })

	tests := []struct {
		name   string
		items  []DraftItemInput
		kind   errorbank.Kind
		reason string
	}{
		{"no items", nil, errorbank.KindBadRequest, ReasonInvalidInput},
		{"zero quantity", []DraftItemInput{{ProductID: hidden.ID}}, errorbank.KindBadRequest, ReasonInvalidInput},
		{"unknown product", []DraftItemInput{{ProductID: 404, Quantity: 1}}, errorbank.KindNotFound, ReasonNotFound},
		{"unpublished product", []DraftItemInput{{ProductID: hidden.ID, Quantity: 1}}, errorbank.KindBadRequest, ReasonProductUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateDraft(context.Background(), customerID, CreateDraftInput{Items: tc.items})
			requireKind(t, err, tc.kind, tc.reason)
		})
	}
	assert.Empty(t, f.bus.messages)
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	mug := f.product(t, 5)
	draft := f.draft(t, customerID, []*entity.OrderItem{line(mug, 1, "10.00", "0")})

	got, err := f.svc.Get(context.Background(), draft.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, draft.Number, got.Number)
	require.Len(t, got.Items, 1)

	_, err = f.cache.Get(context.Background(), cache.Key("orders", draft.ID))
	require.NoError(t, err, "first read fills the cache")

	cached, err := f.svc.Get(context.Background(), draft.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, draft.Number, cached.Number)
	assert.True(t, cached.TotalAmount.Equal(got.TotalAmount))
}

func TestGetOtherCustomer(t *testing.T) {
	f := newFixture(t)
	mug := f.product(t, 5)
	draft := f.draft(t, customerID, []*entity.OrderItem{line(mug, 1, "10.00", "0")})

	_, err := f.svc.Get(context.Background(), draft.ID, strangerID)

	assert.ErrorIs(t, err, ErrNotOwner)
	requireKind(t, err, errorbank.KindForbidden, ReasonForbidden)
}

func TestGetMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), 12345, customerID)

	requireKind(t, err, errorbank.KindNotFound, ReasonNotFound)
}

func TestListForCustomer(t *testing.T) {
	f := newFixture(t)
	mug := f.product(t, 5)
	first := f.draft(t, customerID, []*entity.OrderItem{line(mug, 1, "10.00", "0")})
	second := f.draft(t, customerID, []*entity.OrderItem{line(mug, 1, "10.00", "0")})
	f.draft(t, strangerID, []*entity.OrderItem{line(mug, 1, "10.00", "0")})

	orders, err := f.svc.ListForCustomer(context.Background(), customerID, 0, 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)

	page, err := f.svc.ListForCustomer(context.Background(), customerID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, defaultListLimit, 0},
		{-5, -1, defaultListLimit, 0},
		{50, 10, 50, 10},
		{1000, 0, maxListLimit, 0},
	}
	for _, tc := range tests {
		limit, offset := ClampPage(tc.limit, tc.offset)
		assert.Equal(t, tc.wantLimit, limit)
		assert.Equal(t, tc.wantOffset, offset)
	}
}
