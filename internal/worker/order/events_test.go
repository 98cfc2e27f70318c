package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/messaging"
)

type deletions []string

func (d *deletions) Get(context.Context, string) ([]byte, error)               { return nil, nil }
func (d *deletions) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (d *deletions) Delete(_ context.Context, key string) error {
	*d = append(*d, key)
	return nil
}

func newHandler(t *testing.T) (messaging.Handler, *deletions) {
	t.Helper()

	var cfg config.Config
	cfg.Messaging.Kafka.Topic = "orders.events"
	deleted := &deletions{}
	reg := NewEventsHandler(deleted, zaptest.NewLogger(t), cfg)
	require.Equal(t, "orders.events", reg.Topic)
	return reg.Handler, deleted
}

func TestHandleConvertedEvictsOrder(t *testing.T) {
	handle, deleted := newHandler(t)

	err := handle(context.Background(), messaging.Message{
		Topic: "orders.events",
		Key:   []byte("order-42"),
		Value: []byte(`{"type":"order.converted","id":42,"number":"ORD-123456789","draft_number":"DRAFT-000000001","total_amount":"26.00"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"orders:42"}, []string(*deleted))
}

func TestHandleCreatedAndUnknown(t *testing.T) {
	handle, deleted := newHandler(t)

	require.NoError(t, handle(context.Background(), messaging.Message{Value: []byte(`{"type":"order.created","id":1}`)}))
	require.NoError(t, handle(context.Background(), messaging.Message{Value: []byte(`{"type":"order.shipped"}`)}))
	assert.Empty(t, *deleted)
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	handle, deleted := newHandler(t)

	assert.NoError(t, handle(context.Background(), messaging.Message{Value: []byte(`not json`)}))
	assert.NoError(t, handle(context.Background(), messaging.Message{Value: []byte(`{"type":"order.converted","id":"x"}`)}))
	assert.Empty(t, *deleted)
}
