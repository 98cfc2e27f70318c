package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nrbrt02/fast-shopping/internal/cache"
	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/messaging"
	ordersvc "github.com/nrbrt02/fast-shopping/internal/service/order"
	"github.com/nrbrt02/fast-shopping/internal/worker"
)

var workerTracer = otel.Tracer("github.com/nrbrt02/fast-shopping/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewEventsHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// EventsHandler reacts to events on the orders topic.
type EventsHandler struct {
	cache  cache.Store
	logger *zap.Logger
}

// NewEventsHandler registers an EventsHandler for the configured orders topic.
func NewEventsHandler(store cache.Store, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &EventsHandler{cache: store, logger: logger}
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: h.Handle,
	}
}

// Handle dispatches on the event type. Unknown types and undecodable payloads
// are logged and acknowledged.
func (h *EventsHandler) Handle(ctx context.Context, msg messaging.Message) error {
	ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
		attribute.String("messaging.key", string(msg.Key)),
	))
	defer span.End()

	var envelope ordersvc.EventEnvelope
	err := json.Unmarshal(msg.Value, &envelope)
	if err == nil {
		span.SetAttributes(attribute.String("event.type", envelope.Type))
		switch envelope.Type {
		case ordersvc.EventOrderCreated:
			err = h.created(msg.Value)
		case ordersvc.EventOrderConverted:
			err = h.converted(ctx, msg.Value)
		default:
			h.logger.Debug("ignoring order event", zap.String("type", envelope.Type))
		}
	}
	if err != nil {
		h.logger.Error("dropping malformed order event",
			zap.String("key", string(msg.Key)),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
	}
	return nil
}

func (h *EventsHandler) created(payload []byte) error {
	var event ordersvc.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode %s: %w", ordersvc.EventOrderCreated, err)
	}
	h.logger.Info("order created event processed",
		zap.Int64("id", event.ID),
		zap.String("number", event.Number),
		zap.String("status", event.Status),
		zap.String("total", event.TotalAmount),
	)
	return nil
}

// converted drops the order from the shared cache so instances that did not
// perform the conversion stop serving the draft.
func (h *EventsHandler) converted(ctx context.Context, payload []byte) error {
	var event ordersvc.OrderConvertedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode %s: %w", ordersvc.EventOrderConverted, err)
	}
	if h.cache != nil {
		if err := h.cache.Delete(ctx, cache.Key("orders", event.ID)); err != nil {
			h.logger.Warn("orders cache eviction failed", zap.Int64("id", event.ID), zap.Error(err))
		}
	}
	h.logger.Info("order converted event processed",
		zap.Int64("id", event.ID),
		zap.String("number", event.Number),
		zap.String("draft_number", event.DraftNumber),
		zap.String("total", event.TotalAmount),
	)
	return nil
}
