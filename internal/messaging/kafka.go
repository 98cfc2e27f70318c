package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nrbrt02/fast-shopping/internal/config"
)

const (
	contentTypeHeader = "content-type"
	contentTypeJSON   = "application/json"
	fetchRetryDelay   = time.Second
)

// kafkaClient implements Client via kafka-go. Messages are partitioned by key
// so events for one order stay ordered.
type kafkaClient struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger

	readerConfig kafka.ReaderConfig
	readerOnce   sync.Once
	readerMu     sync.Mutex
	reader       *kafka.Reader
}

func newKafkaClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *kafkaClient {
	topic := cfg.Messaging.Kafka.Topic

	client := &kafkaClient{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Messaging.Kafka.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			Logger:       kafkaLogger{logger: logger},
			ErrorLogger:  kafkaLogger{logger: logger},
		},
		topic:  topic,
		logger: logger,
		readerConfig: kafka.ReaderConfig{
			Brokers:        cfg.Messaging.Kafka.Brokers,
			GroupID:        cfg.Messaging.ConsumerGroup,
			Topic:          topic,
			MinBytes:       cfg.Messaging.Kafka.MinBytes,
			MaxBytes:       cfg.Messaging.Kafka.MaxBytes,
			CommitInterval: cfg.Messaging.Kafka.CommitInterval,
			Dialer: &kafka.Dialer{
				Timeout:  cfg.Messaging.Kafka.ConnectTimeout,
				ClientID: cfg.Messaging.Kafka.ClientID,
			},
		},
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing kafka client")
			return client.Close()
		},
	})

	return client
}

// Publish writes one JSON message carrying the caller's trace context.
func (k *kafkaClient) Publish(ctx context.Context, key []byte, value []byte) error {
	headers := headerCarrier{{Key: contentTypeHeader, Value: []byte(contentTypeJSON)}}
	otel.GetTextMapPropagator().Inject(ctx, &headers)

	msg := kafka.Message{Key: key, Value: value, Headers: headers}
	return k.writer.WriteMessages(ctx, msg)
}

// Consume fetches messages until ctx ends. Offsets are committed only after
// the handler succeeds, so failed messages are redelivered.
func (k *kafkaClient) Consume(ctx context.Context, handler Handler) error {
	reader := k.consumer()
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			k.logger.Error("kafka fetch failed", zap.Error(err))

			select {
			case <-time.After(fetchRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		carrier := headerCarrier(msg.Headers)
		msgCtx := otel.GetTextMapPropagator().Extract(ctx, &carrier)

		if err := handler(msgCtx, toMessage(msg)); err != nil {
			k.logger.Error("message handler failed", zap.Error(err), zap.Int64("offset", msg.Offset), zap.Int("partition", msg.Partition))
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			k.logger.Warn("commit failed", zap.Error(err))
		}
	}
}

func (k *kafkaClient) Topic() string { return k.topic }

// consumer joins the consumer group on first use; publish-only processes never do.
func (k *kafkaClient) consumer() *kafka.Reader {
	k.readerOnce.Do(func() {
		k.readerMu.Lock()
		k.reader = kafka.NewReader(k.readerConfig)
		k.readerMu.Unlock()
	})
	return k.reader
}

func (k *kafkaClient) Close() error {
	err := k.writer.Close()

	k.readerMu.Lock()
	defer k.readerMu.Unlock()
	if k.reader != nil {
		err = errors.Join(err, k.reader.Close())
	}
	return err
}

func toMessage(msg kafka.Message) Message {
	var headers map[string]string
	if len(msg.Headers) > 0 {
		headers = make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
	}
	return Message{
		Topic:   msg.Topic,
		Key:     append([]byte(nil), msg.Key...),
		Value:   append([]byte(nil), msg.Value...),
		Headers: headers,
		Offset:  msg.Offset,
		Time:    msg.Time,
	}
}

// headerCarrier adapts kafka headers to the OpenTelemetry propagation API.
type headerCarrier []kafka.Header

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c))
	for _, h := range *c {
		keys = append(keys, h.Key)
	}
	return keys
}

type kafkaLogger struct {
	logger *zap.Logger
}

func (k kafkaLogger) Printf(msg string, args ...any) {
	k.logger.Sugar().Debugf(msg, args...)
}
