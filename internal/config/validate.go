package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// normalize fills derived defaults and rejects unusable settings, one section at a time.
func (c *Config) normalize() error {
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port <= 0 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}

	sections := []struct {
		name string
		fn   func() error
	}{
		{"cache", c.Cache.normalize},
		{"observability", c.Observability.normalize},
		{"messaging", c.Messaging.normalize},
		{"database", c.Database.normalize},
		{"orders", c.Orders.normalize},
	}
	for _, section := range sections {
		if err := section.fn(); err != nil {
			return fmt.Errorf("%s config: %w", section.name, err)
		}
	}

	c.Auth.CustomerHeader = strings.TrimSpace(c.Auth.CustomerHeader)
	if c.Auth.CustomerHeader == "" {
		c.Auth.CustomerHeader = "X-Customer-ID"
	}
	return nil
}

func (c *Cache) normalize() error {
	if !c.Enabled {
		c.Driver = "noop"
	}
	switch c.Driver {
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("missing REDIS_ADDR for redis cache")
		}
	case "memory", "noop":
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Driver)
	}
	if c.DefaultTTL < 0 {
		c.DefaultTTL = 5 * time.Minute
	}
	return nil
}

func (o *Observability) normalize() error {
	o.LogLevel = lowerOr(o.LogLevel, "info")
	o.LogEncoding = lowerOr(o.LogEncoding, "json")
	o.TraceExporter = lowerOr(o.TraceExporter, "stdout")
	o.MetricsExporter = lowerOr(o.MetricsExporter, "prometheus")

	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		return fmt.Errorf("OBS_TRACE_SAMPLE_RATIO must be within [0,1], got %v", o.TraceSampleRatio)
	}

	switch {
	case o.PrometheusPath == "":
		o.PrometheusPath = "/metrics"
	case !strings.HasPrefix(o.PrometheusPath, "/"):
		o.PrometheusPath = "/" + o.PrometheusPath
	}
	return nil
}

func (m *Messaging) normalize() error {
	if !m.Enabled {
		m.Driver = "noop"
	}
	switch m.Driver {
	case "kafka":
		switch {
		case len(m.Kafka.Brokers) == 0:
			return errors.New("KAFKA_BROKERS must be provided")
		case m.Kafka.Topic == "":
			return errors.New("KAFKA_TOPIC must be provided")
		case m.ConsumerGroup == "":
			return errors.New("KAFKA_CONSUMER_GROUP must be provided")
		}
	case "noop":
	default:
		return fmt.Errorf("unsupported messaging driver: %s", m.Driver)
	}

	if m.Workers.Concurrency <= 0 {
		m.Workers.Concurrency = 1
	}
	if m.Workers.PollInterval <= 0 {
		m.Workers.PollInterval = time.Second
	}
	return nil
}

func (d *Database) normalize() error {
	switch d.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", d.Driver)
	}
	if d.WriterDSN == "" {
		return errors.New("missing DB_WRITER_DSN")
	}
	if d.ReaderDSN == "" {
		d.ReaderDSN = d.WriterDSN
	}
	if d.SlowQueryThreshold < 0 {
		d.SlowQueryThreshold = 0
	}
	return nil
}

func (o *Orders) normalize() error {
	if o.TaxRate.IsNegative() {
		return errors.New("ORDERS_TAX_RATE must not be negative")
	}
	o.NumberPrefix = strings.TrimSpace(o.NumberPrefix)
	if o.NumberPrefix == "" {
		return errors.New("ORDERS_NUMBER_PREFIX must not be empty")
	}
	o.DraftPrefix = strings.TrimSpace(o.DraftPrefix)
	if o.DraftPrefix == "" {
		o.DraftPrefix = "DRAFT-"
	}
	if o.DraftPrefix == o.NumberPrefix {
		return errors.New("ORDERS_DRAFT_PREFIX must differ from ORDERS_NUMBER_PREFIX")
	}
	return nil
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
