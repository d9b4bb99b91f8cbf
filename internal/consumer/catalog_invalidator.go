// Package consumer reacts to catalog change events published by the
// merchandising side.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type ProductEvictor interface {
	Delete(ctx context.Context, code string) error
}

// CatalogInvalidator evicts cached products named in catalog update events.
type CatalogInvalidator struct {
	reader     MessageReader
	cache      ProductEvictor
	log        *slog.Logger
	retryDelay time.Duration
}

func NewCatalogInvalidator(cache ProductEvictor, log *slog.Logger, topic, groupID string, brokers ...string) *CatalogInvalidator {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &CatalogInvalidator{reader: reader, cache: cache, log: log, retryDelay: time.Second}
}

func (c *CatalogInvalidator) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.handleNext(ctx)
	}
}

func (c *CatalogInvalidator) Close() error {
	return c.reader.Close()
}

type catalogEvent struct {
	ProductCode string `json:"product_code"`
}

func (c *CatalogInvalidator) handleNext(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.log.ErrorContext(ctx, "error reading catalog event", "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(c.retryDelay):
		}
		return
	}

	code := productCode(m)
	if code == "" {
		c.log.WarnContext(ctx, "catalog event without product code", "offset", m.Offset)
		return
	}

	if err := c.cache.Delete(ctx, code); err != nil {
		c.log.ErrorContext(ctx, "failed to evict product", "code", code, "error", err)
		return
	}
	c.log.DebugContext(ctx, "product evicted", "code", code)
}

// productCode reads the code from the payload, falling back to the message key.
func productCode(m kafka.Message) string {
	var ev catalogEvent
	if err := json.Unmarshal(m.Value, &ev); err == nil {
		if code := strings.TrimSpace(ev.ProductCode); code != "" {
			return code
		}
	}
	return strings.TrimSpace(string(m.Key))
}
