// Package publisher announces persisted orders on Kafka using the orders
// collection as an outbox.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced = "OrderPlaced"
	batchSize        = 100
)

type OrderOutbox interface {
	FindUnpublished(ctx context.Context, limit int) ([]domain.PersistedOrder, error)
	MarkPublished(ctx context.Context, id string) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type OrderPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	repo      OrderOutbox
	writer    MessageWriter
	log       *slog.Logger
}

func NewOrderPoller(repo OrderOutbox, log *slog.Logger, topic string, brokers ...string) *OrderPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &OrderPoller{
		timeout:   5 * time.Second,
		eventTick: time.Second,
		repo:      repo,
		writer:    w,
		log:       log,
	}
}

func (p *OrderPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedOrders(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OrderPoller) Close() error {
	return p.writer.Close()
}

// processUnpublishedOrders publishes one batch. An order that fails to publish
// or to be marked stays unpublished and is retried on the next tick.
func (p *OrderPoller) processUnpublishedOrders(ctx context.Context) {
	orders, err := p.repo.FindUnpublished(ctx, batchSize)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to fetch unpublished orders", "error", err)
		return
	}

	for i := range orders {
		order := &orders[i]
		if err := p.publish(ctx, order); err != nil {
			p.log.ErrorContext(ctx, "failed to publish order", "order_id", order.ID, "error", err)
			continue
		}

		if err := p.repo.MarkPublished(ctx, order.ID); err != nil {
			p.log.ErrorContext(ctx, "failed to mark order published", "order_id", order.ID, "error", err)
			continue
		}
	}
}

type orderPlacedLine struct {
	ProductCode string          `json:"productCode"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Size        string          `json:"size"`
}

type orderPlacedEvent struct {
	OrderID   string                `json:"orderId"`
	OrderDate time.Time             `json:"orderDate"`
	Status    string                `json:"status"`
	Lines     []orderPlacedLine     `json:"lines"`
	Pricing   domain.PricingSummary `json:"pricing"`
	Country   string                `json:"country,omitempty"`
}

func newOrderPlacedEvent(o *domain.PersistedOrder) orderPlacedEvent {
	lines := make([]orderPlacedLine, 0, len(o.Cart))
	for _, l := range o.Cart {
		lines = append(lines, orderPlacedLine{
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Price:       l.Price,
			Size:        l.Size,
		})
	}
	return orderPlacedEvent{
		OrderID:   o.ID,
		OrderDate: o.OrderDate,
		Status:    o.Status.String(),
		Lines:     lines,
		Pricing:   o.Pricing,
		Country:   o.Address.Country,
	}
}

func (p *OrderPoller) publish(ctx context.Context, order *domain.PersistedOrder) error {
	payload, err := json.Marshal(newOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID), // order id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, msg)
}
