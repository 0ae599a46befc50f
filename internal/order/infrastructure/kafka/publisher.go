package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Stealz-com/order/internal/order/domain"
	"github.com/Stealz-com/order/pkg/tracing"
)

const (
	TopicOrderPlaced        = "order-placed"
	TopicOrderStatusUpdated = "order-status-updated"
)

// Publisher emits domain events to their topics. Delivery is at-least-once;
// callers decide what to do with a publish error.
type Publisher struct {
	placed *kafka.Writer
	status *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		placed: newWriter(brokers, TopicOrderPlaced),
		status: newWriter(brokers, TopicOrderStatusUpdated),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error {
	return publish(ctx, p.placed, ev.OrderNumber, ev)
}

func (p *Publisher) PublishOrderStatusUpdated(ctx context.Context, ev domain.OrderStatusUpdated) error {
	return publish(ctx, p.status, strconv.FormatInt(ev.OrderID, 10), ev)
}

func publish(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: tracing.InjectKafkaHeaders(ctx, nil),
		Time:    time.Now().UTC(),
	})
}

func (p *Publisher) Close() error {
	errPlaced := p.placed.Close()
	errStatus := p.status.Close()
	if errPlaced != nil {
		return errPlaced
	}
	return errStatus
}
