package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic     = "basket-handoff"
	HandoffEventType = "basket.handoff"
)

// Publisher delivers handoffs to the checkout collaborator.
type Publisher interface {
	Publish(ctx context.Context, h *Handoff) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(topic string, logger *zap.Logger, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, h *Handoff) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal handoff failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(h.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(HandoffEventType)},
			{Key: "package_id", Value: []byte(h.Package.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish handoff failed: %w", err)
	}

	p.logger.Info("handoff published",
		zap.String("session_id", h.SessionID),
		zap.String("package_id", h.Package.ID),
		zap.String("final_price", h.FinalPrice.StringFixed(2)))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only records handoffs in the log. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, h *Handoff) error {
	p.logger.Info("handoff ready",
		zap.String("session_id", h.SessionID),
		zap.String("package_id", h.Package.ID),
		zap.Int("items", len(h.Basket)),
		zap.String("items_total", h.ItemsTotalValue.StringFixed(2)),
		zap.String("adjustment", h.PriceAdjustment.StringFixed(2)),
		zap.String("final_price", h.FinalPrice.StringFixed(2)))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
