// Package events publica los eventos de negocio de ventas en Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/pkg/config"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// Tipos de evento (cabecera event-type y campo type del sobre).
const (
	TypeSaleProcessed = "sale.processed"
	TypeLowStock      = "product.low_stock"
)

var (
	_ ports.EventPublisher = (*KafkaPublisher)(nil)
	_ ports.EventPublisher = NoopPublisher{}
)

// messageWriter lo que se usa de *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope sobre común de todos los mensajes.
type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// KafkaPublisher un writer por tópico. La clave del mensaje es el id de la entidad
// para que los eventos de una misma venta o producto caigan en la misma partición.
type KafkaPublisher struct {
	sales    messageWriter
	lowStock messageWriter
	log      *logger.Logger
	now      func() time.Time
}

// NewKafkaPublisher crea los writers a partir de la configuración.
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaPublisher{
		sales:    newWriter(cfg.Brokers, cfg.SalesTopic),
		lowStock: newWriter(cfg.Brokers, cfg.LowStockTopic),
		log:      log,
		now:      time.Now,
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// PublishSaleProcessed publica la venta confirmada.
func (p *KafkaPublisher) PublishSaleProcessed(ctx context.Context, ev ports.SaleProcessedEvent) error {
	msg, err := encodeMessage(TypeSaleProcessed, ev.SaleID, ev, p.now())
	if err != nil {
		return err
	}
	if err := p.sales.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publicar %s: %w", TypeSaleProcessed, err)
	}
	p.log.Debug().Str("sale_id", ev.SaleID).Msg("evento de venta publicado")
	return nil
}

// PublishLowStock publica la alerta de stock bajo.
func (p *KafkaPublisher) PublishLowStock(ctx context.Context, ev ports.LowStockEvent) error {
	msg, err := encodeMessage(TypeLowStock, ev.ProductID, ev, p.now())
	if err != nil {
		return err
	}
	if err := p.lowStock.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publicar %s: %w", TypeLowStock, err)
	}
	p.log.Debug().Str("product_id", ev.ProductID).Int("stock", ev.Stock).Msg("alerta de stock bajo publicada")
	return nil
}

// Close vacía y cierra ambos writers.
func (p *KafkaPublisher) Close() error {
	return errors.Join(p.sales.Close(), p.lowStock.Close())
}

func encodeMessage(eventType, key string, data any, at time.Time) (kafka.Message, error) {
	body, err := json.Marshal(envelope{Type: eventType, OccurredAt: at.UTC(), Data: data})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: serializar %s: %w", eventType, err)
	}
	return kafka.Message{
		Key:     []byte(key),
		Value:   body,
		Time:    at,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(eventType)}},
	}, nil
}

// NoopPublisher se usa cuando no hay brokers configurados.
type NoopPublisher struct{}

func (NoopPublisher) PublishSaleProcessed(context.Context, ports.SaleProcessedEvent) error {
	return nil
}

func (NoopPublisher) PublishLowStock(context.Context, ports.LowStockEvent) error { return nil }

// Close no hace nada.
func (NoopPublisher) Close() error { return nil }
