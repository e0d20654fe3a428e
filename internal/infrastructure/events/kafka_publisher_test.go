package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestPublisher() (*KafkaPublisher, *fakeWriter, *fakeWriter) {
	sales, low := &fakeWriter{}, &fakeWriter{}
	return &KafkaPublisher{
		sales:    sales,
		lowStock: low,
		log:      logger.Nop(),
		now:      func() time.Time { return fixedNow },
	}, sales, low
}

func TestPublishSaleProcessed_SobreYClave(t *testing.T) {
	p, sales, low := newTestPublisher()

	err := p.PublishSaleProcessed(context.Background(), ports.SaleProcessedEvent{
		SaleID: "s-1",
		UserID: "u-1",
		Status: "completada",
		Total:  decimal.RequireFromString("15.00"),
		Items:  []ports.SaleEventLineItem{{ProductID: "p-1", Quantity: 2, Price: decimal.RequireFromString("7.50")}},
	})
	require.NoError(t, err)
	require.Len(t, sales.msgs, 1)
	assert.Empty(t, low.msgs)

	msg := sales.msgs[0]
	assert.Equal(t, "s-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, TypeSaleProcessed, string(msg.Headers[0].Value))

	var body struct {
		Type       string    `json:"type"`
		OccurredAt time.Time `json:"occurred_at"`
		Data       struct {
			SaleID string `json:"sale_id"`
			Total  string `json:"total"`
			Items  []struct {
				ProductID string `json:"product_id"`
				Quantity  int    `json:"quantity"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, TypeSaleProcessed, body.Type)
	assert.True(t, body.OccurredAt.Equal(fixedNow))
	assert.Equal(t, "s-1", body.Data.SaleID)
	assert.Equal(t, "15", body.Data.Total)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, 2, body.Data.Items[0].Quantity)
}

func TestPublishLowStock_TopicoPropio(t *testing.T) {
	p, sales, low := newTestPublisher()

	require.NoError(t, p.PublishLowStock(context.Background(), ports.LowStockEvent{
		ProductID: "p-9", ProductName: "Paracetamol", Stock: 3, MinStock: 5,
	}))
	assert.Empty(t, sales.msgs)
	require.Len(t, low.msgs, 1)
	assert.Equal(t, "p-9", string(low.msgs[0].Key))
	assert.Contains(t, string(low.msgs[0].Value), `"type":"product.low_stock"`)
}

func TestPublish_ErrorDelBroker(t *testing.T) {
	p, sales, _ := newTestPublisher()
	sales.err = errors.New("broker caído")

	err := p.PublishSaleProcessed(context.Background(), ports.SaleProcessedEvent{SaleID: "s-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker caído")
}

func TestClose_CierraAmbos(t *testing.T) {
	p, sales, low := newTestPublisher()
	require.NoError(t, p.Close())
	assert.True(t, sales.closed)
	assert.True(t, low.closed)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.PublishSaleProcessed(context.Background(), ports.SaleProcessedEvent{}))
	assert.NoError(t, p.PublishLowStock(context.Background(), ports.LowStockEvent{}))
	assert.NoError(t, p.Close())
}
