package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-core/internal/domain/entity"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func movement(id string, t entity.MovementType, qty int64) *entity.MovementRecord {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &entity.MovementRecord{
		ID: id, Date: at, Type: t, StoreID: "S1", ProductID: "P1",
		QuantityDelta: decimal.NewFromInt(qty), UnitCost: decimal.NewFromInt(100), Value: decimal.NewFromInt(qty * 100),
		ReferenceID: "GR-1", ReferenceType: entity.ReferenceGoodsReceipt, CreatedBy: "u1", CreatedAt: at,
	}
}

func TestRabbitPublisher_PublicaUnMensajePorMovimiento(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitPublisher{ch: ch, exchange: "stock.events"}

	err := p.Publish(context.Background(), []*entity.MovementRecord{
		movement("m1", entity.MovementArrival, 10),
		movement("m2", entity.MovementTransferOut, -4),
	})
	require.NoError(t, err)
	require.Len(t, ch.sent, 2)

	assert.Equal(t, "stock.events", ch.sent[0].exchange)
	assert.Equal(t, "stock.movement.arrival", ch.sent[0].key)
	assert.Equal(t, "stock.movement.transfer_out", ch.sent[1].key)
	assert.Equal(t, amqp.Persistent, ch.sent[0].msg.DeliveryMode)
	assert.Equal(t, "m1", ch.sent[0].msg.MessageId)

	var ev MovementEvent
	require.NoError(t, json.Unmarshal(ch.sent[1].msg.Body, &ev))
	assert.Equal(t, "transfer_out", ev.Type)
	assert.True(t, ev.QuantityDelta.Equal(decimal.NewFromInt(-4)))
	assert.True(t, ev.Value.Equal(decimal.NewFromInt(-400)))
}

func TestRabbitPublisher_NilNoHaceNada(t *testing.T) {
	var p *RabbitPublisher
	assert.NoError(t, p.Publish(context.Background(), []*entity.MovementRecord{movement("m1", entity.MovementArrival, 1)}))
	p.Close()
}

func TestRabbitPublisher_ErrorDelCanal(t *testing.T) {
	p := &RabbitPublisher{ch: &fakeChannel{err: errors.New("channel closed")}, exchange: "x"}
	err := p.Publish(context.Background(), []*entity.MovementRecord{movement("m1", entity.MovementArrival, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m1")
}

func TestLogPublisher_EscribeLineaEstructurada(t *testing.T) {
	var buf bytes.Buffer
	p := LogPublisher{Log: zerolog.New(&buf)}

	require.NoError(t, p.Publish(context.Background(), []*entity.MovementRecord{movement("m1", entity.MovementArrival, 10)}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "m1", line["movement_id"])
	assert.Equal(t, "arrival", line["type"])
	assert.Equal(t, "10", line["quantity_delta"])
	assert.Equal(t, "goods_receipt/GR-1", line["reference"])
}

func TestMulti_JuntaErrores(t *testing.T) {
	ok := &fakeChannel{}
	failing := &RabbitPublisher{ch: &fakeChannel{err: errors.New("down")}, exchange: "x"}
	m := Multi{&RabbitPublisher{ch: ok, exchange: "x"}, nil, failing}

	err := m.Publish(context.Background(), []*entity.MovementRecord{movement("m1", entity.MovementArrival, 1)})
	require.Error(t, err)
	assert.Len(t, ok.sent, 1)
}
