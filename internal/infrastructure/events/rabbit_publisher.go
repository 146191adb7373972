package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/stock-core/internal/application/inventory"
	"github.com/jhoicas/stock-core/internal/domain/entity"
)

var _ inventory.EventPublisher = (*RabbitPublisher)(nil)

// channel subconjunto de *amqp.Channel que usa el publicador.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publica cada movimiento en un exchange topic. Un publicador nil no hace nada.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// NewRabbitPublisher conecta y declara el exchange (topic, durable).
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("conectar a rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declarar exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish envía un mensaje JSON persistente por movimiento; se detiene en el primer error.
func (p *RabbitPublisher) Publish(ctx context.Context, movements []*entity.MovementRecord) error {
	if p == nil || p.ch == nil {
		return nil
	}
	for _, m := range movements {
		body, err := json.Marshal(FromRecord(m))
		if err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(m.Type), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    m.ID,
			Timestamp:    m.CreatedAt,
			Type:         string(m.Type),
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publicar movimiento %s: %w", m.ID, err)
		}
	}
	return nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
