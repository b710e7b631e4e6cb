package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/Inventario-lotes/internal/application/ports"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher publica eventos de inventario en un exchange topic de RabbitMQ.
// La routing key es el tipo de evento (sale.finalized, stock.low, ...).
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	source   string
	log      *logger.Logger
	mu       sync.Mutex
}

// NewPublisher conecta, abre un canal y declara el exchange (durable, topic).
func NewPublisher(url, exchange, source string, log *logger.Logger) (*Publisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("conectar a RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declarar exchange %s: %w", exchange, err)
	}
	log.Info().Str("exchange", exchange).Msg("conectado a RabbitMQ")
	return &Publisher{conn: conn, channel: ch, exchange: exchange, source: source, log: log}, nil
}

// Publish serializa el payload en un Event y lo publica como mensaje persistente.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	cid := correlationID(ctx)
	event, err := NewEvent(eventType, p.source, cid, payload)
	if err != nil {
		return fmt.Errorf("crear evento: %w", err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		eventType,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     event.ID,
			CorrelationId: cid,
			Timestamp:     event.Timestamp,
			Type:          eventType,
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publicar %s: %w", eventType, err)
	}
	p.log.Debug().Str("event_type", eventType).Str("event_id", event.ID).Msg("evento publicado")
	return nil
}

// Healthy indica si la conexión sigue abierta.
func (p *Publisher) Healthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// Close cierra canal y conexión.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn().Err(err).Msg("no se pudo cerrar el canal")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("cerrar conexión: %w", err)
		}
	}
	return nil
}
