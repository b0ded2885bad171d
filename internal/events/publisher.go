package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/order"
)

const (
	EventsExchange         = "ecommerce.events"
	OrderCreatedRoutingKey = "order.created.v1"
	storeServiceName       = "store-service"
)

// Sequencer hands out per-partition event sequence numbers.
type Sequencer interface {
	Next(ctx context.Context, partitionKey string) (int64, error)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch  channel
	seq Sequencer
}

func NewPublisher(conn *amqp.Connection, seq Sequencer) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	// durable topic exchange shared with the other services
	if err := ch.ExchangeDeclare(EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, errors.Wrap(err, "declare events exchange")
	}
	return &Publisher{ch: ch, seq: seq}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o order.Order, cartID uuid.UUID, userID int64) error {
	seq, err := p.seq.Next(ctx, orderPartitionKey(o.ID))
	if err != nil {
		return errors.Wrap(err, "reserve sequence")
	}

	env := BuildOrderCreatedEnvelope(o, cartID, userID, seq, Trace{
		CorrelationID: CorrelationIDFromContext(ctx),
	})
	body, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal OrderCreated envelope")
	}
	return p.publishJSON(ctx, OrderCreatedRoutingKey, env.EventID, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	return errors.Wrapf(err, "publish %s", routingKey)
}

// NopPublisher is used when messaging is disabled.
type NopPublisher struct {
	Logger logrus.FieldLogger
}

func (n NopPublisher) PublishOrderCreated(ctx context.Context, o order.Order, cartID uuid.UUID, userID int64) error {
	if n.Logger != nil {
		n.Logger.WithField("order_id", o.ID).Debug("event publishing disabled, OrderCreated dropped")
	}
	return nil
}
