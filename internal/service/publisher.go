// Package service publishes domain events to RabbitMQ.  Errors are logged
// and returned so callers can ignore them without interrupting the request.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/floradex/internal/logging"
	q "github.com/iliyamo/floradex/internal/queue"
)

// EventObserver is told about every publish attempt.
type EventObserver interface {
	ObserveEvent(queue string, err error)
}

// Publisher sends plant events.  A zero URL disables publishing; every
// call then succeeds without touching the network.
type Publisher struct {
	url      string
	log      *logging.Logger
	observer EventObserver
}

func NewPublisher(url string, log *logging.Logger, observer EventObserver) *Publisher {
	if log == nil {
		log = logging.Nop()
	}
	return &Publisher{url: url, log: log, observer: observer}
}

// Enabled reports whether events leave the process.
func (p *Publisher) Enabled() bool { return p != nil && p.url != "" }

// PlantIdentified publishes to the plant.identified queue.
func (p *Publisher) PlantIdentified(ctx context.Context, ev q.PlantIdentifiedEvent) error {
	return p.publish(ctx, q.PlantIdentifiedQueue, ev)
}

// PlantAdded publishes to the plant.added queue.
func (p *Publisher) PlantAdded(ctx context.Context, ev q.PlantAddedEvent) error {
	return p.publish(ctx, q.PlantAddedQueue, ev)
}

// publish dials, declares the durable queue and sends one persistent
// message on the default exchange.
func (p *Publisher) publish(ctx context.Context, queue string, event any) (err error) {
	if !p.Enabled() {
		return nil
	}
	defer func() {
		if p.observer != nil {
			p.observer.ObserveEvent(queue, err)
		}
		if err != nil {
			p.log.Warn("rabbitmq: publish failed", "queue", queue, "error", err)
		}
	}()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, pub)
}
