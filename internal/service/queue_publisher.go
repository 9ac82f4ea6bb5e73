// Package queue_publisher provides functions to publish domain
// events to RabbitMQ.  Errors are logged and returned so callers can
// ignore failures without interrupting the main request flow: a lost
// event only delays a board until the next refresh.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/rivieraos/riviera/internal/queue"
)

// publish marshals the event and delivers it to the named queue.
// The queue is declared idempotently and durable, and messages are
// marked persistent, so they survive broker restarts.  The function
// never panics; any error is logged and returned.
func publish(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// PublishOrderPlaced announces a freshly placed order to the boards.
func PublishOrderPlaced(ctx context.Context, event q.OrderPlacedEvent) error {
	return publish(ctx, q.OrderPlacedQueue, event)
}

// PublishOrderAssigned announces a staff claim.
func PublishOrderAssigned(ctx context.Context, event q.OrderAssignedEvent) error {
	return publish(ctx, q.OrderAssignedQueue, event)
}

// PublishOrderCompleted announces an order leaving the board.
func PublishOrderCompleted(ctx context.Context, event q.OrderCompletedEvent) error {
	return publish(ctx, q.OrderCompletedQueue, event)
}

// PublishBookingConfirmed announces a confirmed sunbed booking.
func PublishBookingConfirmed(ctx context.Context, event q.BookingConfirmedEvent) error {
	return publish(ctx, q.BookingConfirmedQueue, event)
}
