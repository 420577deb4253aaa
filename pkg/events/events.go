package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

// Queue and event names for stock notifications.
const (
	StockQueue = "stock_events"

	EventStockMovement = "stock.movement"
	EventLowStock      = "stock.low"
)

// Publisher holds the RabbitMQ connection and channel used for stock
// event notifications. A nil *Publisher is valid and publishes nothing,
// so messaging stays optional at startup.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewPublisher connects to RabbitMQ and declares the stock event queue.
func NewPublisher(cfg Config) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		StockQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", StockQueue, err)
	}

	log.Printf("RabbitMQ publisher connected, %s declared", StockQueue)
	return &Publisher{conn: conn, channel: ch}, nil
}

// Close closes the RabbitMQ channel and connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during publisher close: %v", errs)
	}
	return nil
}

// Publish sends one stock event to the queue as persistent JSON. Events
// are advisory; a nil publisher drops them silently.
func (p *Publisher) Publish(event string, payload map[string]interface{}) error {
	if p == nil || p.channel == nil {
		return nil
	}

	payload["event"] = event
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}

	err = p.channel.Publish(
		"",         // exchange: default
		StockQueue, // routing key: the queue name
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event, err)
	}
	return nil
}
