// README: RabbitMQ connection with retry and topic exchange declaration.
package infra

import (
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const amqpDialAttempts = 5

type RabbitMQ struct {
	Conn *amqp.Connection
	Chan *amqp.Channel
}

// NewRabbitMQ dials url with exponential backoff and declares exchange as a
// durable topic exchange.
func NewRabbitMQ(url, exchange string, logger *slog.Logger) (*RabbitMQ, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	for i := 1; i <= amqpDialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.Warn("rabbitmq dial failed", slog.Int("attempt", i), slog.Any("error", err))
		if i < amqpDialAttempts {
			time.Sleep(time.Second << i)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("infra.NewRabbitMQ: dial after %d attempts: %w", amqpDialAttempts, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("infra.NewRabbitMQ: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("infra.NewRabbitMQ: declare exchange %q: %w", exchange, err)
	}
	logger.Info("connected to rabbitmq", slog.String("exchange", exchange))
	return &RabbitMQ{Conn: conn, Chan: ch}, nil
}

func (r *RabbitMQ) Close() {
	if r.Chan != nil {
		_ = r.Chan.Close()
	}
	if r.Conn != nil {
		_ = r.Conn.Close()
	}
	r.Conn, r.Chan = nil, nil
}
