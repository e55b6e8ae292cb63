package broker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQP is the RabbitMQ-backed Broker. Every topic maps to a durable fanout
// exchange; each subscribing process gets its own exclusive server-named queue
// bound to that exchange, so one published message fans out to every
// independently-connected subscriber.
type AMQP struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	handlers  map[string][]Handler
	declared  map[string]bool
	consuming map[string]bool
}

// DialAMQP connects to the broker. Callers treat an error as fatal at startup;
// there is no retry or backoff at this layer.
func DialAMQP(host string, port int, user, password string, logger *zap.Logger) (*AMQP, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", user, password, host, port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	logger.Info("✅ Connected to RabbitMQ", zap.String("host", host), zap.Int("port", port))

	ctx, cancel := context.WithCancel(context.Background())
	return &AMQP{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		handlers:  make(map[string][]Handler),
		declared:  make(map[string]bool),
		consuming: make(map[string]bool),
	}, nil
}

// ensureExchange declares the fanout exchange for a topic once. Caller holds mu.
func (b *AMQP) ensureExchange(topic string) error {
	if b.declared[topic] {
		return nil
	}

	err := b.channel.ExchangeDeclare(
		topic,    // exchange name == topic name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %q: %w", topic, err)
	}

	b.declared[topic] = true
	return nil
}

// Publish sends the payload to the topic's exchange. Delivery is the
// transport's default quality of service; this wrapper configures nothing up
// or down.
func (b *AMQP) Publish(ctx context.Context, topic string, body []byte) error {
	b.mu.Lock()
	err := b.ensureExchange(topic)
	b.mu.Unlock()
	if err != nil {
		return err
	}

	err = b.channel.PublishWithContext(ctx,
		topic, // exchange
		"",    // routing key (fanout ignores it)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %q: %w", topic, err)
	}

	b.logger.Debug("📤 Message published", zap.String("topic", topic))
	return nil
}

// Subscribe registers handler for the topic. The first subscription on a topic
// sets up an exclusive queue and starts the consume loop; later subscriptions
// on the same topic just extend the handler list.
func (b *AMQP) Subscribe(topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureExchange(topic); err != nil {
		return err
	}

	b.handlers[topic] = append(b.handlers[topic], handler)
	if b.consuming[topic] {
		return nil
	}

	q, err := b.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue for %q: %w", topic, err)
	}

	if err := b.channel.QueueBind(q.Name, "", topic, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to %q: %w", topic, err)
	}

	msgs, err := b.channel.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to consume %q: %w", topic, err)
	}

	b.consuming[topic] = true
	go b.dispatch(topic, msgs)

	b.logger.Info("👂 Listening on topic", zap.String("topic", topic), zap.String("queue", q.Name))
	return nil
}

// dispatch fans each delivery out to the topic's registered handlers. Each
// message gets its own goroutine so slow handling of one message never stalls
// delivery of the next; handlers for a single message run in registration
// order.
func (b *AMQP) dispatch(topic string, msgs <-chan amqp.Delivery) {
	for d := range msgs {
		body := d.Body
		go func() {
			b.mu.Lock()
			handlers := make([]Handler, len(b.handlers[topic]))
			copy(handlers, b.handlers[topic])
			b.mu.Unlock()

			for _, h := range handlers {
				if err := h(b.ctx, body); err != nil {
					b.logger.Error("❌ Handler failed",
						zap.String("topic", topic),
						zap.Int("bytes", len(body)),
						zap.Error(err),
					)
				}
			}
		}()
	}
}

// Close terminates the session. In-flight handlers see their context cancelled
// and are not waited for.
func (b *AMQP) Close() error {
	b.cancel()
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
