package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"interview-platform/config"
	"interview-platform/domain"
)

const (
	attemptHeader = "x-attempt"
	// redeliveryHeader counts how often a message was put back because the
	// handler could not settle it.
	redeliveryHeader = "x-redeliveries"

	maxRedeliveries   = 8
	redeliveryBackoff = 5 * time.Second
	maxRedeliveryWait = 5 * time.Minute
)

// RetryQueue holds delayed scoring messages until their TTL expires and then
// dead-letters them back onto domain.ScoringQueue.
const RetryQueue = domain.ScoringQueue + ".retry"

// RabbitMQ publishes and consumes scoring jobs.
type RabbitMQ struct {
	conn           *amqp.Connection
	channel        *amqp.Channel
	publishTimeout time.Duration
	log            *zap.Logger

	mu sync.Mutex
}

// NewRabbitMQ connects and declares the scoring queue and its retry queue.
func NewRabbitMQ(cfg config.RabbitMQConfig, log *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		domain.ScoringQueue, // queue name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", domain.ScoringQueue, err)
	}

	if _, err := ch.QueueDeclare(
		RetryQueue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": domain.ScoringQueue,
		},
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", RetryQueue, err)
	}

	log.Info("connected to RabbitMQ", zap.String("queue", domain.ScoringQueue))

	return &RabbitMQ{
		conn:           conn,
		channel:        ch,
		publishTimeout: cfg.PublishTimeout,
		log:            log,
	}, nil
}

// Publish sends a scoring message. A positive Delay routes it through the
// retry queue with a per-message TTL.
func (r *RabbitMQ) Publish(ctx context.Context, msg domain.ScoringMessage) error {
	body, err := json.Marshal(domain.ScoringPayload{InterviewID: msg.InterviewID})
	if err != nil {
		return err
	}

	attempt := msg.Attempt
	if attempt < 1 {
		attempt = 1
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         domain.ScoringJobName,
		MessageId:    msg.JobID,
		Timestamp:    time.Now(),
		Headers:      amqp.Table{attemptHeader: int32(attempt)},
		Body:         body,
	}

	routingKey := domain.ScoringQueue
	if msg.Delay > 0 {
		routingKey = RetryQueue
		publishing.Expiration = strconv.FormatInt(msg.Delay.Milliseconds(), 10)
	}

	ctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.PublishWithContext(
		ctx,
		"",         // default exchange
		routingKey, // routing key
		false,
		false,
		publishing,
	)
}

// Consume delivers scoring messages to handler one at a time until ctx is
// cancelled or the channel closes. Messages are acknowledged after handler
// returns; a handler error sends the message back through the retry queue
// after a growing delay.
func (r *RabbitMQ) Consume(ctx context.Context, handler func(context.Context, domain.ScoringMessage) error) error {
	if err := r.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := r.channel.ConsumeWithContext(
		ctx,
		domain.ScoringQueue,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("delivery channel closed")
			}
			r.dispatch(ctx, d, handler)
		}
	}
}

func (r *RabbitMQ) dispatch(ctx context.Context, d amqp.Delivery, handler func(context.Context, domain.ScoringMessage) error) {
	msg, err := decodeDelivery(d)
	if err != nil {
		r.log.Error("dropping malformed scoring message", zap.String("message_id", d.MessageId), zap.Error(err))
		_ = d.Ack(false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		r.redeliver(ctx, d, err)
		return
	}
	_ = d.Ack(false)
}

// redeliver parks an unsettled delivery on the retry queue. Past
// maxRedeliveries the message is dropped and the job row keeps its last
// status for an operator to reprocess.
func (r *RabbitMQ) redeliver(ctx context.Context, d amqp.Delivery, cause error) {
	count := headerInt(d.Headers, redeliveryHeader, 0) + 1
	log := r.log.With(zap.String("job_id", d.MessageId), zap.Int("redelivery", count), zap.Error(cause))

	delay, ok := redeliveryDelay(count)
	if !ok {
		log.Error("scoring handler keeps failing, dropping message")
		_ = d.Ack(false)
		return
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[redeliveryHeader] = int32(count)

	pctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	r.mu.Lock()
	err := r.channel.PublishWithContext(pctx, "", RetryQueue, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Type:         d.Type,
		MessageId:    d.MessageId,
		Timestamp:    time.Now(),
		Headers:      headers,
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Body:         d.Body,
	})
	r.mu.Unlock()
	if err != nil {
		log.Error("scoring handler failed and the retry publish failed, requeueing", zap.NamedError("publish_error", err))
		_ = d.Nack(false, true)
		return
	}

	log.Warn("scoring handler failed, redelivering later", zap.Duration("delay", delay))
	_ = d.Ack(false)
}

// redeliveryDelay is the wait before the given redelivery, doubling from
// redeliveryBackoff up to maxRedeliveryWait. It reports false once the
// message has used up its redeliveries.
func redeliveryDelay(count int) (time.Duration, bool) {
	if count > maxRedeliveries {
		return 0, false
	}
	delay := redeliveryBackoff
	for i := 1; i < count && delay < maxRedeliveryWait; i++ {
		delay *= 2
	}
	if delay > maxRedeliveryWait {
		delay = maxRedeliveryWait
	}
	return delay, true
}

func decodeDelivery(d amqp.Delivery) (domain.ScoringMessage, error) {
	var payload domain.ScoringPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		return domain.ScoringMessage{}, fmt.Errorf("invalid job format: %w", err)
	}
	if payload.InterviewID == "" {
		return domain.ScoringMessage{}, errors.New("invalid job format: missing interview_id")
	}

	return domain.ScoringMessage{
		JobID:       d.MessageId,
		InterviewID: payload.InterviewID,
		Attempt:     attemptFromHeaders(d.Headers),
	}, nil
}

func attemptFromHeaders(h amqp.Table) int {
	return headerInt(h, attemptHeader, 1)
}

func headerInt(h amqp.Table, key string, fallback int) int {
	switch v := h[key].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return fallback
}

// Close shuts the channel and connection.
func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}
