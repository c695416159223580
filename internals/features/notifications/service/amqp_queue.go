package service

import (
	"context"
	"fmt"
	"log"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPQueue persists jobs in a durable RabbitMQ queue so a restart does not
// lose pending alerts. A consumer feeds them to a Dispatcher for delivery.
type AMQPQueue struct {
	conn  *amqp.Connection
	chn   *amqp.Channel
	queue string
}

func NewAMQPQueue(url, queue string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := chn.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = chn.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp declare %s: %w", queue, err)
	}
	return &AMQPQueue{conn: conn, chn: chn, queue: queue}, nil
}

func (q *AMQPQueue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	body, err := sonic.Marshal(job)
	if err != nil {
		return err
	}
	return q.chn.PublishWithContext(ctx,
		"",      // default exchange
		q.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID.String(),
			Body:         body,
		},
	)
}

// Consume delivers queued jobs until ctx ends. Undecodable messages are dropped.
func (q *AMQPQueue) Consume(ctx context.Context, d *Dispatcher) error {
	msgs, err := q.chn.Consume(
		q.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}
	log.Printf("[NOTIFY] consuming queue=%s", q.queue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("amqp delivery channel closed")
			}
			handleDelivery(ctx, d, msg)
		}
	}
}

// handleDelivery acks a message once its job was delivered. A delivery cut
// short by shutdown is requeued so the job survives the restart.
func handleDelivery(ctx context.Context, d *Dispatcher, msg amqp.Delivery) {
	var job Job
	if err := sonic.Unmarshal(msg.Body, &job); err != nil {
		log.Printf("[NOTIFY] drop undecodable message id=%s: %v", msg.MessageId, err)
		_ = msg.Nack(false, false)
		return
	}
	d.Deliver(ctx, job)
	if ctx.Err() != nil {
		log.Printf("[NOTIFY] requeue job=%s: %v", job.ID, ctx.Err())
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

func (q *AMQPQueue) Close() error {
	if err := q.chn.Close(); err != nil {
		return err
	}
	return q.conn.Close()
}
