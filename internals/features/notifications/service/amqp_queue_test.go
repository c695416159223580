package service

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackLog struct {
	acked, nacked, requeued int
}

func (a *ackLog) Ack(tag uint64, multiple bool) error {
	a.acked++
	return nil
}

func (a *ackLog) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked++
	if requeue {
		a.requeued++
	}
	return nil
}

func (a *ackLog) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(t *testing.T, acks *ackLog, job Job) amqp.Delivery {
	t.Helper()
	body, err := sonic.Marshal(job)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: acks, Body: body}
}

func TestHandleDeliveryAcksDeliveredJob(t *testing.T) {
	sender := &scriptedSender{}
	d := NewDispatcher(sender, &memRecorder{}, DispatcherConfig{MaxAttempts: 1})
	acks := &ackLog{}

	handleDelivery(context.Background(), d, delivery(t, acks, Job{ID: uuid.New(), Recipient: "+254712345678", Message: "hi"}))
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, 1, acks.acked)
	assert.Zero(t, acks.nacked)
}

func TestHandleDeliveryRequeuesOnShutdown(t *testing.T) {
	d := NewDispatcher(&scriptedSender{}, &memRecorder{}, DispatcherConfig{MaxAttempts: 1})
	acks := &ackLog{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handleDelivery(ctx, d, delivery(t, acks, Job{ID: uuid.New(), Recipient: "+254712345678", Message: "hi"}))
	assert.Zero(t, acks.acked)
	assert.Equal(t, 1, acks.requeued)
}

func TestHandleDeliveryDropsUndecodable(t *testing.T) {
	d := NewDispatcher(&scriptedSender{}, &memRecorder{}, DispatcherConfig{MaxAttempts: 1})
	acks := &ackLog{}

	handleDelivery(context.Background(), d, amqp.Delivery{Acknowledger: acks, Body: []byte("{not json")})
	assert.Zero(t, acks.acked)
	assert.Equal(t, 1, acks.nacked)
	assert.Zero(t, acks.requeued)
}
