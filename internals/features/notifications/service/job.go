package service

import (
	"context"

	"github.com/google/uuid"
)

type Kind string

const (
	KindWaterBill             Kind = "water_bill"
	KindRentBill              Kind = "rent_bill"
	KindPaymentReceipt        Kind = "payment_receipt"
	KindRenewalReminder       Kind = "renewal_reminder"
	KindRenewalInitiated      Kind = "renewal_initiated"
	KindSubscriptionActivated Kind = "subscription_activated"
)

// Job is one outbound SMS. ReadingID or BillID names the record that
// receives the delivery outcome; both nil means nothing is written back.
type Job struct {
	ID        uuid.UUID  `json:"id"`
	Kind      Kind       `json:"kind"`
	AdminID   uuid.UUID  `json:"admin_id"`
	Recipient string     `json:"recipient"`
	Message   string     `json:"message"`
	ReadingID *uuid.UUID `json:"reading_id,omitempty"`
	BillID    *uuid.UUID `json:"bill_id,omitempty"`
}

// Notifier accepts jobs without waiting for delivery.
type Notifier interface {
	Enqueue(ctx context.Context, job Job) error
}

// Recorder stores a delivery outcome on the originating record.
type Recorder interface {
	Record(ctx context.Context, job Job, outcome string) error
}

// Discard drops every job. Used by one-shot CLI runs with SMS disabled.
type Discard struct{}

func (Discard) Enqueue(context.Context, Job) error { return nil }
