package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
  subscription_payments = one gateway charge for an admin's plan.
  pending -> completed | failed ; terminal rows are never touched again.
*/

type SubscriptionPaymentModel struct {
	SubscriptionPaymentID      uuid.UUID `gorm:"column:subscription_payment_id;type:uuid;primaryKey" json:"subscription_payment_id"`
	SubscriptionPaymentAdminID uuid.UUID `gorm:"column:subscription_payment_admin_id;type:uuid;not null;index" json:"subscription_payment_admin_id"`

	SubscriptionPaymentReference string          `gorm:"column:subscription_payment_reference;size:100;not null;uniqueIndex" json:"subscription_payment_reference"`
	SubscriptionPaymentProvider  string          `gorm:"column:subscription_payment_provider;size:30;not null" json:"subscription_payment_provider"`
	SubscriptionPaymentTier      Tier            `gorm:"column:subscription_payment_tier;size:20;not null" json:"subscription_payment_tier"`
	SubscriptionPaymentCadence   Cadence         `gorm:"column:subscription_payment_cadence;size:20;not null" json:"subscription_payment_cadence"`
	SubscriptionPaymentAmount    decimal.Decimal `gorm:"column:subscription_payment_amount;type:numeric(14,2);not null" json:"subscription_payment_amount"`
	SubscriptionPaymentStatus    PaymentStatus   `gorm:"column:subscription_payment_status;size:20;not null;default:'pending';index" json:"subscription_payment_status"`
	SubscriptionPaymentIsRenewal bool            `gorm:"column:subscription_payment_is_renewal;not null;default:false" json:"subscription_payment_is_renewal"`

	// Gateway side
	SubscriptionPaymentAuthorizationURL *string          `gorm:"column:subscription_payment_authorization_url" json:"subscription_payment_authorization_url,omitempty"`
	SubscriptionPaymentGatewayID        *string          `gorm:"column:subscription_payment_gateway_id;size:100" json:"subscription_payment_gateway_id,omitempty"`
	SubscriptionPaymentChannel          *string          `gorm:"column:subscription_payment_channel;size:50" json:"subscription_payment_channel,omitempty"`
	SubscriptionPaymentGatewayFees      *decimal.Decimal `gorm:"column:subscription_payment_gateway_fees;type:numeric(14,2)" json:"subscription_payment_gateway_fees,omitempty"`
	SubscriptionPaymentPaidAmount       *decimal.Decimal `gorm:"column:subscription_payment_paid_amount;type:numeric(14,2)" json:"subscription_payment_paid_amount,omitempty"`
	SubscriptionPaymentFailureReason    *string          `gorm:"column:subscription_payment_failure_reason" json:"subscription_payment_failure_reason,omitempty"`
	SubscriptionPaymentMetadata         datatypes.JSON   `gorm:"column:subscription_payment_metadata" json:"subscription_payment_metadata,omitempty"`

	SubscriptionPaymentCompletedAt *time.Time `gorm:"column:subscription_payment_completed_at" json:"subscription_payment_completed_at,omitempty"`
	SubscriptionPaymentFailedAt    *time.Time `gorm:"column:subscription_payment_failed_at" json:"subscription_payment_failed_at,omitempty"`
	SubscriptionPaymentCreatedAt   time.Time  `gorm:"column:subscription_payment_created_at;not null;index" json:"subscription_payment_created_at"`
	SubscriptionPaymentUpdatedAt   time.Time  `gorm:"column:subscription_payment_updated_at;not null" json:"subscription_payment_updated_at"`
}

func (SubscriptionPaymentModel) TableName() string { return "subscription_payments" }

func (m *SubscriptionPaymentModel) BeforeCreate(tx *gorm.DB) error {
	if m.SubscriptionPaymentID == uuid.Nil {
		m.SubscriptionPaymentID = uuid.New()
	}
	now := time.Now().UTC()
	if m.SubscriptionPaymentCreatedAt.IsZero() {
		m.SubscriptionPaymentCreatedAt = now
	}
	m.SubscriptionPaymentUpdatedAt = now
	if m.SubscriptionPaymentStatus == "" {
		m.SubscriptionPaymentStatus = PaymentPending
	}
	return nil
}
