package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillModel: one obligation per (tenant, type, month).
// Only the ledger's payment path mutates amount_paid and status.
type BillModel struct {
	BillID        uuid.UUID  `gorm:"column:bill_id;type:uuid;primaryKey" json:"bill_id"`
	BillAdminID   uuid.UUID  `gorm:"column:bill_admin_id;type:uuid;not null;uniqueIndex:uq_bills_tenant_month_type,priority:1" json:"bill_admin_id"`
	BillTenantID  uuid.UUID  `gorm:"column:bill_tenant_id;type:uuid;not null;uniqueIndex:uq_bills_tenant_month_type,priority:2" json:"bill_tenant_id"`
	BillHouseID   uuid.UUID  `gorm:"column:bill_house_id;type:uuid;not null;index" json:"bill_house_id"`
	BillType      BillType   `gorm:"column:bill_type;size:10;not null;uniqueIndex:uq_bills_tenant_month_type,priority:4" json:"bill_type"`
	BillMonth     string     `gorm:"column:bill_month;size:7;not null;uniqueIndex:uq_bills_tenant_month_type,priority:3" json:"bill_month"`
	BillReadingID *uuid.UUID `gorm:"column:bill_reading_id;type:uuid" json:"bill_reading_id,omitempty"`

	BillAmount     decimal.Decimal `gorm:"column:bill_amount;type:numeric(14,2);not null" json:"bill_amount"`
	BillAmountPaid decimal.Decimal `gorm:"column:bill_amount_paid;type:numeric(14,2);not null;default:0" json:"bill_amount_paid"`
	BillStatus     BillStatus      `gorm:"column:bill_status;size:10;not null;index" json:"bill_status"`
	BillDueDate    time.Time       `gorm:"column:bill_due_date;not null;index" json:"bill_due_date"`

	BillLastPaymentDate   *time.Time `gorm:"column:bill_last_payment_date" json:"bill_last_payment_date,omitempty"`
	BillLastPaymentMethod *string    `gorm:"column:bill_last_payment_method;size:30" json:"bill_last_payment_method,omitempty"`
	BillSMSStatus         string     `gorm:"column:bill_sms_status" json:"bill_sms_status,omitempty"`

	BillCreatedAt time.Time `gorm:"column:bill_created_at;not null" json:"bill_created_at"`
	BillUpdatedAt time.Time `gorm:"column:bill_updated_at;not null" json:"bill_updated_at"`

	Payments []BillPaymentModel `gorm:"foreignKey:BillPaymentBillID;references:BillID" json:"payments,omitempty"`
}

func (BillModel) TableName() string { return "bills" }

func (m *BillModel) BeforeCreate(tx *gorm.DB) error {
	if m.BillID == uuid.Nil {
		m.BillID = uuid.New()
	}
	if m.BillStatus == "" {
		m.BillStatus = BillUnpaid
	}
	now := time.Now().UTC()
	if m.BillCreatedAt.IsZero() {
		m.BillCreatedAt = now
	}
	m.BillUpdatedAt = now
	return nil
}

func (m *BillModel) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.SetColumn("BillUpdatedAt", time.Now().UTC())
	return nil
}

// Outstanding is what is still owed on the bill.
func (m *BillModel) Outstanding() decimal.Decimal {
	return m.BillAmount.Sub(m.BillAmountPaid)
}

// BillPaymentModel is the bill's payment history log.
type BillPaymentModel struct {
	BillPaymentID       uuid.UUID       `gorm:"column:bill_payment_id;type:uuid;primaryKey" json:"bill_payment_id"`
	BillPaymentBillID   uuid.UUID       `gorm:"column:bill_payment_bill_id;type:uuid;not null;index" json:"bill_payment_bill_id"`
	BillPaymentAdminID  uuid.UUID       `gorm:"column:bill_payment_admin_id;type:uuid;not null;index" json:"bill_payment_admin_id"`
	BillPaymentAmount   decimal.Decimal `gorm:"column:bill_payment_amount;type:numeric(14,2);not null" json:"bill_payment_amount"`
	BillPaymentMethod   string          `gorm:"column:bill_payment_method;size:30;not null" json:"bill_payment_method"`
	BillPaymentNote     string          `gorm:"column:bill_payment_note" json:"bill_payment_note,omitempty"`
	BillPaymentOperator string          `gorm:"column:bill_payment_operator;size:120" json:"bill_payment_operator,omitempty"`
	BillPaymentPaidAt   time.Time       `gorm:"column:bill_payment_paid_at;not null;index" json:"bill_payment_paid_at"`
}

func (BillPaymentModel) TableName() string { return "bill_payments" }

func (m *BillPaymentModel) BeforeCreate(tx *gorm.DB) error {
	if m.BillPaymentID == uuid.Nil {
		m.BillPaymentID = uuid.New()
	}
	return nil
}
