package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReadingModel is append-only. Detaching a tenant clears ReadingTenantID and
// keeps ReadingFormerTenantID; the house chain is never rewritten.
type ReadingModel struct {
	ReadingID             uuid.UUID  `gorm:"column:reading_id;type:uuid;primaryKey" json:"reading_id"`
	ReadingAdminID        uuid.UUID  `gorm:"column:reading_admin_id;type:uuid;not null;index" json:"reading_admin_id"`
	ReadingTenantID       *uuid.UUID `gorm:"column:reading_tenant_id;type:uuid;index:idx_readings_tenant_recorded,priority:1" json:"reading_tenant_id,omitempty"`
	ReadingFormerTenantID *uuid.UUID `gorm:"column:reading_former_tenant_id;type:uuid" json:"reading_former_tenant_id,omitempty"`
	ReadingHouseID        uuid.UUID  `gorm:"column:reading_house_id;type:uuid;not null;index:idx_readings_house_recorded,priority:1" json:"reading_house_id"`

	ReadingPreviousValue decimal.Decimal `gorm:"column:reading_previous_value;type:numeric(14,2);not null" json:"reading_previous_value"`
	ReadingCurrentValue  decimal.Decimal `gorm:"column:reading_current_value;type:numeric(14,2);not null" json:"reading_current_value"`
	ReadingUsage         decimal.Decimal `gorm:"column:reading_usage;type:numeric(14,2);not null" json:"reading_usage"`
	ReadingAmount        decimal.Decimal `gorm:"column:reading_amount;type:numeric(14,2);not null" json:"reading_amount"`
	ReadingRate          decimal.Decimal `gorm:"column:reading_rate;type:numeric(14,2);not null" json:"reading_rate"`

	ReadingRecordedAt time.Time  `gorm:"column:reading_recorded_at;not null;index:idx_readings_house_recorded,priority:2,sort:desc;index:idx_readings_tenant_recorded,priority:2,sort:desc" json:"reading_recorded_at"`
	ReadingTag        ReadingTag `gorm:"column:reading_tag;size:20;not null" json:"reading_tag"`
	ReadingSMSStatus  string     `gorm:"column:reading_sms_status" json:"reading_sms_status,omitempty"`

	ReadingCreatedAt time.Time `gorm:"column:reading_created_at;not null" json:"reading_created_at"`
}

func (ReadingModel) TableName() string { return "readings" }

func (m *ReadingModel) BeforeCreate(tx *gorm.DB) error {
	if m.ReadingID == uuid.Nil {
		m.ReadingID = uuid.New()
	}
	if m.ReadingCreatedAt.IsZero() {
		m.ReadingCreatedAt = time.Now().UTC()
	}
	return nil
}
