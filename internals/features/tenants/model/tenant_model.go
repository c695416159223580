package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TenantModel struct {
	TenantID         uuid.UUID  `gorm:"column:tenant_id;type:uuid;primaryKey" json:"tenant_id"`
	TenantAdminID    uuid.UUID  `gorm:"column:tenant_admin_id;type:uuid;not null;index:idx_tenants_admin_phone,priority:1" json:"tenant_admin_id"`
	TenantPropertyID uuid.UUID  `gorm:"column:tenant_property_id;type:uuid;not null;index" json:"tenant_property_id"`
	TenantName       string     `gorm:"column:tenant_name;size:120;not null" json:"tenant_name"`
	TenantPhone      string     `gorm:"column:tenant_phone;size:20;not null;index:idx_tenants_admin_phone,priority:2" json:"tenant_phone"`
	TenantHouseID    *uuid.UUID `gorm:"column:tenant_house_id;type:uuid;index" json:"tenant_house_id,omitempty"`

	// Rent override used when the house carries none
	TenantRent *decimal.Decimal `gorm:"column:tenant_rent;type:numeric(14,2)" json:"tenant_rent,omitempty"`

	TenantCreatedAt time.Time      `gorm:"column:tenant_created_at;not null" json:"tenant_created_at"`
	TenantUpdatedAt time.Time      `gorm:"column:tenant_updated_at;not null" json:"tenant_updated_at"`
	TenantDeletedAt gorm.DeletedAt `gorm:"column:tenant_deleted_at;index" json:"-"`
}

func (TenantModel) TableName() string { return "tenants" }

func (m *TenantModel) BeforeCreate(tx *gorm.DB) error {
	if m.TenantID == uuid.Nil {
		m.TenantID = uuid.New()
	}
	now := time.Now().UTC()
	m.TenantCreatedAt = now
	m.TenantUpdatedAt = now
	return nil
}

func (m *TenantModel) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.SetColumn("TenantUpdatedAt", time.Now().UTC())
	return nil
}
