package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HouseModel is the authoritative side of occupancy: house -> current tenant.
// The tenant's house reference is written in the same transaction.
type HouseModel struct {
	HouseID         uuid.UUID `gorm:"column:house_id;type:uuid;primaryKey" json:"house_id"`
	HouseAdminID    uuid.UUID `gorm:"column:house_admin_id;type:uuid;not null;index:idx_houses_admin_property_label,priority:1" json:"house_admin_id"`
	HousePropertyID uuid.UUID `gorm:"column:house_property_id;type:uuid;not null;index:idx_houses_admin_property_label,priority:2" json:"house_property_id"`
	HouseLabel      string    `gorm:"column:house_label;size:50;not null;index:idx_houses_admin_property_label,priority:3" json:"house_label"`

	HouseRent decimal.Decimal `gorm:"column:house_rent;type:numeric(14,2);not null;default:0" json:"house_rent"`

	HouseOccupied          bool       `gorm:"column:house_occupied;not null;default:false" json:"house_occupied"`
	HouseCurrentTenantID   *uuid.UUID `gorm:"column:house_current_tenant_id;type:uuid;index" json:"house_current_tenant_id,omitempty"`
	HouseCurrentTenantName string     `gorm:"column:house_current_tenant_name;size:120" json:"house_current_tenant_name,omitempty"`

	HouseCreatedAt time.Time      `gorm:"column:house_created_at;not null" json:"house_created_at"`
	HouseUpdatedAt time.Time      `gorm:"column:house_updated_at;not null" json:"house_updated_at"`
	HouseDeletedAt gorm.DeletedAt `gorm:"column:house_deleted_at;index" json:"-"`
}

func (HouseModel) TableName() string { return "houses" }

func (m *HouseModel) BeforeCreate(tx *gorm.DB) error {
	if m.HouseID == uuid.Nil {
		m.HouseID = uuid.New()
	}
	now := time.Now().UTC()
	m.HouseCreatedAt = now
	m.HouseUpdatedAt = now
	return nil
}

func (m *HouseModel) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.SetColumn("HouseUpdatedAt", time.Now().UTC())
	return nil
}
