package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyModel struct {
	PropertyID      uuid.UUID `gorm:"column:property_id;type:uuid;primaryKey" json:"property_id"`
	PropertyAdminID uuid.UUID `gorm:"column:property_admin_id;type:uuid;not null;index:idx_properties_admin_name,priority:1" json:"property_admin_id"`
	PropertyName    string    `gorm:"column:property_name;size:120;not null;index:idx_properties_admin_name,priority:2" json:"property_name"`

	PropertyCreatedAt time.Time      `gorm:"column:property_created_at;not null" json:"property_created_at"`
	PropertyUpdatedAt time.Time      `gorm:"column:property_updated_at;not null" json:"property_updated_at"`
	PropertyDeletedAt gorm.DeletedAt `gorm:"column:property_deleted_at;index" json:"-"`
}

func (PropertyModel) TableName() string { return "properties" }

func (m *PropertyModel) BeforeCreate(tx *gorm.DB) error {
	if m.PropertyID == uuid.Nil {
		m.PropertyID = uuid.New()
	}
	now := time.Now().UTC()
	m.PropertyCreatedAt = now
	m.PropertyUpdatedAt = now
	return nil
}

func (m *PropertyModel) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.SetColumn("PropertyUpdatedAt", time.Now().UTC())
	return nil
}
