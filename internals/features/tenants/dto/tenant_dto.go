package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	tenantModel "majibill_backend/internals/features/tenants/model"
)

/* ===================== REQUESTS ===================== */

type AddTenantRequest struct {
	PropertyID     uuid.UUID        `json:"property_id" validate:"required"`
	Name           string           `json:"name" validate:"required,max=120"`
	Phone          string           `json:"phone" validate:"required,max=20"`
	HouseLabel     string           `json:"house_label" validate:"required,max=50"`
	Rent           *decimal.Decimal `json:"rent"`
	InitialReading *decimal.Decimal `json:"initial_reading"`
}

type EditTenantRequest struct {
	Name       *string          `json:"name" validate:"omitempty,min=1,max=120"`
	Phone      *string          `json:"phone" validate:"omitempty,max=20"`
	HouseLabel *string          `json:"house_label" validate:"omitempty,min=1,max=50"`
	Rent       *decimal.Decimal `json:"rent"`
}

type TransferRequest struct {
	HouseLabel string     `json:"house_label" validate:"required,max=50"`
	PropertyID *uuid.UUID `json:"property_id"`
}

// TenantFilter drives ListTenants. Zero values mean "any".
type TenantFilter struct {
	PropertyID *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

/* ===================== RESPONSES ===================== */

type TenantRow struct {
	tenantModel.TenantModel `gorm:"embedded"`
	HouseLabel              string `gorm:"column:house_label" json:"house_label,omitempty"`
}

const (
	ImportCreated = "created"
	ImportFailed  = "failed"
)

type ImportRow struct {
	Line       int        `json:"line"`
	Name       string     `json:"name"`
	HouseLabel string     `json:"house_label"`
	Phone      string     `json:"phone"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	TenantID   *uuid.UUID `json:"tenant_id,omitempty"`
}

type ImportReport struct {
	Total      int         `json:"total"`
	Created    int         `json:"created"`
	Failed     int         `json:"failed"`
	ArchiveKey string      `json:"archive_key,omitempty"`
	Rows       []ImportRow `json:"rows"`
}
