package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billingModel "majibill_backend/internals/features/billing/model"
)

/* ===================== REQUESTS ===================== */

type RecordReadingRequest struct {
	TenantID     uuid.UUID       `json:"tenant_id" validate:"required"`
	CurrentValue decimal.Decimal `json:"current_value"`
	RecordedAt   *time.Time      `json:"recorded_at"`
}

type GenerateRentRequest struct {
	Month string `json:"month" validate:"required,len=7"`
}

type ApplyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"omitempty,max=30"`
	Note   string          `json:"note" validate:"omitempty,max=500"`
}

// BillFilter drives ListBills. Zero values mean "any".
type BillFilter struct {
	Search   string
	Status   billingModel.BillStatus
	Type     billingModel.BillType
	Month    string
	TenantID *uuid.UUID
	Limit    int
	Offset   int
}

/* ===================== RESPONSES ===================== */

type RecordReadingResponse struct {
	Reading billingModel.ReadingModel `json:"reading"`
	Bill    billingModel.BillModel    `json:"bill"`
	Arrears decimal.Decimal           `json:"arrears"`
}

type RentRunResponse struct {
	Month     string                   `json:"month"`
	Generated int                      `json:"generated"`
	Skipped   []RentSkip               `json:"skipped,omitempty"`
	Bills     []billingModel.BillModel `json:"bills"`
}

type RentSkip struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	TenantName string    `json:"tenant_name"`
	Reason     string    `json:"reason"`
}

type SummaryResponse struct {
	Type             billingModel.BillType `json:"type,omitempty"`
	Bills            int64                 `json:"bills"`
	Unpaid           int64                 `json:"unpaid"`
	Partial          int64                 `json:"partial"`
	Paid             int64                 `json:"paid"`
	TotalBilled      decimal.Decimal       `json:"total_billed"`
	TotalPaid        decimal.Decimal       `json:"total_paid"`
	TotalOutstanding decimal.Decimal       `json:"total_outstanding"`
}

// BillRow is a bill joined with its tenant and house for listings.
type BillRow struct {
	billingModel.BillModel `gorm:"embedded"`
	TenantName             string          `gorm:"column:tenant_name" json:"tenant_name"`
	TenantPhone            string          `gorm:"column:tenant_phone" json:"tenant_phone"`
	HouseLabel             string          `gorm:"column:house_label" json:"house_label"`
	Outstanding            decimal.Decimal `gorm:"-" json:"outstanding"`
}

type AccountResponse struct {
	TenantID         uuid.UUID                   `json:"tenant_id"`
	TenantName       string                      `json:"tenant_name"`
	TenantPhone      string                      `json:"tenant_phone"`
	HouseID          *uuid.UUID                  `json:"house_id,omitempty"`
	HouseLabel       string                      `json:"house_label,omitempty"`
	TotalOutstanding decimal.Decimal             `json:"total_outstanding"`
	WaterArrears     decimal.Decimal             `json:"water_arrears"`
	RentArrears      decimal.Decimal             `json:"rent_arrears"`
	Bills            []billingModel.BillModel    `json:"bills"`
	Readings         []billingModel.ReadingModel `json:"readings"`
}
