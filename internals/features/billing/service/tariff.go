package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	adminModel "majibill_backend/internals/features/admins/model"
)

// Tariff resolves the water rate per unit for an admin. A per-admin rate wins;
// otherwise the configured default applies.
type Tariff struct {
	db       *gorm.DB
	fallback *decimal.Decimal
}

func NewTariff(db *gorm.DB, fallback *decimal.Decimal) *Tariff {
	return &Tariff{db: db, fallback: fallback}
}

func (t *Tariff) RateFor(ctx context.Context, adminID uuid.UUID) (decimal.Decimal, error) {
	var admin adminModel.AdminModel
	if err := t.db.WithContext(ctx).Select("admin_id", "admin_water_rate").
		First(&admin, "admin_id = ?", adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrAdminNotFound
		}
		return decimal.Zero, err
	}
	return t.rateOf(&admin)
}

func (t *Tariff) rateOf(admin *adminModel.AdminModel) (decimal.Decimal, error) {
	if admin.AdminWaterRate != nil && admin.AdminWaterRate.GreaterThan(decimal.Zero) {
		return *admin.AdminWaterRate, nil
	}
	if t.fallback != nil && t.fallback.GreaterThan(decimal.Zero) {
		return *t.fallback, nil
	}
	return decimal.Zero, ErrNoTariffConfigured
}
