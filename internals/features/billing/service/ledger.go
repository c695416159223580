// Package service is the billing ledger: it turns meter readings and rent
// runs into bills, applies payments and answers balance queries.
// All monetary state is written here and every query is scoped by admin id.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	database "majibill_backend/internals/databases"
	adminModel "majibill_backend/internals/features/admins/model"
	"majibill_backend/internals/features/billing/dto"
	billingModel "majibill_backend/internals/features/billing/model"
	notifService "majibill_backend/internals/features/notifications/service"
	propertyModel "majibill_backend/internals/features/properties/model"
	tenantModel "majibill_backend/internals/features/tenants/model"
	"majibill_backend/internals/helpers/clock"
)

const defaultDueDays = 30

type LedgerConfig struct {
	DueDays  int
	CacheTTL time.Duration
}

type Ledger struct {
	db       *gorm.DB
	clock    clock.Clock
	tariff   *Tariff
	cache    *SummaryCache
	notifier notifService.Notifier
	dueDays  int
}

func NewLedger(db *gorm.DB, clk clock.Clock, tariff *Tariff, notifier notifService.Notifier, cfg LedgerConfig) *Ledger {
	if notifier == nil {
		notifier = notifService.Discard{}
	}
	if cfg.DueDays <= 0 {
		cfg.DueDays = defaultDueDays
	}
	return &Ledger{
		db:       db,
		clock:    clk,
		tariff:   tariff,
		cache:    NewSummaryCache(cfg.CacheTTL),
		notifier: notifier,
		dueDays:  cfg.DueDays,
	}
}

func (l *Ledger) loadAdmin(ctx context.Context, adminID uuid.UUID) (*adminModel.AdminModel, error) {
	var a adminModel.AdminModel
	if err := l.db.WithContext(ctx).First(&a, "admin_id = ?", adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (l *Ledger) loadTenant(ctx context.Context, adminID, tenantID uuid.UUID) (*tenantModel.TenantModel, error) {
	var t tenantModel.TenantModel
	if err := l.db.WithContext(ctx).
		Where("tenant_admin_id = ? AND tenant_id = ?", adminID, tenantID).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (l *Ledger) loadHouse(ctx context.Context, adminID, houseID uuid.UUID) (*propertyModel.HouseModel, error) {
	var h propertyModel.HouseModel
	if err := l.db.WithContext(ctx).
		Where("house_admin_id = ? AND house_id = ?", adminID, houseID).
		First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// latestHouseReading is the head of the house chain, nil when the house has none.
func latestHouseReading(tx *gorm.DB, adminID, houseID uuid.UUID) (*billingModel.ReadingModel, error) {
	var r billingModel.ReadingModel
	err := tx.Where("reading_admin_id = ? AND reading_house_id = ?", adminID, houseID).
		Order("reading_recorded_at DESC").
		Order("reading_created_at DESC").
		Order("reading_current_value DESC").
		Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (l *Ledger) local(t time.Time) time.Time {
	return t.In(l.clock.Now().Location())
}

func (l *Ledger) currentMonth() string { return clock.MonthStamp(l.clock.Now()) }

/* =========================================================
   READINGS
========================================================= */

// hasCents reports whether d fits the numeric(14,2) columns without rounding.
func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// RecordReading appends a billing reading to the tenant's house chain and
// issues that month's water bill. The SMS goes out after commit.
func (l *Ledger) RecordReading(ctx context.Context, adminID, tenantID uuid.UUID, current decimal.Decimal, at time.Time) (*dto.RecordReadingResponse, error) {
	if current.IsNegative() {
		return nil, ErrInvalidReading
	}
	if !hasCents(current) {
		return nil, ErrInvalidReading.Withf("meter reading %s has more than two decimal places", current.String())
	}
	if at.IsZero() {
		at = l.clock.Now()
	}
	at = l.local(at)
	month := clock.MonthStamp(at)

	admin, err := l.loadAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	tenant, err := l.loadTenant(ctx, adminID, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.TenantHouseID == nil {
		return nil, ErrTenantUnassigned
	}
	houseID := *tenant.TenantHouseID
	rate, err := l.tariff.rateOf(admin)
	if err != nil {
		return nil, err
	}

	var billed int64
	if err := l.db.WithContext(ctx).Model(&billingModel.BillModel{}).
		Where("bill_admin_id = ? AND bill_tenant_id = ? AND bill_month = ? AND bill_type = ?",
			adminID, tenantID, month, billingModel.BillTypeWater).
		Count(&billed).Error; err != nil {
		return nil, err
	}
	if billed > 0 {
		return nil, ErrAlreadyBilled.Withf("%s already has a water bill for %s", tenant.TenantName, month)
	}

	var out dto.RecordReadingResponse
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prev, err := latestHouseReading(tx, adminID, houseID)
		if err != nil {
			return err
		}
		previous := decimal.Zero
		if prev != nil {
			previous = prev.ReadingCurrentValue
			if at.Before(prev.ReadingRecordedAt) {
				return ErrNonMonotonicReading.Withf("a later reading (%s) already exists for this house",
					l.local(prev.ReadingRecordedAt).Format("2006-01-02 15:04"))
			}
		}
		if current.LessThanOrEqual(previous) {
			return ErrNonMonotonicReading.Withf("reading %s must be greater than the previous reading %s",
				current.String(), previous.String())
		}

		usage := current.Sub(previous)
		amount := usage.Mul(rate).Round(2)
		now := l.clock.Now().UTC()

		out.Reading = billingModel.ReadingModel{
			ReadingAdminID:       adminID,
			ReadingTenantID:      &tenantID,
			ReadingHouseID:       houseID,
			ReadingPreviousValue: previous,
			ReadingCurrentValue:  current,
			ReadingUsage:         usage,
			ReadingAmount:        amount,
			ReadingRate:          rate,
			ReadingRecordedAt:    at.UTC(),
			ReadingTag:           billingModel.ReadingTagBilling,
			ReadingSMSStatus:     billingModel.SMSQueued,
			ReadingCreatedAt:     now,
		}
		if err := tx.Create(&out.Reading).Error; err != nil {
			return err
		}

		out.Bill = billingModel.BillModel{
			BillAdminID:    adminID,
			BillTenantID:   tenantID,
			BillHouseID:    houseID,
			BillType:       billingModel.BillTypeWater,
			BillMonth:      month,
			BillReadingID:  &out.Reading.ReadingID,
			BillAmount:     amount,
			BillAmountPaid: decimal.Zero,
			BillStatus:     billingModel.BillUnpaid,
			BillDueDate:    at.AddDate(0, 0, l.dueDays).UTC(),
			BillCreatedAt:  now,
		}
		if err := tx.Create(&out.Bill).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrAlreadyBilled.Withf("%s already has a water bill for %s", tenant.TenantName, month)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.cache.Invalidate(adminID)

	arrears, err := l.Arrears(ctx, adminID, tenantID, month)
	if err != nil {
		log.Printf("[LEDGER] arrears for sms tenant=%s: %v", tenantID, err)
	}
	out.Arrears = arrears
	log.Printf("[LEDGER] reading admin=%s tenant=%s house=%s %s->%s usage=%s amount=%s",
		adminID, tenantID, houseID, out.Reading.ReadingPreviousValue, current, out.Reading.ReadingUsage, out.Reading.ReadingAmount.StringFixed(2))

	usage := out.Reading.ReadingUsage
	l.sendBillAlert(ctx, admin, tenant, &out.Bill, arrears, &usage, &out.Reading.ReadingID)
	return &out, nil
}

// RecordBaseline seeds the house chain with an initial meter value: zero
// usage, no bill. It runs on the caller's transaction.
func (l *Ledger) RecordBaseline(tx *gorm.DB, adminID, tenantID, houseID uuid.UUID, value decimal.Decimal, at time.Time) (*billingModel.ReadingModel, error) {
	if value.IsNegative() {
		return nil, ErrInvalidReading
	}
	if !hasCents(value) {
		return nil, ErrInvalidReading.Withf("meter reading %s has more than two decimal places", value.String())
	}
	if at.IsZero() {
		at = l.clock.Now()
	}
	prev, err := latestHouseReading(tx, adminID, houseID)
	if err != nil {
		return nil, err
	}
	if prev != nil && value.LessThan(prev.ReadingCurrentValue) {
		return nil, ErrNonMonotonicReading.Withf("initial reading %s is below the house's last reading %s",
			value.String(), prev.ReadingCurrentValue.String())
	}

	r := &billingModel.ReadingModel{
		ReadingAdminID:       adminID,
		ReadingTenantID:      &tenantID,
		ReadingHouseID:       houseID,
		ReadingPreviousValue: value,
		ReadingCurrentValue:  value,
		ReadingUsage:         decimal.Zero,
		ReadingAmount:        decimal.Zero,
		ReadingRate:          decimal.Zero,
		ReadingRecordedAt:    at.UTC(),
		ReadingTag:           billingModel.ReadingTagInitial,
		ReadingCreatedAt:     l.clock.Now().UTC(),
	}
	if err := tx.Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}
