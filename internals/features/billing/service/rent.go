package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	database "majibill_backend/internals/databases"
	adminModel "majibill_backend/internals/features/admins/model"
	"majibill_backend/internals/features/billing/dto"
	billingModel "majibill_backend/internals/features/billing/model"
	propertyModel "majibill_backend/internals/features/properties/model"
	tenantModel "majibill_backend/internals/features/tenants/model"
	"majibill_backend/internals/helpers/clock"
)

// ResolveRent picks the first positive of house rent, tenant rent and the
// admin default. Zero means nothing to bill.
func ResolveRent(house *propertyModel.HouseModel, tenant *tenantModel.TenantModel, admin *adminModel.AdminModel) decimal.Decimal {
	if house != nil && house.HouseRent.GreaterThan(decimal.Zero) {
		return house.HouseRent
	}
	if tenant != nil && tenant.TenantRent != nil && tenant.TenantRent.GreaterThan(decimal.Zero) {
		return *tenant.TenantRent
	}
	if admin != nil && admin.AdminDefaultRent != nil && admin.AdminDefaultRent.GreaterThan(decimal.Zero) {
		return *admin.AdminDefaultRent
	}
	return decimal.Zero
}

// GenerateRentBills issues one rent bill per housed tenant for month.
// A month that already has any rent bill is refused whole. Each bill
// commits on its own.
func (l *Ledger) GenerateRentBills(ctx context.Context, adminID uuid.UUID, month string) (*dto.RentRunResponse, error) {
	start, err := clock.ParseMonth(month, l.clock.Now().Location())
	if err != nil {
		return nil, ErrInvalidMonth
	}
	month = clock.MonthStamp(start)

	admin, err := l.loadAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	var existing int64
	if err := l.db.WithContext(ctx).Model(&billingModel.BillModel{}).
		Where("bill_admin_id = ? AND bill_month = ? AND bill_type = ?", adminID, month, billingModel.BillTypeRent).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadyGenerated.Withf("rent bills for %s were already generated", month)
	}

	var tenants []tenantModel.TenantModel
	if err := l.db.WithContext(ctx).
		Where("tenant_admin_id = ? AND tenant_house_id IS NOT NULL", adminID).
		Order("tenant_name ASC").
		Find(&tenants).Error; err != nil {
		return nil, err
	}

	houseIDs := make([]uuid.UUID, 0, len(tenants))
	for _, t := range tenants {
		houseIDs = append(houseIDs, *t.TenantHouseID)
	}
	houses := map[uuid.UUID]*propertyModel.HouseModel{}
	if len(houseIDs) > 0 {
		var rows []propertyModel.HouseModel
		if err := l.db.WithContext(ctx).
			Where("house_admin_id = ? AND house_id IN ?", adminID, houseIDs).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for i := range rows {
			houses[rows[i].HouseID] = &rows[i]
		}
	}

	now := l.clock.Now()
	out := &dto.RentRunResponse{Month: month, Bills: []billingModel.BillModel{}}
	for i := range tenants {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		t := &tenants[i]
		house := houses[*t.TenantHouseID]
		if house == nil {
			out.Skipped = append(out.Skipped, dto.RentSkip{TenantID: t.TenantID, TenantName: t.TenantName, Reason: "house not found"})
			continue
		}
		rent := ResolveRent(house, t, admin)
		if !rent.GreaterThan(decimal.Zero) {
			log.Printf("[LEDGER] rent run %s admin=%s tenant=%s skipped: no rent configured", month, adminID, t.TenantID)
			out.Skipped = append(out.Skipped, dto.RentSkip{TenantID: t.TenantID, TenantName: t.TenantName, Reason: "no rent configured"})
			continue
		}

		bill := billingModel.BillModel{
			BillAdminID:    adminID,
			BillTenantID:   t.TenantID,
			BillHouseID:    house.HouseID,
			BillType:       billingModel.BillTypeRent,
			BillMonth:      month,
			BillAmount:     rent.Round(2),
			BillAmountPaid: decimal.Zero,
			BillStatus:     billingModel.BillUnpaid,
			BillDueDate:    now.AddDate(0, 0, l.dueDays).UTC(),
			BillCreatedAt:  now.UTC(),
		}
		if err := l.db.WithContext(ctx).Create(&bill).Error; err != nil {
			if database.IsUniqueViolation(err) {
				out.Skipped = append(out.Skipped, dto.RentSkip{TenantID: t.TenantID, TenantName: t.TenantName, Reason: "already billed"})
				continue
			}
			log.Printf("[LEDGER] rent run %s tenant=%s: %v", month, t.TenantID, err)
			out.Skipped = append(out.Skipped, dto.RentSkip{TenantID: t.TenantID, TenantName: t.TenantName, Reason: "store error"})
			continue
		}
		out.Bills = append(out.Bills, bill)
	}
	out.Generated = len(out.Bills)
	l.cache.Invalidate(adminID)
	log.Printf("[LEDGER] rent run %s admin=%s generated=%d skipped=%d", month, adminID, out.Generated, len(out.Skipped))

	byID := map[uuid.UUID]*tenantModel.TenantModel{}
	for i := range tenants {
		byID[tenants[i].TenantID] = &tenants[i]
	}
	for i := range out.Bills {
		b := &out.Bills[i]
		arrears, err := l.Arrears(ctx, adminID, b.BillTenantID, month, billingModel.BillTypeRent)
		if err != nil {
			log.Printf("[LEDGER] rent arrears tenant=%s: %v", b.BillTenantID, err)
		}
		l.sendBillAlert(ctx, admin, byID[b.BillTenantID], b, arrears, nil, nil)
	}
	return out, nil
}
