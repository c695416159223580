package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"majibill_backend/internals/features/billing/dto"
	billingModel "majibill_backend/internals/features/billing/model"
	propertyModel "majibill_backend/internals/features/properties/model"
)

// StatusOpen filters bills that are unpaid or partially paid.
const StatusOpen billingModel.BillStatus = "open"

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

var arrearsTolerance = decimal.NewFromFloat(0.01)

// Arrears sums the unpaid balance of a tenant's bills outside excludeMonth.
// Per-bill balances below 0.01 are dropped. No types means every type.
func (l *Ledger) Arrears(ctx context.Context, adminID, tenantID uuid.UUID, excludeMonth string, types ...billingModel.BillType) (decimal.Decimal, error) {
	q := l.db.WithContext(ctx).
		Model(&billingModel.BillModel{}).
		Select("bill_amount", "bill_amount_paid").
		Where("bill_admin_id = ? AND bill_tenant_id = ? AND bill_status <> ?", adminID, tenantID, billingModel.BillPaid)
	if excludeMonth != "" {
		q = q.Where("bill_month <> ?", excludeMonth)
	}
	if len(types) > 0 {
		q = q.Where("bill_type IN ?", types)
	}

	var bills []billingModel.BillModel
	if err := q.Find(&bills).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range bills {
		if out := bills[i].Outstanding(); out.GreaterThanOrEqual(arrearsTolerance) {
			total = total.Add(out)
		}
	}
	return total.Round(2), nil
}

// Outstanding is the tenant's whole unpaid balance, current month included.
func (l *Ledger) Outstanding(ctx context.Context, adminID, tenantID uuid.UUID) (decimal.Decimal, error) {
	return l.Arrears(ctx, adminID, tenantID, "")
}

// BillStatusCount is one GROUP BY row of the summary query.
type BillStatusCount struct {
	BillStatus billingModel.BillStatus `gorm:"column:bill_status"`
	Bills      int64                   `gorm:"column:bills"`
	Billed     decimal.Decimal         `gorm:"column:billed"`
	Paid       decimal.Decimal         `gorm:"column:paid"`
}

// Summary aggregates an admin's bills, optionally for one type. Results
// are cached until the next write for that admin.
func (l *Ledger) Summary(ctx context.Context, adminID uuid.UUID, billType billingModel.BillType) (*dto.SummaryResponse, error) {
	return l.cache.Load(summaryKey{admin: adminID, kind: billType}, func() (*dto.SummaryResponse, error) {
		q := l.db.WithContext(ctx).
			Model(&billingModel.BillModel{}).
			Select("bill_status, COUNT(*) AS bills, COALESCE(SUM(bill_amount), 0) AS billed, COALESCE(SUM(bill_amount_paid), 0) AS paid").
			Where("bill_admin_id = ?", adminID).
			Group("bill_status")
		if billType != "" {
			q = q.Where("bill_type = ?", billType)
		}
		var rows []BillStatusCount
		if err := q.Scan(&rows).Error; err != nil {
			return nil, err
		}

		out := &dto.SummaryResponse{
			Type:        billType,
			TotalBilled: decimal.Zero,
			TotalPaid:   decimal.Zero,
		}
		for _, r := range rows {
			out.Bills += r.Bills
			out.TotalBilled = out.TotalBilled.Add(r.Billed)
			out.TotalPaid = out.TotalPaid.Add(r.Paid)
			switch r.BillStatus {
			case billingModel.BillUnpaid:
				out.Unpaid += r.Bills
			case billingModel.BillPartial:
				out.Partial += r.Bills
			case billingModel.BillPaid:
				out.Paid += r.Bills
			}
		}
		out.TotalBilled = out.TotalBilled.Round(2)
		out.TotalPaid = out.TotalPaid.Round(2)
		out.TotalOutstanding = out.TotalBilled.Sub(out.TotalPaid)
		return out, nil
	})
}

// foldSearch normalises free text for case-insensitive matching and
// escapes LIKE wildcards.
func foldSearch(s string) string {
	s = strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListBills pages an admin's bills enriched with tenant and house, sorted
// by due date ascending.
func (l *Ledger) ListBills(ctx context.Context, adminID uuid.UUID, f dto.BillFilter) ([]dto.BillRow, int64, error) {
	q := l.db.WithContext(ctx).
		Table("bills").
		Joins("LEFT JOIN tenants ON tenants.tenant_id = bills.bill_tenant_id").
		Joins("LEFT JOIN houses ON houses.house_id = bills.bill_house_id").
		Where("bills.bill_admin_id = ?", adminID)

	switch f.Status {
	case "", "all":
	case StatusOpen:
		q = q.Where("bills.bill_status IN ?", []billingModel.BillStatus{billingModel.BillUnpaid, billingModel.BillPartial})
	default:
		q = q.Where("bills.bill_status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("bills.bill_type = ?", f.Type)
	}
	if f.Month != "" {
		q = q.Where("bills.bill_month = ?", f.Month)
	}
	if f.TenantID != nil {
		q = q.Where("bills.bill_tenant_id = ?", *f.TenantID)
	}
	if s := foldSearch(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where(`(LOWER(tenants.tenant_name) LIKE ? ESCAPE '\' OR LOWER(houses.house_label) LIKE ? ESCAPE '\')`, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)
	rows := []dto.BillRow{}
	if err := q.
		Select("bills.*, tenants.tenant_name, tenants.tenant_phone, houses.house_label").
		Order("bills.bill_due_date ASC, bills.bill_created_at ASC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	for i := range rows {
		rows[i].Outstanding = rows[i].BillModel.Outstanding()
	}
	return rows, total, nil
}

// TenantAccount gathers a tenant's balance, bills and readings.
func (l *Ledger) TenantAccount(ctx context.Context, adminID, tenantID uuid.UUID) (*dto.AccountResponse, error) {
	tenant, err := l.loadTenant(ctx, adminID, tenantID)
	if err != nil {
		return nil, err
	}
	out := &dto.AccountResponse{
		TenantID:    tenant.TenantID,
		TenantName:  tenant.TenantName,
		TenantPhone: tenant.TenantPhone,
		HouseID:     tenant.TenantHouseID,
		Bills:       []billingModel.BillModel{},
		Readings:    []billingModel.ReadingModel{},
	}
	if tenant.TenantHouseID != nil {
		var house propertyModel.HouseModel
		err := l.db.WithContext(ctx).
			Where("house_admin_id = ? AND house_id = ?", adminID, *tenant.TenantHouseID).
			First(&house).Error
		switch {
		case err == nil:
			out.HouseLabel = house.HouseLabel
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	if out.TotalOutstanding, err = l.Outstanding(ctx, adminID, tenantID); err != nil {
		return nil, err
	}
	month := l.currentMonth()
	if out.WaterArrears, err = l.Arrears(ctx, adminID, tenantID, month, billingModel.BillTypeWater); err != nil {
		return nil, err
	}
	if out.RentArrears, err = l.Arrears(ctx, adminID, tenantID, month, billingModel.BillTypeRent); err != nil {
		return nil, err
	}

	if err := l.db.WithContext(ctx).
		Where("bill_admin_id = ? AND bill_tenant_id = ?", adminID, tenantID).
		Order("bill_due_date DESC").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("bill_payment_paid_at ASC") }).
		Find(&out.Bills).Error; err != nil {
		return nil, err
	}
	if err := l.db.WithContext(ctx).
		Where("reading_admin_id = ? AND reading_tenant_id = ?", adminID, tenantID).
		Order("reading_recorded_at DESC").
		Find(&out.Readings).Error; err != nil {
		return nil, err
	}
	return out, nil
}
