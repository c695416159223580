package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"majibill_backend/internals/databases/testdb"
	adminModel "majibill_backend/internals/features/admins/model"
	billingModel "majibill_backend/internals/features/billing/model"
	billingService "majibill_backend/internals/features/billing/service"
	"majibill_backend/internals/features/notifications/service/notifytest"
	propertyModel "majibill_backend/internals/features/properties/model"
	propertyService "majibill_backend/internals/features/properties/service"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
	"majibill_backend/internals/features/tenants/dto"
	tenantModel "majibill_backend/internals/features/tenants/model"
	"majibill_backend/internals/helpers/clock"
	ossHelper "majibill_backend/internals/helpers/oss"
)

var jan10 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

type env struct {
	db     *gorm.DB
	clk    *clock.Manual
	ledger *billingService.Ledger
	occ    *Occupancy
	admin  *adminModel.AdminModel
	prop   *propertyModel.PropertyModel
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	e := &env{db: db, clk: clock.NewManual(jan10)}
	e.admin = &adminModel.AdminModel{
		AdminName:         "Jane Landlord",
		AdminEmail:        uuid.NewString() + "@example.com",
		AdminPhone:        "+254712345678",
		AdminPasswordHash: "x",
		AdminWaterRate:    decPtr("10"),
	}
	require.NoError(t, db.Create(e.admin).Error)
	e.prop = &propertyModel.PropertyModel{PropertyAdminID: e.admin.AdminID, PropertyName: "Block A"}
	require.NoError(t, db.Create(e.prop).Error)

	e.ledger = billingService.NewLedger(db, e.clk, billingService.NewTariff(db, nil), &notifytest.Capture{},
		billingService.LedgerConfig{DueDays: 30, CacheTTL: time.Minute})
	gate := subscriptionService.NewGate(db, e.clk, false)
	e.occ = NewOccupancy(db, e.ledger, gate, "254")
	return e
}

func (e *env) add(t *testing.T, name, phone, label string, initial *decimal.Decimal) *tenantModel.TenantModel {
	t.Helper()
	tn, err := e.occ.AddTenant(context.Background(), e.admin.AdminID, AddTenantInput{
		PropertyID:     e.prop.PropertyID,
		Name:           name,
		Phone:          phone,
		HouseLabel:     label,
		InitialReading: initial,
	})
	require.NoError(t, err)
	return tn
}

func (e *env) house(t *testing.T, label string) *propertyModel.HouseModel {
	t.Helper()
	var h propertyModel.HouseModel
	require.NoError(t, e.db.Where("house_property_id = ? AND house_label = ?", e.prop.PropertyID, label).First(&h).Error)
	return &h
}

// owe records a reading that leaves the tenant with a water bill.
func (e *env) owe(t *testing.T, tn *tenantModel.TenantModel, reading string) *billingModel.BillModel {
	t.Helper()
	out, err := e.ledger.RecordReading(context.Background(), e.admin.AdminID, tn.TenantID, dec(reading), time.Time{})
	require.NoError(t, err)
	return &out.Bill
}

func (e *env) pay(t *testing.T, bill *billingModel.BillModel) {
	t.Helper()
	_, err := e.ledger.ApplyPayment(context.Background(), e.admin.AdminID, bill.BillID, billingService.PaymentInput{Amount: bill.BillAmount})
	require.NoError(t, err)
}

/* ===================== ADD ===================== */

func TestAddTenantStarterCap(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		tn := e.add(t, fmt.Sprintf("T%d", i), fmt.Sprintf("07000000%02d", i), fmt.Sprintf("H%d", i), nil)
		assert.Equal(t, fmt.Sprintf("+2547000000%02d", i), tn.TenantPhone)
	}

	_, err := e.occ.AddTenant(ctx, e.admin.AdminID, AddTenantInput{
		PropertyID: e.prop.PropertyID, Name: "T6", Phone: "0700000006", HouseLabel: "H6",
	})
	assert.True(t, errors.Is(err, subscriptionService.ErrTierLimit), "got %v", err)

	var tenants, houses int64
	require.NoError(t, e.db.Model(&tenantModel.TenantModel{}).Count(&tenants).Error)
	require.NoError(t, e.db.Model(&propertyModel.HouseModel{}).Count(&houses).Error)
	assert.EqualValues(t, 5, tenants)
	assert.EqualValues(t, 5, houses)
}

func TestAddTenantRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.add(t, "  Mary   Wanjiku ", "0712 000 111", "A1", decPtr("40"))
	assert.Equal(t, "Mary Wanjiku", first.TenantName)

	h := e.house(t, "A1")
	assert.True(t, h.HouseOccupied)
	require.NotNil(t, h.HouseCurrentTenantID)
	assert.Equal(t, first.TenantID, *h.HouseCurrentTenantID)
	assert.Equal(t, "Mary Wanjiku", h.HouseCurrentTenantName)

	var baseline billingModel.ReadingModel
	require.NoError(t, e.db.Where("reading_tenant_id = ?", first.TenantID).First(&baseline).Error)
	assert.Equal(t, billingModel.ReadingTagInitial, baseline.ReadingTag)
	assert.True(t, dec("40").Equal(baseline.ReadingCurrentValue))

	cases := []struct {
		name string
		in   AddTenantInput
		want error
	}{
		{"duplicate phone", AddTenantInput{Name: "B", Phone: "+254712000111", HouseLabel: "A2"}, ErrDuplicatePhone},
		{"occupied house", AddTenantInput{Name: "B", Phone: "0712000222", HouseLabel: "a1"}, propertyService.ErrHouseOccupied},
		{"blank name", AddTenantInput{Name: "  ", Phone: "0712000222", HouseLabel: "A2"}, ErrInvalidName},
		{"bad phone", AddTenantInput{Name: "B", Phone: "07abc", HouseLabel: "A2"}, ErrInvalidPhone},
		{"blank house", AddTenantInput{Name: "B", Phone: "0712000222", HouseLabel: " "}, ErrInvalidHouse},
		{"negative reading", AddTenantInput{Name: "B", Phone: "0712000222", HouseLabel: "A2", InitialReading: decPtr("-1")}, ErrInvalidReading},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.PropertyID = e.prop.PropertyID
			_, err := e.occ.AddTenant(ctx, e.admin.AdminID, tc.in)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}

	_, err := e.occ.AddTenant(ctx, e.admin.AdminID, AddTenantInput{
		PropertyID: uuid.New(), Name: "B", Phone: "0712000222", HouseLabel: "A2",
	})
	assert.True(t, errors.Is(err, propertyService.ErrPropertyNotFound), "got %v", err)

	var houses int64
	require.NoError(t, e.db.Model(&propertyModel.HouseModel{}).Count(&houses).Error)
	assert.EqualValues(t, 1, houses, "failed adds must not leave houses behind")
}

/* ===================== TRANSFER ===================== */

func TestTransferKeepsHouseChain(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t1 := e.add(t, "T1", "0711000001", "H1", decPtr("150"))
	e.clk.Set(time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC))
	bill := e.owe(t, t1, "180")
	assert.True(t, dec("300").Equal(bill.BillAmount))

	_, err := e.occ.TransferTenant(ctx, e.admin.AdminID, t1.TenantID, "H2", nil)
	require.True(t, errors.Is(err, ErrOutstandingBalance), "got %v", err)
	assert.Contains(t, err.Error(), "300.00")
	assert.True(t, e.house(t, "H1").HouseOccupied)

	e.pay(t, bill)
	moved, err := e.occ.TransferTenant(ctx, e.admin.AdminID, t1.TenantID, "H2", nil)
	require.NoError(t, err)

	h1, h2 := e.house(t, "H1"), e.house(t, "H2")
	assert.False(t, h1.HouseOccupied)
	assert.Nil(t, h1.HouseCurrentTenantID)
	assert.True(t, h2.HouseOccupied)
	assert.Equal(t, h2.HouseID, *moved.TenantHouseID)

	var history []billingModel.ReadingModel
	require.NoError(t, e.db.Where("reading_house_id = ?", h1.HouseID).Find(&history).Error)
	require.Len(t, history, 2)
	for _, r := range history {
		assert.Equal(t, billingModel.ReadingTagHouseHistory, r.ReadingTag)
		assert.Nil(t, r.ReadingTenantID)
		require.NotNil(t, r.ReadingFormerTenantID)
		assert.Equal(t, t1.TenantID, *r.ReadingFormerTenantID)
	}

	t7 := e.add(t, "T7", "0711000007", "H1", nil)
	e.clk.Set(time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC))
	out, err := e.ledger.RecordReading(ctx, e.admin.AdminID, t7.TenantID, dec("200"), time.Time{})
	require.NoError(t, err)
	assert.True(t, dec("180").Equal(out.Reading.ReadingPreviousValue))
	assert.True(t, dec("20").Equal(out.Reading.ReadingUsage))
	assert.True(t, dec("200").Equal(out.Bill.BillAmount))

	_, err = e.occ.TransferTenant(ctx, e.admin.AdminID, t1.TenantID, "h2", nil)
	assert.True(t, errors.Is(err, ErrSameHouse), "got %v", err)
	_, err = e.occ.TransferTenant(ctx, e.admin.AdminID, t1.TenantID, "H1", nil)
	assert.True(t, errors.Is(err, propertyService.ErrHouseOccupied), "got %v", err)
}

func TestOutstandingBlocksChanges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tn := e.add(t, "Peter", "0711000002", "B1", decPtr("0"))
	bill := e.owe(t, tn, "5")

	err := e.occ.DeleteTenant(ctx, e.admin.AdminID, tn.TenantID)
	assert.True(t, errors.Is(err, ErrOutstandingBalance), "delete: %v", err)

	label := "B2"
	_, err = e.occ.EditTenant(ctx, e.admin.AdminID, tn.TenantID, EditTenantInput{HouseLabel: &label})
	assert.True(t, errors.Is(err, ErrOutstandingBalance), "edit house: %v", err)

	name := "Peter Otieno"
	_, err = e.occ.EditTenant(ctx, e.admin.AdminID, tn.TenantID, EditTenantInput{Name: &name})
	assert.True(t, errors.Is(err, ErrOutstandingBalance), "rename: %v", err)

	// phone and rent changes do not depend on the balance
	phone := "0711000003"
	edited, err := e.occ.EditTenant(ctx, e.admin.AdminID, tn.TenantID, EditTenantInput{Phone: &phone, Rent: decPtr("4500")})
	require.NoError(t, err)
	assert.Equal(t, "+254711000003", edited.TenantPhone)
	assert.True(t, dec("4500").Equal(*edited.TenantRent))

	e.pay(t, bill)

	edited, err = e.occ.EditTenant(ctx, e.admin.AdminID, tn.TenantID, EditTenantInput{Name: &name, HouseLabel: &label})
	require.NoError(t, err)
	assert.Equal(t, "Peter Otieno", edited.TenantName)
	b2 := e.house(t, "B2")
	assert.Equal(t, "Peter Otieno", b2.HouseCurrentTenantName)
	assert.Equal(t, b2.HouseID, *edited.TenantHouseID)

	require.NoError(t, e.occ.DeleteTenant(ctx, e.admin.AdminID, tn.TenantID))
	assert.False(t, e.house(t, "B2").HouseOccupied)
	_, err = e.occ.GetTenant(ctx, e.admin.AdminID, tn.TenantID)
	assert.True(t, errors.Is(err, ErrTenantNotFound))

	// bills survive the soft delete
	var bills int64
	require.NoError(t, e.db.Model(&billingModel.BillModel{}).Where("bill_tenant_id = ?", tn.TenantID).Count(&bills).Error)
	assert.EqualValues(t, 1, bills)

	// the freed phone can be reused
	e.add(t, "New", "0711000003", "B2", nil)
}

func TestEditTenantPhoneConflict(t *testing.T) {
	e := newEnv(t)
	a := e.add(t, "A", "0711000010", "C1", nil)
	e.add(t, "B", "0711000011", "C2", nil)

	phone := "+254711000011"
	_, err := e.occ.EditTenant(context.Background(), e.admin.AdminID, a.TenantID, EditTenantInput{Phone: &phone})
	assert.True(t, errors.Is(err, ErrDuplicatePhone), "got %v", err)

	_, err = e.occ.EditTenant(context.Background(), uuid.New(), a.TenantID, EditTenantInput{Phone: &phone})
	assert.True(t, errors.Is(err, ErrTenantNotFound))
}

/* ===================== QUERIES ===================== */

func TestEditTenantIsAllOrNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.add(t, "Alice", "0711000001", "A1", decPtr("40"))
	e.add(t, "Bob", "0711000002", "A2", nil)
	a1 := e.house(t, "A1")

	label, phone, name := "A3", "+254711000002", "Alice W."
	_, err := e.occ.EditTenant(ctx, e.admin.AdminID, alice.TenantID, EditTenantInput{HouseLabel: &label, Phone: &phone, Name: &name})
	assert.True(t, errors.Is(err, ErrDuplicatePhone), "got %v", err)

	got, err := e.occ.GetTenant(ctx, e.admin.AdminID, alice.TenantID)
	require.NoError(t, err)
	assert.Equal(t, "A1", got.HouseLabel)
	assert.Equal(t, "Alice", got.TenantName)
	assert.Equal(t, a1.HouseID, *got.TenantHouseID)
	a1 = e.house(t, "A1")
	assert.True(t, a1.HouseOccupied)
	assert.Equal(t, "Alice", a1.HouseCurrentTenantName)

	var a3 int64
	require.NoError(t, e.db.Model(&propertyModel.HouseModel{}).Where("house_label = ?", "A3").Count(&a3).Error)
	assert.Zero(t, a3, "house created by the failed move is rolled back")
	var detached int64
	require.NoError(t, e.db.Model(&billingModel.ReadingModel{}).Where("reading_tenant_id = ?", alice.TenantID).Count(&detached).Error)
	assert.EqualValues(t, 1, detached, "baseline reading still belongs to the tenant")

	bad := "12"
	_, err = e.occ.EditTenant(ctx, e.admin.AdminID, alice.TenantID, EditTenantInput{HouseLabel: &label, Phone: &bad})
	assert.True(t, errors.Is(err, ErrInvalidPhone), "got %v", err)
	assert.Equal(t, a1.HouseID, *e.house(t, "A1").HouseCurrentTenantID)

	phone = "0711000009"
	moved, err := e.occ.EditTenant(ctx, e.admin.AdminID, alice.TenantID, EditTenantInput{HouseLabel: &label, Phone: &phone, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "+254711000009", moved.TenantPhone)
	assert.Equal(t, e.house(t, "A3").HouseID, *moved.TenantHouseID)
	assert.Equal(t, "Alice W.", e.house(t, "A3").HouseCurrentTenantName)
	assert.False(t, e.house(t, "A1").HouseOccupied)
}

func TestListTenants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.add(t, "Zawadi", "0711000020", "D1", nil)
	e.add(t, "Amina", "0711000021", "D2", nil)
	e.add(t, "Brian", "0711000022", "D3", nil)

	rows, total, err := e.occ.ListTenants(ctx, e.admin.AdminID, dto.TenantFilter{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Amina", rows[0].TenantName)
	assert.Equal(t, "D2", rows[0].HouseLabel)

	rows, total, err = e.occ.ListTenants(ctx, e.admin.AdminID, dto.TenantFilter{Search: "d3"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Brian", rows[0].TenantName)

	_, total, err = e.occ.ListTenants(ctx, uuid.New(), dto.TenantFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

/* ===================== IMPORT ===================== */

func TestImportTenants(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	arch := &ossHelper.MockArchiver{}
	e.occ.WithArchiver(arch)
	e.add(t, "Existing", "0711000030", "E1", nil)

	csv := "\xef\xbb\xbfName,House,Phone,Initial Reading\n" +
		"Grace,E2,0711000031,12.5\n" +
		"Dup,E3,0711000030,\n" +
		",,,\n" +
		"Taken,e1,0711000032,\n" +
		"Bad,E4,0711000033,abc\n"
	report, err := e.occ.ImportTenants(ctx, e.admin.AdminID, e.prop.PropertyID, "tenants.csv", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 3, report.Failed)
	require.Len(t, report.Rows, 4)
	assert.Equal(t, dto.ImportCreated, report.Rows[0].Status)
	assert.Equal(t, 2, report.Rows[0].Line)
	assert.Contains(t, report.Rows[1].Error, "already used")
	assert.Equal(t, 5, report.Rows[2].Line)
	assert.Contains(t, report.Rows[2].Error, "occupied")
	assert.Contains(t, report.Rows[3].Error, "not a number")

	assert.NotEmpty(t, report.ArchiveKey)
	assert.Equal(t, []byte(csv), arch.Files[report.ArchiveKey])

	var baseline billingModel.ReadingModel
	require.NoError(t, e.db.Where("reading_tenant_id = ?", *report.Rows[0].TenantID).First(&baseline).Error)
	assert.True(t, dec("12.5").Equal(baseline.ReadingCurrentValue))
}

func TestImportTenantsHeaderless(t *testing.T) {
	e := newEnv(t)
	e.occ.WithArchiver(&ossHelper.MockArchiver{Err: errors.New("bucket down")})

	report, err := e.occ.ImportTenants(context.Background(), e.admin.AdminID, e.prop.PropertyID, "t.csv",
		[]byte("Ann,F1,0711000040\nBen,F2,0711000041\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Rows[0].Line)
	assert.Empty(t, report.ArchiveKey, "archive failure is logged, not fatal")
}

func TestImportTenantsRejectsFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.occ.ImportTenants(ctx, e.admin.AdminID, e.prop.PropertyID, "e.csv", []byte("name,house,phone\n"))
	assert.True(t, errors.Is(err, ErrImportEmpty), "got %v", err)

	_, err = e.occ.ImportTenants(ctx, e.admin.AdminID, e.prop.PropertyID, "m.csv", []byte("a,\"b\nc"))
	assert.True(t, errors.Is(err, ErrImportMalformed), "got %v", err)

	big := strings.Repeat("x,y,0711000000\n", MaxImportRows+1)
	_, err = e.occ.ImportTenants(ctx, e.admin.AdminID, e.prop.PropertyID, "b.csv", []byte(big))
	assert.True(t, errors.Is(err, ErrImportTooLarge), "got %v", err)

	_, err = e.occ.ImportTenants(ctx, e.admin.AdminID, uuid.New(), "x.csv", []byte("a,b,0711000000\n"))
	assert.True(t, errors.Is(err, propertyService.ErrPropertyNotFound), "got %v", err)
}
