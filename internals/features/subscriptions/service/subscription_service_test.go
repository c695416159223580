package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"majibill_backend/internals/databases/testdb"
	adminModel "majibill_backend/internals/features/admins/model"
	notifService "majibill_backend/internals/features/notifications/service"
	"majibill_backend/internals/features/notifications/service/notifytest"
	"majibill_backend/internals/features/payments/gateway"
	"majibill_backend/internals/features/payments/gateway/gatewaytest"
	propertyModel "majibill_backend/internals/features/properties/model"
	"majibill_backend/internals/features/subscriptions/model"
	tenantModel "majibill_backend/internals/features/tenants/model"
	"majibill_backend/internals/helpers/apperr"
	"majibill_backend/internals/helpers/clock"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func seedAdmin(t *testing.T, db *gorm.DB, mutate func(a *adminModel.AdminModel)) *adminModel.AdminModel {
	t.Helper()
	a := &adminModel.AdminModel{
		AdminName:         "Jane Landlord",
		AdminEmail:        uuid.NewString() + "@example.com",
		AdminPhone:        "+254712345678",
		AdminPasswordHash: "x",
	}
	if mutate != nil {
		mutate(a)
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func seedTenants(t *testing.T, db *gorm.DB, adminID uuid.UUID, n int) {
	t.Helper()
	prop := &propertyModel.PropertyModel{PropertyAdminID: adminID, PropertyName: "Block A"}
	require.NoError(t, db.Create(prop).Error)
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&tenantModel.TenantModel{
			TenantAdminID:    adminID,
			TenantPropertyID: prop.PropertyID,
			TenantName:       "Tenant",
			TenantPhone:      uuid.NewString()[:12],
		}).Error)
	}
}

func cadencePtr(c model.Cadence) *model.Cadence { return &c }
func timePtr(t time.Time) *time.Time            { return &t }

func TestGateRejectsSixthStarterTenant(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, nil)
	gate := NewGate(db, clock.NewManual(t0), false)

	seedTenants(t, db, admin.AdminID, 4)
	require.NoError(t, gate.Allow(context.Background(), admin.AdminID, model.ResourceTenants))

	seedTenants(t, db, admin.AdminID, 1)
	err := gate.Allow(context.Background(), admin.AdminID, model.ResourceTenants)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTierLimit))

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindPrecondition, ae.Kind)
	assert.Equal(t, "/subscription", ae.Redirect)
	assert.Contains(t, ae.Message, "Starter")
}

func TestGateUpgradePermitsCreation(t *testing.T) {
	db := testdb.Open(t)
	clk := clock.NewManual(t0)
	admin := seedAdmin(t, db, nil)
	seedTenants(t, db, admin.AdminID, 5)
	gate := NewGate(db, clk, false)

	require.Error(t, gate.Allow(context.Background(), admin.AdminID, model.ResourceTenants))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := Activate(tx, admin.AdminID, model.TierBasic, model.CadenceMonthly, clk.Now())
		return err
	}))
	assert.NoError(t, gate.Allow(context.Background(), admin.AdminID, model.ResourceTenants))
}

func TestGateDowngradesLapsedMonthlyPlan(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierPro
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceMonthly)
		a.AdminSubscriptionEnd = timePtr(t0.Add(-time.Hour))
		a.AdminAutoRenew = true
	})
	seedTenants(t, db, admin.AdminID, 5)

	err := NewGate(db, clock.NewManual(t0), false).Allow(context.Background(), admin.AdminID, model.ResourceTenants)
	assert.True(t, errors.Is(err, ErrTierLimit), "lapsed pro falls back to starter caps")

	var got adminModel.AdminModel
	require.NoError(t, db.First(&got, "admin_id = ?", admin.AdminID).Error)
	assert.Equal(t, model.TierStarter, got.AdminSubscriptionTier)
	assert.Equal(t, model.StatusExpired, got.AdminSubscriptionStatus)
	assert.False(t, got.AdminAutoRenew)
}

func TestGateLifetimeNeverExpires(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierBasic
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceLifetime)
	})
	seedTenants(t, db, admin.AdminID, 20)
	assert.NoError(t, NewGate(db, clock.NewManual(t0), false).Allow(context.Background(), admin.AdminID, model.ResourceTenants))
}

func TestGateInactivePaidTier(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierPro
		a.AdminSubscriptionStatus = model.StatusInactive
	})
	err := NewGate(db, clock.NewManual(t0), false).Allow(context.Background(), admin.AdminID, model.ResourceHouses)
	assert.True(t, errors.Is(err, ErrSubscriptionInactive))
}

func TestGateUnlimitedHouses(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierBasic
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceLifetime)
	})
	assert.NoError(t, NewGate(db, clock.NewManual(t0), false).Allow(context.Background(), admin.AdminID, model.ResourceHouses))
}

func TestGateLookupFailure(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, nil)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = NewGate(db, clock.NewManual(t0), false).Allow(context.Background(), admin.AdminID, model.ResourceTenants)
	assert.True(t, errors.Is(err, ErrGateUnavailable), "closed by default")

	assert.NoError(t, NewGate(db, clock.NewManual(t0), true).Allow(context.Background(), admin.AdminID, model.ResourceTenants))
}

func TestGateUnknownAdmin(t *testing.T) {
	db := testdb.Open(t)
	err := NewGate(db, clock.NewManual(t0), true).Allow(context.Background(), uuid.New(), model.ResourceTenants)
	assert.True(t, errors.Is(err, ErrAdminNotFound))
}

func TestActivateWindows(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, nil)

	cases := []struct {
		cadence   model.Cadence
		end       *time.Time
		autoRenew bool
	}{
		{model.CadenceMonthly, timePtr(t0.AddDate(0, 1, 0)), true},
		{model.CadenceAnnual, timePtr(t0.AddDate(1, 0, 0)), false},
		{model.CadenceLifetime, nil, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.cadence), func(t *testing.T) {
			end, err := Activate(db, admin.AdminID, model.TierPro, tc.cadence, t0)
			require.NoError(t, err)

			var got adminModel.AdminModel
			require.NoError(t, db.First(&got, "admin_id = ?", admin.AdminID).Error)
			assert.Equal(t, model.TierPro, got.AdminSubscriptionTier)
			assert.Equal(t, model.StatusActive, got.AdminSubscriptionStatus)
			assert.Equal(t, tc.autoRenew, got.AdminAutoRenew)
			if tc.end == nil {
				assert.Nil(t, end)
				assert.Nil(t, got.AdminSubscriptionEnd)
			} else {
				require.NotNil(t, got.AdminSubscriptionEnd)
				assert.True(t, tc.end.Equal(*got.AdminSubscriptionEnd))
			}
		})
	}
}

func TestCatalogPricing(t *testing.T) {
	pro := MustLookup(model.TierPro)
	assert.True(t, pro.PriceFor(model.CadenceMonthly).Equal(decimal.NewFromInt(1000)))
	assert.True(t, pro.PriceFor(model.CadenceAnnual).Equal(decimal.NewFromInt(10000)))
	assert.True(t, pro.PriceFor(model.CadenceLifetime).Equal(decimal.NewFromInt(55000)))

	starter := MustLookup(model.TierStarter)
	assert.True(t, starter.PriceFor(model.CadenceMonthly).IsZero())
	assert.Equal(t, 5, starter.Cap(model.ResourceTenants))
	assert.Equal(t, 10, starter.Cap(model.ResourceHouses))

	assert.Equal(t, model.TierStarter, MustLookup("gold").Name)
	assert.Len(t, Catalog(), 5)
}

func TestInitiatePayment(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, nil)
	gw := gatewaytest.New()
	svc := NewService(db, clock.NewManual(t0), gw, nil, "https://app/return")

	p, err := svc.InitiatePayment(context.Background(), admin.AdminID, model.TierPro, model.CadenceMonthly)
	require.NoError(t, err)
	assert.Contains(t, p.SubscriptionPaymentReference, "SUB-PRO-20250310-")
	require.NotNil(t, p.SubscriptionPaymentAuthorizationURL)

	var stored model.SubscriptionPaymentModel
	require.NoError(t, db.First(&stored, "subscription_payment_reference = ?", p.SubscriptionPaymentReference).Error)
	assert.Equal(t, model.PaymentPending, stored.SubscriptionPaymentStatus)
	assert.True(t, stored.SubscriptionPaymentAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "fake", stored.SubscriptionPaymentProvider)
	require.NotNil(t, stored.SubscriptionPaymentAuthorizationURL)

	require.Len(t, gw.Initialized, 1)
	assert.Equal(t, "https://app/return", gw.Initialized[0].CallbackURL)
	assert.Equal(t, admin.AdminEmail, gw.Initialized[0].Email)
}

func TestInitiatePaymentGatewayFailureMarksFailed(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, nil)
	gw := gatewaytest.New()
	gw.InitErr = gateway.ErrUnavailable
	svc := NewService(db, clock.NewManual(t0), gw, nil, "")

	_, err := svc.InitiatePayment(context.Background(), admin.AdminID, model.TierBasic, model.CadenceAnnual)
	assert.True(t, errors.Is(err, gateway.ErrUnavailable))

	var stored model.SubscriptionPaymentModel
	require.NoError(t, db.First(&stored, "subscription_payment_admin_id = ?", admin.AdminID).Error)
	assert.Equal(t, model.PaymentFailed, stored.SubscriptionPaymentStatus)
	assert.NotNil(t, stored.SubscriptionPaymentFailureReason)
}

func TestInitiatePaymentRejectsBadInput(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, nil)
	svc := NewService(db, clock.NewManual(t0), gatewaytest.New(), nil, "")
	ctx := context.Background()

	_, err := svc.InitiatePayment(ctx, admin.AdminID, "gold", model.CadenceMonthly)
	assert.True(t, errors.Is(err, ErrUnknownTier))
	_, err = svc.InitiatePayment(ctx, admin.AdminID, model.TierPro, "weekly")
	assert.True(t, errors.Is(err, ErrInvalidCadence))
	_, err = svc.InitiatePayment(ctx, admin.AdminID, model.TierStarter, model.CadenceMonthly)
	assert.True(t, errors.Is(err, ErrNothingToPay))
	_, err = svc.InitiatePayment(ctx, uuid.New(), model.TierPro, model.CadenceMonthly)
	assert.True(t, errors.Is(err, ErrAdminNotFound))
}

func TestViewReportsUsageAndPlans(t *testing.T) {
	db := testdb.Open(t)
	clk := clock.NewManual(t0)
	admin := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierPro
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceMonthly)
		a.AdminSubscriptionEnd = timePtr(t0.AddDate(0, 0, 12))
	})
	seedTenants(t, db, admin.AdminID, 3)

	v, err := NewService(db, clk, gatewaytest.New(), nil, "").View(context.Background(), admin.AdminID)
	require.NoError(t, err)
	assert.Equal(t, "Pro", v.TierName)
	assert.EqualValues(t, 3, v.Usage.Tenants)
	assert.Equal(t, 100, v.Usage.MaxTenants)
	require.NotNil(t, v.DaysLeft)
	assert.Equal(t, 12, *v.DaysLeft)
	assert.Len(t, v.Plans, 5)
}

func TestSetAutoRenew(t *testing.T) {
	db := testdb.Open(t)
	admin := seedAdmin(t, db, nil)
	svc := NewService(db, clock.NewManual(t0), gatewaytest.New(), nil, "")

	require.NoError(t, svc.SetAutoRenew(context.Background(), admin.AdminID, true))
	var got adminModel.AdminModel
	require.NoError(t, db.First(&got, "admin_id = ?", admin.AdminID).Error)
	assert.True(t, got.AdminAutoRenew)

	assert.True(t, errors.Is(svc.SetAutoRenew(context.Background(), uuid.New(), true), ErrAdminNotFound))
}

func TestExpirySweep(t *testing.T) {
	db := testdb.Open(t)
	clk := clock.NewManual(t0)
	notes := &notifytest.Capture{}
	svc := NewService(db, clk, gatewaytest.New(), notes, "")

	soon := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierBasic
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceMonthly)
		a.AdminSubscriptionEnd = timePtr(clk.Today().AddDate(0, 0, 3).Add(10 * time.Hour))
		a.AdminAutoRenew = true
	})
	lapsed := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierPro
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceAnnual)
		a.AdminSubscriptionEnd = timePtr(t0.Add(-24 * time.Hour))
	})
	lifetime := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierPro
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceLifetime)
	})

	res, err := svc.ExpirySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reminded)
	assert.Equal(t, 1, res.Downgraded)

	reminders := notes.OfKind(notifService.KindRenewalReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, soon.AdminID, reminders[0].AdminID)
	assert.Equal(t, "Your Basic subscription expires in 3 days. Auto-renewal is enabled.", reminders[0].Message)

	var downgraded adminModel.AdminModel
	require.NoError(t, db.First(&downgraded, "admin_id = ?", lapsed.AdminID).Error)
	assert.Equal(t, model.TierStarter, downgraded.AdminSubscriptionTier)
	assert.Equal(t, model.StatusExpired, downgraded.AdminSubscriptionStatus)

	var forever adminModel.AdminModel
	require.NoError(t, db.First(&forever, "admin_id = ?", lifetime.AdminID).Error)
	assert.Equal(t, model.TierPro, forever.AdminSubscriptionTier)
	assert.NotEqual(t, model.StatusExpired, forever.AdminSubscriptionStatus)

	var reminded adminModel.AdminModel
	require.NoError(t, db.First(&reminded, "admin_id = ?", soon.AdminID).Error)
	assert.Equal(t, model.TierBasic, reminded.AdminSubscriptionTier)
}

func TestAutoRenewCreatesPendingRenewalOnce(t *testing.T) {
	db := testdb.Open(t)
	clk := clock.NewManual(t0)
	notes := &notifytest.Capture{}
	gw := gatewaytest.New()
	svc := NewService(db, clk, gw, notes, "")

	due := seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierPro
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceMonthly)
		a.AdminSubscriptionEnd = timePtr(t0.Add(6 * time.Hour))
		a.AdminAutoRenew = true
	})
	seedAdmin(t, db, func(a *adminModel.AdminModel) {
		a.AdminSubscriptionTier = model.TierPro
		a.AdminSubscriptionCadence = cadencePtr(model.CadenceMonthly)
		a.AdminSubscriptionEnd = timePtr(t0.Add(6 * time.Hour))
		a.AdminAutoRenew = false
	})

	res, err := svc.AutoRenew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Initiated)

	var p model.SubscriptionPaymentModel
	require.NoError(t, db.First(&p, "subscription_payment_admin_id = ?", due.AdminID).Error)
	assert.True(t, p.SubscriptionPaymentIsRenewal)
	assert.Equal(t, model.PaymentPending, p.SubscriptionPaymentStatus)
	assert.Contains(t, p.SubscriptionPaymentReference, "RENEWAL-PRO-")

	sms := notes.OfKind(notifService.KindRenewalInitiated)
	require.Len(t, sms, 1)
	assert.Contains(t, sms[0].Message, "https://pay.test/"+p.SubscriptionPaymentReference)

	clk.Advance(time.Hour)
	res, err = svc.AutoRenew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Initiated)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, gw.Initialized, 1)
}
