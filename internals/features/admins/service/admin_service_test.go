package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majibill_backend/internals/databases/testdb"
	adminModel "majibill_backend/internals/features/admins/model"
	subscriptionModel "majibill_backend/internals/features/subscriptions/model"
	"majibill_backend/internals/helpers/clock"
	"majibill_backend/internals/middlewares/auth"
)

const secret = "test-secret"

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(testdb.Open(t), clock.NewManual(time.Now()), secret, time.Hour, "254")
}

func signup(t *testing.T, s *Service, email string) *adminModel.AdminModel {
	t.Helper()
	out, err := s.Signup(context.Background(), SignupInput{
		Name: " Jane  Landlord ", Email: email, Phone: "0712345678", Password: "s3cretpass",
	})
	require.NoError(t, err)
	return out.Admin
}

func TestSignupAndLogin(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	out, err := s.Signup(ctx, SignupInput{Name: "Jane", Email: "Jane@Example.com", Phone: "0712345678", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", out.Admin.AdminEmail)
	assert.Equal(t, "+254712345678", out.Admin.AdminPhone)
	assert.Equal(t, subscriptionModel.TierStarter, out.Admin.AdminSubscriptionTier)
	assert.NotEqual(t, "s3cretpass", out.Admin.AdminPasswordHash)

	id, err := auth.ParseToken(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.Admin.AdminID, id)

	_, err = s.Signup(ctx, SignupInput{Name: "Other", Email: "jane@example.com", Phone: "0712345679", Password: "an0therpass"})
	assert.True(t, errors.Is(err, ErrEmailTaken), "got %v", err)

	logged, err := s.Login(ctx, " JANE@example.com ", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, out.Admin.AdminID, logged.Admin.AdminID)

	_, err = s.Login(ctx, "jane@example.com", "wrong-pass1")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = s.Login(ctx, "nobody@example.com", "s3cretpass")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestSignupValidation(t *testing.T) {
	s := newService(t)
	cases := map[string]struct {
		in   SignupInput
		want error
	}{
		"blank name":     {SignupInput{Name: " ", Email: "a@example.com", Phone: "0712345678", Password: "s3cretpass"}, ErrInvalidName},
		"bad phone":      {SignupInput{Name: "A", Email: "a@example.com", Phone: "12", Password: "s3cretpass"}, ErrInvalidPhone},
		"short password": {SignupInput{Name: "A", Email: "a@example.com", Phone: "0712345678", Password: "a1"}, ErrWeakPassword},
		"no digit":       {SignupInput{Name: "A", Email: "a@example.com", Phone: "0712345678", Password: "onlyletters"}, ErrWeakPassword},
		"no letter":      {SignupInput{Name: "A", Email: "a@example.com", Phone: "0712345678", Password: "1234567890"}, ErrWeakPassword},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Signup(context.Background(), tc.in)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestChangePassword(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	a := signup(t, s, "pw@example.com")

	err := s.ChangePassword(ctx, a.AdminID, "wrong", "n3wpassword")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	err = s.ChangePassword(ctx, a.AdminID, "s3cretpass", "weak")
	assert.True(t, errors.Is(err, ErrWeakPassword))

	require.NoError(t, s.ChangePassword(ctx, a.AdminID, "s3cretpass", "n3wpassword"))
	_, err = s.Login(ctx, "pw@example.com", "s3cretpass")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = s.Login(ctx, "pw@example.com", "n3wpassword")
	assert.NoError(t, err)
}

func TestPayoutAndTariff(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	a := signup(t, s, "pay@example.com")

	p, err := s.SetPayout(ctx, a.AdminID, PayoutInput{Method: adminModel.PayoutTill, Till: " 123456 "})
	require.NoError(t, err)
	assert.Equal(t, "Pay via M-Pesa Till No. 123456", p.PayoutInstructions)
	assert.Equal(t, "Starter", p.PlanName)

	p, err = s.SetPayout(ctx, a.AdminID, PayoutInput{Method: adminModel.PayoutPaybill, Paybill: "400200", Account: "BLOCK-A"})
	require.NoError(t, err)
	assert.Equal(t, "Pay via M-Pesa Paybill 400200, Account: BLOCK-A", p.PayoutInstructions)
	assert.Nil(t, p.AdminPayoutTill, "switching method clears the till")

	_, err = s.SetPayout(ctx, a.AdminID, PayoutInput{Method: adminModel.PayoutPaybill, Paybill: "400200"})
	assert.True(t, errors.Is(err, ErrInvalidPayout))
	_, err = s.SetPayout(ctx, a.AdminID, PayoutInput{Method: adminModel.PayoutTill, Till: "12ab"})
	assert.True(t, errors.Is(err, ErrInvalidPayout))
	_, err = s.SetPayout(ctx, a.AdminID, PayoutInput{Method: "cheque"})
	assert.True(t, errors.Is(err, ErrInvalidPayout))

	rate := decimal.RequireFromString("120.456")
	rent := decimal.RequireFromString("6500")
	p, err = s.SetTariff(ctx, a.AdminID, &rate, &rent)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("120.46").Equal(*p.AdminWaterRate))
	assert.True(t, rent.Equal(*p.AdminDefaultRent))

	zero := decimal.Zero
	_, err = s.SetTariff(ctx, a.AdminID, &zero, nil)
	assert.True(t, errors.Is(err, ErrInvalidRate))
	neg := decimal.NewFromInt(-1)
	_, err = s.SetTariff(ctx, a.AdminID, nil, &neg)
	assert.True(t, errors.Is(err, ErrInvalidRent))

	name, phone := "Jane W.", "+254 700 111 222"
	p, err = s.UpdateProfile(ctx, a.AdminID, &name, &phone)
	require.NoError(t, err)
	assert.Equal(t, "Jane W.", p.AdminName)
	assert.Equal(t, "+254700111222", p.AdminPhone)
}
