package service

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	adminModel "majibill_backend/internals/features/admins/model"
	notifService "majibill_backend/internals/features/notifications/service"
	"majibill_backend/internals/features/payments/gateway"
	"majibill_backend/internals/features/subscriptions/dto"
	"majibill_backend/internals/features/subscriptions/model"
	"majibill_backend/internals/helpers/clock"
)

type Service struct {
	db          *gorm.DB
	clock       clock.Clock
	provider    gateway.Provider
	notifier    notifService.Notifier
	callbackURL string
}

func NewService(db *gorm.DB, clk clock.Clock, provider gateway.Provider, notifier notifService.Notifier, callbackURL string) *Service {
	if notifier == nil {
		notifier = notifService.Discard{}
	}
	return &Service{db: db, clock: clk, provider: provider, notifier: notifier, callbackURL: callbackURL}
}

func (s *Service) loadAdmin(ctx context.Context, adminID uuid.UUID) (*adminModel.AdminModel, error) {
	var admin adminModel.AdminModel
	if err := s.db.WithContext(ctx).First(&admin, "admin_id = ?", adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// InitiatePayment opens a pending charge for tier/cadence and returns it
// with the checkout URL set.
func (s *Service) InitiatePayment(ctx context.Context, adminID uuid.UUID, tier model.Tier, cadence model.Cadence) (*model.SubscriptionPaymentModel, error) {
	spec, ok := Lookup(tier)
	if !ok {
		return nil, ErrUnknownTier.Withf("unknown subscription tier %q", tier)
	}
	if !cadence.Valid() {
		return nil, ErrInvalidCadence
	}
	admin, err := s.loadAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return s.charge(ctx, admin, spec, cadence, false)
}

// charge inserts the pending row before calling the provider so the reference
// is known locally whichever way the provider call goes.
func (s *Service) charge(ctx context.Context, admin *adminModel.AdminModel, spec TierSpec, cadence model.Cadence, renewal bool) (*model.SubscriptionPaymentModel, error) {
	amount := spec.PriceFor(cadence)
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrNothingToPay
	}
	if admin.AdminEmail == "" {
		return nil, ErrMissingEmail
	}

	now := s.clock.Now()
	prefix := "SUB"
	if renewal {
		prefix = "RENEWAL"
	}
	p := &model.SubscriptionPaymentModel{
		SubscriptionPaymentAdminID:   admin.AdminID,
		SubscriptionPaymentReference: gateway.GenReference(prefix, string(spec.Name), now),
		SubscriptionPaymentProvider:  s.provider.Name(),
		SubscriptionPaymentTier:      spec.Name,
		SubscriptionPaymentCadence:   cadence,
		SubscriptionPaymentAmount:    amount,
		SubscriptionPaymentStatus:    model.PaymentPending,
		SubscriptionPaymentIsRenewal: renewal,
		SubscriptionPaymentCreatedAt: now.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}

	res, err := s.provider.Initialize(ctx, gateway.InitializeRequest{
		Email:       admin.AdminEmail,
		Phone:       admin.AdminPhone,
		Amount:      amount,
		Reference:   p.SubscriptionPaymentReference,
		CallbackURL: s.callbackURL,
		Description: spec.DisplayName + " subscription (" + string(cadence) + ")",
		Metadata: map[string]any{
			"admin_id":   admin.AdminID.String(),
			"tier":       string(spec.Name),
			"cadence":    string(cadence),
			"is_renewal": renewal,
		},
	})
	if err != nil {
		reason := err.Error()
		failedAt := s.clock.Now().UTC()
		if uerr := s.db.WithContext(ctx).Model(&model.SubscriptionPaymentModel{}).
			Where("subscription_payment_id = ? AND subscription_payment_status = ?", p.SubscriptionPaymentID, model.PaymentPending).
			Updates(map[string]any{
				"subscription_payment_status":         model.PaymentFailed,
				"subscription_payment_failure_reason": reason,
				"subscription_payment_failed_at":      failedAt,
			}).Error; uerr != nil {
			log.Printf("[SUBSCRIPTION] mark failed ref=%s: %v", p.SubscriptionPaymentReference, uerr)
		}
		log.Printf("[SUBSCRIPTION] initialize failed admin=%s ref=%s: %v", admin.AdminID, p.SubscriptionPaymentReference, err)
		return nil, err
	}

	p.SubscriptionPaymentAuthorizationURL = &res.AuthorizationURL
	if err := s.db.WithContext(ctx).Model(&model.SubscriptionPaymentModel{}).
		Where("subscription_payment_id = ?", p.SubscriptionPaymentID).
		Update("subscription_payment_authorization_url", res.AuthorizationURL).Error; err != nil {
		return nil, err
	}
	log.Printf("[SUBSCRIPTION] initiated admin=%s ref=%s tier=%s cadence=%s amount=%s renewal=%t",
		admin.AdminID, p.SubscriptionPaymentReference, spec.Name, cadence, amount.StringFixed(2), renewal)
	return p, nil
}

func (s *Service) View(ctx context.Context, adminID uuid.UUID) (*dto.SubscriptionResponse, error) {
	admin, err := s.loadAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	spec := MustLookup(admin.AdminSubscriptionTier)

	tenants, err := CountResources(ctx, s.db, adminID, model.ResourceTenants)
	if err != nil {
		return nil, err
	}
	houses, err := CountResources(ctx, s.db, adminID, model.ResourceHouses)
	if err != nil {
		return nil, err
	}

	out := &dto.SubscriptionResponse{
		Tier:      spec.Name,
		TierName:  spec.DisplayName,
		Cadence:   admin.AdminSubscriptionCadence,
		Status:    admin.AdminSubscriptionStatus,
		Start:     admin.AdminSubscriptionStart,
		End:       admin.AdminSubscriptionEnd,
		AutoRenew: admin.AdminAutoRenew,
		Usage: dto.UsageResponse{
			Tenants:    tenants,
			MaxTenants: spec.MaxTenants,
			Houses:     houses,
			MaxHouses:  spec.MaxHouses,
		},
	}
	if admin.AdminSubscriptionEnd != nil {
		days := int(math.Ceil(admin.AdminSubscriptionEnd.Sub(s.clock.Now()).Hours() / 24))
		if days < 0 {
			days = 0
		}
		out.DaysLeft = &days
	}
	for _, t := range Catalog() {
		out.Plans = append(out.Plans, dto.PlanResponse{
			Name:          t.Name,
			DisplayName:   t.DisplayName,
			MaxTenants:    t.MaxTenants,
			MaxHouses:     t.MaxHouses,
			MonthlyPrice:  t.MonthlyPrice,
			AnnualPrice:   t.AnnualPrice(),
			LifetimePrice: t.LifetimePrice,
			Features:      t.Features,
		})
	}
	return out, nil
}

func (s *Service) SetAutoRenew(ctx context.Context, adminID uuid.UUID, on bool) error {
	res := s.db.WithContext(ctx).Model(&adminModel.AdminModel{}).
		Where("admin_id = ?", adminID).
		Update("admin_auto_renew", on)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (s *Service) ListPayments(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]model.SubscriptionPaymentModel, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.SubscriptionPaymentModel{}).
		Where("subscription_payment_admin_id = ?", adminID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.SubscriptionPaymentModel
	if err := q.Order("subscription_payment_created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Service) notifyAdmin(ctx context.Context, admin *adminModel.AdminModel, kind notifService.Kind, msg string) {
	if admin.AdminPhone == "" {
		return
	}
	job := notifService.Job{
		ID:        uuid.New(),
		Kind:      kind,
		AdminID:   admin.AdminID,
		Recipient: admin.AdminPhone,
		Message:   msg,
	}
	if err := s.notifier.Enqueue(ctx, job); err != nil {
		log.Printf("[SUBSCRIPTION] enqueue %s admin=%s: %v", kind, admin.AdminID, err)
	}
}

// dayBounds returns [today+offset, today+offset+1) in the clock's zone.
func dayBounds(clk clock.Clock, offset int) (time.Time, time.Time) {
	from := clk.Today().AddDate(0, 0, offset)
	return from, from.AddDate(0, 0, 1)
}
