package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	adminModel "majibill_backend/internals/features/admins/model"
	notifService "majibill_backend/internals/features/notifications/service"
	"majibill_backend/internals/features/subscriptions/model"
)

type SweepResult struct {
	Reminded   int `json:"reminded"`
	Downgraded int `json:"downgraded"`
}

type RenewResult struct {
	Initiated int `json:"initiated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

var expiringCadences = []model.Cadence{model.CadenceMonthly, model.CadenceAnnual}

// ExpirySweep reminds admins whose plan ends in three days and downgrades
// the ones already past their end. Each downgrade commits on its own.
func (s *Service) ExpirySweep(ctx context.Context) (SweepResult, error) {
	var out SweepResult

	from, to := dayBounds(s.clock, 3)
	var expiring []adminModel.AdminModel
	if err := s.db.WithContext(ctx).
		Where("admin_subscription_cadence IN ? AND admin_subscription_status = ? AND admin_subscription_tier <> ?",
			expiringCadences, model.StatusActive, model.TierStarter).
		Where("admin_subscription_end >= ? AND admin_subscription_end < ?", from.UTC(), to.UTC()).
		Find(&expiring).Error; err != nil {
		return out, err
	}
	for i := range expiring {
		a := &expiring[i]
		s.notifyAdmin(ctx, a, notifService.KindRenewalReminder,
			notifService.RenewalReminderMessage(MustLookup(a.AdminSubscriptionTier).DisplayName, a.AdminAutoRenew))
		out.Reminded++
	}

	var lapsed []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&adminModel.AdminModel{}).
		Where("admin_subscription_cadence IN ? AND admin_subscription_tier <> ?", expiringCadences, model.TierStarter).
		Where("admin_subscription_end < ?", s.clock.Now().UTC()).
		Pluck("admin_id", &lapsed).Error; err != nil {
		return out, err
	}
	for _, id := range lapsed {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := Downgrade(s.db.WithContext(ctx), id); err != nil {
			log.Printf("[SUBSCRIPTION] downgrade admin=%s: %v", id, err)
			continue
		}
		out.Downgraded++
	}

	log.Printf("[SUBSCRIPTION] expiry sweep reminded=%d downgraded=%d", out.Reminded, out.Downgraded)
	return out, nil
}

// AutoRenew opens a renewal charge for every auto-renewing plan that ends
// today and texts the admin the checkout link. An admin with a pending
// renewal created today is skipped.
func (s *Service) AutoRenew(ctx context.Context) (RenewResult, error) {
	var out RenewResult

	from, to := dayBounds(s.clock, 0)
	var due []adminModel.AdminModel
	if err := s.db.WithContext(ctx).
		Where("admin_subscription_cadence IN ? AND admin_auto_renew = ? AND admin_subscription_status = ?",
			expiringCadences, true, model.StatusActive).
		Where("admin_subscription_end >= ? AND admin_subscription_end < ?", from.UTC(), to.UTC()).
		Find(&due).Error; err != nil {
		return out, err
	}

	for i := range due {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		a := &due[i]

		var pending int64
		if err := s.db.WithContext(ctx).Model(&model.SubscriptionPaymentModel{}).
			Where("subscription_payment_admin_id = ? AND subscription_payment_is_renewal = ? AND subscription_payment_status = ?",
				a.AdminID, true, model.PaymentPending).
			Where("subscription_payment_created_at >= ?", from.UTC()).
			Count(&pending).Error; err != nil {
			log.Printf("[SUBSCRIPTION] renewal lookup admin=%s: %v", a.AdminID, err)
			out.Failed++
			continue
		}
		if pending > 0 {
			out.Skipped++
			continue
		}

		spec := MustLookup(a.AdminSubscriptionTier)
		p, err := s.charge(ctx, a, spec, *a.AdminSubscriptionCadence, true)
		if err != nil {
			log.Printf("[SUBSCRIPTION] renewal charge admin=%s: %v", a.AdminID, err)
			out.Failed++
			continue
		}
		url := ""
		if p.SubscriptionPaymentAuthorizationURL != nil {
			url = *p.SubscriptionPaymentAuthorizationURL
		}
		s.notifyAdmin(ctx, a, notifService.KindRenewalInitiated,
			notifService.RenewalInitiatedMessage(spec.DisplayName, p.SubscriptionPaymentAmount, url))
		out.Initiated++
	}

	log.Printf("[SUBSCRIPTION] auto-renew initiated=%d skipped=%d failed=%d", out.Initiated, out.Skipped, out.Failed)
	return out, nil
}
