// Package service settles subscription payments from gateway callbacks.
// pending -> completed | failed is a compare-and-set on the payment row, so
// the return URL, the webhook and the stale poller can race freely.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	adminModel "majibill_backend/internals/features/admins/model"
	notifService "majibill_backend/internals/features/notifications/service"
	"majibill_backend/internals/features/payments/gateway"
	paymentModel "majibill_backend/internals/features/payments/model"
	subscriptionModel "majibill_backend/internals/features/subscriptions/model"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
	"majibill_backend/internals/helpers/apperr"
	"majibill_backend/internals/helpers/clock"
)

var (
	ErrPaymentNotFound = apperr.NotFound("PAYMENT_NOT_FOUND", "subscription payment not found")
	ErrMissingRef      = apperr.Validation("PAYMENT_MISSING_REFERENCE", "payment reference is required")
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomePending   Outcome = "pending"
	OutcomeNoop      Outcome = "noop"    // already terminal
	OutcomeIgnored   Outcome = "ignored" // event we do not act on
)

type Result struct {
	Reference string                                      `json:"reference"`
	Outcome   Outcome                                     `json:"outcome"`
	Status    subscriptionModel.PaymentStatus             `json:"status,omitempty"`
	Payment   *subscriptionModel.SubscriptionPaymentModel `json:"-"`
}

const (
	sourceWebhook = "webhook"
	sourceReturn  = "return"
	sourcePoll    = "poll"
)

type Reconciler struct {
	db        *gorm.DB
	clock     clock.Clock
	providers gateway.Registry
	notifier  notifService.Notifier
}

func NewReconciler(db *gorm.DB, clk clock.Clock, providers gateway.Registry, notifier notifService.Notifier) *Reconciler {
	if notifier == nil {
		notifier = notifService.Discard{}
	}
	return &Reconciler{db: db, clock: clk, providers: providers, notifier: notifier}
}

/* =========================================================
   RETURN URL
========================================================= */

// HandleReturn verifies reference with the gateway and settles the payment.
func (r *Reconciler) HandleReturn(ctx context.Context, providerName, reference string) (*Result, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ErrMissingRef
	}
	p, err := r.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	ev := r.logEvent(ctx, paymentModel.PaymentGatewayEventModel{
		GatewayEventProvider:  p.Name(),
		GatewayEventSource:    sourceReturn,
		GatewayEventReference: &reference,
	})

	res, err := r.settleByVerify(ctx, p, reference)
	r.finishEvent(ctx, ev, res, err)
	return res, err
}

func (r *Reconciler) settleByVerify(ctx context.Context, p gateway.Provider, reference string) (*Result, error) {
	v, err := p.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	switch {
	case v.Status == gateway.ChargeSuccess:
		return r.complete(ctx, reference, settlement{
			Amount:    v.Amount,
			Channel:   v.Channel,
			GatewayID: v.GatewayID,
			Fees:      v.Fees,
		})
	case v.Status.Failed():
		reason := v.Message
		if reason == "" {
			reason = "gateway reported " + string(v.Status)
		}
		return r.fail(ctx, reference, reason)
	default:
		return r.current(ctx, reference, OutcomePending)
	}
}

/* =========================================================
   WEBHOOK
========================================================= */

// HandleWebhook authenticates and applies one gateway notification.
// Unknown event types and unknown references are acknowledged and ignored.
func (r *Reconciler) HandleWebhook(ctx context.Context, providerName string, body []byte, headers map[string]string) (*Result, error) {
	p, err := r.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	row := paymentModel.PaymentGatewayEventModel{
		GatewayEventProvider: p.Name(),
		GatewayEventSource:   sourceWebhook,
		GatewayEventHeaders:  jsonOrNil(headers),
	}
	if sonic.Valid(body) {
		row.GatewayEventPayload = datatypes.JSON(body)
	}

	event, perr := p.ParseWebhook(body, headerLookup(headers))
	if perr != nil {
		ev := r.logEvent(ctx, row)
		r.finishEvent(ctx, ev, nil, perr)
		log.Printf("[GATEWAY] %s webhook rejected: %v", p.Name(), perr)
		return nil, perr
	}

	row.GatewayEventType = &event.Type
	row.GatewayEventReference = &event.Reference
	if event.Signature != "" {
		row.GatewayEventSignature = &event.Signature
	}
	ev := r.logEvent(ctx, row)

	var res *Result
	switch event.Type {
	case gateway.EventChargeSuccess:
		res, err = r.complete(ctx, event.Reference, settlement{
			Amount:    event.Amount,
			Channel:   event.Channel,
			GatewayID: event.GatewayID,
		})
	case gateway.EventChargeFailed:
		res, err = r.fail(ctx, event.Reference, "gateway reported charge.failed")
	default:
		res = &Result{Reference: event.Reference, Outcome: OutcomeIgnored}
	}

	if errors.Is(err, ErrPaymentNotFound) {
		log.Printf("[GATEWAY] %s webhook %s for unknown reference %s, ignored", p.Name(), event.Type, event.Reference)
		res, err = &Result{Reference: event.Reference, Outcome: OutcomeIgnored}, nil
	}
	r.finishEvent(ctx, ev, res, err)
	return res, err
}

/* =========================================================
   STALE POLL
========================================================= */

// ReconcileStale re-verifies pending payments older than olderThan.
// Still-pending charges are left alone. Returns how many reached a terminal state.
func (r *Reconciler) ReconcileStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := r.clock.Now().Add(-olderThan).UTC()

	var rows []subscriptionModel.SubscriptionPaymentModel
	if err := r.db.WithContext(ctx).
		Where("subscription_payment_status = ? AND subscription_payment_created_at < ?", subscriptionModel.PaymentPending, cutoff).
		Order("subscription_payment_created_at ASC").
		Limit(200).
		Find(&rows).Error; err != nil {
		return 0, err
	}

	resolved := 0
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		row := &rows[i]
		p, err := r.providers.Get(row.SubscriptionPaymentProvider)
		if err != nil {
			log.Printf("[GATEWAY] stale ref=%s: %v", row.SubscriptionPaymentReference, err)
			continue
		}
		ref := row.SubscriptionPaymentReference
		ev := r.logEvent(ctx, paymentModel.PaymentGatewayEventModel{
			GatewayEventAdminID:   &row.SubscriptionPaymentAdminID,
			GatewayEventPaymentID: &row.SubscriptionPaymentID,
			GatewayEventProvider:  p.Name(),
			GatewayEventSource:    sourcePoll,
			GatewayEventReference: &ref,
		})
		res, err := r.settleByVerify(ctx, p, ref)
		r.finishEvent(ctx, ev, res, err)
		if err != nil {
			log.Printf("[GATEWAY] stale ref=%s verify: %v", ref, err)
			continue
		}
		if res.Outcome == OutcomeCompleted || res.Outcome == OutcomeFailed {
			resolved++
		}
	}
	log.Printf("[GATEWAY] stale reconcile checked=%d resolved=%d", len(rows), resolved)
	return resolved, nil
}

/* =========================================================
   STATE TRANSITIONS
========================================================= */

type settlement struct {
	Amount    decimal.Decimal
	Channel   string
	GatewayID string
	Fees      *decimal.Decimal
}

// complete moves pending -> completed and activates the plan in one transaction.
func (r *Reconciler) complete(ctx context.Context, reference string, s settlement) (*Result, error) {
	now := r.clock.Now()
	var (
		payment subscriptionModel.SubscriptionPaymentModel
		won     bool
		until   *time.Time
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subscription_payment_reference = ?", reference).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound.Withf("no subscription payment with reference %s", reference)
			}
			return err
		}
		if payment.SubscriptionPaymentStatus.Terminal() {
			return nil
		}

		if !s.Amount.IsZero() && !s.Amount.Equal(payment.SubscriptionPaymentAmount) {
			log.Printf("[GATEWAY] amount mismatch ref=%s expected=%s got=%s, activating anyway",
				reference, payment.SubscriptionPaymentAmount.StringFixed(2), s.Amount.StringFixed(2))
		}

		updates := map[string]any{
			"subscription_payment_status":       subscriptionModel.PaymentCompleted,
			"subscription_payment_completed_at": now.UTC(),
			"subscription_payment_updated_at":   now.UTC(),
		}
		if !s.Amount.IsZero() {
			updates["subscription_payment_paid_amount"] = s.Amount
		}
		if s.Channel != "" {
			updates["subscription_payment_channel"] = s.Channel
		}
		if s.GatewayID != "" {
			updates["subscription_payment_gateway_id"] = s.GatewayID
		}
		if s.Fees != nil {
			updates["subscription_payment_gateway_fees"] = *s.Fees
		}

		cas := tx.Model(&subscriptionModel.SubscriptionPaymentModel{}).
			Where("subscription_payment_reference = ? AND subscription_payment_status = ?", reference, subscriptionModel.PaymentPending).
			Updates(updates)
		if cas.Error != nil {
			return cas.Error
		}
		if cas.RowsAffected == 0 {
			return nil
		}
		won = true

		end, err := subscriptionService.Activate(tx, payment.SubscriptionPaymentAdminID,
			payment.SubscriptionPaymentTier, payment.SubscriptionPaymentCadence, now)
		if err != nil {
			return err
		}
		until = end
		return tx.Where("subscription_payment_reference = ?", reference).First(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	if !won {
		return &Result{Reference: reference, Outcome: OutcomeNoop, Status: payment.SubscriptionPaymentStatus, Payment: &payment}, nil
	}

	log.Printf("[GATEWAY] completed ref=%s admin=%s tier=%s cadence=%s",
		reference, payment.SubscriptionPaymentAdminID, payment.SubscriptionPaymentTier, payment.SubscriptionPaymentCadence)
	r.notifyActivated(ctx, &payment, until)
	return &Result{Reference: reference, Outcome: OutcomeCompleted, Status: subscriptionModel.PaymentCompleted, Payment: &payment}, nil
}

func (r *Reconciler) fail(ctx context.Context, reference, reason string) (*Result, error) {
	now := r.clock.Now().UTC()
	cas := r.db.WithContext(ctx).Model(&subscriptionModel.SubscriptionPaymentModel{}).
		Where("subscription_payment_reference = ? AND subscription_payment_status = ?", reference, subscriptionModel.PaymentPending).
		Updates(map[string]any{
			"subscription_payment_status":         subscriptionModel.PaymentFailed,
			"subscription_payment_failure_reason": reason,
			"subscription_payment_failed_at":      now,
			"subscription_payment_updated_at":     now,
		})
	if cas.Error != nil {
		return nil, cas.Error
	}
	if cas.RowsAffected == 0 {
		return r.current(ctx, reference, OutcomeNoop)
	}
	log.Printf("[GATEWAY] failed ref=%s: %s", reference, reason)
	return r.current(ctx, reference, OutcomeFailed)
}

func (r *Reconciler) current(ctx context.Context, reference string, outcome Outcome) (*Result, error) {
	var payment subscriptionModel.SubscriptionPaymentModel
	if err := r.db.WithContext(ctx).Where("subscription_payment_reference = ?", reference).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound.Withf("no subscription payment with reference %s", reference)
		}
		return nil, err
	}
	if outcome == OutcomePending && payment.SubscriptionPaymentStatus.Terminal() {
		outcome = OutcomeNoop
	}
	return &Result{Reference: reference, Outcome: outcome, Status: payment.SubscriptionPaymentStatus, Payment: &payment}, nil
}

func (r *Reconciler) notifyActivated(ctx context.Context, p *subscriptionModel.SubscriptionPaymentModel, until *time.Time) {
	var admin adminModel.AdminModel
	if err := r.db.WithContext(ctx).Select("admin_id", "admin_phone").
		First(&admin, "admin_id = ?", p.SubscriptionPaymentAdminID).Error; err != nil || admin.AdminPhone == "" {
		return
	}
	untilStr := ""
	if until != nil {
		untilStr = until.Format("02 Jan 2006")
	}
	msg := notifService.SubscriptionActivatedMessage(
		subscriptionService.MustLookup(p.SubscriptionPaymentTier).DisplayName,
		string(p.SubscriptionPaymentCadence), untilStr)
	if err := r.notifier.Enqueue(ctx, notifService.Job{
		ID:        uuid.New(),
		Kind:      notifService.KindSubscriptionActivated,
		AdminID:   admin.AdminID,
		Recipient: admin.AdminPhone,
		Message:   msg,
	}); err != nil {
		log.Printf("[GATEWAY] enqueue activation sms admin=%s: %v", admin.AdminID, err)
	}
}

/* =========================================================
   EVENT LOG
========================================================= */

func (r *Reconciler) logEvent(ctx context.Context, row paymentModel.PaymentGatewayEventModel) *paymentModel.PaymentGatewayEventModel {
	row.GatewayEventReceivedAt = r.clock.Now().UTC()
	if row.GatewayEventReference != nil && row.GatewayEventPaymentID == nil {
		var p subscriptionModel.SubscriptionPaymentModel
		if err := r.db.WithContext(ctx).Select("subscription_payment_id", "subscription_payment_admin_id").
			Where("subscription_payment_reference = ?", *row.GatewayEventReference).
			Take(&p).Error; err == nil {
			row.GatewayEventPaymentID = &p.SubscriptionPaymentID
			row.GatewayEventAdminID = &p.SubscriptionPaymentAdminID
		}
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("[GATEWAY] event log insert: %v", err)
		return nil
	}
	return &row
}

func (r *Reconciler) finishEvent(ctx context.Context, ev *paymentModel.PaymentGatewayEventModel, res *Result, err error) {
	if ev == nil {
		return
	}
	status := paymentModel.GatewayEventProcessed
	updates := map[string]any{}
	switch {
	case err != nil:
		status = paymentModel.GatewayEventFailed
		updates["gateway_event_error"] = err.Error()
	case res != nil && (res.Outcome == OutcomeIgnored || res.Outcome == OutcomeNoop):
		status = paymentModel.GatewayEventIgnored
	}
	updates["gateway_event_status"] = status
	updates["gateway_event_processed_at"] = r.clock.Now().UTC()
	if uerr := r.db.WithContext(ctx).Model(&paymentModel.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", ev.GatewayEventID).
		Updates(updates).Error; uerr != nil {
		log.Printf("[GATEWAY] event log update %s: %v", ev.GatewayEventID, uerr)
	}
}

func headerLookup(headers map[string]string) func(string) string {
	return func(key string) string {
		if v, ok := headers[key]; ok {
			return v
		}
		for k, v := range headers {
			if strings.EqualFold(k, key) {
				return v
			}
		}
		return ""
	}
}

func jsonOrNil(v any) datatypes.JSON {
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
