package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	adminModel "majibill_backend/internals/features/admins/model"
	propertyModel "majibill_backend/internals/features/properties/model"
	"majibill_backend/internals/features/subscriptions/model"
	tenantModel "majibill_backend/internals/features/tenants/model"
	"majibill_backend/internals/helpers/clock"
)

// Gate guards resource creation against the admin's tier.
// Lookup failures reject unless failOpen is set.
type Gate struct {
	db       *gorm.DB
	clock    clock.Clock
	failOpen bool
}

func NewGate(db *gorm.DB, clk clock.Clock, failOpen bool) *Gate {
	return &Gate{db: db, clock: clk, failOpen: failOpen}
}

func (g *Gate) Allow(ctx context.Context, adminID uuid.UUID, res model.Resource) error {
	var admin adminModel.AdminModel
	if err := g.db.WithContext(ctx).First(&admin, "admin_id = ?", adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		return g.lookupFailed(adminID, res, err)
	}

	// (a) paid tiers need a live subscription
	if admin.AdminSubscriptionTier != model.TierStarter &&
		admin.AdminSubscriptionStatus != model.StatusActive &&
		admin.AdminSubscriptionStatus != model.StatusTrialing {
		return ErrSubscriptionInactive.Withf("your %s subscription is %s, renew it to add %s",
			MustLookup(admin.AdminSubscriptionTier).DisplayName, admin.AdminSubscriptionStatus, res)
	}

	// (b) lapsed windows fall back to starter before counting
	if expired(&admin, g.clock) {
		if err := Downgrade(g.db.WithContext(ctx), adminID); err != nil {
			return g.lookupFailed(adminID, res, err)
		}
		log.Printf("[SUBSCRIPTION] admin=%s expired during gate check, downgraded to starter", adminID)
		admin.AdminSubscriptionTier = model.TierStarter
	}

	// (c) count against the cap
	spec := MustLookup(admin.AdminSubscriptionTier)
	limit := spec.Cap(res)
	if limit == Unlimited {
		return nil
	}
	count, err := CountResources(ctx, g.db, adminID, res)
	if err != nil {
		return g.lookupFailed(adminID, res, err)
	}
	if count+1 > int64(limit) {
		return ErrTierLimit.Withf("your %s plan allows up to %d %s, upgrade your subscription to add more",
			spec.DisplayName, limit, res)
	}
	return nil
}

func (g *Gate) lookupFailed(adminID uuid.UUID, res model.Resource, err error) error {
	if g.failOpen {
		log.Printf("[SUBSCRIPTION] gate lookup failed admin=%s res=%s, allowing (fail-open): %v", adminID, res, err)
		return nil
	}
	log.Printf("[SUBSCRIPTION] gate lookup failed admin=%s res=%s: %v", adminID, res, err)
	return ErrGateUnavailable.Wrap(err)
}

func expired(admin *adminModel.AdminModel, clk clock.Clock) bool {
	if admin.AdminSubscriptionTier == model.TierStarter || admin.AdminSubscriptionCadence == nil {
		return false
	}
	if !admin.AdminSubscriptionCadence.Expires() || admin.AdminSubscriptionEnd == nil {
		return false
	}
	return admin.AdminSubscriptionEnd.Before(clk.Now())
}

// CountResources counts live (not soft-deleted) rows of res owned by adminID.
func CountResources(ctx context.Context, db *gorm.DB, adminID uuid.UUID, res model.Resource) (int64, error) {
	var n int64
	q := db.WithContext(ctx)
	switch res {
	case model.ResourceTenants:
		q = q.Model(&tenantModel.TenantModel{}).Where("tenant_admin_id = ?", adminID)
	case model.ResourceHouses:
		q = q.Model(&propertyModel.HouseModel{}).Where("house_admin_id = ?", adminID)
	default:
		return 0, nil
	}
	err := q.Count(&n).Error
	return n, err
}
