package service

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	adminModel "majibill_backend/internals/features/admins/model"
	"majibill_backend/internals/features/subscriptions/model"
)

// WindowEnd is the end of a subscription window starting at start; nil for lifetime.
func WindowEnd(cadence model.Cadence, start time.Time) *time.Time {
	var end time.Time
	switch cadence {
	case model.CadenceMonthly:
		end = start.AddDate(0, 1, 0)
	case model.CadenceAnnual:
		end = start.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &end
}

// Activate applies a paid plan to the admin. Run it inside the transaction
// that completes the payment so both land together.
func Activate(tx *gorm.DB, adminID uuid.UUID, tier model.Tier, cadence model.Cadence, now time.Time) (*time.Time, error) {
	now = now.UTC()
	end := WindowEnd(cadence, now)
	res := tx.Model(&adminModel.AdminModel{}).
		Where("admin_id = ?", adminID).
		Updates(map[string]any{
			"admin_subscription_tier":    tier,
			"admin_subscription_cadence": cadence,
			"admin_subscription_status":  model.StatusActive,
			"admin_subscription_start":   now,
			"admin_subscription_end":     end,
			"admin_auto_renew":           cadence == model.CadenceMonthly,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAdminNotFound
	}
	return end, nil
}

// Downgrade drops an admin to starter and marks the paid plan expired.
func Downgrade(tx *gorm.DB, adminID uuid.UUID) error {
	return tx.Model(&adminModel.AdminModel{}).
		Where("admin_id = ? AND admin_subscription_tier <> ?", adminID, model.TierStarter).
		Updates(map[string]any{
			"admin_subscription_tier":   model.TierStarter,
			"admin_subscription_status": model.StatusExpired,
			"admin_auto_renew":          false,
		}).Error
}
