package service

import (
	"context"
	"unicode/utf8"

	"gorm.io/gorm"

	billingModel "majibill_backend/internals/features/billing/model"
)

const maxOutcomeLen = 250

// GormRecorder writes delivery outcomes onto readings (water alerts)
// or bills (rent alerts and receipts).
type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder { return &GormRecorder{db: db} }

func (r *GormRecorder) Record(ctx context.Context, job Job, outcome string) error {
	outcome = truncateOutcome(outcome)
	db := r.db.WithContext(ctx)
	switch {
	case job.ReadingID != nil:
		return db.Model(&billingModel.ReadingModel{}).
			Where("reading_id = ? AND reading_admin_id = ?", *job.ReadingID, job.AdminID).
			Update("reading_sms_status", outcome).Error
	case job.BillID != nil:
		return db.Model(&billingModel.BillModel{}).
			Where("bill_id = ? AND bill_admin_id = ?", *job.BillID, job.AdminID).
			Update("bill_sms_status", outcome).Error
	}
	return nil
}

// truncateOutcome cuts s to maxOutcomeLen bytes without splitting a rune.
func truncateOutcome(s string) string {
	if len(s) <= maxOutcomeLen {
		return s
	}
	cut := maxOutcomeLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
