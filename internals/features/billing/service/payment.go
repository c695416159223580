package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	billingModel "majibill_backend/internals/features/billing/model"
)

type PaymentInput struct {
	Amount   decimal.Decimal
	Method   string
	Note     string
	Operator string
}

// ApplyPayment adds amount to a bill. The overpayment guard sits in the
// UPDATE predicate so concurrent payments cannot push amount_paid past
// bill_amount.
func (l *Ledger) ApplyPayment(ctx context.Context, adminID, billID uuid.UUID, in PaymentInput) (*billingModel.BillModel, error) {
	amount := in.Amount
	if !amount.GreaterThan(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if !hasCents(amount) {
		return nil, ErrInvalidAmount.Withf("amount %s has more than two decimal places", amount.String())
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = "cash"
	}
	now := l.clock.Now().UTC()

	var bill billingModel.BillModel
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&billingModel.BillModel{}).
			Where("bill_id = ? AND bill_admin_id = ?", billID, adminID).
			Where("bill_amount_paid + ? <= bill_amount", amount).
			Updates(map[string]any{
				"bill_amount_paid": gorm.Expr("bill_amount_paid + ?", amount),
				"bill_status": gorm.Expr("CASE WHEN bill_amount_paid + ? >= bill_amount THEN ? ELSE ? END",
					amount, string(billingModel.BillPaid), string(billingModel.BillPartial)),
				"bill_last_payment_date":   now,
				"bill_last_payment_method": method,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current billingModel.BillModel
			if err := tx.Where("bill_id = ? AND bill_admin_id = ?", billID, adminID).First(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrBillNotFound
				}
				return err
			}
			return ErrOverpayment.Withf("payment %s exceeds the outstanding balance %s",
				amount.StringFixed(2), current.Outstanding().StringFixed(2))
		}

		if err := tx.Create(&billingModel.BillPaymentModel{
			BillPaymentBillID:   billID,
			BillPaymentAdminID:  adminID,
			BillPaymentAmount:   amount,
			BillPaymentMethod:   method,
			BillPaymentNote:     strings.TrimSpace(in.Note),
			BillPaymentOperator: in.Operator,
			BillPaymentPaidAt:   now,
		}).Error; err != nil {
			return err
		}
		return tx.Where("bill_id = ?", billID).First(&bill).Error
	})
	if err != nil {
		return nil, err
	}
	l.cache.Invalidate(adminID)
	log.Printf("[LEDGER] payment admin=%s bill=%s amount=%s status=%s", adminID, billID, amount.StringFixed(2), bill.BillStatus)

	l.sendReceipt(ctx, adminID, &bill, amount)
	return &bill, nil
}
