package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	adminModel "majibill_backend/internals/features/admins/model"
	billingModel "majibill_backend/internals/features/billing/model"
	notifService "majibill_backend/internals/features/notifications/service"
	tenantModel "majibill_backend/internals/features/tenants/model"
)

// sendBillAlert queues the tenant SMS for a freshly issued bill. Water
// alerts report back onto the reading, rent alerts onto the bill.
// A queue failure is written to the same record and never returned.
func (l *Ledger) sendBillAlert(ctx context.Context, admin *adminModel.AdminModel, tenant *tenantModel.TenantModel,
	bill *billingModel.BillModel, arrears decimal.Decimal, usage *decimal.Decimal, readingID *uuid.UUID) {
	if tenant == nil || bill == nil {
		return
	}
	label := ""
	if house, err := l.loadHouse(ctx, admin.AdminID, bill.BillHouseID); err == nil {
		label = house.HouseLabel
	}

	alert := notifService.BillAlert{
		TenantName:   tenant.TenantName,
		HouseLabel:   label,
		Month:        bill.BillMonth,
		Amount:       bill.BillAmount,
		Arrears:      arrears,
		Usage:        usage,
		Payout:       admin.PayoutInstructions(),
		AdminName:    admin.AdminName,
		AdminContact: admin.AdminPhone,
	}

	job := notifService.Job{
		ID:        uuid.New(),
		AdminID:   admin.AdminID,
		Recipient: tenant.TenantPhone,
	}
	if bill.BillType == billingModel.BillTypeWater {
		job.Kind = notifService.KindWaterBill
		job.Message = notifService.WaterBillMessage(alert)
		job.ReadingID = readingID
	} else {
		job.Kind = notifService.KindRentBill
		job.Message = notifService.RentBillMessage(alert)
		id := bill.BillID
		job.BillID = &id
	}
	l.enqueue(ctx, job)
}

func (l *Ledger) sendReceipt(ctx context.Context, adminID uuid.UUID, bill *billingModel.BillModel, paid decimal.Decimal) {
	tenant, err := l.loadTenant(ctx, adminID, bill.BillTenantID)
	if err != nil {
		log.Printf("[LEDGER] receipt bill=%s: tenant lookup: %v", bill.BillID, err)
		return
	}
	id := bill.BillID
	l.enqueue(ctx, notifService.Job{
		ID:        uuid.New(),
		Kind:      notifService.KindPaymentReceipt,
		AdminID:   adminID,
		Recipient: tenant.TenantPhone,
		Message:   notifService.PaymentReceiptMessage(tenant.TenantName, paid, bill.Outstanding(), string(bill.BillType), bill.BillMonth),
		BillID:    &id,
	})
}

func (l *Ledger) enqueue(ctx context.Context, job notifService.Job) {
	err := l.notifier.Enqueue(ctx, job)
	if err == nil {
		return
	}
	log.Printf("[LEDGER] sms %s for %s not queued: %v", job.Kind, job.Recipient, err)
	if err := notifService.NewGormRecorder(l.db).Record(ctx, job, notifService.Outcome(err)); err != nil {
		log.Printf("[LEDGER] sms status write failed: %v", err)
	}
}
