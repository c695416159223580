package model

import "github.com/shopspring/decimal"

type BillType string
type BillStatus string
type ReadingTag string

const (
	BillTypeWater BillType = "water"
	BillTypeRent  BillType = "rent"
)

const (
	BillUnpaid  BillStatus = "unpaid"
	BillPartial BillStatus = "partial"
	BillPaid    BillStatus = "paid"
)

const (
	ReadingTagBilling      ReadingTag = "billing"
	ReadingTagInitial      ReadingTag = "initial"
	ReadingTagHouseHistory ReadingTag = "house_history"
)

// SMS delivery outcome stored on the originating record
const (
	SMSQueued = "queued"
	SMSSent   = "sent"
	SMSFailed = "failed"
)

func (t BillType) Valid() bool { return t == BillTypeWater || t == BillTypeRent }

// StatusFor derives a bill's status from what has been paid against it.
func StatusFor(paid, amount decimal.Decimal) BillStatus {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return BillPaid
	case paid.IsZero():
		return BillUnpaid
	default:
		return BillPartial
	}
}
