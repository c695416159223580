package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BillAlert carries everything a tenant bill message shows.
type BillAlert struct {
	TenantName   string
	HouseLabel   string
	Month        string
	Amount       decimal.Decimal
	Arrears      decimal.Decimal // prior months only
	Usage        *decimal.Decimal
	Payout       string
	AdminName    string
	AdminContact string
}

func money(d decimal.Decimal) string {
	return "KES " + d.StringFixed(2)
}

func (a BillAlert) footer(b *strings.Builder) {
	if a.Payout != "" {
		b.WriteString(" " + a.Payout + ".")
	}
	if a.AdminContact != "" {
		fmt.Fprintf(b, " Queries: %s %s.", a.AdminName, a.AdminContact)
	}
}

func WaterBillMessage(a BillAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, your water bill for %s (%s) is %s", a.TenantName, a.HouseLabel, a.Month, money(a.Amount))
	if a.Usage != nil {
		fmt.Fprintf(&b, " for %s units", a.Usage.String())
	}
	b.WriteString(".")
	if a.Arrears.GreaterThan(decimal.Zero) {
		fmt.Fprintf(&b, " Arrears: %s. Total due: %s.", money(a.Arrears), money(a.Amount.Add(a.Arrears)))
	}
	a.footer(&b)
	return b.String()
}

func RentBillMessage(a BillAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, rent for %s (%s) is %s.", a.TenantName, a.HouseLabel, a.Month, money(a.Amount))
	if a.Arrears.GreaterThan(decimal.Zero) {
		fmt.Fprintf(&b, " Rent arrears: %s. Total due: %s.", money(a.Arrears), money(a.Amount.Add(a.Arrears)))
	}
	a.footer(&b)
	return b.String()
}

func PaymentReceiptMessage(tenantName string, paid, balance decimal.Decimal, billType, month string) string {
	msg := fmt.Sprintf("Hello %s, we received %s for your %s bill (%s).", tenantName, money(paid), billType, month)
	if balance.GreaterThan(decimal.Zero) {
		return msg + " Balance: " + money(balance) + "."
	}
	return msg + " The bill is fully paid. Thank you!"
}

func RenewalReminderMessage(tierName string, autoRenew bool) string {
	msg := fmt.Sprintf("Your %s subscription expires in 3 days. ", tierName)
	if autoRenew {
		return msg + "Auto-renewal is enabled."
	}
	return msg + "Please renew to avoid service interruption."
}

func RenewalInitiatedMessage(tierName string, amount decimal.Decimal, payURL string) string {
	msg := fmt.Sprintf("Your %s subscription is due for renewal. Pay %s to continue", tierName, money(amount))
	if payURL != "" {
		return msg + ": " + payURL
	}
	return msg + "."
}

func SubscriptionActivatedMessage(tierName, cadence, until string) string {
	if until == "" {
		return fmt.Sprintf("Your %s (%s) subscription is now active. Thank you!", tierName, cadence)
	}
	return fmt.Sprintf("Your %s (%s) subscription is active until %s. Thank you!", tierName, cadence, until)
}
