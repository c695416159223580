package service

import (
	"github.com/shopspring/decimal"

	"majibill_backend/internals/features/subscriptions/model"
)

const Unlimited = -1

type TierSpec struct {
	Name          model.Tier      `json:"name"`
	DisplayName   string          `json:"display_name"`
	MaxTenants    int             `json:"max_tenants"`
	MaxHouses     int             `json:"max_houses"`
	MonthlyPrice  decimal.Decimal `json:"monthly_price"`
	LifetimePrice decimal.Decimal `json:"lifetime_price"`
	Features      []string        `json:"features"`
}

// AnnualPrice is ten months for twelve.
func (t TierSpec) AnnualPrice() decimal.Decimal {
	return t.MonthlyPrice.Mul(decimal.NewFromInt(10))
}

func (t TierSpec) PriceFor(c model.Cadence) decimal.Decimal {
	switch c {
	case model.CadenceMonthly:
		return t.MonthlyPrice
	case model.CadenceAnnual:
		return t.AnnualPrice()
	case model.CadenceLifetime:
		return t.LifetimePrice
	}
	return decimal.Zero
}

func (t TierSpec) Cap(res model.Resource) int {
	switch res {
	case model.ResourceTenants:
		return t.MaxTenants
	case model.ResourceHouses:
		return t.MaxHouses
	}
	return Unlimited
}

var tierOrder = []model.Tier{
	model.TierStarter, model.TierBasic, model.TierPro, model.TierBusiness, model.TierEnterprise,
}

var catalog = map[model.Tier]TierSpec{
	model.TierStarter: {
		Name:          model.TierStarter,
		DisplayName:   "Starter",
		MaxTenants:    5,
		MaxHouses:     10,
		MonthlyPrice:  decimal.Zero,
		LifetimePrice: decimal.Zero,
		Features:      []string{"Up to 5 tenants", "Basic water billing", "SMS notifications", "Basic reports"},
	},
	model.TierBasic: {
		Name:          model.TierBasic,
		DisplayName:   "Basic",
		MaxTenants:    50,
		MaxHouses:     Unlimited,
		MonthlyPrice:  decimal.NewFromInt(600),
		LifetimePrice: decimal.NewFromInt(25000),
		Features:      []string{"Up to 50 tenants", "Water & rent billing", "SMS notifications", "Bulk import", "Payment tracking"},
	},
	model.TierPro: {
		Name:          model.TierPro,
		DisplayName:   "Pro",
		MaxTenants:    100,
		MaxHouses:     Unlimited,
		MonthlyPrice:  decimal.NewFromInt(1000),
		LifetimePrice: decimal.NewFromInt(55000),
		Features:      []string{"Up to 100 tenants", "All Basic features", "Advanced reporting", "Bulk operations", "Payment reminders"},
	},
	model.TierBusiness: {
		Name:          model.TierBusiness,
		DisplayName:   "Business",
		MaxTenants:    250,
		MaxHouses:     Unlimited,
		MonthlyPrice:  decimal.NewFromInt(2500),
		LifetimePrice: decimal.NewFromInt(90000),
		Features:      []string{"Up to 250 tenants", "All Pro features", "Priority support"},
	},
	model.TierEnterprise: {
		Name:          model.TierEnterprise,
		DisplayName:   "Enterprise",
		MaxTenants:    1000,
		MaxHouses:     Unlimited,
		MonthlyPrice:  decimal.NewFromInt(10000),
		LifetimePrice: decimal.NewFromInt(250000),
		Features:      []string{"1000 tenants", "All Business features", "Dedicated support", "Custom features"},
	},
}

func Lookup(t model.Tier) (TierSpec, bool) {
	spec, ok := catalog[t]
	return spec, ok
}

// MustLookup falls back to starter for unknown names.
func MustLookup(t model.Tier) TierSpec {
	if spec, ok := catalog[t]; ok {
		return spec
	}
	return catalog[model.TierStarter]
}

func Catalog() []TierSpec {
	out := make([]TierSpec, 0, len(tierOrder))
	for _, t := range tierOrder {
		out = append(out, catalog[t])
	}
	return out
}
