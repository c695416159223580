package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"majibill_backend/internals/features/subscriptions/model"
)

type InitiatePaymentRequest struct {
	Tier    model.Tier    `json:"tier" validate:"required,oneof=basic pro business enterprise"`
	Cadence model.Cadence `json:"cadence" validate:"required,oneof=monthly annual lifetime"`
}

type InitiatePaymentResponse struct {
	Reference        string          `json:"reference"`
	AuthorizationURL string          `json:"authorization_url"`
	Amount           decimal.Decimal `json:"amount"`
	Provider         string          `json:"provider"`
}

type AutoRenewRequest struct {
	AutoRenew *bool `json:"auto_renew" validate:"required"`
}

type PlanResponse struct {
	Name          model.Tier      `json:"name"`
	DisplayName   string          `json:"display_name"`
	MaxTenants    int             `json:"max_tenants"`
	MaxHouses     int             `json:"max_houses"`
	MonthlyPrice  decimal.Decimal `json:"monthly_price"`
	AnnualPrice   decimal.Decimal `json:"annual_price"`
	LifetimePrice decimal.Decimal `json:"lifetime_price"`
	Features      []string        `json:"features"`
}

type UsageResponse struct {
	Tenants    int64 `json:"tenants"`
	MaxTenants int   `json:"max_tenants"`
	Houses     int64 `json:"houses"`
	MaxHouses  int   `json:"max_houses"`
}

type SubscriptionResponse struct {
	Tier      model.Tier     `json:"tier"`
	TierName  string         `json:"tier_name"`
	Cadence   *model.Cadence `json:"cadence,omitempty"`
	Status    model.Status   `json:"status"`
	Start     *time.Time     `json:"start,omitempty"`
	End       *time.Time     `json:"end,omitempty"`
	DaysLeft  *int           `json:"days_left,omitempty"`
	AutoRenew bool           `json:"auto_renew"`
	Usage     UsageResponse  `json:"usage"`
	Plans     []PlanResponse `json:"plans"`
}
