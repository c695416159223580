package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	subscriptionModel "majibill_backend/internals/features/subscriptions/model"
)

type PayoutMethod string

const (
	PayoutTill    PayoutMethod = "till"
	PayoutPaybill PayoutMethod = "paybill"
)

type AdminModel struct {
	AdminID           uuid.UUID `gorm:"column:admin_id;type:uuid;primaryKey" json:"admin_id"`
	AdminName         string    `gorm:"column:admin_name;size:120;not null" json:"admin_name"`
	AdminEmail        string    `gorm:"column:admin_email;size:180;not null;uniqueIndex" json:"admin_email"`
	AdminPhone        string    `gorm:"column:admin_phone;size:20;not null" json:"admin_phone"`
	AdminPasswordHash string    `gorm:"column:admin_password_hash;not null" json:"-"`

	// Payout: either a till number, or a paybill number plus account name
	AdminPayoutMethod  PayoutMethod `gorm:"column:admin_payout_method;size:10" json:"admin_payout_method"`
	AdminPayoutTill    *string      `gorm:"column:admin_payout_till;size:20" json:"admin_payout_till,omitempty"`
	AdminPayoutPaybill *string      `gorm:"column:admin_payout_paybill;size:20" json:"admin_payout_paybill,omitempty"`
	AdminPayoutAccount *string      `gorm:"column:admin_payout_account;size:60" json:"admin_payout_account,omitempty"`

	// Tariff: currency units per cubic unit; nil falls back to the configured default
	AdminWaterRate   *decimal.Decimal `gorm:"column:admin_water_rate;type:numeric(14,2)" json:"admin_water_rate,omitempty"`
	AdminDefaultRent *decimal.Decimal `gorm:"column:admin_default_rent;type:numeric(14,2)" json:"admin_default_rent,omitempty"`

	// Subscription state
	AdminSubscriptionTier    subscriptionModel.Tier     `gorm:"column:admin_subscription_tier;size:20;not null;default:'starter'" json:"admin_subscription_tier"`
	AdminSubscriptionCadence *subscriptionModel.Cadence `gorm:"column:admin_subscription_cadence;size:20" json:"admin_subscription_cadence,omitempty"`
	AdminSubscriptionStatus  subscriptionModel.Status   `gorm:"column:admin_subscription_status;size:20;not null;default:'active';index" json:"admin_subscription_status"`
	AdminSubscriptionStart   *time.Time                 `gorm:"column:admin_subscription_start" json:"admin_subscription_start,omitempty"`
	AdminSubscriptionEnd     *time.Time                 `gorm:"column:admin_subscription_end;index" json:"admin_subscription_end,omitempty"`
	AdminAutoRenew           bool                       `gorm:"column:admin_auto_renew;not null;default:false" json:"admin_auto_renew"`

	AdminCreatedAt time.Time `gorm:"column:admin_created_at;not null" json:"admin_created_at"`
	AdminUpdatedAt time.Time `gorm:"column:admin_updated_at;not null" json:"admin_updated_at"`
}

func (AdminModel) TableName() string { return "admins" }

func (m *AdminModel) BeforeCreate(tx *gorm.DB) error {
	if m.AdminID == uuid.Nil {
		m.AdminID = uuid.New()
	}
	m.AdminEmail = strings.ToLower(strings.TrimSpace(m.AdminEmail))
	if m.AdminSubscriptionTier == "" {
		m.AdminSubscriptionTier = subscriptionModel.TierStarter
	}
	if m.AdminSubscriptionStatus == "" {
		m.AdminSubscriptionStatus = subscriptionModel.StatusActive
	}
	now := time.Now().UTC()
	m.AdminCreatedAt = now
	m.AdminUpdatedAt = now
	return nil
}

func (m *AdminModel) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.SetColumn("AdminUpdatedAt", time.Now().UTC())
	return nil
}

// PayoutInstructions renders the payment line tenants see in bill alerts.
func (m *AdminModel) PayoutInstructions() string {
	switch m.AdminPayoutMethod {
	case PayoutTill:
		if m.AdminPayoutTill != nil && *m.AdminPayoutTill != "" {
			return "Pay via M-Pesa Till No. " + *m.AdminPayoutTill
		}
	case PayoutPaybill:
		if m.AdminPayoutPaybill != nil && *m.AdminPayoutPaybill != "" {
			acc := ""
			if m.AdminPayoutAccount != nil {
				acc = *m.AdminPayoutAccount
			}
			return "Pay via M-Pesa Paybill " + *m.AdminPayoutPaybill + ", Account: " + acc
		}
	}
	return ""
}
