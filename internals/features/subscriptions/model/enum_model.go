package model

type Tier string
type Cadence string
type Status string
type PaymentStatus string

// Resource is a countable thing a tier caps.
type Resource string

const (
	TierStarter    Tier = "starter"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierBusiness   Tier = "business"
	TierEnterprise Tier = "enterprise"
)

const (
	CadenceMonthly  Cadence = "monthly"
	CadenceAnnual   Cadence = "annual"
	CadenceLifetime Cadence = "lifetime"
)

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusExpired  Status = "expired"
	StatusInactive Status = "inactive"
)

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

const (
	ResourceTenants Resource = "tenants"
	ResourceHouses  Resource = "houses"
)

func (c Cadence) Valid() bool {
	switch c {
	case CadenceMonthly, CadenceAnnual, CadenceLifetime:
		return true
	}
	return false
}

// Expires reports whether the cadence carries an end date.
func (c Cadence) Expires() bool {
	return c == CadenceMonthly || c == CadenceAnnual
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}
