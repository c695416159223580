package service

import "majibill_backend/internals/helpers/apperr"

const subscriptionPage = "/subscription"

var (
	ErrTierLimit            = apperr.Precondition("TIER_LIMIT", "subscription limit reached").WithRedirect(subscriptionPage)
	ErrSubscriptionInactive = apperr.Precondition("SUBSCRIPTION_INACTIVE", "subscription is not active").WithRedirect(subscriptionPage)
	ErrGateUnavailable      = apperr.Transient("GATE_UNAVAILABLE", "could not verify subscription limits")
	ErrAdminNotFound        = apperr.NotFound("ADMIN_NOT_FOUND", "administrator not found")
	ErrUnknownTier          = apperr.Validation("UNKNOWN_TIER", "unknown subscription tier")
	ErrInvalidCadence       = apperr.Validation("INVALID_CADENCE", "cadence must be monthly, annual or lifetime")
	ErrNothingToPay         = apperr.Validation("NOTHING_TO_PAY", "this plan is free")
	ErrMissingEmail         = apperr.Validation("MISSING_EMAIL", "an email address is required for card and mobile money checkout")
)
