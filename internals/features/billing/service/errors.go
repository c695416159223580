package service

import "majibill_backend/internals/helpers/apperr"

var (
	ErrNonMonotonicReading = apperr.Precondition("NON_MONOTONIC_READING", "reading must be greater than the previous reading for this house")
	ErrOverpayment         = apperr.Precondition("OVERPAYMENT", "payment exceeds the outstanding balance")
	ErrNoTariffConfigured  = apperr.Precondition("NO_TARIFF_CONFIGURED", "no water rate configured, set one in your profile")
	ErrTenantUnassigned    = apperr.Precondition("TENANT_UNASSIGNED", "tenant has no house assigned")
	ErrAlreadyGenerated    = apperr.Conflict("ALREADY_GENERATED", "rent bills already generated for this month")
	ErrAlreadyBilled       = apperr.Conflict("ALREADY_BILLED", "tenant already has a water bill for this month")
	ErrTenantNotFound      = apperr.NotFound("TENANT_NOT_FOUND", "tenant not found")
	ErrBillNotFound        = apperr.NotFound("BILL_NOT_FOUND", "bill not found")
	ErrAdminNotFound       = apperr.NotFound("ADMIN_NOT_FOUND", "administrator not found")
	ErrInvalidAmount       = apperr.Validation("INVALID_AMOUNT", "amount must be greater than zero")
	ErrInvalidReading      = apperr.Validation("INVALID_READING", "meter reading cannot be negative")
	ErrInvalidMonth        = apperr.Validation("INVALID_MONTH", "month must be formatted YYYY-MM")
)
