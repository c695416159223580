package service

import "majibill_backend/internals/helpers/apperr"

var (
	ErrAdminNotFound      = apperr.NotFound("ADMIN_NOT_FOUND", "account not found")
	ErrEmailTaken         = apperr.Conflict("EMAIL_TAKEN", "this email is already registered")
	ErrInvalidCredentials = apperr.Unauthorized("INVALID_CREDENTIALS", "email or password is incorrect")
	ErrInvalidName        = apperr.Validation("INVALID_NAME", "name is required")
	ErrInvalidPhone       = apperr.Validation("INVALID_PHONE", "phone number must be a valid mobile number")
	ErrWeakPassword       = apperr.Validation("WEAK_PASSWORD", "password must be 8 to 72 characters with letters and digits")
	ErrInvalidPayout      = apperr.Validation("INVALID_PAYOUT", "payout details are incomplete")
	ErrInvalidRate        = apperr.Validation("INVALID_RATE", "water rate must be greater than zero")
	ErrInvalidRent        = apperr.Validation("INVALID_RENT", "default rent cannot be negative")
)
