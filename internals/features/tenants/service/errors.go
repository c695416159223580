package service

import "majibill_backend/internals/helpers/apperr"

var (
	ErrTenantNotFound     = apperr.NotFound("TENANT_NOT_FOUND", "tenant not found")
	ErrDuplicatePhone     = apperr.Conflict("DUPLICATE_PHONE", "another tenant already uses this phone number")
	ErrOutstandingBalance = apperr.Precondition("UNPAID_BALANCE", "tenant has unpaid bills")
	ErrSameHouse          = apperr.Validation("SAME_HOUSE", "tenant is already assigned to this house")
	ErrInvalidName        = apperr.Validation("INVALID_NAME", "tenant name is required")
	ErrInvalidPhone       = apperr.Validation("INVALID_PHONE", "phone number must be a valid mobile number")
	ErrInvalidHouse       = apperr.Validation("INVALID_HOUSE", "house label is required")
	ErrInvalidRent        = apperr.Validation("INVALID_RENT", "rent cannot be negative")
	ErrInvalidReading     = apperr.Validation("INVALID_READING", "initial reading cannot be negative")
	ErrImportEmpty        = apperr.Validation("IMPORT_EMPTY", "the file has no tenant rows")
	ErrImportMalformed    = apperr.Validation("IMPORT_MALFORMED", "the file is not a readable CSV")
	ErrImportTooLarge     = apperr.Validation("IMPORT_TOO_LARGE", "the file has too many rows")
)
