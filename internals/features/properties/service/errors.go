package service

import "majibill_backend/internals/helpers/apperr"

var (
	ErrPropertyNotFound  = apperr.NotFound("PROPERTY_NOT_FOUND", "property not found")
	ErrHouseNotFound     = apperr.NotFound("HOUSE_NOT_FOUND", "house not found")
	ErrDuplicateProperty = apperr.Conflict("DUPLICATE_PROPERTY", "a property with this name already exists")
	ErrDuplicateHouse    = apperr.Conflict("DUPLICATE_HOUSE", "a house with this label already exists in the property")
	ErrPropertyNotEmpty  = apperr.Precondition("PROPERTY_NOT_EMPTY", "property still has houses or tenants")
	ErrHouseOccupied     = apperr.Precondition("HOUSE_OCCUPIED", "house is occupied")
	ErrInvalidName       = apperr.Validation("INVALID_NAME", "name is required")
	ErrInvalidRent       = apperr.Validation("INVALID_RENT", "rent cannot be negative")
)
