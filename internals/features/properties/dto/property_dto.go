package dto

import (
	"github.com/shopspring/decimal"

	propertyModel "majibill_backend/internals/features/properties/model"
)

type PropertyRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type CreateHouseRequest struct {
	Label string           `json:"label" validate:"required,max=50"`
	Rent  *decimal.Decimal `json:"rent"`
}

type UpdateHouseRequest struct {
	Label *string          `json:"label" validate:"omitempty,min=1,max=50"`
	Rent  *decimal.Decimal `json:"rent"`
}

type PropertyResponse struct {
	propertyModel.PropertyModel
	Houses   int64 `json:"houses"`
	Occupied int64 `json:"occupied"`
	Tenants  int64 `json:"tenants"`
}
