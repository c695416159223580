package dto

import (
	"time"

	"github.com/shopspring/decimal"

	adminModel "majibill_backend/internals/features/admins/model"
)

/* ===================== REQUESTS ===================== */

type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=180"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// PayoutRequest: till needs Till; paybill needs Paybill and Account.
type PayoutRequest struct {
	Method  adminModel.PayoutMethod `json:"method" validate:"required,oneof=till paybill"`
	Till    string                  `json:"till" validate:"omitempty,max=20"`
	Paybill string                  `json:"paybill" validate:"omitempty,max=20"`
	Account string                  `json:"account" validate:"omitempty,max=60"`
}

type TariffRequest struct {
	WaterRate   *decimal.Decimal `json:"water_rate"`
	DefaultRent *decimal.Decimal `json:"default_rent"`
}

/* ===================== RESPONSES ===================== */

type AuthResponse struct {
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
	Admin     *adminModel.AdminModel `json:"admin"`
}

type ProfileResponse struct {
	*adminModel.AdminModel
	PayoutInstructions string `json:"payout_instructions,omitempty"`
	PlanName           string `json:"plan_name"`
}
