package service

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	database "majibill_backend/internals/databases"
	"majibill_backend/internals/features/admins/dto"
	adminModel "majibill_backend/internals/features/admins/model"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
	helper "majibill_backend/internals/helpers"
	"majibill_backend/internals/helpers/clock"
	"majibill_backend/internals/middlewares/auth"
)

var (
	hasLetter  = regexp.MustCompile(`[A-Za-z]`)
	hasDigit   = regexp.MustCompile(`[0-9]`)
	payoutCode = regexp.MustCompile(`^[0-9]{5,10}$`)
)

// dummyHash keeps a failed lookup as slow as a failed compare.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("majibill-placeholder"), bcrypt.DefaultCost)

type Service struct {
	db            *gorm.DB
	clock         clock.Clock
	jwtSecret     string
	jwtTTL        time.Duration
	countryPrefix string
}

func NewService(db *gorm.DB, clk clock.Clock, jwtSecret string, jwtTTL time.Duration, countryPrefix string) *Service {
	return &Service{db: db, clock: clk, jwtSecret: jwtSecret, jwtTTL: jwtTTL, countryPrefix: countryPrefix}
}

type SignupInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type PayoutInput struct {
	Method  adminModel.PayoutMethod
	Till    string
	Paybill string
	Account string
}

func validPassword(p string) bool {
	return len(p) >= 8 && len(p) <= 72 && hasLetter.MatchString(p) && hasDigit.MatchString(p)
}

func (s *Service) load(ctx context.Context, adminID uuid.UUID) (*adminModel.AdminModel, error) {
	var a adminModel.AdminModel
	if err := s.db.WithContext(ctx).First(&a, "admin_id = ?", adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Service) issue(a *adminModel.AdminModel) (*dto.AuthResponse, error) {
	now := s.clock.Now()
	tok, err := auth.IssueToken(s.jwtSecret, a.AdminID, s.jwtTTL, now)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: tok, ExpiresAt: now.Add(s.jwtTTL).UTC(), Admin: a}, nil
}

/* =========================================================
   SIGNUP / LOGIN
========================================================= */

// Signup creates a starter-tier account and returns a session token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*dto.AuthResponse, error) {
	name := strings.Join(strings.Fields(in.Name), " ")
	if name == "" {
		return nil, ErrInvalidName
	}
	phone, err := helper.NormalizePhone(in.Phone, s.countryPrefix)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	if !validPassword(in.Password) {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	a := &adminModel.AdminModel{
		AdminName:         name,
		AdminEmail:        in.Email,
		AdminPhone:        phone,
		AdminPasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	log.Printf("[ADMIN] signup admin=%s email=%s", a.AdminID, a.AdminEmail)
	return s.issue(a)
}

func (s *Service) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var a adminModel.AdminModel
	err := s.db.WithContext(ctx).
		Where("admin_email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.AdminPasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(&a)
}

func (s *Service) ChangePassword(ctx context.Context, adminID uuid.UUID, current, next string) error {
	a, err := s.load(ctx, adminID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.AdminPasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials.Withf("current password is incorrect")
	}
	if !validPassword(next) {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(a).Update("admin_password_hash", string(hash)).Error
}

/* =========================================================
   PROFILE
========================================================= */

func (s *Service) Profile(ctx context.Context, adminID uuid.UUID) (*dto.ProfileResponse, error) {
	a, err := s.load(ctx, adminID)
	if err != nil {
		return nil, err
	}
	out := &dto.ProfileResponse{AdminModel: a, PayoutInstructions: a.PayoutInstructions()}
	if spec, ok := subscriptionService.Lookup(a.AdminSubscriptionTier); ok {
		out.PlanName = spec.DisplayName
	}
	return out, nil
}

func (s *Service) UpdateProfile(ctx context.Context, adminID uuid.UUID, name, phone *string) (*dto.ProfileResponse, error) {
	updates := map[string]any{}
	if name != nil {
		n := strings.Join(strings.Fields(*name), " ")
		if n == "" {
			return nil, ErrInvalidName
		}
		updates["admin_name"] = n
	}
	if phone != nil {
		p, err := helper.NormalizePhone(*phone, s.countryPrefix)
		if err != nil {
			return nil, ErrInvalidPhone
		}
		updates["admin_phone"] = p
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&adminModel.AdminModel{}).Where("admin_id = ?", adminID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrAdminNotFound
		}
	}
	return s.Profile(ctx, adminID)
}

// SetPayout stores where tenants send money. Switching method clears the
// other method's fields.
func (s *Service) SetPayout(ctx context.Context, adminID uuid.UUID, in PayoutInput) (*dto.ProfileResponse, error) {
	till := strings.TrimSpace(in.Till)
	paybill := strings.TrimSpace(in.Paybill)
	account := strings.TrimSpace(in.Account)

	updates := map[string]any{"admin_payout_method": in.Method}
	switch in.Method {
	case adminModel.PayoutTill:
		if !payoutCode.MatchString(till) {
			return nil, ErrInvalidPayout.Withf("till number must be 5 to 10 digits")
		}
		updates["admin_payout_till"] = till
		updates["admin_payout_paybill"] = nil
		updates["admin_payout_account"] = nil
	case adminModel.PayoutPaybill:
		if !payoutCode.MatchString(paybill) {
			return nil, ErrInvalidPayout.Withf("paybill number must be 5 to 10 digits")
		}
		if account == "" {
			return nil, ErrInvalidPayout.Withf("paybill needs an account name")
		}
		updates["admin_payout_till"] = nil
		updates["admin_payout_paybill"] = paybill
		updates["admin_payout_account"] = account
	default:
		return nil, ErrInvalidPayout.Withf("payout method must be till or paybill")
	}

	res := s.db.WithContext(ctx).Model(&adminModel.AdminModel{}).Where("admin_id = ?", adminID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAdminNotFound
	}
	return s.Profile(ctx, adminID)
}

// SetTariff changes the water rate applied to future readings and the
// default rent used by rent runs. Existing bills keep their amounts.
func (s *Service) SetTariff(ctx context.Context, adminID uuid.UUID, rate, defaultRent *decimal.Decimal) (*dto.ProfileResponse, error) {
	updates := map[string]any{}
	if rate != nil {
		if !rate.IsPositive() {
			return nil, ErrInvalidRate
		}
		updates["admin_water_rate"] = rate.Round(2)
	}
	if defaultRent != nil {
		if defaultRent.IsNegative() {
			return nil, ErrInvalidRent
		}
		updates["admin_default_rent"] = defaultRent.Round(2)
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&adminModel.AdminModel{}).Where("admin_id = ?", adminID).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrAdminNotFound
		}
		log.Printf("[ADMIN] admin=%s tariff updated %v", adminID, updates)
	}
	return s.Profile(ctx, adminID)
}
