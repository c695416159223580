package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"majibill_backend/internals/features/properties/dto"
	propertyModel "majibill_backend/internals/features/properties/model"
	subscriptionModel "majibill_backend/internals/features/subscriptions/model"
	tenantModel "majibill_backend/internals/features/tenants/model"
)

// Gate admits or refuses creating one more resource of a kind.
type Gate interface {
	Allow(ctx context.Context, adminID uuid.UUID, res subscriptionModel.Resource) error
}

type Service struct {
	db   *gorm.DB
	gate Gate
}

func NewService(db *gorm.DB, gate Gate) *Service {
	return &Service{db: db, gate: gate}
}

func cleanLabel(s string) string { return strings.Join(strings.Fields(s), " ") }

/* =========================================================
   LOOKUPS (usable inside a caller's transaction)
========================================================= */

func LoadProperty(tx *gorm.DB, adminID, propertyID uuid.UUID) (*propertyModel.PropertyModel, error) {
	var p propertyModel.PropertyModel
	if err := tx.Where("property_admin_id = ? AND property_id = ?", adminID, propertyID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindHouse looks a house up by label and locks it for update. A missing
// house returns nil without error.
func FindHouse(tx *gorm.DB, adminID, propertyID uuid.UUID, label string) (*propertyModel.HouseModel, error) {
	var h propertyModel.HouseModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("house_admin_id = ? AND house_property_id = ? AND LOWER(house_label) = LOWER(?)", adminID, propertyID, cleanLabel(label)).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func LoadHouse(tx *gorm.DB, adminID, houseID uuid.UUID) (*propertyModel.HouseModel, error) {
	var h propertyModel.HouseModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("house_admin_id = ? AND house_id = ?", adminID, houseID).
		First(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHouseNotFound
		}
		return nil, err
	}
	return &h, nil
}

// InsertHouse creates a vacant house. Callers run the tier gate first.
func InsertHouse(tx *gorm.DB, adminID, propertyID uuid.UUID, label string, rent decimal.Decimal) (*propertyModel.HouseModel, error) {
	h := &propertyModel.HouseModel{
		HouseAdminID:    adminID,
		HousePropertyID: propertyID,
		HouseLabel:      cleanLabel(label),
		HouseRent:       rent,
	}
	if err := tx.Create(h).Error; err != nil {
		return nil, err
	}
	return h, nil
}

// HouseExists reports whether label is taken in the property.
func (s *Service) HouseExists(ctx context.Context, adminID, propertyID uuid.UUID, label string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&propertyModel.HouseModel{}).
		Where("house_admin_id = ? AND house_property_id = ? AND LOWER(house_label) = LOWER(?)", adminID, propertyID, cleanLabel(label)).
		Count(&n).Error
	return n > 0, err
}

/* =========================================================
   PROPERTIES
========================================================= */

func (s *Service) nameTaken(tx *gorm.DB, adminID uuid.UUID, name string, except *uuid.UUID) (bool, error) {
	q := tx.Model(&propertyModel.PropertyModel{}).
		Where("property_admin_id = ? AND LOWER(property_name) = LOWER(?)", adminID, name)
	if except != nil {
		q = q.Where("property_id <> ?", *except)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (s *Service) CreateProperty(ctx context.Context, adminID uuid.UUID, name string) (*propertyModel.PropertyModel, error) {
	name = cleanLabel(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	var p *propertyModel.PropertyModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.nameTaken(tx, adminID, name, nil)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateProperty
		}
		p = &propertyModel.PropertyModel{PropertyAdminID: adminID, PropertyName: name}
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[PROPERTY] admin=%s created property %s (%s)", adminID, p.PropertyID, name)
	return p, nil
}

func (s *Service) ListProperties(ctx context.Context, adminID uuid.UUID) ([]dto.PropertyResponse, error) {
	var props []propertyModel.PropertyModel
	if err := s.db.WithContext(ctx).
		Where("property_admin_id = ?", adminID).
		Order("property_name ASC").
		Find(&props).Error; err != nil {
		return nil, err
	}

	type houseCount struct {
		PropertyID uuid.UUID `gorm:"column:house_property_id"`
		Houses     int64     `gorm:"column:houses"`
		Occupied   int64     `gorm:"column:occupied"`
	}
	var hc []houseCount
	if err := s.db.WithContext(ctx).Model(&propertyModel.HouseModel{}).
		Select("house_property_id, COUNT(*) AS houses, SUM(CASE WHEN house_occupied THEN 1 ELSE 0 END) AS occupied").
		Where("house_admin_id = ?", adminID).
		Group("house_property_id").
		Scan(&hc).Error; err != nil {
		return nil, err
	}
	type tenantCount struct {
		PropertyID uuid.UUID `gorm:"column:tenant_property_id"`
		Tenants    int64     `gorm:"column:tenants"`
	}
	var tc []tenantCount
	if err := s.db.WithContext(ctx).Model(&tenantModel.TenantModel{}).
		Select("tenant_property_id, COUNT(*) AS tenants").
		Where("tenant_admin_id = ?", adminID).
		Group("tenant_property_id").
		Scan(&tc).Error; err != nil {
		return nil, err
	}

	out := make([]dto.PropertyResponse, len(props))
	idx := make(map[uuid.UUID]int, len(props))
	for i, p := range props {
		out[i] = dto.PropertyResponse{PropertyModel: p}
		idx[p.PropertyID] = i
	}
	for _, c := range hc {
		if i, ok := idx[c.PropertyID]; ok {
			out[i].Houses, out[i].Occupied = c.Houses, c.Occupied
		}
	}
	for _, c := range tc {
		if i, ok := idx[c.PropertyID]; ok {
			out[i].Tenants = c.Tenants
		}
	}
	return out, nil
}

func (s *Service) RenameProperty(ctx context.Context, adminID, propertyID uuid.UUID, name string) (*propertyModel.PropertyModel, error) {
	name = cleanLabel(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	var p *propertyModel.PropertyModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = LoadProperty(tx, adminID, propertyID); err != nil {
			return err
		}
		taken, err := s.nameTaken(tx, adminID, name, &propertyID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateProperty
		}
		p.PropertyName = name
		return tx.Model(p).Update("property_name", name).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProperty soft-deletes a property that holds no houses or tenants.
func (s *Service) DeleteProperty(ctx context.Context, adminID, propertyID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := LoadProperty(tx, adminID, propertyID)
		if err != nil {
			return err
		}
		var houses, tenants int64
		if err := tx.Model(&propertyModel.HouseModel{}).
			Where("house_admin_id = ? AND house_property_id = ?", adminID, propertyID).
			Count(&houses).Error; err != nil {
			return err
		}
		if err := tx.Model(&tenantModel.TenantModel{}).
			Where("tenant_admin_id = ? AND tenant_property_id = ?", adminID, propertyID).
			Count(&tenants).Error; err != nil {
			return err
		}
		if houses > 0 || tenants > 0 {
			return ErrPropertyNotEmpty.Withf("%s still has %d houses and %d tenants", p.PropertyName, houses, tenants)
		}
		return tx.Delete(p).Error
	})
}

/* =========================================================
   HOUSES
========================================================= */

func (s *Service) CreateHouse(ctx context.Context, adminID, propertyID uuid.UUID, label string, rent *decimal.Decimal) (*propertyModel.HouseModel, error) {
	label = cleanLabel(label)
	if label == "" {
		return nil, ErrInvalidName
	}
	r := decimal.Zero
	if rent != nil {
		if rent.IsNegative() {
			return nil, ErrInvalidRent
		}
		r = rent.Round(2)
	}
	if err := s.gate.Allow(ctx, adminID, subscriptionModel.ResourceHouses); err != nil {
		return nil, err
	}

	var h *propertyModel.HouseModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := LoadProperty(tx, adminID, propertyID); err != nil {
			return err
		}
		existing, err := FindHouse(tx, adminID, propertyID, label)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateHouse.Withf("house %s already exists in this property", label)
		}
		h, err = InsertHouse(tx, adminID, propertyID, label, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[PROPERTY] admin=%s created house %s (%s)", adminID, h.HouseID, label)
	return h, nil
}

func (s *Service) ListHouses(ctx context.Context, adminID, propertyID uuid.UUID) ([]propertyModel.HouseModel, error) {
	if _, err := LoadProperty(s.db.WithContext(ctx), adminID, propertyID); err != nil {
		return nil, err
	}
	houses := []propertyModel.HouseModel{}
	err := s.db.WithContext(ctx).
		Where("house_admin_id = ? AND house_property_id = ?", adminID, propertyID).
		Order("house_label ASC").
		Find(&houses).Error
	return houses, err
}

// UpdateHouse changes label and/or rent. Occupancy is owned by the tenant flows.
func (s *Service) UpdateHouse(ctx context.Context, adminID, houseID uuid.UUID, label *string, rent *decimal.Decimal) (*propertyModel.HouseModel, error) {
	var h *propertyModel.HouseModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if h, err = LoadHouse(tx, adminID, houseID); err != nil {
			return err
		}
		updates := map[string]any{}
		if label != nil {
			l := cleanLabel(*label)
			if l == "" {
				return ErrInvalidName
			}
			if !strings.EqualFold(l, h.HouseLabel) {
				other, err := FindHouse(tx, adminID, h.HousePropertyID, l)
				if err != nil {
					return err
				}
				if other != nil {
					return ErrDuplicateHouse.Withf("house %s already exists in this property", l)
				}
			}
			updates["house_label"] = l
			h.HouseLabel = l
		}
		if rent != nil {
			if rent.IsNegative() {
				return ErrInvalidRent
			}
			updates["house_rent"] = rent.Round(2)
			h.HouseRent = rent.Round(2)
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&propertyModel.HouseModel{}).Where("house_id = ?", houseID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// DeleteHouse soft-deletes a vacant house. Its reading chain stays.
func (s *Service) DeleteHouse(ctx context.Context, adminID, houseID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		h, err := LoadHouse(tx, adminID, houseID)
		if err != nil {
			return err
		}
		if h.HouseOccupied || h.HouseCurrentTenantID != nil {
			return ErrHouseOccupied.Withf("house %s is occupied by %s", h.HouseLabel, h.HouseCurrentTenantName)
		}
		return tx.Delete(h).Error
	})
}
