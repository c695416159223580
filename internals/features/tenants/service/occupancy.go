// Package service keeps tenants and houses consistent: a house has at most
// one tenant and a tenant at most one house. The house side is authoritative
// and both sides are written in one transaction.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	billingModel "majibill_backend/internals/features/billing/model"
	propertyModel "majibill_backend/internals/features/properties/model"
	propertyService "majibill_backend/internals/features/properties/service"
	subscriptionModel "majibill_backend/internals/features/subscriptions/model"
	"majibill_backend/internals/features/tenants/dto"
	tenantModel "majibill_backend/internals/features/tenants/model"
	helper "majibill_backend/internals/helpers"
	ossHelper "majibill_backend/internals/helpers/oss"
)

// Ledger is the part of billing occupancy depends on.
type Ledger interface {
	Outstanding(ctx context.Context, adminID, tenantID uuid.UUID) (decimal.Decimal, error)
	RecordBaseline(tx *gorm.DB, adminID, tenantID, houseID uuid.UUID, value decimal.Decimal, at time.Time) (*billingModel.ReadingModel, error)
}

type Gate interface {
	Allow(ctx context.Context, adminID uuid.UUID, res subscriptionModel.Resource) error
}

type Occupancy struct {
	db            *gorm.DB
	ledger        Ledger
	gate          Gate
	archiver      ossHelper.Archiver
	countryPrefix string
}

func NewOccupancy(db *gorm.DB, ledger Ledger, gate Gate, countryPrefix string) *Occupancy {
	return &Occupancy{db: db, ledger: ledger, gate: gate, countryPrefix: countryPrefix}
}

// WithArchiver keeps a copy of every imported file.
func (o *Occupancy) WithArchiver(a ossHelper.Archiver) *Occupancy {
	o.archiver = a
	return o
}

type AddTenantInput struct {
	PropertyID     uuid.UUID
	Name           string
	Phone          string
	HouseLabel     string
	Rent           *decimal.Decimal
	InitialReading *decimal.Decimal
}

type EditTenantInput struct {
	Name       *string
	Phone      *string
	HouseLabel *string
	Rent       *decimal.Decimal
}

func cleanName(s string) string { return strings.Join(strings.Fields(s), " ") }

/* =========================================================
   HELPERS
========================================================= */

func (o *Occupancy) loadTenant(tx *gorm.DB, adminID, tenantID uuid.UUID) (*tenantModel.TenantModel, error) {
	var t tenantModel.TenantModel
	if err := tx.Where("tenant_admin_id = ? AND tenant_id = ?", adminID, tenantID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (o *Occupancy) phoneOwner(tx *gorm.DB, adminID uuid.UUID, phone string, except *uuid.UUID) (*tenantModel.TenantModel, error) {
	q := tx.Where("tenant_admin_id = ? AND tenant_phone = ?", adminID, phone)
	if except != nil {
		q = q.Where("tenant_id <> ?", *except)
	}
	var t tenantModel.TenantModel
	err := q.First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// requireSettled fails while the tenant owes anything.
func (o *Occupancy) requireSettled(ctx context.Context, adminID uuid.UUID, t *tenantModel.TenantModel, action string) error {
	out, err := o.ledger.Outstanding(ctx, adminID, t.TenantID)
	if err != nil {
		return err
	}
	if out.GreaterThan(decimal.Zero) {
		return ErrOutstandingBalance.Withf("cannot %s %s: KES %s is still outstanding", action, t.TenantName, out.StringFixed(2))
	}
	return nil
}

// gateNewHouse runs the house cap only when label does not exist yet.
func (o *Occupancy) gateNewHouse(ctx context.Context, adminID, propertyID uuid.UUID, label string) error {
	h, err := propertyService.FindHouse(o.db.WithContext(ctx), adminID, propertyID, label)
	if err != nil {
		return err
	}
	if h != nil {
		return nil
	}
	return o.gate.Allow(ctx, adminID, subscriptionModel.ResourceHouses)
}

// houseFor returns the labelled house, creating it vacant when missing.
func houseFor(tx *gorm.DB, adminID, propertyID uuid.UUID, label string) (*propertyModel.HouseModel, error) {
	h, err := propertyService.FindHouse(tx, adminID, propertyID, label)
	if err != nil || h != nil {
		return h, err
	}
	return propertyService.InsertHouse(tx, adminID, propertyID, label, decimal.Zero)
}

func occupy(tx *gorm.DB, house *propertyModel.HouseModel, t *tenantModel.TenantModel) error {
	res := tx.Model(&propertyModel.HouseModel{}).
		Where("house_id = ? AND house_occupied = ?", house.HouseID, false).
		Updates(map[string]any{
			"house_occupied":            true,
			"house_current_tenant_id":   t.TenantID,
			"house_current_tenant_name": t.TenantName,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return propertyService.ErrHouseOccupied.Withf("house %s is occupied", house.HouseLabel)
	}
	return nil
}

func vacate(tx *gorm.DB, houseID, tenantID uuid.UUID) error {
	return tx.Model(&propertyModel.HouseModel{}).
		Where("house_id = ? AND house_current_tenant_id = ?", houseID, tenantID).
		Updates(map[string]any{
			"house_occupied":            false,
			"house_current_tenant_id":   nil,
			"house_current_tenant_name": "",
		}).Error
}

// detachReadings turns the tenant's readings into house history. The rows
// stay on their house so the meter chain is unbroken.
func detachReadings(tx *gorm.DB, adminID, tenantID uuid.UUID) error {
	return tx.Model(&billingModel.ReadingModel{}).
		Where("reading_admin_id = ? AND reading_tenant_id = ?", adminID, tenantID).
		Updates(map[string]any{
			"reading_tag":              billingModel.ReadingTagHouseHistory,
			"reading_former_tenant_id": tenantID,
			"reading_tenant_id":        nil,
		}).Error
}

/* =========================================================
   ADD
========================================================= */

func (o *Occupancy) AddTenant(ctx context.Context, adminID uuid.UUID, in AddTenantInput) (*tenantModel.TenantModel, error) {
	name := cleanName(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	phone, err := helper.NormalizePhone(in.Phone, o.countryPrefix)
	if err != nil {
		return nil, ErrInvalidPhone.Withf("%q is not a valid mobile number", strings.TrimSpace(in.Phone))
	}
	label := strings.TrimSpace(in.HouseLabel)
	if label == "" {
		return nil, ErrInvalidHouse
	}
	if in.Rent != nil && in.Rent.IsNegative() {
		return nil, ErrInvalidRent
	}
	if in.InitialReading != nil && in.InitialReading.IsNegative() {
		return nil, ErrInvalidReading
	}

	if err := o.gate.Allow(ctx, adminID, subscriptionModel.ResourceTenants); err != nil {
		return nil, err
	}
	if err := o.gateNewHouse(ctx, adminID, in.PropertyID, label); err != nil {
		return nil, err
	}

	var t *tenantModel.TenantModel
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := propertyService.LoadProperty(tx, adminID, in.PropertyID); err != nil {
			return err
		}
		owner, err := o.phoneOwner(tx, adminID, phone, nil)
		if err != nil {
			return err
		}
		if owner != nil {
			return ErrDuplicatePhone.Withf("phone %s is already used by %s", phone, owner.TenantName)
		}

		house, err := houseFor(tx, adminID, in.PropertyID, label)
		if err != nil {
			return err
		}
		if house.HouseOccupied {
			return propertyService.ErrHouseOccupied.Withf("house %s is occupied by %s", house.HouseLabel, house.HouseCurrentTenantName)
		}

		t = &tenantModel.TenantModel{
			TenantAdminID:    adminID,
			TenantPropertyID: in.PropertyID,
			TenantName:       name,
			TenantPhone:      phone,
			TenantHouseID:    &house.HouseID,
		}
		if in.Rent != nil {
			r := in.Rent.Round(2)
			t.TenantRent = &r
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if err := occupy(tx, house, t); err != nil {
			return err
		}
		if in.InitialReading != nil {
			if _, err := o.ledger.RecordBaseline(tx, adminID, t.TenantID, house.HouseID, *in.InitialReading, time.Time{}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[OCCUPANCY] admin=%s added tenant %s (%s) to house %s", adminID, t.TenantID, name, label)
	return t, nil
}

/* =========================================================
   TRANSFER
========================================================= */

// TransferTenant moves a settled tenant to the labelled house, creating it
// when missing. The old house keeps its readings and becomes vacant.
// propertyID nil keeps the tenant's property.
func (o *Occupancy) TransferTenant(ctx context.Context, adminID, tenantID uuid.UUID, label string, propertyID *uuid.UUID) (*tenantModel.TenantModel, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrInvalidHouse
	}
	t, err := o.loadTenant(o.db.WithContext(ctx), adminID, tenantID)
	if err != nil {
		return nil, err
	}
	if err := o.requireSettled(ctx, adminID, t, "move"); err != nil {
		return nil, err
	}
	target := t.TenantPropertyID
	if propertyID != nil {
		target = *propertyID
	}
	if err := o.gateNewHouse(ctx, adminID, target, label); err != nil {
		return nil, err
	}

	var from uuid.UUID
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		from, err = moveTx(tx, adminID, t, label, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[OCCUPANCY] admin=%s moved tenant %s from house %s to %s", adminID, t.TenantID, from, *t.TenantHouseID)
	return t, nil
}

// moveTx relinks t to the labelled house inside tx and returns the house it
// left (uuid.Nil when it had none). Callers check the balance and the house
// cap before opening tx.
func moveTx(tx *gorm.DB, adminID uuid.UUID, t *tenantModel.TenantModel, label string, target uuid.UUID) (uuid.UUID, error) {
	if _, err := propertyService.LoadProperty(tx, adminID, target); err != nil {
		return uuid.Nil, err
	}
	house, err := houseFor(tx, adminID, target, label)
	if err != nil {
		return uuid.Nil, err
	}
	if t.TenantHouseID != nil && *t.TenantHouseID == house.HouseID {
		return uuid.Nil, ErrSameHouse
	}
	if house.HouseOccupied {
		return uuid.Nil, propertyService.ErrHouseOccupied.Withf("house %s is occupied by %s", house.HouseLabel, house.HouseCurrentTenantName)
	}

	if err := detachReadings(tx, adminID, t.TenantID); err != nil {
		return uuid.Nil, err
	}
	var from uuid.UUID
	if t.TenantHouseID != nil {
		from = *t.TenantHouseID
		if err := vacate(tx, from, t.TenantID); err != nil {
			return uuid.Nil, err
		}
	}
	if err := occupy(tx, house, t); err != nil {
		return uuid.Nil, err
	}
	if err := tx.Model(&tenantModel.TenantModel{}).Where("tenant_id = ?", t.TenantID).Updates(map[string]any{
		"tenant_house_id":    house.HouseID,
		"tenant_property_id": target,
	}).Error; err != nil {
		return uuid.Nil, err
	}
	t.TenantHouseID = &house.HouseID
	t.TenantPropertyID = target
	return from, nil
}

/* =========================================================
   EDIT
========================================================= */

// EditTenant applies a partial update. Every field is validated first, then
// a house change and the field updates commit in one transaction. Moving or
// renaming requires a settled account.
func (o *Occupancy) EditTenant(ctx context.Context, adminID, tenantID uuid.UUID, in EditTenantInput) (*tenantModel.TenantModel, error) {
	t, err := o.loadTenant(o.db.WithContext(ctx), adminID, tenantID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	renamed := false
	if in.Name != nil {
		name := cleanName(*in.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		if name != t.TenantName {
			updates["tenant_name"] = name
			renamed = true
		}
	}
	phone := ""
	if in.Phone != nil {
		p, err := helper.NormalizePhone(*in.Phone, o.countryPrefix)
		if err != nil {
			return nil, ErrInvalidPhone.Withf("%q is not a valid mobile number", strings.TrimSpace(*in.Phone))
		}
		if p != t.TenantPhone {
			phone = p
			updates["tenant_phone"] = p
		}
	}
	if in.Rent != nil {
		if in.Rent.IsNegative() {
			return nil, ErrInvalidRent
		}
		updates["tenant_rent"] = in.Rent.Round(2)
	}

	label := ""
	moving := false
	if in.HouseLabel != nil {
		label = strings.TrimSpace(*in.HouseLabel)
		if label == "" {
			return nil, ErrInvalidHouse
		}
		moving = t.TenantHouseID == nil
		if !moving {
			var current propertyModel.HouseModel
			if err := o.db.WithContext(ctx).
				Where("house_admin_id = ? AND house_id = ?", adminID, *t.TenantHouseID).
				First(&current).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			moving = !strings.EqualFold(label, current.HouseLabel)
		}
	}
	if !moving && len(updates) == 0 {
		return t, nil
	}

	switch {
	case moving:
		if err := o.requireSettled(ctx, adminID, t, "move"); err != nil {
			return nil, err
		}
		if err := o.gateNewHouse(ctx, adminID, t.TenantPropertyID, label); err != nil {
			return nil, err
		}
	case renamed:
		if err := o.requireSettled(ctx, adminID, t, "rename"); err != nil {
			return nil, err
		}
	}

	next := *t
	if renamed {
		next.TenantName = updates["tenant_name"].(string)
	}
	if phone != "" {
		next.TenantPhone = phone
	}
	if r, ok := updates["tenant_rent"].(decimal.Decimal); ok {
		next.TenantRent = &r
	}

	var from uuid.UUID
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if phone != "" {
			owner, err := o.phoneOwner(tx, adminID, phone, &tenantID)
			if err != nil {
				return err
			}
			if owner != nil {
				return ErrDuplicatePhone.Withf("phone %s is already used by %s", phone, owner.TenantName)
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(&tenantModel.TenantModel{}).Where("tenant_id = ?", tenantID).Updates(updates).Error; err != nil {
				return err
			}
		}
		if moving {
			// occupy writes the new name onto the target house
			from, err = moveTx(tx, adminID, &next, label, next.TenantPropertyID)
			return err
		}
		if renamed && next.TenantHouseID != nil {
			return tx.Model(&propertyModel.HouseModel{}).
				Where("house_id = ? AND house_current_tenant_id = ?", *next.TenantHouseID, tenantID).
				Update("house_current_tenant_name", next.TenantName).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if moving {
		log.Printf("[OCCUPANCY] admin=%s moved tenant %s from house %s to %s", adminID, tenantID, from, *next.TenantHouseID)
	}
	return &next, nil
}

/* =========================================================
   DELETE
========================================================= */

// DeleteTenant frees the house and soft-deletes a settled tenant.
func (o *Occupancy) DeleteTenant(ctx context.Context, adminID, tenantID uuid.UUID) error {
	t, err := o.loadTenant(o.db.WithContext(ctx), adminID, tenantID)
	if err != nil {
		return err
	}
	if err := o.requireSettled(ctx, adminID, t, "delete"); err != nil {
		return err
	}
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := detachReadings(tx, adminID, tenantID); err != nil {
			return err
		}
		if t.TenantHouseID != nil {
			if err := vacate(tx, *t.TenantHouseID, tenantID); err != nil {
				return err
			}
		}
		if err := tx.Model(t).Update("tenant_house_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(t).Error
	})
	if err != nil {
		return err
	}
	log.Printf("[OCCUPANCY] admin=%s deleted tenant %s (%s)", adminID, tenantID, t.TenantName)
	return nil
}

/* =========================================================
   QUERIES
========================================================= */

func (o *Occupancy) GetTenant(ctx context.Context, adminID, tenantID uuid.UUID) (*dto.TenantRow, error) {
	var row dto.TenantRow
	res := o.db.WithContext(ctx).
		Table("tenants").
		Select("tenants.*, houses.house_label").
		Joins("LEFT JOIN houses ON houses.house_id = tenants.tenant_house_id").
		Where("tenants.tenant_admin_id = ? AND tenants.tenant_id = ? AND tenants.tenant_deleted_at IS NULL", adminID, tenantID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTenantNotFound
	}
	return &row, nil
}

func (o *Occupancy) ListTenants(ctx context.Context, adminID uuid.UUID, f dto.TenantFilter) ([]dto.TenantRow, int64, error) {
	q := o.db.WithContext(ctx).
		Table("tenants").
		Joins("LEFT JOIN houses ON houses.house_id = tenants.tenant_house_id").
		Where("tenants.tenant_admin_id = ? AND tenants.tenant_deleted_at IS NULL", adminID)
	if f.PropertyID != nil {
		q = q.Where("tenants.tenant_property_id = ?", *f.PropertyID)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s) + "%"
		q = q.Where(`(LOWER(tenants.tenant_name) LIKE ? ESCAPE '\' OR tenants.tenant_phone LIKE ? ESCAPE '\' OR LOWER(houses.house_label) LIKE ? ESCAPE '\')`, like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	rows := []dto.TenantRow{}
	err := q.Select("tenants.*, houses.house_label").
		Order("tenants.tenant_name ASC").
		Limit(limit).Offset(f.Offset).
		Scan(&rows).Error
	return rows, total, err
}
