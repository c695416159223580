package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majibill_backend/internals/databases/testdb"
	adminModel "majibill_backend/internals/features/admins/model"
	billingModel "majibill_backend/internals/features/billing/model"
	billingService "majibill_backend/internals/features/billing/service"
	propertyModel "majibill_backend/internals/features/properties/model"
	tenantModel "majibill_backend/internals/features/tenants/model"
	helper "majibill_backend/internals/helpers"
	"majibill_backend/internals/helpers/clock"
	"majibill_backend/internals/middlewares/auth"
)

func TestBillingEndpoints(t *testing.T) {
	db := testdb.Open(t)
	clk := clock.NewManual(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	rate := decimal.NewFromInt(10)
	admin := &adminModel.AdminModel{AdminName: "A", AdminEmail: "a@example.com", AdminPhone: "+254700000001", AdminPasswordHash: "x", AdminWaterRate: &rate}
	require.NoError(t, db.Create(admin).Error)
	prop := &propertyModel.PropertyModel{PropertyAdminID: admin.AdminID, PropertyName: "Block A"}
	require.NoError(t, db.Create(prop).Error)
	house := &propertyModel.HouseModel{HouseAdminID: admin.AdminID, HousePropertyID: prop.PropertyID, HouseLabel: "H1"}
	require.NoError(t, db.Create(house).Error)
	tenant := &tenantModel.TenantModel{TenantAdminID: admin.AdminID, TenantPropertyID: prop.PropertyID, TenantName: "Alice", TenantPhone: "+254711111111", TenantHouseID: &house.HouseID}
	require.NoError(t, db.Create(tenant).Error)

	ledger := billingService.NewLedger(db, clk, billingService.NewTariff(db, nil), nil, billingService.LedgerConfig{})
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.LocAdminID, admin.AdminID)
		return c.Next()
	})
	ctrl := NewBillingController(ledger)
	app.Post("/readings", ctrl.RecordReading)
	app.Get("/bills", ctrl.ListBills)
	app.Post("/bills/:id/payments", ctrl.ApplyPayment)

	send := func(method, path, body string) (int, helper.ErrorResponse) {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		var env helper.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&env)
		return resp.StatusCode, env
	}

	status, _ := send("POST", "/readings", `{"tenant_id":"`+tenant.TenantID.String()+`","current_value":"15"}`)
	require.Equal(t, fiber.StatusCreated, status)

	var bill billingModel.BillModel
	require.NoError(t, db.First(&bill, "bill_tenant_id = ?", tenant.TenantID).Error)

	status, env := send("POST", "/readings", `{"tenant_id":"`+tenant.TenantID.String()+`","current_value":"20"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ALREADY_BILLED", env.ErrorCode)

	status, env = send("POST", "/bills/"+bill.BillID.String()+"/payments", `{"amount":"151"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "OVERPAYMENT", env.ErrorCode)

	status, env = send("POST", "/bills/"+bill.BillID.String()+"/payments", `{"amount":0}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_AMOUNT", env.ErrorCode)

	status, _ = send("POST", "/bills/not-a-uuid/payments", `{"amount":"1"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = send("POST", "/bills/"+uuid.NewString()+"/payments", `{"amount":"1"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "BILL_NOT_FOUND", env.ErrorCode)

	status, _ = send("POST", "/bills/"+bill.BillID.String()+"/payments", `{"amount":"150","method":"mpesa"}`)
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = send("GET", "/bills?status=paid&q=alice", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = send("GET", "/bills?type=gas", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
