package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majibill_backend/internals/databases/testdb"
	adminModel "majibill_backend/internals/features/admins/model"
	propertyModel "majibill_backend/internals/features/properties/model"
	propertyService "majibill_backend/internals/features/properties/service"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
	"majibill_backend/internals/helpers/clock"
	"majibill_backend/internals/middlewares/auth"
)

type envelope struct {
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
}

func TestPropertyEndpoints(t *testing.T) {
	db := testdb.Open(t)
	clk := clock.NewManual(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	admin := &adminModel.AdminModel{AdminName: "A", AdminEmail: "a@example.com", AdminPhone: "+254700000001", AdminPasswordHash: "x"}
	require.NoError(t, db.Create(admin).Error)

	svc := propertyService.NewService(db, subscriptionService.NewGate(db, clk, false))
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.LocAdminID, admin.AdminID)
		return c.Next()
	})
	ctrl := NewPropertyController(svc)
	app.Get("/properties", ctrl.List)
	app.Post("/properties", ctrl.Create)
	app.Patch("/properties/:id", ctrl.Rename)
	app.Delete("/properties/:id", ctrl.Delete)
	app.Get("/properties/:id/houses", ctrl.ListHouses)
	app.Post("/properties/:id/houses", ctrl.CreateHouse)
	app.Patch("/houses/:id", ctrl.UpdateHouse)
	app.Delete("/houses/:id", ctrl.DeleteHouse)

	send := func(method, path, body string) (*http.Response, envelope) {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		var env envelope
		_ = json.NewDecoder(resp.Body).Decode(&env)
		return resp, env
	}

	resp, env := send("POST", "/properties", `{"name":"  Block   A "}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var prop propertyModel.PropertyModel
	require.NoError(t, json.Unmarshal(env.Data, &prop))
	assert.Equal(t, "Block A", prop.PropertyName)

	resp, env = send("POST", "/properties", `{"name":"block a"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_PROPERTY", env.ErrorCode)

	resp, _ = send("POST", "/properties", `{"name":""}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	base := "/properties/" + prop.PropertyID.String()
	resp, env = send("POST", base+"/houses", `{"label":"H1","rent":"5000"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var house propertyModel.HouseModel
	require.NoError(t, json.Unmarshal(env.Data, &house))

	resp, env = send("POST", base+"/houses", `{"label":"H1"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_HOUSE", env.ErrorCode)

	resp, env = send("POST", base+"/houses", `{"label":"H2","rent":"-1"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_RENT", env.ErrorCode)

	resp, env = send("GET", base+"/houses", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var houses []propertyModel.HouseModel
	require.NoError(t, json.Unmarshal(env.Data, &houses))
	assert.Len(t, houses, 1)

	resp, env = send("DELETE", base, "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "PROPERTY_NOT_EMPTY", env.ErrorCode)

	resp, _ = send("PATCH", "/houses/"+house.HouseID.String(), `{"rent":"5500"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = send("DELETE", "/houses/"+house.HouseID.String(), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = send("PATCH", base, `{"name":"Block B"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = send("DELETE", base, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = send("GET", base+"/houses", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "PROPERTY_NOT_FOUND", env.ErrorCode)
}
