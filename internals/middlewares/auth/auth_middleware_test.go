package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majibill_backend/internals/databases/testdb"
	adminModel "majibill_backend/internals/features/admins/model"
)

const secret = "test-secret"

func newApp(t *testing.T) (*fiber.App, uuid.UUID) {
	db := testdb.Open(t)
	admin := &adminModel.AdminModel{AdminName: "A", AdminEmail: "a@example.com", AdminPhone: "+254700000001", AdminPasswordHash: "x"}
	require.NoError(t, db.Create(admin).Error)

	app := fiber.New()
	app.Get("/me", AuthMiddleware(secret, db), func(c *fiber.Ctx) error {
		id, err := AdminID(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})
	return app, admin.AdminID
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	app, adminID := newApp(t)
	tok, err := IssueToken(secret, adminID, time.Hour, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	app, adminID := newApp(t)
	expired, err := IssueToken(secret, adminID, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	forged, err := IssueToken("other", adminID, time.Hour, time.Now())
	require.NoError(t, err)
	unknown, err := IssueToken(secret, uuid.New(), time.Hour, time.Now())
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing": "",
		"format":  "Token abc",
		"expired": "Bearer " + expired,
		"forged":  "Bearer " + forged,
		"unknown": "Bearer " + unknown,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
