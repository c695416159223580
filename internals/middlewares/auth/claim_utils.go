// internals/middlewares/auth/claim_utils.go
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ======== Extractors ======== */

func extractBearerToken(c *fiber.Ctx) (string, error) {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth == "" {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", fmt.Errorf("unauthorized - No token provided")
	}

	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", fmt.Errorf("unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", fmt.Errorf("unauthorized - Empty token")
	}
	return tok, nil
}

/* ======== Issue / parse ======== */

// IssueToken signs an HS256 token carrying admin_id.
func IssueToken(secret string, adminID uuid.UUID, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"admin_id": adminID.String(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return extractAdminID(claims)
}

func extractAdminID(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, ok := claims["admin_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("no admin id")
	}
	return uuid.Parse(strings.TrimSpace(raw))
}

func ensureAdminExists(db *gorm.DB, adminID uuid.UUID) error {
	var found struct{ AdminID uuid.UUID }
	return db.Table("admins").Select("admin_id").Where("admin_id = ?", adminID).Take(&found).Error
}
