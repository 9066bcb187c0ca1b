package middleware

import (
	"errors"
	"strings"

	"emitrack/internal/adapters/persistence/models"
	"emitrack/internal/config"
	"emitrack/internal/core/domain"
	"emitrack/internal/pkg/imei"
	"emitrack/internal/pkg/jwt"
	"emitrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Locals keys set by the auth middlewares
const (
	LocalUserID     = "userID"
	LocalUsername   = "username"
	LocalRole       = "role"
	LocalCustomerID = "deviceCustomerID"
	LocalIMEI       = "deviceIMEI"
)

// AuthMiddleware creates authentication middleware for admin routes
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalRole, claims.Role)

		return c.Next()
	}
}

// AdminOnly middleware allows only the ADMIN role
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if role != string(domain.RoleAdmin) {
			return response.Forbidden(c, "Admin only")
		}
		return c.Next()
	}
}

// ScopedAuth resolves the caller on endpoints that serve both admins
// and device clients. A valid bearer token wins; otherwise the X-IMEI
// header is validated and resolved to the bound customer. A device
// with no binding gets an explicit refusal, never an empty result.
func ScopedAuth(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := bearerToken(c); accessToken != "" {
			claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return response.Unauthorized(c, "Access token expired")
				}
				return response.Unauthorized(c, "Invalid access token")
			}
			c.Locals(LocalUserID, claims.UserID)
			c.Locals(LocalUsername, claims.Username)
			c.Locals(LocalRole, claims.Role)
			return c.Next()
		}

		deviceIMEI := c.Get("X-IMEI")
		if deviceIMEI == "" {
			return response.Unauthorized(c, "Access token or X-IMEI required")
		}
		if !imei.Valid(deviceIMEI) {
			return response.BadRequest(c, "Invalid IMEI format")
		}

		var device models.Device
		err := db.WithContext(c.Context()).
			Where("imei = ?", deviceIMEI).
			First(&device).Error
		if err != nil || device.CustomerID == nil {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return response.InternalServerError(c, "Failed to resolve device")
			}
			return response.Forbidden(c, "Unauthorized device")
		}

		c.Locals(LocalCustomerID, *device.CustomerID)
		c.Locals(LocalIMEI, deviceIMEI)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
