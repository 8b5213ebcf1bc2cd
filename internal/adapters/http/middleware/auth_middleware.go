package middleware

import (
	"strings"

	"librental/internal/config"
	"librental/internal/pkg/jwt"
	"librental/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Set user info in context
		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("isStaff", claims.IsStaff)

		return c.Next()
	}
}

// StaffOnly middleware allows only staff users
func StaffOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isStaff, ok := c.Locals("isStaff").(bool)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !isStaff {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}
