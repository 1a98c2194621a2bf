package middleware

import (
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys set by RequirePermission for downstream handlers.
const (
	LocalAttendantID = "attendant_id"
	LocalPermission  = "permission"
)

// RequirePermission validates the Bearer token and checks that its
// permission claim is one of the allowed values.
func RequirePermission(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		permission, _ := claims["permission"].(string)
		ok := false
		for _, p := range allowed {
			if permission == p {
				ok = true
				break
			}
		}
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Lack of permission",
			})
		}

		if sub, _ := claims["sub"].(string); sub != "" {
			c.Locals(LocalAttendantID, sub)
		}
		c.Locals(LocalPermission, permission)
		return c.Next()
	}
}
