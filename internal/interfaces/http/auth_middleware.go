package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facturalink/acumulus-bridge/internal/application/dto"
	"github.com/facturalink/acumulus-bridge/pkg/jwt"
)

// LocalShop key de la tienda autorizada en c.Locals.
const LocalShop = "shop"

// AuthMiddleware valida el Bearer Token JWT y deja la tienda autorizada en
// c.Locals. El token está atado a una tienda; la autorización por recurso la
// hace cada handler comparando contra esa tienda.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		shop, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalShop, shop)
		return c.Next()
	}
}

// GetShop devuelve la tienda autorizada del contexto (después del middleware).
func GetShop(c *fiber.Ctx) string {
	v := c.Locals(LocalShop)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// RequireShop indica si la tienda del token coincide con la del recurso.
func RequireShop(c *fiber.Ctx, shop string) bool {
	authorized := GetShop(c)
	return authorized != "" && authorized == shop
}
