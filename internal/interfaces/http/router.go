package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturalink/acumulus-bridge/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ConvertInvoice *billing.ConvertInvoiceUseCase
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Salud (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token atado a la tienda)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	invoiceHandler := NewInvoiceHandler(deps.ConvertInvoice)
	invoices := protected.Group("/invoices")
	invoices.Post("/convert", invoiceHandler.Convert)
	invoices.Post("/preview.pdf", invoiceHandler.Preview)

	entries := protected.Group("/entries")
	entries.Get("/:shop/:type/:reference", invoiceHandler.GetEntry)
}
