package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/facturalink/acumulus-bridge/internal/application/billing"
	"github.com/facturalink/acumulus-bridge/internal/application/dto"
	"github.com/facturalink/acumulus-bridge/internal/domain"
)

// InvoiceHandler maneja las peticiones HTTP de conversión (protegido).
type InvoiceHandler struct {
	uc *billing.ConvertInvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.ConvertInvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Convert convierte un pedido o nota de crédito a la factura normalizada.
// Con ?format=xml la respuesta es el sobre XML listo para el servicio de
// contabilidad en lugar del JSON.
// POST /api/invoices/convert
func (h *InvoiceHandler) Convert(c *fiber.Ctx) error {
	req, ok := h.parseRequest(c)
	if !ok {
		return nil
	}

	if c.Query("format") == "xml" {
		out, err := h.uc.ConvertEnvelope(c.Context(), req)
		if err != nil {
			return conversionError(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
		return c.Status(fiber.StatusCreated).Send(out)
	}

	resp, err := h.uc.Convert(c.Context(), req)
	if err != nil {
		return conversionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Preview genera la vista previa en PDF sin registrar la conversión.
// POST /api/invoices/preview.pdf
func (h *InvoiceHandler) Preview(c *fiber.Ctx) error {
	req, ok := h.parseRequest(c)
	if !ok {
		return nil
	}
	out, err := h.uc.PreviewPDF(c.Context(), req)
	if err != nil {
		return conversionError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(out)
}

// GetEntry devuelve el registro de una conversión previa.
// GET /api/entries/:shop/:type/:reference
func (h *InvoiceHandler) GetEntry(c *fiber.Ctx) error {
	shop := c.Params("shop")
	sourceType := c.Params("type")
	reference := c.Params("reference")
	if shop == "" || sourceType == "" || reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "shop, type y reference requeridos"})
	}
	if !RequireShop(c, shop) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el token no autoriza esta tienda"})
	}
	entry, err := h.uc.GetEntry(c.Context(), shop, sourceType, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "conversión no registrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(entry)
}

// parseRequest decodifica el body y autoriza la tienda del request. Si la
// petición se rechaza, la respuesta ya quedó escrita y devuelve ok=false.
func (h *InvoiceHandler) parseRequest(c *fiber.Ctx) (*dto.ConvertInvoiceRequest, bool) {
	var req dto.ConvertInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		return nil, false
	}
	if !RequireShop(c, req.Shop) {
		_ = c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el token no autoriza esta tienda"})
		return nil, false
	}
	return &req, true
}

// conversionError mapea los errores del pipeline a códigos HTTP. Los datos
// ausentes y el IVA irresoluble son fallas del contenido de la fuente (422);
// la forma inválida del request es 400.
func conversionError(c *fiber.Ctx, err error) error {
	var missing *domain.MissingDataError
	if errors.As(err, &missing) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "MISSING_DATA", Message: "dato obligatorio ausente en la fuente", Detail: missing.Error(),
		})
	}
	var unresolved *domain.UnresolvedVatRateError
	if errors.As(err, &unresolved) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "UNRESOLVED_VAT", Message: "tarifa de IVA sin resolver", Detail: unresolved.Error(),
		})
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if errors.Is(err, domain.ErrConfiguration) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "CONFIGURATION", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
