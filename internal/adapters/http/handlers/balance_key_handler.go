package handlers

import (
	"emitrack/internal/core/services"
	"emitrack/internal/pkg/pagination"
	"emitrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BalanceKeyHandler handles balance key endpoints
type BalanceKeyHandler struct {
	keyService *services.BalanceKeyService
}

// NewBalanceKeyHandler creates a new balance key handler
func NewBalanceKeyHandler(keyService *services.BalanceKeyService) *BalanceKeyHandler {
	return &BalanceKeyHandler{keyService: keyService}
}

// Issue mints a new single-use balance key
// @Summary Issue balance key
// @Description Mint a single-use registration key with its QR code
// @Tags BalanceKeys
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Router /balance-keys [post]
func (h *BalanceKeyHandler) Issue(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	key, err := h.keyService.Issue(c.Context(), adminID)
	if err != nil {
		return response.InternalServerError(c, "Failed to issue balance key")
	}

	return response.Created(c, "Balance key issued successfully", key)
}

// List lists the admin's issued keys
// @Summary List balance keys
// @Description List balance keys issued by the current admin, newest first
// @Tags BalanceKeys
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /balance-keys [get]
func (h *BalanceKeyHandler) List(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	keys, total, err := h.keyService.List(c.Context(), adminID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list balance keys")
	}

	return response.Success(c, "Balance keys retrieved successfully",
		pagination.NewResponse(keys, params, total))
}
