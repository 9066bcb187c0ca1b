package handlers

import (
	"errors"
	"strings"

	"emitrack/internal/core/domain"
	"emitrack/internal/core/services"
	"emitrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DeviceHandler handles device binding and lock control endpoints
type DeviceHandler struct {
	deviceService *services.DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// LockRequest represents lock/unlock request body
type LockRequest struct {
	IMEI string `json:"imei"`
}

// Register handles device self-registration
// @Summary Register device
// @Description Bind a device to its customer using a single-use balance key
// @Tags Devices
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Balance key and device data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /devices/register [post]
func (h *DeviceHandler) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input.Key = strings.TrimSpace(input.Key)
	input.IMEI = strings.TrimSpace(input.IMEI)

	device, err := h.deviceService.Register(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Key and IMEI are required")
		case errors.Is(err, domain.ErrInvalidIMEI):
			return response.BadRequest(c, "IMEI must be 15 or 16 digits")
		case errors.Is(err, domain.ErrCustomerNotFound):
			return response.NotFound(c, "No customer holds this IMEI")
		case errors.Is(err, domain.ErrKeyNotFound):
			return response.NotFound(c, "Balance key not found")
		case errors.Is(err, domain.ErrKeyAlreadyUsed):
			return response.Conflict(c, "Balance key already used")
		default:
			return response.InternalServerError(c, "Failed to register device")
		}
	}

	return response.Created(c, "Device registered successfully", device)
}

// List handles device inventory listing
// @Summary List devices
// @Description List devices registered under the current admin
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /devices [get]
func (h *DeviceHandler) List(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	devices, err := h.deviceService.List(c.Context(), adminID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list devices")
	}

	return response.Success(c, "Devices retrieved successfully", devices)
}

// Lock handles device locking
// @Summary Lock device
// @Description Lock a device owned by the current admin and push the command
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body LockRequest true "Device IMEI"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /devices/lock [post]
func (h *DeviceHandler) Lock(c *fiber.Ctx) error {
	return h.setLock(c, true)
}

// Unlock handles device unlocking
// @Summary Unlock device
// @Description Unlock a device owned by the current admin and push the command
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body LockRequest true "Device IMEI"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /devices/unlock [post]
func (h *DeviceHandler) Unlock(c *fiber.Ctx) error {
	return h.setLock(c, false)
}

func (h *DeviceHandler) setLock(c *fiber.Ctx, lock bool) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req LockRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	deviceIMEI := strings.TrimSpace(req.IMEI)

	var err error
	if lock {
		err = h.deviceService.Lock(c.Context(), deviceIMEI, adminID)
	} else {
		err = h.deviceService.Unlock(c.Context(), deviceIMEI, adminID)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidIMEI):
			return response.BadRequest(c, "IMEI must be 15 or 16 digits")
		case errors.Is(err, domain.ErrDeviceNotFound):
			return response.NotFound(c, "Device not found")
		default:
			return response.InternalServerError(c, "Failed to update device state")
		}
	}

	if lock {
		return response.Success(c, "Device locked successfully", nil)
	}
	return response.Success(c, "Device unlocked successfully", nil)
}

// Me returns the ledger snapshot for the calling device
// @Summary Device self view
// @Description Return the bound customer's ledger summary for the calling device
// @Tags Devices
// @Produce json
// @Param X-IMEI header string true "Device IMEI credential"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /devices/me [get]
func (h *DeviceHandler) Me(c *fiber.Ctx) error {
	deviceIMEI, ok := c.Locals("deviceIMEI").(string)
	if !ok || deviceIMEI == "" {
		return response.Forbidden(c, "Device credential required")
	}

	snapshot, err := h.deviceService.Snapshot(c.Context(), deviceIMEI)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidIMEI):
			return response.BadRequest(c, "IMEI must be 15 or 16 digits")
		case errors.Is(err, domain.ErrUnauthorizedDevice):
			return response.Forbidden(c, "Unauthorized device")
		default:
			return response.InternalServerError(c, "Failed to load device snapshot")
		}
	}

	return response.Success(c, "Snapshot retrieved successfully", snapshot)
}
