package handlers

import (
	"errors"
	"strconv"
	"strings"

	"emitrack/internal/core/domain"
	"emitrack/internal/core/services"
	"emitrack/internal/pkg/pagination"
	"emitrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CustomerHandler handles customer management endpoints
type CustomerHandler struct {
	customerService *services.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// FCMTokenRequest represents push token registration request body
type FCMTokenRequest struct {
	IMEI  string `json:"imei"`
	Token string `json:"token"`
}

// Create handles customer onboarding
// @Summary Create customer
// @Description Onboard a new installment customer for the current admin
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CustomerInput true "Customer data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /customers [post]
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CustomerInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	customer, err := h.customerService.Create(c.Context(), adminID, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Name and mobile are required and amounts must not be negative")
		case errors.Is(err, domain.ErrInvalidIMEI):
			return response.BadRequest(c, "IMEI must be 15 or 16 digits")
		case errors.Is(err, domain.ErrDuplicateEntry):
			return response.Conflict(c, "Mobile number already registered")
		default:
			return response.InternalServerError(c, "Failed to create customer")
		}
	}

	return response.Created(c, "Customer created successfully", customer)
}

// List handles customer listing
// @Summary List customers
// @Description List customers belonging to the current admin
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /customers [get]
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	customers, total, err := h.customerService.List(c.Context(), adminID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list customers")
	}

	return response.Success(c, "Customers retrieved successfully",
		pagination.NewResponse(customers, params, total))
}

// Get handles single customer retrieval
// @Summary Get customer
// @Description Get a customer by ID, scoped to the current admin
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /customers/{id} [get]
func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid customer ID")
	}

	customer, err := h.customerService.Get(c.Context(), id, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return response.NotFound(c, "Customer not found")
		}
		return response.InternalServerError(c, "Failed to get customer")
	}

	return response.Success(c, "Customer retrieved successfully", customer)
}

// Update handles customer detail updates
// @Summary Update customer
// @Description Update a customer's contact and device details
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Param body body services.CustomerInput true "Customer data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid customer ID")
	}

	var input services.CustomerInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	customer, err := h.customerService.Update(c.Context(), id, adminID, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCustomerNotFound):
			return response.NotFound(c, "Customer not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid customer data")
		case errors.Is(err, domain.ErrInvalidIMEI):
			return response.BadRequest(c, "IMEI must be 15 or 16 digits")
		default:
			return response.InternalServerError(c, "Failed to update customer")
		}
	}

	return response.Success(c, "Customer updated successfully", customer)
}

// Delete handles customer removal
// @Summary Delete customer
// @Description Delete a customer along with their EMIs and payments
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid customer ID")
	}

	if err := h.customerService.Delete(c.Context(), id, adminID); err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return response.NotFound(c, "Customer not found")
		}
		return response.InternalServerError(c, "Failed to delete customer")
	}

	return response.Success(c, "Customer deleted successfully", nil)
}

// RegisterFCMToken handles push token registration
// @Summary Register push token
// @Description Store or refresh the push token for a customer's device
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body FCMTokenRequest true "IMEI and push token"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /customers/fcm-token [post]
func (h *CustomerHandler) RegisterFCMToken(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req FCMTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return response.BadRequest(c, "Token is required")
	}

	err := h.customerService.RegisterFCMToken(c.Context(), adminID, strings.TrimSpace(req.IMEI), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "IMEI and token are required")
		case errors.Is(err, domain.ErrInvalidIMEI):
			return response.BadRequest(c, "IMEI must be 15 or 16 digits")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "IMEI is not held by any of your customers")
		default:
			return response.InternalServerError(c, "Failed to register push token")
		}
	}

	return response.Success(c, "Push token registered successfully", nil)
}

// parseIDParam extracts the :id path parameter
func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
