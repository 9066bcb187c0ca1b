package handlers

import (
	"errors"

	"emitrack/internal/core/domain"
	"emitrack/internal/core/services"
	"emitrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EMIHandler handles installment ledger endpoints
type EMIHandler struct {
	ledgerService *services.LedgerService
}

// NewEMIHandler creates a new EMI handler
func NewEMIHandler(ledgerService *services.LedgerService) *EMIHandler {
	return &EMIHandler{ledgerService: ledgerService}
}

// resolveScope builds the caller scope from middleware locals. Admin
// bearer auth sets userID; device X-IMEI auth sets deviceCustomerID.
func resolveScope(c *fiber.Ctx) (services.Scope, bool) {
	if adminID, ok := c.Locals("userID").(uint); ok {
		return services.AdminScope(adminID), true
	}
	if customerID, ok := c.Locals("deviceCustomerID").(uint); ok {
		return services.DeviceScope(customerID), true
	}
	return services.Scope{}, false
}

// Create handles EMI plan creation
// @Summary Create EMI plan
// @Description Open a new installment plan for one of the admin's customers
// @Tags EMIs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateEMIInput true "EMI data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /emis [post]
func (h *EMIHandler) Create(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateEMIInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	emi, err := h.ledgerService.CreateEMI(c.Context(), adminID, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Customer ID and a positive total amount are required")
		case errors.Is(err, domain.ErrCustomerNotFound):
			return response.NotFound(c, "Customer not found")
		case errors.Is(err, domain.ErrOpenEMIExists):
			return response.Conflict(c, "Customer already has an open EMI")
		default:
			return response.InternalServerError(c, "Failed to create EMI")
		}
	}

	return response.Created(c, "EMI created successfully", emi.ToResponse())
}

// List handles EMI listing for admins and device clients
// @Summary List EMIs
// @Description List EMIs visible to the caller (all for admins, own for devices)
// @Tags EMIs
// @Produce json
// @Security BearerAuth
// @Param X-IMEI header string false "Device IMEI credential"
// @Success 200 {object} response.Response
// @Router /emis [get]
func (h *EMIHandler) List(c *fiber.Ctx) error {
	return h.list(c, false)
}

// ListPending lists only open EMIs
// @Summary List pending EMIs
// @Description List EMIs that are not yet fully paid
// @Tags EMIs
// @Produce json
// @Security BearerAuth
// @Param X-IMEI header string false "Device IMEI credential"
// @Success 200 {object} response.Response
// @Router /emis/pending [get]
func (h *EMIHandler) ListPending(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *EMIHandler) list(c *fiber.Ctx, pendingOnly bool) error {
	scope, ok := resolveScope(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	emis, err := h.ledgerService.ListEMIs(c.Context(), scope, pendingOnly)
	if err != nil {
		return response.InternalServerError(c, "Failed to list EMIs")
	}

	out := make([]interface{}, 0, len(emis))
	for _, emi := range emis {
		out = append(out, emi.ToResponse())
	}

	return response.Success(c, "EMIs retrieved successfully", out)
}

// Get handles single EMI retrieval
// @Summary Get EMI
// @Description Get one EMI by ID, scoped to the current admin
// @Tags EMIs
// @Produce json
// @Security BearerAuth
// @Param id path int true "EMI ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /emis/{id} [get]
func (h *EMIHandler) Get(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid EMI ID")
	}

	emi, err := h.ledgerService.GetEMI(c.Context(), id, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrEMINotFound) {
			return response.NotFound(c, "EMI not found")
		}
		return response.InternalServerError(c, "Failed to get EMI")
	}

	return response.Success(c, "EMI retrieved successfully", emi.ToResponse())
}

// AdvancePayment records one monthly installment for a customer
// @Summary Record installment payment
// @Description Advance a customer's ledger by exactly one monthly installment
// @Tags EMIs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /customers/{id}/advance-payment [post]
func (h *EMIHandler) AdvancePayment(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	customerID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid customer ID")
	}

	result, err := h.ledgerService.AdvancePayment(c.Context(), customerID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCustomerNotFound):
			return response.NotFound(c, "Customer not found")
		case errors.Is(err, domain.ErrAlreadyFullyPaid):
			return response.Conflict(c, "All installments already paid")
		default:
			return response.InternalServerError(c, "Failed to record payment")
		}
	}

	return response.Success(c, "Payment recorded successfully", result)
}

// ListPayments lists recorded payments for the caller
// @Summary List payments
// @Description List payment history visible to the caller, newest first
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param X-IMEI header string false "Device IMEI credential"
// @Success 200 {object} response.Response
// @Router /payments [get]
func (h *EMIHandler) ListPayments(c *fiber.Ctx) error {
	scope, ok := resolveScope(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	payments, err := h.ledgerService.ListPayments(c.Context(), scope)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}
