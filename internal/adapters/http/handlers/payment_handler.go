package handlers

import (
	"errors"
	"strconv"

	"librental/internal/adapters/persistence/models"
	"librental/internal/core/domain"
	"librental/internal/core/services"
	"librental/internal/pkg/pagination"
	"librental/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// List handles GET /api/v1/payments
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	payments, total, err := h.paymentService.List(c.Context(), actor, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	items := make([]*models.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, p.ToResponse())
	}

	return response.Success(c, "Payments retrieved", pagination.NewResponse(items, params, total))
}

// GetByID handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetByID(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid payment ID")
	}

	payment, err := h.paymentService.GetByID(c.Context(), id, actor)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to get payment")
	}

	return response.Success(c, "Payment retrieved", payment.ToResponse())
}

// Success handles GET /api/v1/payments/success
//
// Stripe redirects the customer here after a completed checkout with
// payment_id and session_id in the query string. The session status is
// verified against the provider before the payment flips to PAID.
func (h *PaymentHandler) Success(c *fiber.Ctx) error {
	paymentID, ok := parseQueryID(c, "payment_id")
	if !ok {
		return response.BadRequest(c, "Invalid payment_id")
	}
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return response.BadRequest(c, "session_id is required")
	}

	payment, err := h.paymentService.HandleSuccess(c.Context(), sessionID, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, domain.ErrVerificationFailed):
			return response.BadRequest(c, "Payment session is not paid")
		case errors.Is(err, domain.ErrPaymentProvider):
			return response.BadGateway(c, "Payment provider is unavailable, please try again")
		default:
			return response.InternalServerError(c, "Failed to process payment")
		}
	}

	return response.Success(c, "Payment successful", payment.ToResponse())
}

// Cancel handles GET /api/v1/payments/cancel
//
// Cancelling a checkout changes nothing server-side; the response just
// tells the customer the session is still payable.
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	paymentID, ok := parseQueryID(c, "payment_id")
	if !ok {
		return response.BadRequest(c, "Invalid payment_id")
	}

	info, err := h.paymentService.HandleCancel(c.Context(), paymentID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to process cancellation")
	}

	return response.Success(c, "Payment cancelled, the session remains payable", info)
}

// Renew handles POST /api/v1/payments/:id/renew
func (h *PaymentHandler) Renew(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid payment ID")
	}

	payment, err := h.paymentService.RenewSession(c.Context(), id, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, domain.ErrAlreadyPaid):
			return response.BadRequest(c, "Payment is already paid")
		case errors.Is(err, domain.ErrPaymentProvider):
			return response.BadGateway(c, "Payment provider is unavailable, please try again")
		default:
			return response.InternalServerError(c, "Failed to renew payment session")
		}
	}

	return response.Success(c, "Payment session renewed", payment.ToResponse())
}

// parseQueryID reads a positive integer query parameter
func parseQueryID(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Query(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
