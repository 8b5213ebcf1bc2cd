package handlers

import (
	"errors"
	"strconv"

	"librental/internal/adapters/persistence/models"
	"librental/internal/core/domain"
	"librental/internal/core/services"
	"librental/internal/pkg/pagination"
	"librental/internal/pkg/response"
	"librental/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// BorrowingHandler handles borrowing endpoints
type BorrowingHandler struct {
	borrowingService *services.BorrowingService
}

// NewBorrowingHandler creates a new borrowing handler
func NewBorrowingHandler(borrowingService *services.BorrowingService) *BorrowingHandler {
	return &BorrowingHandler{borrowingService: borrowingService}
}

// borrowingCreatedResponse is the create response with the checkout url
type borrowingCreatedResponse struct {
	Borrowing  *models.BorrowingResponse `json:"borrowing"`
	Payment    *models.PaymentResponse   `json:"payment"`
	PaymentURL string                    `json:"payment_url"`
}

// Create handles POST /api/v1/borrowings
func (h *BorrowingHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateBorrowingInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	borrowing, payment, err := h.borrowingService.Create(c.Context(), &input, actor)
	if err != nil {
		var vErr *validation.Error
		switch {
		case errors.As(err, &vErr):
			return response.BadRequest(c, vErr.Message)
		case errors.Is(err, services.ErrInvalidReturnDate):
			return response.BadRequest(c, "Expected return date must be a valid date after today")
		case errors.Is(err, services.ErrBookNotFound):
			return response.BadRequest(c, "Book does not exist")
		case errors.Is(err, domain.ErrOutOfStock):
			return response.BadRequest(c, "Book is out of stock")
		case errors.Is(err, domain.ErrActiveBorrowingExists):
			return response.BadRequest(c, "You already have an active borrowing")
		case errors.Is(err, domain.ErrPaymentProvider):
			return response.BadGateway(c, "Payment provider is unavailable, please try again")
		default:
			return response.InternalServerError(c, "Failed to create borrowing")
		}
	}

	return response.Created(c, "Borrowing created", &borrowingCreatedResponse{
		Borrowing:  borrowing.ToResponse(),
		Payment:    payment.ToResponse(),
		PaymentURL: payment.SessionURL,
	})
}

// List handles GET /api/v1/borrowings
//
// Query params: is_active=true|false, user_id=<id> (staff only), page, limit
func (h *BorrowingHandler) List(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	input := &services.ListBorrowingsInput{}
	if raw := c.Query("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			return response.BadRequest(c, "Invalid is_active filter")
		}
		input.IsActive = &isActive
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || userID == 0 {
			return response.BadRequest(c, "Invalid user_id filter")
		}
		id := uint(userID)
		input.UserID = &id
	}

	borrowings, total, err := h.borrowingService.List(c.Context(), input, actor, params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list borrowings")
	}

	items := make([]*models.BorrowingResponse, 0, len(borrowings))
	for _, b := range borrowings {
		items = append(items, b.ToResponse())
	}

	return response.Success(c, "Borrowings retrieved", pagination.NewResponse(items, params, total))
}

// GetByID handles GET /api/v1/borrowings/:id
func (h *BorrowingHandler) GetByID(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid borrowing ID")
	}

	borrowing, err := h.borrowingService.GetByID(c.Context(), id, actor)
	if err != nil {
		if errors.Is(err, services.ErrBorrowingNotFound) {
			return response.NotFound(c, "Borrowing not found")
		}
		return response.InternalServerError(c, "Failed to get borrowing")
	}

	return response.Success(c, "Borrowing retrieved", borrowing.ToResponse())
}

// Return handles POST /api/v1/borrowings/:id/return
func (h *BorrowingHandler) Return(c *fiber.Ctx) error {
	actor, ok := actorFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid borrowing ID")
	}

	borrowing, err := h.borrowingService.Return(c.Context(), id, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowingNotFound):
			return response.NotFound(c, "Borrowing not found")
		case errors.Is(err, domain.ErrAlreadyReturned):
			return response.BadRequest(c, "Borrowing is already returned")
		default:
			return response.InternalServerError(c, "Failed to return borrowing")
		}
	}

	return response.Success(c, "Borrowing returned", borrowing.ToResponse())
}
