package handlers

import (
	"errors"

	"librental/internal/adapters/persistence/models"
	"librental/internal/core/services"
	"librental/internal/pkg/pagination"
	"librental/internal/pkg/response"
	"librental/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints (books and authors)
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// ListBooks handles GET /api/v1/books
func (h *BookHandler) ListBooks(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	books, total, err := h.bookService.ListBooks(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	items := make([]*models.BookResponse, 0, len(books))
	for _, b := range books {
		items = append(items, b.ToResponse())
	}

	return response.Success(c, "Books retrieved", pagination.NewResponse(items, params, total))
}

// GetBook handles GET /api/v1/books/:id
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetBook(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to get book")
	}

	return response.Success(c, "Book retrieved", book.ToResponse())
}

// CreateBook handles POST /api/v1/books (staff only)
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var input services.BookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.CreateBook(c.Context(), &input)
	if err != nil {
		return h.mapBookError(c, err, "Failed to create book")
	}

	return response.Created(c, "Book created", book.ToResponse())
}

// UpdateBook handles PUT /api/v1/books/:id (staff only)
func (h *BookHandler) UpdateBook(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.BookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.UpdateBook(c.Context(), id, &input)
	if err != nil {
		return h.mapBookError(c, err, "Failed to update book")
	}

	return response.Success(c, "Book updated", book.ToResponse())
}

// DeleteBook handles DELETE /api/v1/books/:id (staff only)
func (h *BookHandler) DeleteBook(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.bookService.DeleteBook(c.Context(), id); err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to delete book")
	}

	return response.Success(c, "Book deleted", nil)
}

// ListAuthors handles GET /api/v1/authors
func (h *BookHandler) ListAuthors(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	authors, total, err := h.bookService.ListAuthors(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list authors")
	}

	return response.Success(c, "Authors retrieved", pagination.NewResponse(authors, params, total))
}

// GetAuthor handles GET /api/v1/authors/:id
func (h *BookHandler) GetAuthor(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid author ID")
	}

	author, err := h.bookService.GetAuthor(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrAuthorNotFound) {
			return response.NotFound(c, "Author not found")
		}
		return response.InternalServerError(c, "Failed to get author")
	}

	return response.Success(c, "Author retrieved", author)
}

// CreateAuthor handles POST /api/v1/authors (staff only)
func (h *BookHandler) CreateAuthor(c *fiber.Ctx) error {
	var input services.AuthorInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	author, err := h.bookService.CreateAuthor(c.Context(), &input)
	if err != nil {
		var vErr *validation.Error
		if errors.As(err, &vErr) {
			return response.BadRequest(c, vErr.Message)
		}
		return response.InternalServerError(c, "Failed to create author")
	}

	return response.Created(c, "Author created", author)
}

// UpdateAuthor handles PUT /api/v1/authors/:id (staff only)
func (h *BookHandler) UpdateAuthor(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid author ID")
	}

	var input services.AuthorInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	author, err := h.bookService.UpdateAuthor(c.Context(), id, &input)
	if err != nil {
		var vErr *validation.Error
		switch {
		case errors.As(err, &vErr):
			return response.BadRequest(c, vErr.Message)
		case errors.Is(err, services.ErrAuthorNotFound):
			return response.NotFound(c, "Author not found")
		default:
			return response.InternalServerError(c, "Failed to update author")
		}
	}

	return response.Success(c, "Author updated", author)
}

// DeleteAuthor handles DELETE /api/v1/authors/:id (staff only)
func (h *BookHandler) DeleteAuthor(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid author ID")
	}

	if err := h.bookService.DeleteAuthor(c.Context(), id); err != nil {
		if errors.Is(err, services.ErrAuthorNotFound) {
			return response.NotFound(c, "Author not found")
		}
		return response.InternalServerError(c, "Failed to delete author")
	}

	return response.Success(c, "Author deleted", nil)
}

func (h *BookHandler) mapBookError(c *fiber.Ctx, err error, fallback string) error {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr):
		return response.BadRequest(c, vErr.Message)
	case errors.Is(err, services.ErrInvalidDailyFee):
		return response.BadRequest(c, "Daily fee must be a positive amount")
	case errors.Is(err, services.ErrBookNotFound):
		return response.NotFound(c, "Book not found")
	default:
		return response.InternalServerError(c, fallback)
	}
}
