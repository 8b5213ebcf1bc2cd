package services

import (
	"context"
	"errors"

	"librental/internal/adapters/persistence/models"
	"librental/internal/adapters/persistence/repositories"
	"librental/internal/pkg/pagination"
	"librental/internal/pkg/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book service errors
var (
	ErrAuthorNotFound  = errors.New("author not found")
	ErrInvalidDailyFee = errors.New("daily fee must be a positive amount")
)

// BookService handles catalog business logic
type BookService struct {
	bookRepo   repositories.BookRepository
	authorRepo repositories.AuthorRepository
}

// NewBookService creates a new book service
func NewBookService(bookRepo repositories.BookRepository, authorRepo repositories.AuthorRepository) *BookService {
	return &BookService{
		bookRepo:   bookRepo,
		authorRepo: authorRepo,
	}
}

// BookInput represents create/update book input
type BookInput struct {
	Title     string          `json:"title" validate:"required,max=63"`
	Author    string          `json:"author" validate:"required,max=63"`
	Cover     string          `json:"cover" validate:"required,oneof=SOFT HARD"`
	Inventory uint            `json:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
}

// CreateBook creates a new book
func (s *BookService) CreateBook(ctx context.Context, input *BookInput) (*models.Book, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !input.DailyFee.IsPositive() {
		return nil, ErrInvalidDailyFee
	}

	book := &models.Book{
		Title:     input.Title,
		Author:    input.Author,
		Cover:     input.Cover,
		Inventory: input.Inventory,
		DailyFee:  input.DailyFee,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetBook gets a book by ID
func (s *BookService) GetBook(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// UpdateBook updates a book's catalog fields. Inventory is not touched
// here; it belongs to the reserve/release ledger.
func (s *BookService) UpdateBook(ctx context.Context, id uint, input *BookInput) (*models.Book, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !input.DailyFee.IsPositive() {
		return nil, ErrInvalidDailyFee
	}

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	book.Title = input.Title
	book.Author = input.Author
	book.Cover = input.Cover
	book.DailyFee = input.DailyFee

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook deletes a book
func (s *BookService) DeleteBook(ctx context.Context, id uint) error {
	if _, err := s.GetBook(ctx, id); err != nil {
		return err
	}
	return s.bookRepo.Delete(ctx, id)
}

// ListBooks lists books with pagination
func (s *BookService) ListBooks(ctx context.Context, params *pagination.Params) ([]*models.Book, int64, error) {
	return s.bookRepo.List(ctx, params.Offset, params.Limit)
}

// AuthorInput represents create/update author input
type AuthorInput struct {
	FirstName string `json:"first_name" validate:"required,max=31"`
	LastName  string `json:"last_name" validate:"required,max=31"`
	Pseudonym string `json:"pseudonym,omitempty" validate:"max=31"`
}

// CreateAuthor creates a new author
func (s *BookService) CreateAuthor(ctx context.Context, input *AuthorInput) (*models.Author, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, err
	}

	author := &models.Author{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Pseudonym: input.Pseudonym,
	}

	if err := s.authorRepo.Create(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

// GetAuthor gets an author by ID
func (s *BookService) GetAuthor(ctx context.Context, id uint) (*models.Author, error) {
	author, err := s.authorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}
	return author, nil
}

// UpdateAuthor updates an author
func (s *BookService) UpdateAuthor(ctx context.Context, id uint, input *AuthorInput) (*models.Author, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, err
	}

	author, err := s.GetAuthor(ctx, id)
	if err != nil {
		return nil, err
	}

	author.FirstName = input.FirstName
	author.LastName = input.LastName
	author.Pseudonym = input.Pseudonym

	if err := s.authorRepo.Update(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

// DeleteAuthor deletes an author
func (s *BookService) DeleteAuthor(ctx context.Context, id uint) error {
	if _, err := s.GetAuthor(ctx, id); err != nil {
		return err
	}
	return s.authorRepo.Delete(ctx, id)
}

// ListAuthors lists authors with pagination
func (s *BookService) ListAuthors(ctx context.Context, params *pagination.Params) ([]*models.Author, int64, error) {
	return s.authorRepo.List(ctx, params.Offset, params.Limit)
}
