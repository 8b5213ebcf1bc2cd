package services

import (
	"context"
	"errors"
	"log"
	"time"

	"librental/internal/adapters/persistence/models"
	"librental/internal/adapters/persistence/repositories"
	"librental/internal/core/domain"
	"librental/internal/pkg/pagination"
	"librental/internal/pkg/validation"

	"gorm.io/gorm"
)

// Borrowing service errors
var (
	ErrBorrowingNotFound = errors.New("borrowing not found")
	ErrBookNotFound      = errors.New("book not found")
	ErrInvalidReturnDate = errors.New("expected return date must be after the borrow date")
)

// BorrowingService governs the borrowing lifecycle: creation with
// inventory reservation and payment session, and returning with
// inventory release.
type BorrowingService struct {
	borrowingRepo  repositories.BorrowingRepository
	bookRepo       repositories.BookRepository
	paymentService *PaymentService
	tx             repositories.Transactor
}

// NewBorrowingService creates a new borrowing service
func NewBorrowingService(
	borrowingRepo repositories.BorrowingRepository,
	bookRepo repositories.BookRepository,
	paymentService *PaymentService,
	tx repositories.Transactor,
) *BorrowingService {
	return &BorrowingService{
		borrowingRepo:  borrowingRepo,
		bookRepo:       bookRepo,
		paymentService: paymentService,
		tx:             tx,
	}
}

// CreateBorrowingInput represents create borrowing input
type CreateBorrowingInput struct {
	BookID             uint   `json:"book_id" validate:"required"`
	ExpectedReturnDate string `json:"expected_return_date" validate:"required"`
}

// Create creates a new borrowing for the actor.
//
// The active-borrowing check, the inventory reservation and the
// borrowing insert run in one transaction. The provider call happens
// after commit so a slow checkout API never holds row locks; if it
// fails, a second transaction compensates by deleting the borrowing and
// releasing the reserved copy, and the provider error is surfaced.
func (s *BorrowingService) Create(ctx context.Context, input *CreateBorrowingInput, actor domain.Actor) (*models.Borrowing, *models.Payment, error) {
	if err := validation.ValidateStruct(input); err != nil {
		return nil, nil, err
	}

	expectedReturn, err := time.Parse(models.DateLayout, input.ExpectedReturnDate)
	if err != nil {
		return nil, nil, ErrInvalidReturnDate
	}

	borrowDate := today()
	if !expectedReturn.After(borrowDate) {
		return nil, nil, ErrInvalidReturnDate
	}

	var borrowing *models.Borrowing
	var book *models.Book

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		active, err := s.borrowingRepo.CountActiveByUserForUpdate(ctx, actor.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrActiveBorrowingExists
		}

		book, err = s.bookRepo.GetByID(ctx, input.BookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		if err := s.bookRepo.ReserveCopy(ctx, book.ID); err != nil {
			return err
		}

		borrowing = &models.Borrowing{
			UserID:             actor.ID,
			BookID:             book.ID,
			BorrowDate:         borrowDate,
			ExpectedReturnDate: expectedReturn,
		}
		return s.borrowingRepo.Create(ctx, borrowing)
	})
	if err != nil {
		return nil, nil, err
	}

	payment, err := s.paymentService.CreatePaymentForBorrowing(ctx, borrowing, book)
	if err != nil {
		s.compensateCreate(ctx, borrowing)
		return nil, nil, err
	}

	log.Printf("✅ Borrowing %d created for user %d (book %d)", borrowing.ID, actor.ID, book.ID)
	return borrowing, payment, nil
}

// compensateCreate undoes a committed borrowing creation after the
// payment session could not be opened. A failed compensation leaves
// inventory and borrowings desynchronized and needs operator attention,
// so it is logged loudly; the caller still reports the original
// provider error.
func (s *BorrowingService) compensateCreate(ctx context.Context, borrowing *models.Borrowing) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.borrowingRepo.Delete(ctx, borrowing.ID); err != nil {
			return err
		}
		return s.bookRepo.ReleaseCopy(ctx, borrowing.BookID)
	})
	if err != nil {
		log.Printf("🚨 FATAL: failed to compensate borrowing %d (book %d): %v", borrowing.ID, borrowing.BookID, err)
	}
}

// Return marks a borrowing as returned and releases one copy back to
// the book's inventory. State flip and inventory release commit or roll
// back together; the flip is a conditional update so two racing returns
// can never both release a copy. Non-owners get the same answer as a
// missing borrowing.
func (s *BorrowingService) Return(ctx context.Context, borrowingID uint, actor domain.Actor) (*models.Borrowing, error) {
	var borrowing *models.Borrowing

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		borrowing, err = s.getBorrowing(ctx, borrowingID)
		if err != nil {
			return err
		}

		if !actor.CanAccess(borrowing.UserID) {
			return ErrBorrowingNotFound
		}

		if !borrowing.IsActive() {
			return domain.ErrAlreadyReturned
		}

		returnDate := today()
		flipped, err := s.borrowingRepo.MarkReturned(ctx, borrowing.ID, returnDate)
		if err != nil {
			return err
		}
		if !flipped {
			// Another request returned it between our read and write
			return domain.ErrAlreadyReturned
		}
		borrowing.ActualReturnDate = &returnDate

		return s.bookRepo.ReleaseCopy(ctx, borrowing.BookID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Borrowing %d returned", borrowing.ID)
	return borrowing, nil
}

// GetByID gets a borrowing visible to the actor
func (s *BorrowingService) GetByID(ctx context.Context, id uint, actor domain.Actor) (*models.Borrowing, error) {
	borrowing, err := s.getBorrowing(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanAccess(borrowing.UserID) {
		return nil, ErrBorrowingNotFound
	}

	return borrowing, nil
}

// ListBorrowingsInput represents list borrowings input
type ListBorrowingsInput struct {
	IsActive *bool
	UserID   *uint
}

// List lists borrowings visible to the actor with pagination. Staff may
// filter by any user; other actors always see their own rows only.
func (s *BorrowingService) List(ctx context.Context, input *ListBorrowingsInput, actor domain.Actor, params *pagination.Params) ([]*models.Borrowing, int64, error) {
	filter := &repositories.BorrowingFilter{
		UserID:   actor.ScopeUserID(input.UserID),
		IsActive: input.IsActive,
	}
	return s.borrowingRepo.List(ctx, filter, params.Offset, params.Limit)
}

func (s *BorrowingService) getBorrowing(ctx context.Context, id uint) (*models.Borrowing, error) {
	borrowing, err := s.borrowingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowingNotFound
		}
		return nil, err
	}
	return borrowing, nil
}

// today returns the current date truncated to midnight UTC
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
