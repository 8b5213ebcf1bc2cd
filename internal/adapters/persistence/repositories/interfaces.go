package repositories

import (
	"context"
	"time"

	"librental/internal/adapters/persistence/models"
)

// Transactor runs a function within a single database transaction.
// The transaction handle is carried in the context so that every
// repository call made inside fn joins the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// AuthorRepository defines author repository interface
type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) error
	GetByID(ctx context.Context, id uint) (*models.Author, error)
	Update(ctx context.Context, author *models.Author) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.Author, int64, error)
}

// BookRepository defines book repository interface.
// ReserveCopy and ReleaseCopy are the only operations allowed to touch
// the inventory counter; both are conditional single-statement updates
// so concurrent borrowers can never drive the count below zero. Update
// writes catalog columns only and never inventory, so a stale read can
// not overwrite a reservation committed in between.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error)
	ReserveCopy(ctx context.Context, bookID uint) error
	ReleaseCopy(ctx context.Context, bookID uint) error
}

// BorrowingFilter narrows borrowing list queries
type BorrowingFilter struct {
	UserID   *uint
	IsActive *bool
}

// BorrowingRepository defines borrowing repository interface.
// MarkReturned is a conditional single-statement update guarded by the
// row still being active; false means another request returned it first.
type BorrowingRepository interface {
	Create(ctx context.Context, borrowing *models.Borrowing) error
	GetByID(ctx context.Context, id uint) (*models.Borrowing, error)
	MarkReturned(ctx context.Context, id uint, returnedOn time.Time) (bool, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter *BorrowingFilter, offset, limit int) ([]*models.Borrowing, int64, error)
	CountActiveByUserForUpdate(ctx context.Context, userID uint) (int64, error)
}

// PaymentRepository defines payment repository interface.
// UpdateSession and MarkPaid are guarded by status = PENDING so the
// terminal PAID state can never be overwritten or reached twice; false
// means the payment already left PENDING.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	UpdateSession(ctx context.Context, id uint, sessionURL, sessionID string) (bool, error)
	MarkPaid(ctx context.Context, id uint, sessionID string) (bool, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, userID *uint, offset, limit int) ([]*models.Payment, int64, error)
}
