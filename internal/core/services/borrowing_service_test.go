package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"librental/internal/adapters/persistence/models"
	"librental/internal/config"
	"librental/internal/core/domain"
	"librental/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type borrowingFixture struct {
	service       *BorrowingService
	bookRepo      *fakeBookRepo
	borrowingRepo *fakeBorrowingRepo
	paymentRepo   *fakePaymentRepo
	provider      *stubProvider
}

func newBorrowingFixture() *borrowingFixture {
	cfg := &config.Config{
		PublicBaseURL: "http://localhost:3000",
		Stripe: config.StripeConfig{
			Currency:      "usd",
			SessionExpiry: 24 * time.Hour,
		},
	}

	bookRepo := newFakeBookRepo()
	borrowingRepo := newFakeBorrowingRepo()
	paymentRepo := newFakePaymentRepo(borrowingRepo)
	provider := &stubProvider{}

	paymentService := NewPaymentService(paymentRepo, provider, cfg)
	service := NewBorrowingService(borrowingRepo, bookRepo, paymentService, fakeTransactor{})

	return &borrowingFixture{
		service:       service,
		bookRepo:      bookRepo,
		borrowingRepo: borrowingRepo,
		paymentRepo:   paymentRepo,
		provider:      provider,
	}
}

func (f *borrowingFixture) addBook(t *testing.T, inventory uint, dailyFee string) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:     "The Go Programming Language",
		Author:    "Alan Donovan",
		Cover:     models.CoverHard,
		Inventory: inventory,
		DailyFee:  decimal.RequireFromString(dailyFee),
	}
	require.NoError(t, f.bookRepo.Create(context.Background(), book))
	return book
}

func returnDateIn(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(models.DateLayout)
}

func TestCreateBorrowing(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 3, "1.50")
	actor := domain.Actor{ID: 10, Email: "reader@example.com"}

	borrowing, payment, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, actor.ID, borrowing.UserID)
	assert.Equal(t, book.ID, borrowing.BookID)
	assert.True(t, borrowing.IsActive())
	assert.Equal(t, uint(2), book.Inventory)

	// 7 days at 1.50/day
	assert.True(t, payment.MoneyToPay.Equal(decimal.RequireFromString("10.50")),
		"money_to_pay = %s", payment.MoneyToPay)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, models.PaymentTypePayment, payment.Type)
	assert.NotEmpty(t, payment.SessionURL)
	assert.NotEmpty(t, payment.SessionID)

	// Checkout was opened in cents with our callback URLs
	require.NotNil(t, f.provider.lastInput)
	assert.Equal(t, int64(1050), f.provider.lastInput.AmountCents)
	assert.Contains(t, f.provider.lastInput.SuccessURL, "/api/v1/payments/success")
	assert.Contains(t, f.provider.lastInput.SuccessURL, "{CHECKOUT_SESSION_ID}")
	assert.Contains(t, f.provider.lastInput.CancelURL, "/api/v1/payments/cancel")
}

func TestCreateBorrowingOutOfStock(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 0, "1.50")
	actor := domain.Actor{ID: 10}

	_, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)

	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Empty(t, f.borrowingRepo.borrowings)
	assert.Equal(t, 0, f.provider.createCalls)
}

func TestCreateBorrowingSecondActiveRejected(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 3, "1.50")
	actor := domain.Actor{ID: 10}

	_, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)
	require.NoError(t, err)

	_, _, err = f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)

	assert.ErrorIs(t, err, domain.ErrActiveBorrowingExists)
	assert.Equal(t, uint(2), book.Inventory)

	// Another user is unaffected
	_, _, err = f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, domain.Actor{ID: 11})
	assert.NoError(t, err)
}

func TestCreateBorrowingInvalidReturnDate(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 3, "1.50")
	actor := domain.Actor{ID: 10}

	testCases := []struct {
		name string
		date string
	}{
		{"garbage", "not-a-date"},
		{"today", returnDateIn(0)},
		{"yesterday", returnDateIn(-1)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
				BookID:             book.ID,
				ExpectedReturnDate: tt.date,
			}, actor)
			assert.ErrorIs(t, err, ErrInvalidReturnDate)
		})
	}

	assert.Equal(t, uint(3), book.Inventory)
}

func TestCreateBorrowingBookNotFound(t *testing.T) {
	f := newBorrowingFixture()
	actor := domain.Actor{ID: 10}

	_, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             99,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)

	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestCreateBorrowingProviderFailureCompensates(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 3, "1.50")
	actor := domain.Actor{ID: 10}
	f.provider.createErr = fmt.Errorf("%w: connection refused", domain.ErrPaymentProvider)

	_, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)

	assert.ErrorIs(t, err, domain.ErrPaymentProvider)

	// Everything is rolled back: no borrowing, no payment, copy released
	assert.Empty(t, f.borrowingRepo.borrowings)
	assert.Empty(t, f.paymentRepo.payments)
	assert.Equal(t, uint(3), book.Inventory)

	// The user can try again afterwards
	f.provider.createErr = nil
	_, _, err = f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)
	assert.NoError(t, err)
}

func TestReturnBorrowing(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 3, "1.50")
	actor := domain.Actor{ID: 10}

	created, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)
	require.NoError(t, err)
	require.Equal(t, uint(2), book.Inventory)

	returned, err := f.service.Return(context.Background(), created.ID, actor)
	require.NoError(t, err)

	assert.False(t, returned.IsActive())
	require.NotNil(t, returned.ActualReturnDate)
	assert.Equal(t, uint(3), book.Inventory)

	// Returning twice is rejected and does not release another copy
	_, err = f.service.Return(context.Background(), created.ID, actor)
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)
	assert.Equal(t, uint(3), book.Inventory)
}

// snapshotBorrowingRepo serves reads of one row from a frozen copy,
// modeling a transaction whose read happened before a concurrent commit
type snapshotBorrowingRepo struct {
	*fakeBorrowingRepo
	snapshot *models.Borrowing
}

func (r *snapshotBorrowingRepo) GetByID(ctx context.Context, id uint) (*models.Borrowing, error) {
	if r.snapshot != nil && r.snapshot.ID == id {
		detached := *r.snapshot
		return &detached, nil
	}
	return r.fakeBorrowingRepo.GetByID(ctx, id)
}

func TestReturnWithStaleReadReleasesCopyOnce(t *testing.T) {
	cfg := &config.Config{
		PublicBaseURL: "http://localhost:3000",
		Stripe: config.StripeConfig{
			Currency:      "usd",
			SessionExpiry: 24 * time.Hour,
		},
	}
	bookRepo := newFakeBookRepo()
	base := newFakeBorrowingRepo()
	repo := &snapshotBorrowingRepo{fakeBorrowingRepo: base}
	paymentService := NewPaymentService(newFakePaymentRepo(base), &stubProvider{}, cfg)
	service := NewBorrowingService(repo, bookRepo, paymentService, fakeTransactor{})

	book := &models.Book{
		Title: "T", Author: "X", Cover: models.CoverSoft, Inventory: 1,
		DailyFee: decimal.RequireFromString("1.50"),
	}
	require.NoError(t, bookRepo.Create(context.Background(), book))
	actor := domain.Actor{ID: 10}

	created, _, err := service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)
	require.NoError(t, err)
	require.Equal(t, uint(0), book.Inventory)

	// Freeze the row as it looked while still active; both returns
	// below read this stale state
	frozen := *base.borrowings[created.ID]
	repo.snapshot = &frozen

	_, err = service.Return(context.Background(), created.ID, actor)
	require.NoError(t, err)
	require.Equal(t, uint(1), book.Inventory)

	// The second return also sees an active row, but the guarded flip
	// refuses it and no second copy is released
	_, err = service.Return(context.Background(), created.ID, actor)
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)
	assert.Equal(t, uint(1), book.Inventory)
}

func TestReturnBorrowingOwnership(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 3, "1.50")
	owner := domain.Actor{ID: 10}

	created, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, owner)
	require.NoError(t, err)

	// A different user gets the same answer as a missing borrowing
	_, err = f.service.Return(context.Background(), created.ID, domain.Actor{ID: 11})
	assert.ErrorIs(t, err, ErrBorrowingNotFound)

	// Staff may return on the user's behalf
	_, err = f.service.Return(context.Background(), created.ID, domain.Actor{ID: 1, IsStaff: true})
	assert.NoError(t, err)
}

func TestGetBorrowingVisibility(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 3, "1.50")
	owner := domain.Actor{ID: 10}

	created, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, owner)
	require.NoError(t, err)

	_, err = f.service.GetByID(context.Background(), created.ID, owner)
	assert.NoError(t, err)

	_, err = f.service.GetByID(context.Background(), created.ID, domain.Actor{ID: 11})
	assert.ErrorIs(t, err, ErrBorrowingNotFound)

	_, err = f.service.GetByID(context.Background(), created.ID, domain.Actor{ID: 1, IsStaff: true})
	assert.NoError(t, err)

	_, err = f.service.GetByID(context.Background(), 999, owner)
	assert.ErrorIs(t, err, ErrBorrowingNotFound)
}

func TestListBorrowingsScoping(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 5, "1.50")
	alice := domain.Actor{ID: 10}
	bob := domain.Actor{ID: 11}
	staff := domain.Actor{ID: 1, IsStaff: true}

	_, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, alice)
	require.NoError(t, err)
	_, _, err = f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, bob)
	require.NoError(t, err)

	params := pagination.Normalize(1, 20)

	// A regular user asking for someone else's rows still sees only theirs
	rows, total, err := f.service.List(context.Background(), &ListBorrowingsInput{UserID: &bob.ID}, alice, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, alice.ID, rows[0].UserID)

	// Staff can filter by any user
	rows, total, err = f.service.List(context.Background(), &ListBorrowingsInput{UserID: &bob.ID}, staff, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, bob.ID, rows[0].UserID)

	// Staff without a filter sees everything
	_, total, err = f.service.List(context.Background(), &ListBorrowingsInput{}, staff, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestListBorrowingsActiveFilter(t *testing.T) {
	f := newBorrowingFixture()
	book := f.addBook(t, 5, "1.50")
	actor := domain.Actor{ID: 10}

	created, _, err := f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(7),
	}, actor)
	require.NoError(t, err)
	_, err = f.service.Return(context.Background(), created.ID, actor)
	require.NoError(t, err)

	_, _, err = f.service.Create(context.Background(), &CreateBorrowingInput{
		BookID:             book.ID,
		ExpectedReturnDate: returnDateIn(3),
	}, actor)
	require.NoError(t, err)

	params := pagination.Normalize(1, 20)
	active := true

	rows, total, err := f.service.List(context.Background(), &ListBorrowingsInput{IsActive: &active}, actor, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.True(t, rows[0].IsActive())

	inactive := false
	rows, total, err = f.service.List(context.Background(), &ListBorrowingsInput{IsActive: &inactive}, actor, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.False(t, rows[0].IsActive())
}
