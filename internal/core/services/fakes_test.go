package services

import (
	"context"
	"strconv"
	"time"

	"librental/internal/adapters/persistence/models"
	"librental/internal/adapters/persistence/repositories"
	"librental/internal/core/domain"

	"gorm.io/gorm"
)

// fakeTransactor runs the function directly; the in-memory fakes below
// have no transaction semantics to join.
type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeBookRepo is an in-memory BookRepository honoring the conditional
// reserve/release semantics.
type fakeBookRepo struct {
	books  map[uint]*models.Book
	nextID uint
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: map[uint]*models.Book{}, nextID: 1}
}

func (r *fakeBookRepo) Create(_ context.Context, book *models.Book) error {
	book.ID = r.nextID
	r.nextID++
	r.books[book.ID] = book
	return nil
}

// GetByID returns a detached copy, the way a real row scan would
func (r *fakeBookRepo) GetByID(_ context.Context, id uint) (*models.Book, error) {
	book, ok := r.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	detached := *book
	return &detached, nil
}

// Update writes catalog columns only; inventory is never copied back
func (r *fakeBookRepo) Update(_ context.Context, book *models.Book) error {
	stored, ok := r.books[book.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Title = book.Title
	stored.Author = book.Author
	stored.Cover = book.Cover
	stored.DailyFee = book.DailyFee
	return nil
}

func (r *fakeBookRepo) Delete(_ context.Context, id uint) error {
	delete(r.books, id)
	return nil
}

func (r *fakeBookRepo) List(_ context.Context, offset, limit int) ([]*models.Book, int64, error) {
	out := make([]*models.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookRepo) ReserveCopy(_ context.Context, bookID uint) error {
	book, ok := r.books[bookID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if book.Inventory == 0 {
		return domain.ErrOutOfStock
	}
	book.Inventory--
	return nil
}

func (r *fakeBookRepo) ReleaseCopy(_ context.Context, bookID uint) error {
	book, ok := r.books[bookID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	book.Inventory++
	return nil
}

// fakeUserRepo is an in-memory UserRepository
type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*models.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// fakeRefreshTokenRepo is an in-memory RefreshTokenRepository
type fakeRefreshTokenRepo struct {
	tokens map[uint]*models.RefreshToken
	nextID uint
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: map[uint]*models.RefreshToken{}, nextID: 1}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	token.ID = r.nextID
	r.nextID++
	r.tokens[token.ID] = token
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	token, ok := r.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	token, err := r.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	return r.Revoke(ctx, token.ID)
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(_ context.Context, userID uint) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	var deleted int64
	for id, t := range r.tokens {
		if t.IsExpired() {
			delete(r.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeAuthorRepo is an in-memory AuthorRepository
type fakeAuthorRepo struct {
	authors map[uint]*models.Author
	nextID  uint
}

func newFakeAuthorRepo() *fakeAuthorRepo {
	return &fakeAuthorRepo{authors: map[uint]*models.Author{}, nextID: 1}
}

func (r *fakeAuthorRepo) Create(_ context.Context, author *models.Author) error {
	author.ID = r.nextID
	r.nextID++
	r.authors[author.ID] = author
	return nil
}

func (r *fakeAuthorRepo) GetByID(_ context.Context, id uint) (*models.Author, error) {
	author, ok := r.authors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return author, nil
}

func (r *fakeAuthorRepo) Update(_ context.Context, author *models.Author) error {
	r.authors[author.ID] = author
	return nil
}

func (r *fakeAuthorRepo) Delete(_ context.Context, id uint) error {
	delete(r.authors, id)
	return nil
}

func (r *fakeAuthorRepo) List(_ context.Context, offset, limit int) ([]*models.Author, int64, error) {
	out := make([]*models.Author, 0, len(r.authors))
	for _, a := range r.authors {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

// fakeBorrowingRepo is an in-memory BorrowingRepository
type fakeBorrowingRepo struct {
	borrowings map[uint]*models.Borrowing
	nextID     uint
}

func newFakeBorrowingRepo() *fakeBorrowingRepo {
	return &fakeBorrowingRepo{borrowings: map[uint]*models.Borrowing{}, nextID: 1}
}

func (r *fakeBorrowingRepo) Create(_ context.Context, borrowing *models.Borrowing) error {
	borrowing.ID = r.nextID
	r.nextID++
	r.borrowings[borrowing.ID] = borrowing
	return nil
}

func (r *fakeBorrowingRepo) GetByID(_ context.Context, id uint) (*models.Borrowing, error) {
	borrowing, ok := r.borrowings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return borrowing, nil
}

func (r *fakeBorrowingRepo) MarkReturned(_ context.Context, id uint, returnedOn time.Time) (bool, error) {
	borrowing, ok := r.borrowings[id]
	if !ok || borrowing.ActualReturnDate != nil {
		return false, nil
	}
	returned := returnedOn
	borrowing.ActualReturnDate = &returned
	return true, nil
}

func (r *fakeBorrowingRepo) Delete(_ context.Context, id uint) error {
	delete(r.borrowings, id)
	return nil
}

func (r *fakeBorrowingRepo) List(_ context.Context, filter *repositories.BorrowingFilter, offset, limit int) ([]*models.Borrowing, int64, error) {
	out := make([]*models.Borrowing, 0)
	for _, b := range r.borrowings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.IsActive != nil && b.IsActive() != *filter.IsActive {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBorrowingRepo) CountActiveByUserForUpdate(_ context.Context, userID uint) (int64, error) {
	var count int64
	for _, b := range r.borrowings {
		if b.UserID == userID && b.IsActive() {
			count++
		}
	}
	return count, nil
}

// fakePaymentRepo is an in-memory PaymentRepository. When wired with a
// borrowing repo it emulates the Borrowing preload of the real one.
type fakePaymentRepo struct {
	payments   map[uint]*models.Payment
	nextID     uint
	borrowings *fakeBorrowingRepo
}

func newFakePaymentRepo(borrowings *fakeBorrowingRepo) *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uint]*models.Payment{}, nextID: 1, borrowings: borrowings}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	payment.ID = r.nextID
	r.nextID++
	r.payments[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id uint) (*models.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if payment.Borrowing == nil && r.borrowings != nil {
		if b, ok := r.borrowings.borrowings[payment.BorrowingID]; ok {
			payment.Borrowing = b
		}
	}
	return payment, nil
}

func (r *fakePaymentRepo) UpdateSession(_ context.Context, id uint, sessionURL, sessionID string) (bool, error) {
	payment, ok := r.payments[id]
	if !ok || payment.Status != models.PaymentStatusPending {
		return false, nil
	}
	payment.SessionURL = sessionURL
	payment.SessionID = sessionID
	return true, nil
}

func (r *fakePaymentRepo) MarkPaid(_ context.Context, id uint, sessionID string) (bool, error) {
	payment, ok := r.payments[id]
	if !ok || payment.Status != models.PaymentStatusPending {
		return false, nil
	}
	payment.Status = models.PaymentStatusPaid
	payment.SessionID = sessionID
	return true, nil
}

func (r *fakePaymentRepo) Delete(_ context.Context, id uint) error {
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) List(ctx context.Context, userID *uint, offset, limit int) ([]*models.Payment, int64, error) {
	out := make([]*models.Payment, 0)
	for id := range r.payments {
		payment, _ := r.GetByID(ctx, id)
		if userID != nil {
			if payment.Borrowing == nil || payment.Borrowing.UserID != *userID {
				continue
			}
		}
		out = append(out, payment)
	}
	return out, int64(len(out)), nil
}

// stubProvider is a scriptable PaymentProvider
type stubProvider struct {
	createErr    error
	createCalls  int
	verifyPaid   bool
	verifyErr    error
	verifyCalls  int
	lastInput    *CreateSessionInput
	sessionCount int
}

func (p *stubProvider) CreateSession(_ context.Context, input *CreateSessionInput) (*CheckoutSession, error) {
	p.createCalls++
	p.lastInput = input
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.sessionCount++
	return &CheckoutSession{
		URL: "https://checkout.test/session-" + strconv.Itoa(p.sessionCount),
		ID:  "cs_test_" + strconv.Itoa(p.sessionCount),
	}, nil
}

func (p *stubProvider) VerifySession(_ context.Context, sessionID string) (bool, error) {
	p.verifyCalls++
	if p.verifyErr != nil {
		return false, p.verifyErr
	}
	return p.verifyPaid, nil
}
