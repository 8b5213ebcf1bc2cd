package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"librental/internal/adapters/persistence/models"
	"librental/internal/adapters/persistence/repositories"
	"librental/internal/config"
	"librental/internal/core/domain"
	"librental/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment service errors
var (
	ErrPaymentNotFound = errors.New("payment not found")
)

var oneHundred = decimal.NewFromInt(100)

// PaymentService orchestrates payment rows and checkout sessions
type PaymentService struct {
	paymentRepo repositories.PaymentRepository
	provider    PaymentProvider
	cfg         *config.Config
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	provider PaymentProvider,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		provider:    provider,
		cfg:         cfg,
	}
}

// CreatePaymentForBorrowing creates a PENDING payment for a freshly
// created borrowing and opens a checkout session for it. The fee is
// daily_fee multiplied by the number of rental days, computed in exact
// decimal arithmetic. If the provider call fails, the payment row is
// deleted again and the provider error is returned to the caller, which
// then compensates the borrowing and inventory.
func (s *PaymentService) CreatePaymentForBorrowing(ctx context.Context, borrowing *models.Borrowing, book *models.Book) (*models.Payment, error) {
	days := borrowing.RentalDays()
	moneyToPay := book.DailyFee.Mul(decimal.NewFromInt(int64(days)))

	payment := &models.Payment{
		BorrowingID: borrowing.ID,
		Status:      models.PaymentStatusPending,
		Type:        models.PaymentTypePayment,
		MoneyToPay:  moneyToPay,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	sess, err := s.openSession(ctx, payment, fmt.Sprintf("Payment for borrowing #%d", borrowing.ID))
	if err != nil {
		// Compensating delete: the payment row must not outlive a
		// failed session creation.
		if delErr := s.paymentRepo.Delete(ctx, payment.ID); delErr != nil {
			log.Printf("🚨 FATAL: failed to delete payment %d after provider error: %v", payment.ID, delErr)
		}
		return nil, err
	}

	if _, err := s.paymentRepo.UpdateSession(ctx, payment.ID, sess.URL, sess.ID); err != nil {
		if delErr := s.paymentRepo.Delete(ctx, payment.ID); delErr != nil {
			log.Printf("🚨 FATAL: failed to delete payment %d after save error: %v", payment.ID, delErr)
		}
		return nil, err
	}
	payment.SessionURL = sess.URL
	payment.SessionID = sess.ID

	return payment, nil
}

// HandleSuccess reconciles the success callback for a checkout session.
// A payment that is already PAID short-circuits as a no-op success, so
// replaying the callback is safe.
func (s *PaymentService) HandleSuccess(ctx context.Context, sessionID string, paymentID uint) (*models.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.IsPaid() {
		return payment, nil
	}

	paid, err := s.provider.VerifySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, domain.ErrVerificationFailed
	}

	// Guarded flip; losing the race to a concurrent callback just means
	// the payment is already PAID, which is the outcome we wanted.
	if _, err := s.paymentRepo.MarkPaid(ctx, payment.ID, sessionID); err != nil {
		return nil, err
	}
	payment.Status = models.PaymentStatusPaid
	payment.SessionID = sessionID

	log.Printf("✅ Payment %d marked as PAID (session %s)", payment.ID, sessionID)
	return payment, nil
}

// CancelInfo describes a cancelled checkout without mutating anything
type CancelInfo struct {
	PaymentID   uint            `json:"payment_id"`
	BorrowingID uint            `json:"borrowing_id"`
	MoneyToPay  decimal.Decimal `json:"money_to_pay"`
	SessionURL  string          `json:"session_url"`
	PayableFor  string          `json:"payable_for"`
}

// HandleCancel handles the cancel callback. Cancelling does not expire
// the payment; the session stays payable for its whole expiry window.
func (s *PaymentService) HandleCancel(ctx context.Context, paymentID uint) (*CancelInfo, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	return &CancelInfo{
		PaymentID:   payment.ID,
		BorrowingID: payment.BorrowingID,
		MoneyToPay:  payment.MoneyToPay,
		SessionURL:  payment.SessionURL,
		PayableFor:  s.cfg.Stripe.SessionExpiry.String(),
	}, nil
}

// RenewSession opens a fresh checkout session for a still-pending
// payment, replacing the stored session url/id.
func (s *PaymentService) RenewSession(ctx context.Context, paymentID uint, actor domain.Actor) (*models.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	// Non-owners get the same answer as a missing payment.
	if payment.Borrowing == nil || !actor.CanAccess(payment.Borrowing.UserID) {
		return nil, ErrPaymentNotFound
	}

	if payment.IsPaid() {
		return nil, domain.ErrAlreadyPaid
	}

	sess, err := s.openSession(ctx, payment, fmt.Sprintf("Payment for borrowing #%d", payment.BorrowingID))
	if err != nil {
		return nil, err
	}

	renewed, err := s.paymentRepo.UpdateSession(ctx, payment.ID, sess.URL, sess.ID)
	if err != nil {
		return nil, err
	}
	if !renewed {
		// Paid between our read and the write; the fresh session is
		// simply abandoned.
		return nil, domain.ErrAlreadyPaid
	}
	payment.SessionURL = sess.URL
	payment.SessionID = sess.ID

	log.Printf("✅ Payment %d session renewed", payment.ID)
	return payment, nil
}

// GetByID gets a payment visible to the actor
func (s *PaymentService) GetByID(ctx context.Context, id uint, actor domain.Actor) (*models.Payment, error) {
	payment, err := s.getPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	if payment.Borrowing == nil || !actor.CanAccess(payment.Borrowing.UserID) {
		return nil, ErrPaymentNotFound
	}

	return payment, nil
}

// List lists payments visible to the actor with pagination
func (s *PaymentService) List(ctx context.Context, actor domain.Actor, params *pagination.Params) ([]*models.Payment, int64, error) {
	return s.paymentRepo.List(ctx, actor.ScopeUserID(nil), params.Offset, params.Limit)
}

// openSession asks the provider for a checkout session for the payment
func (s *PaymentService) openSession(ctx context.Context, payment *models.Payment, description string) (*CheckoutSession, error) {
	// Stripe substitutes the {CHECKOUT_SESSION_ID} placeholder when
	// redirecting back to us.
	successURL := fmt.Sprintf(
		"%s/api/v1/payments/success?payment_id=%d&session_id={CHECKOUT_SESSION_ID}",
		s.cfg.PublicBaseURL, payment.ID,
	)
	cancelURL := fmt.Sprintf(
		"%s/api/v1/payments/cancel?payment_id=%d",
		s.cfg.PublicBaseURL, payment.ID,
	)

	return s.provider.CreateSession(ctx, &CreateSessionInput{
		AmountCents: payment.MoneyToPay.Mul(oneHundred).IntPart(),
		Description: description,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
		ExpiresAt:   time.Now().Add(s.cfg.Stripe.SessionExpiry),
	})
}

func (s *PaymentService) getPayment(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}
