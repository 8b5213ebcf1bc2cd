package repositories

import (
	"context"

	"librental/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return conn(ctx, r.db).Create(payment).Error
}

// GetByID gets a payment by ID with its borrowing
func (r *paymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := conn(ctx, r.db).
		Preload("Borrowing").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateSession stores a fresh checkout session on a payment that is
// still PENDING. A payment that already left PENDING is never touched.
func (r *paymentRepository) UpdateSession(ctx context.Context, id uint, sessionURL, sessionID string) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"session_url": sessionURL,
			"session_id":  sessionID,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkPaid flips a PENDING payment to PAID. The status guard keeps PAID
// terminal: a replayed or racing callback sees RowsAffected == 0.
func (r *paymentRepository) MarkPaid(ctx context.Context, id uint, sessionID string) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":     models.PaymentStatusPaid,
			"session_id": sessionID,
		})
	return res.RowsAffected > 0, res.Error
}

// Delete deletes a payment (compensation path only)
func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Payment{}, id).Error
}

// List lists payments with pagination, newest first. When userID is set
// only payments whose borrowing belongs to that user are returned.
func (r *paymentRepository) List(ctx context.Context, userID *uint, offset, limit int) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	query := conn(ctx, r.db).Model(&models.Payment{})
	if userID != nil {
		query = query.
			Joins("JOIN borrowings ON borrowings.id = payments.borrowing_id").
			Where("borrowings.user_id = ?", *userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("payments.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&payments).Error

	return payments, total, err
}
