package repositories

import (
	"context"
	"time"

	"librental/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// borrowingRepository implements BorrowingRepository interface
type borrowingRepository struct {
	db *gorm.DB
}

// NewBorrowingRepository creates a new borrowing repository
func NewBorrowingRepository(db *gorm.DB) BorrowingRepository {
	return &borrowingRepository{db: db}
}

// Create creates a new borrowing
func (r *borrowingRepository) Create(ctx context.Context, borrowing *models.Borrowing) error {
	return conn(ctx, r.db).Create(borrowing).Error
}

// GetByID gets a borrowing by ID with its book
func (r *borrowingRepository) GetByID(ctx context.Context, id uint) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	err := conn(ctx, r.db).
		Preload("Book").
		First(&borrowing, id).Error
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

// MarkReturned flips an active borrowing to returned. The guard on
// actual_return_date makes the flip first-writer-wins: a second return
// racing on the same row sees RowsAffected == 0 and reports false.
func (r *borrowingRepository) MarkReturned(ctx context.Context, id uint, returnedOn time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Borrowing{}).
		Where("id = ? AND actual_return_date IS NULL", id).
		Update("actual_return_date", returnedOn)
	return res.RowsAffected > 0, res.Error
}

// Delete deletes a borrowing (compensation path only)
func (r *borrowingRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Borrowing{}, id).Error
}

// List lists borrowings matching the filter with pagination
func (r *borrowingRepository) List(ctx context.Context, filter *BorrowingFilter, offset, limit int) ([]*models.Borrowing, int64, error) {
	var borrowings []*models.Borrowing
	var total int64

	query := conn(ctx, r.db).Model(&models.Borrowing{})
	if filter != nil {
		if filter.UserID != nil {
			query = query.Where("user_id = ?", *filter.UserID)
		}
		if filter.IsActive != nil {
			if *filter.IsActive {
				query = query.Where("actual_return_date IS NULL")
			} else {
				query = query.Where("actual_return_date IS NOT NULL")
			}
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Book").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&borrowings).Error

	return borrowings, total, err
}

// CountActiveByUserForUpdate counts the user's active borrowings while
// holding row locks on them. Must run inside a transaction so two
// concurrent creates for the same user serialize on the lock.
func (r *borrowingRepository) CountActiveByUserForUpdate(ctx context.Context, userID uint) (int64, error) {
	var borrowings []*models.Borrowing
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND actual_return_date IS NULL", userID).
		Find(&borrowings).Error
	if err != nil {
		return 0, err
	}
	return int64(len(borrowings)), nil
}
