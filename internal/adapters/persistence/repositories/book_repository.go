package repositories

import (
	"context"

	"librental/internal/adapters/persistence/models"
	"librental/internal/core/domain"

	"gorm.io/gorm"
)

// bookRepository implements BookRepository interface
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return conn(ctx, r.db).Create(book).Error
}

// GetByID gets a book by ID
func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := conn(ctx, r.db).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update updates a book's catalog columns. Inventory is deliberately
// not written; only ReserveCopy and ReleaseCopy may touch it.
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	return conn(ctx, r.db).Model(book).
		Select("title", "author", "cover", "daily_fee").
		Updates(book).Error
}

// Delete soft deletes a book
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Book{}, id).Error
}

// List lists books with pagination
func (r *bookRepository) List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	if err := conn(ctx, r.db).Model(&models.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := conn(ctx, r.db).
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// ReserveCopy decrements the book inventory by one. The decrement is a
// single conditional UPDATE guarded by inventory > 0 so two concurrent
// reservations cannot both take the last copy.
func (r *bookRepository) ReserveCopy(ctx context.Context, bookID uint) error {
	res := conn(ctx, r.db).Model(&models.Book{}).
		Where("id = ? AND inventory > 0", bookID).
		UpdateColumn("inventory", gorm.Expr("inventory - 1"))
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := conn(ctx, r.db).Model(&models.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return domain.ErrOutOfStock
	}

	return nil
}

// ReleaseCopy increments the book inventory by one
func (r *bookRepository) ReleaseCopy(ctx context.Context, bookID uint) error {
	res := conn(ctx, r.db).Model(&models.Book{}).
		Where("id = ?", bookID).
		UpdateColumn("inventory", gorm.Expr("inventory + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// authorRepository implements AuthorRepository interface
type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository creates a new author repository
func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

// Create creates a new author
func (r *authorRepository) Create(ctx context.Context, author *models.Author) error {
	return conn(ctx, r.db).Create(author).Error
}

// GetByID gets an author by ID
func (r *authorRepository) GetByID(ctx context.Context, id uint) (*models.Author, error) {
	var author models.Author
	err := conn(ctx, r.db).First(&author, id).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// Update updates an author
func (r *authorRepository) Update(ctx context.Context, author *models.Author) error {
	return conn(ctx, r.db).Save(author).Error
}

// Delete soft deletes an author
func (r *authorRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Author{}, id).Error
}

// List lists authors with pagination
func (r *authorRepository) List(ctx context.Context, offset, limit int) ([]*models.Author, int64, error) {
	var authors []*models.Author
	var total int64

	if err := conn(ctx, r.db).Model(&models.Author{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := conn(ctx, r.db).
		Order("last_name ASC, first_name ASC").
		Offset(offset).
		Limit(limit).
		Find(&authors).Error

	return authors, total, err
}
