package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	FirstName string         `gorm:"size:50" json:"first_name"`
	LastName  string         `gorm:"size:50" json:"last_name"`
	IsStaff   bool           `gorm:"default:false" json:"is_staff"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	IsStaff   bool      `json:"is_staff"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog Tables
// ============================================================

// Author represents authors table
type Author struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FirstName string         `gorm:"size:31;not null;uniqueIndex:uniq_author_name" json:"first_name"`
	LastName  string         `gorm:"size:31;not null;uniqueIndex:uniq_author_name" json:"last_name"`
	Pseudonym string         `gorm:"size:31" json:"pseudonym,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Author) TableName() string {
	return "authors"
}

// FullName returns the author's display name
func (a *Author) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Book cover types
const (
	CoverSoft = "SOFT"
	CoverHard = "HARD"
)

// Book represents books table
//
// Inventory is mutated only through BookRepository.ReserveCopy and
// ReleaseCopy so the count can never be observed negative.
type Book struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Title     string          `gorm:"size:63;not null;index" json:"title"`
	Author    string          `gorm:"size:63;not null" json:"author"`
	Cover     string          `gorm:"size:7;not null;default:'SOFT'" json:"cover"`
	Inventory uint            `gorm:"not null" json:"inventory"`
	DailyFee  decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"daily_fee"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO
type BookResponse struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Cover     string          `json:"cover"`
	Inventory uint            `json:"inventory"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
}

func (b *Book) ToResponse() *BookResponse {
	return &BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Cover:     b.Cover,
		Inventory: b.Inventory,
		DailyFee:  b.DailyFee,
	}
}

// ============================================================
// Borrowing Tables
// ============================================================

// Borrowing represents borrowings table
//
// A borrowing is ACTIVE while ActualReturnDate is nil and RETURNED once
// it is set. RETURNED is terminal.
type Borrowing struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;index" json:"user_id"`
	BookID             uint       `gorm:"not null;index" json:"book_id"`
	BorrowDate         time.Time  `gorm:"type:date;not null" json:"borrow_date"`
	ExpectedReturnDate time.Time  `gorm:"type:date;not null" json:"expected_return_date"`
	ActualReturnDate   *time.Time `gorm:"type:date" json:"actual_return_date"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"-"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Borrowing) TableName() string {
	return "borrowings"
}

// IsActive reports whether the borrowing has not been returned yet
func (b *Borrowing) IsActive() bool {
	return b.ActualReturnDate == nil
}

// RentalDays returns the number of billable days for the borrowing
func (b *Borrowing) RentalDays() int {
	return int(b.ExpectedReturnDate.Sub(b.BorrowDate).Hours() / 24)
}

// DateLayout is the wire format for borrowing dates
const DateLayout = "2006-01-02"

// BorrowingResponse DTO
type BorrowingResponse struct {
	ID                 uint          `json:"id"`
	UserID             uint          `json:"user_id"`
	BookID             uint          `json:"book_id"`
	BorrowDate         string        `json:"borrow_date"`
	ExpectedReturnDate string        `json:"expected_return_date"`
	ActualReturnDate   *string       `json:"actual_return_date"`
	IsActive           bool          `json:"is_active"`
	Book               *BookResponse `json:"book,omitempty"`
}

func (b *Borrowing) ToResponse() *BorrowingResponse {
	resp := &BorrowingResponse{
		ID:                 b.ID,
		UserID:             b.UserID,
		BookID:             b.BookID,
		BorrowDate:         b.BorrowDate.Format(DateLayout),
		ExpectedReturnDate: b.ExpectedReturnDate.Format(DateLayout),
		IsActive:           b.IsActive(),
	}

	if b.ActualReturnDate != nil {
		returned := b.ActualReturnDate.Format(DateLayout)
		resp.ActualReturnDate = &returned
	}
	if b.Book != nil {
		resp.Book = b.Book.ToResponse()
	}

	return resp
}

// ============================================================
// Payment Tables
// ============================================================

// Payment statuses
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
	PaymentStatusExpired = "EXPIRED"
)

// Payment types
const (
	PaymentTypePayment = "PAYMENT"
	PaymentTypeFine    = "FINE"
)

// Payment represents payments table
//
// Status only ever moves PENDING -> PAID or PENDING -> EXPIRED; both
// targets are terminal.
type Payment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	BorrowingID uint            `gorm:"not null;index" json:"borrowing_id"`
	Status      string          `gorm:"size:7;not null;default:'PENDING'" json:"status"`
	Type        string          `gorm:"size:7;not null;default:'PAYMENT'" json:"type"`
	MoneyToPay  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"money_to_pay"`
	SessionURL  string          `gorm:"size:511" json:"session_url"`
	SessionID   string          `gorm:"size:255;index" json:"session_id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Borrowing *Borrowing `gorm:"foreignKey:BorrowingID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsPaid reports whether the payment reached the PAID terminal state
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// PaymentResponse DTO
type PaymentResponse struct {
	ID          uint            `json:"id"`
	BorrowingID uint            `json:"borrowing_id"`
	Status      string          `json:"status"`
	Type        string          `json:"type"`
	MoneyToPay  decimal.Decimal `json:"money_to_pay"`
	SessionURL  string          `json:"session_url"`
	SessionID   string          `json:"session_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Payment) ToResponse() *PaymentResponse {
	return &PaymentResponse{
		ID:          p.ID,
		BorrowingID: p.BorrowingID,
		Status:      p.Status,
		Type:        p.Type,
		MoneyToPay:  p.MoneyToPay,
		SessionURL:  p.SessionURL,
		SessionID:   p.SessionID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Author{},
		&Book{},
		&Borrowing{},
		&Payment{},
	)
}
