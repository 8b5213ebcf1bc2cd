package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")
)

// Borrowing errors
var (
	ErrOutOfStock            = errors.New("book is out of stock")
	ErrActiveBorrowingExists = errors.New("user already has an active borrowing")
	ErrAlreadyReturned       = errors.New("borrowing is already returned")
)

// Payment errors
var (
	ErrAlreadyPaid        = errors.New("payment is already paid")
	ErrPaymentProvider    = errors.New("payment provider request failed")
	ErrVerificationFailed = errors.New("payment session could not be verified")
)
