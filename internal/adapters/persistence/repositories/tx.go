package repositories

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// gormTransactor implements Transactor on top of gorm transactions
type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a new gorm-backed transactor
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithinTransaction runs fn inside one transaction; any repository call
// receiving the derived context joins it. The transaction commits when
// fn returns nil and rolls back otherwise.
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction bound to ctx if one exists, otherwise a
// context-scoped handle on the base connection.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
