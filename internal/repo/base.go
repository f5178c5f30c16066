package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the connection holder embedded by the domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a GORM connection for embedding.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Rebind swaps the underlying connection, typically for a transaction handle.
// A nil tx keeps the current connection, so callers can pass optional
// transactions straight through.
func (b Base) Rebind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
