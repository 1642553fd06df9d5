package database

import (
	"context"

	"gorm.io/gorm"
)

// TxFunc transaction callback
type TxFunc func(tx *gorm.DB) error

// Provider database access abstraction shared by every repository
type Provider interface {
	// DB returns the underlying *gorm.DB
	DB() *gorm.DB

	// WithContext returns a *gorm.DB bound to ctx
	WithContext(ctx context.Context) *gorm.DB

	// TransactionWithContext runs fn in a transaction bound to ctx
	TransactionWithContext(ctx context.Context, fn TxFunc) error

	// ApplyCredential attaches the caller credential to tx so row level
	// security policies evaluate against it. Must be called inside a transaction.
	ApplyCredential(tx *gorm.DB, credential string) error

	// AutoMigrate migrates the given models
	AutoMigrate(models ...interface{}) error

	// Ping checks the connection
	Ping(ctx context.Context) error

	// Close closes the connection pool
	Close() error

	// Name returns the database type
	Name() string
}
