// Package session scopes database work to the caller's credential.
package session

import (
	"context"

	"github.com/anoixa/memlane/database"
	"gorm.io/gorm"
)

// Session request scoped handle carrying the caller credential. It holds no
// mutable state and is safe to share between goroutines of the same request.
type Session struct {
	provider   database.Provider
	credential string
}

func New(provider database.Provider, credential string) *Session {
	return &Session{provider: provider, credential: credential}
}

// Credential opaque bearer token forwarded to the store
func (s *Session) Credential() string {
	return s.credential
}

// Transaction runs fn in a transaction with the credential applied first.
// Every repository read and write goes through here.
func (s *Session) Transaction(ctx context.Context, fn database.TxFunc) error {
	return s.provider.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := s.provider.ApplyCredential(tx, s.credential); err != nil {
			return err
		}
		return fn(tx)
	})
}
