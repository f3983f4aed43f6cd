// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth

import "context"

// # Storage Contract

// AccountStore abstracts persistence of the account aggregate, including
// its session registry and pending reset token.
type AccountStore interface {
	// FindByEmail loads the account registered under the given email.
	// Returns apperr.NotFound when no such account exists.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByID loads the account by its identifier.
	// Returns apperr.NotFound when no such account exists.
	FindByID(ctx context.Context, id string) (*Account, error)

	// FindByResetToken loads the account holding the given unexpired reset
	// token. Expired and unknown tokens both yield apperr.NotFound.
	FindByResetToken(ctx context.Context, token string) (*Account, error)

	// Save persists the full account aggregate, replacing the stored
	// session registry with the in-memory one.
	Save(ctx context.Context, account *Account) error

	// WithAccountLock runs fn while holding an exclusive per-account lock,
	// serializing session mutations for that account across the whole
	// deployment. The lock is released when fn returns, on success or
	// failure.
	WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context) error) error
}
