// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
)

// PostgresAccountStore persists the account aggregate in PostgreSQL.
// Sessions live in their own table, ordered by position, and are replaced
// wholesale on every Save.
type PostgresAccountStore struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountStore creates the store backed by the given pool.
func NewPostgresAccountStore(pool *pgxpool.Pool) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool}
}

// querier is the query surface shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type lockTxKey struct{}

// db returns the lock transaction when the context carries one, otherwise
// the pool. Inside [PostgresAccountStore.WithAccountLock] every statement
// therefore runs on the single connection holding the advisory lock, so a
// lock holder never waits on the pool for a second connection.
func (store *PostgresAccountStore) db(ctx context.Context) querier {
	if tx, ok := ctx.Value(lockTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return store.pool
}

const accountColumns = `id, name, email, password_hash, role, active,
	reset_token, reset_token_expires_at, created_at, updated_at`

// FindByEmail implements [AccountStore].
func (store *PostgresAccountStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE email = $1`
	return store.findOne(ctx, query, email)
}

// FindByID implements [AccountStore].
func (store *PostgresAccountStore) FindByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE id = $1`
	return store.findOne(ctx, query, id)
}

// FindByResetToken implements [AccountStore]. The expiry check happens in
// SQL so an expired token is indistinguishable from an unknown one.
func (store *PostgresAccountStore) FindByResetToken(ctx context.Context, token string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account
		WHERE reset_token = $1 AND reset_token_expires_at > now()`
	return store.findOne(ctx, query, token)
}

func (store *PostgresAccountStore) findOne(ctx context.Context, query string, arg any) (*Account, error) {
	row := store.db(ctx).QueryRow(ctx, query, arg)

	var (
		account     Account
		resetToken  *string
		resetExpiry *time.Time
	)
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Active,
		&resetToken,
		&resetExpiry,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("auth: query account: %w", err)
	}

	if resetToken != nil {
		account.ResetToken = *resetToken
	}
	if resetExpiry != nil {
		account.ResetTokenExpiresAt = *resetExpiry
	}

	// Sessions are loaded for disabled accounts too: the refresh path is
	// responsible for clearing them, and it can only clear rows it sees.
	if err := store.loadSessions(ctx, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (store *PostgresAccountStore) loadSessions(ctx context.Context, account *Account) error {
	query := `SELECT token, device, ip_address, created_at
		FROM account_session WHERE account_id = $1 ORDER BY position ASC`

	rows, err := store.db(ctx).Query(ctx, query, account.ID)
	if err != nil {
		return fmt.Errorf("auth: query sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.Token, &session.Device, &session.IPAddress, &session.CreatedAt); err != nil {
			return fmt.Errorf("auth: scan session: %w", err)
		}
		account.Sessions = append(account.Sessions, session)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("auth: iterate sessions: %w", err)
	}
	return nil
}

// Save implements [AccountStore]. The account row and its session rows are
// written in one transaction; the session table is replaced to mirror the
// in-memory registry exactly. Inside [PostgresAccountStore.WithAccountLock]
// the writes join the lock transaction and commit with it.
func (store *PostgresAccountStore) Save(ctx context.Context, account *Account) error {
	if tx, ok := ctx.Value(lockTxKey{}).(pgx.Tx); ok {
		return store.save(ctx, tx, account)
	}

	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("auth: begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := store.save(ctx, tx, account); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("auth: commit save: %w", err)
	}
	return nil
}

func (store *PostgresAccountStore) save(ctx context.Context, tx pgx.Tx, account *Account) error {
	var (
		resetToken  *string
		resetExpiry *time.Time
	)
	if account.ResetToken != "" {
		resetToken = &account.ResetToken
		resetExpiry = &account.ResetTokenExpiresAt
	}

	updateQuery := `UPDATE account
		SET name = $2, email = $3, password_hash = $4, role = $5, active = $6,
			reset_token = $7, reset_token_expires_at = $8, updated_at = now()
		WHERE id = $1`
	tag, err := tx.Exec(ctx, updateQuery,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Active,
		resetToken,
		resetExpiry,
	)
	if err != nil {
		return fmt.Errorf("auth: update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM account_session WHERE account_id = $1`, account.ID); err != nil {
		return fmt.Errorf("auth: clear sessions: %w", err)
	}

	insertQuery := `INSERT INTO account_session (account_id, position, token, device, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for position, session := range account.Sessions {
		_, err := tx.Exec(ctx, insertQuery,
			account.ID,
			position,
			session.Token,
			session.Device,
			session.IPAddress,
			session.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("auth: insert session: %w", err)
		}
	}
	return nil
}

// WithAccountLock implements [AccountStore] with a transaction-scoped
// advisory lock, keyed on the account ID. The lock is held for the duration
// of fn and released automatically at commit or rollback, so it cannot leak
// even when fn fails or the context is cancelled.
//
// The lock transaction is threaded through the context, so every store call
// made by fn runs on the same connection. A lock holder never blocks on the
// pool for further connections, fn's reads observe what earlier lock
// holders committed, and fn's writes commit atomically with the lock
// release.
func (store *PostgresAccountStore) WithAccountLock(ctx context.Context, accountID string, fn func(ctx context.Context) error) error {
	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("auth: begin lock: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, accountID); err != nil {
		return fmt.Errorf("auth: acquire account lock: %w", err)
	}

	// fn may persist state and still return a verdict error: reuse
	// detection clears every session and reports the reuse. The commit
	// therefore runs regardless of fn's result. A failed SQL statement
	// aborts the transaction server-side, so partial writes cannot
	// commit; the commit error is then subsumed by fn's error.
	fnErr := fn(context.WithValue(ctx, lockTxKey{}, tx))
	if commitErr := tx.Commit(ctx); commitErr != nil {
		if fnErr != nil {
			return fnErr
		}
		return fmt.Errorf("auth: commit lock: %w", commitErr)
	}
	return fnErr
}
