// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

/*
Package auth implements the session and credential lifecycle core.

It handles login verification, dual-token issuance (short-lived access /
long-lived refresh), per-account multi-device session tracking, refresh
rotation with reuse detection, forced global invalidation, and the
password-reset token lifecycle.

# Architecture

  - Service: Orchestrates the session state machine (Login, Refresh, Logout).
  - AccountStore: Abstracted data access for the account aggregate (Postgres).
  - Registry: Bounded, FIFO-evicting collection of live refresh sessions,
    owned by the account record — no process-wide session cache exists.

The account's session collection is the only mutable shared state in this
core. It is mutated exclusively through the Service operations; the board
CRUD subsystem never touches it.
*/
package auth

import (
	"time"
)

// # Domain Entities

// Account represents a registered user of the platform.
//
// The session collection and the pending reset token live on the account
// aggregate and are loaded/saved per operation — revocation is therefore a
// plain persistence of the mutated aggregate, with no cross-process cache
// to keep consistent.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Explicitly omitted from JSON for security.
	Role         string `json:"role"`
	Active       bool   `json:"active"`

	// Sessions is the bounded registry of live refresh-token sessions.
	// Invariant: a disabled account holds zero sessions.
	Sessions Registry `json:"-"`

	// ResetToken is the pending single-use password-reset token, empty when
	// none is outstanding. Each new request overwrites the previous one, so
	// only the latest token is ever valid.
	ResetToken          string    `json:"-"`
	ResetTokenExpiresAt time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Roles assignable to an account. Mirrors the frontend contract.
const (
	RoleUser  = "USER_ROLE"
	RoleAdmin = "ADMIN_ROLE"
)

// IsAdmin reports whether the account holds the administrator role.
func (account *Account) IsAdmin() bool {
	return account.Role == RoleAdmin
}

// HasPendingReset reports whether a reset token is outstanding and unexpired
// at the given instant.
func (account *Account) HasPendingReset(now time.Time) bool {
	return account.ResetToken != "" && account.ResetTokenExpiresAt.After(now)
}

// # Field Identifiers

// Field names used for validation and JSON mapping in the auth domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldRefreshToken = "refresh_token"
	FieldToken        = "token"
	FieldAccessToken  = "access_token"
	FieldMessage      = "message"
	FieldUser         = "user"
)
