// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth

import "time"

// # Credential Policy

const (
	// PasswordMinLength and PasswordMaxLength bound accepted passwords.
	// The upper bound predates bcrypt adoption and is kept for frontend
	// compatibility.
	PasswordMinLength = 6
	PasswordMaxLength = 15

	// ResetTokenByteLength is the entropy of a password-reset token before
	// hex encoding.
	ResetTokenByteLength = 32

	// ResetTokenTTL is how long a reset token stays redeemable.
	ResetTokenTTL = time.Hour
)
