// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor. 10 rounds balances login latency
// against brute-force resistance for this workload.
const hashCost = 10

// DummyHash is a valid bcrypt hash of a throwaway string. Login compares
// against it when the email is unknown so that rejecting an unknown email
// takes as long as rejecting a wrong password.
const DummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// The plaintext never appears in errors or logs.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hashCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
//
// bcrypt's comparison is constant-time with respect to the position of the
// first mismatching byte, which resists timing attacks.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
