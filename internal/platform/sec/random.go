// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package sec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a hex-encoded random string read from the
// OS CSPRNG. byteLength is the entropy size in bytes; the returned string
// is twice that length.
//
// Used for single-use artifacts such as password-reset tokens.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}
