// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/sec"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := sec.HashPassword("secret1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"), "expected a bcrypt hash")

	assert.True(t, sec.CheckPasswordHash("secret1", hash))
	assert.False(t, sec.CheckPasswordHash("secret2", hash))
	assert.False(t, sec.CheckPasswordHash("secret1", "not-a-hash"))
}

func TestHashesAreSalted(t *testing.T) {
	first, err := sec.HashPassword("secret1")
	require.NoError(t, err)
	second, err := sec.HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, sec.CheckPasswordHash("secret1", first))
	assert.True(t, sec.CheckPasswordHash("secret1", second))
}

func TestDummyHashIsWellFormed(t *testing.T) {
	// Login compares unknown-email attempts against this constant; it must
	// stay a parseable bcrypt hash so the comparison does real work.
	assert.False(t, sec.CheckPasswordHash("anything", sec.DummyHash))
	assert.True(t, strings.HasPrefix(sec.DummyHash, "$2a$10$"))
}

func TestGenerateSecureToken(t *testing.T) {
	token, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	other, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
