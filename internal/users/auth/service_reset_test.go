// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/users/auth"
)

func TestRequestReset(t *testing.T) {
	t.Run("stores a token and emails the recovery link", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

		err := f.service.RequestReset(context.Background(), "ana@example.test")
		require.NoError(t, err)

		stored := f.store.get(seeded.ID)
		require.NotEmpty(t, stored.ResetToken)
		assert.Len(t, stored.ResetToken, auth.ResetTokenByteLength*2, "hex encoding doubles the byte length")
		assert.Equal(t, f.clock.Now().Add(auth.ResetTokenTTL), stored.ResetTokenExpiresAt)

		require.Len(t, f.mailer.sent, 1)
		mail := f.mailer.sent[0]
		assert.Equal(t, "ana@example.test", mail.To)
		assert.Contains(t, mail.Body, "https://app.example.test/reset-password/"+stored.ResetToken)
	})

	t.Run("a new request replaces the previous token", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

		require.NoError(t, f.service.RequestReset(context.Background(), "ana@example.test"))
		firstToken := f.store.get(seeded.ID).ResetToken

		require.NoError(t, f.service.RequestReset(context.Background(), "ana@example.test"))
		secondToken := f.store.get(seeded.ID).ResetToken
		require.NotEqual(t, firstToken, secondToken)

		err := f.service.ConsumeReset(context.Background(), firstToken, "nueva123")
		assert.ErrorIs(t, err, auth.ErrInvalidResetToken)

		assert.NoError(t, f.service.ConsumeReset(context.Background(), secondToken, "nueva123"))
	})

	t.Run("unknown email is reported", func(t *testing.T) {
		f := newFixture(t)

		err := f.service.RequestReset(context.Background(), "nadie@example.test")
		assert.ErrorIs(t, err, auth.ErrUnknownEmail)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("mail failure is transient, not an auth error", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "ana@example.test", "secret1", true)
		f.mailer.sendErr = errors.New("smtp: connection refused")

		err := f.service.RequestReset(context.Background(), "ana@example.test")
		assert.True(t, apperr.IsCode(err, "INTERNAL_ERROR"))
	})
}

func TestConsumeReset(t *testing.T) {
	requestToken := func(t *testing.T, f *fixture, accountID string) string {
		t.Helper()
		require.NoError(t, f.service.RequestReset(context.Background(), f.store.get(accountID).Email))
		return f.store.get(accountID).ResetToken
	}

	t.Run("installs the new password and revokes every session", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

		f.login(t, "ana@example.test", "secret1")
		f.clock.Advance(time.Second)
		f.login(t, "ana@example.test", "secret1")
		token := requestToken(t, f, seeded.ID)

		err := f.service.ConsumeReset(context.Background(), token, "nueva123")
		require.NoError(t, err)

		stored := f.store.get(seeded.ID)
		assert.Empty(t, stored.ResetToken)
		assert.True(t, stored.ResetTokenExpiresAt.IsZero())
		assert.Equal(t, 0, stored.Sessions.Len(), "stolen refresh tokens must die with the old password")

		_, err = f.service.Login(context.Background(), auth.Credentials{Email: "ana@example.test", Password: "secret1"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		f.login(t, "ana@example.test", "nueva123")
	})

	t.Run("other devices cannot refresh after a reset", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

		first := f.login(t, "ana@example.test", "secret1")
		f.clock.Advance(time.Second)
		second := f.login(t, "ana@example.test", "secret1")
		token := requestToken(t, f, seeded.ID)

		require.NoError(t, f.service.ConsumeReset(context.Background(), token, "nueva123"))

		for _, result := range []*auth.LoginResult{first, second} {
			_, err := f.service.Refresh(context.Background(), auth.RefreshInput{
				RefreshToken: result.Tokens.RefreshToken,
			})
			assert.ErrorIs(t, err, auth.ErrReuseDetected)
		}
	})

	t.Run("a token is single use", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		token := requestToken(t, f, seeded.ID)

		require.NoError(t, f.service.ConsumeReset(context.Background(), token, "nueva123"))

		err := f.service.ConsumeReset(context.Background(), token, "otra1234")
		assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
	})

	t.Run("rejects unknown and expired tokens alike", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		token := requestToken(t, f, seeded.ID)

		err := f.service.ConsumeReset(context.Background(), strings.Repeat("ab", auth.ResetTokenByteLength), "nueva123")
		assert.ErrorIs(t, err, auth.ErrInvalidResetToken)

		f.clock.Advance(auth.ResetTokenTTL + time.Minute)
		err = f.service.ConsumeReset(context.Background(), token, "nueva123")
		assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
	})

	t.Run("enforces the password length policy", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		token := requestToken(t, f, seeded.ID)

		for _, password := range []string{"corta", strings.Repeat("x", auth.PasswordMaxLength+1)} {
			err := f.service.ConsumeReset(context.Background(), token, password)
			assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"), "password %q should be rejected", password)
		}

		// The token survives failed attempts.
		assert.NoError(t, f.service.ConsumeReset(context.Background(), token, "nueva123"))
	})
}
