// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/sec"
)

// # Password Reset Lifecycle

/*
RequestReset starts a password reset for the account registered under the
given email.

A fresh random token is generated, stored on the account with a
[ResetTokenTTL] expiry, and emailed to the user as a recovery link.
Requesting again before the previous token expires overwrites it, so only
the most recent token is redeemable.

An unknown email returns [ErrUnknownEmail]. The reset form tells the user
the address is wrong instead of pretending a mail went out.
*/
func (service *Service) RequestReset(ctx context.Context, email string) error {
	account, err := service.store.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return ErrUnknownEmail
		}
		return apperr.Internal(err)
	}

	token, err := sec.GenerateSecureToken(ResetTokenByteLength)
	if err != nil {
		return apperr.Internal(err)
	}

	account.ResetToken = token
	account.ResetTokenExpiresAt = service.now().Add(ResetTokenTTL)
	if err := service.store.Save(ctx, account); err != nil {
		return apperr.Internal(err)
	}

	link := fmt.Sprintf("%s/reset-password/%s", service.frontendURL, token)
	body := fmt.Sprintf(resetEmailBody, account.Name, link, link)
	if err := service.mailer.Send(ctx, account.Email, resetEmailSubject, body); err != nil {
		// The token is already persisted. The caller sees a transient
		// failure and may retry, which issues a replacement token.
		return apperr.Internal(err)
	}

	service.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", account.ID),
	)
	return nil
}

/*
ConsumeReset redeems a reset token and installs a new password.

The new password must satisfy the length policy (between
[PasswordMinLength] and [PasswordMaxLength] characters). The token must
match an account and be unexpired; unknown, expired and already-consumed
tokens are indistinguishable to the caller.

On success the token is cleared (single use), the password hash is
replaced, and every session of the account is revoked so stolen refresh
tokens die with the old password. The whole redemption runs inside the
per-account critical section, so two racing redemptions of the same token
cannot both succeed.
*/
func (service *Service) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if length := len(newPassword); length < PasswordMinLength || length > PasswordMaxLength {
		return apperr.ValidationError(
			fmt.Sprintf("La contraseña debe tener entre %d y %d caracteres", PasswordMinLength, PasswordMaxLength),
			apperr.FieldError{Field: FieldPassword, Message: "invalid length"},
		)
	}

	account, err := service.store.FindByResetToken(ctx, token)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return ErrInvalidResetToken
		}
		return apperr.Internal(err)
	}

	err = service.store.WithAccountLock(ctx, account.ID, func(ctx context.Context) error {
		// Re-resolve inside the critical section: a concurrent redemption
		// that won the race has already cleared the token.
		current, err := service.store.FindByResetToken(ctx, token)
		if err != nil {
			if apperr.IsCode(err, "NOT_FOUND") {
				return ErrInvalidResetToken
			}
			return err
		}

		hash, err := sec.HashPassword(newPassword)
		if err != nil {
			return err
		}

		current.PasswordHash = hash
		current.ResetToken = ""
		current.ResetTokenExpiresAt = time.Time{}
		current.Sessions.Clear()
		return service.store.Save(ctx, current)
	})
	if err != nil {
		return classify(err)
	}

	service.logger.InfoContext(ctx, "password reset completed, all sessions revoked",
		slog.String("user_id", account.ID),
	)
	return nil
}

// Spanish-language recovery email, matching the frontend locale.
const (
	resetEmailSubject = "Recuperá tu contraseña"

	resetEmailBody = `<p>Hola %s,</p>
<p>Recibimos un pedido para restablecer tu contraseña. El enlace vence en una hora y puede usarse una sola vez.</p>
<p><a href="%s">Restablecer contraseña</a></p>
<p>Si el botón no funciona, copiá y pegá esta dirección en tu navegador:<br>%s</p>
<p>Si no pediste este cambio, ignorá este correo.</p>`
)
