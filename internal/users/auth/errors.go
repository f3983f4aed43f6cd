// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth

import (
	"net/http"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
)

// # Auth Error Taxonomy
//
// Every non-transient failure of the session core maps to one of these
// sentinel application errors. Login failures deliberately collapse unknown
// email, wrong password and disabled account into the same outward message
// so callers cannot probe which accounts exist or are active.

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// disabled account on the login path.
	ErrInvalidCredentials = apperr.New(
		"INVALID_CREDENTIALS",
		"Usuario o contraseña incorrectos",
		http.StatusBadRequest,
	)

	// ErrAccountDisabled is returned on the refresh path when the account
	// was disabled after the token was issued. All its sessions are cleared
	// before this is returned.
	ErrAccountDisabled = apperr.New(
		"ACCOUNT_DISABLED",
		"Usuario deshabilitado",
		http.StatusUnauthorized,
	)

	// ErrInvalidRefreshToken covers cryptographically invalid, expired or
	// wrongly-classed refresh tokens.
	ErrInvalidRefreshToken = apperr.New(
		"INVALID_REFRESH_TOKEN",
		"Refresh token inválido o expirado",
		http.StatusUnauthorized,
	)

	// ErrReuseDetected is returned when a valid refresh token is presented
	// that is no longer registered on its account. Every session of the
	// account is revoked before this is returned.
	ErrReuseDetected = apperr.New(
		"REUSE_DETECTED",
		"Refresh token inválido. Por seguridad se cerraron las sesiones en todos los dispositivos",
		http.StatusUnauthorized,
	)

	// ErrUnknownEmail is returned by the reset-request flow when no account
	// matches the email. Revealing this is a deliberate product decision:
	// the reset form tells the user they typed the wrong address.
	ErrUnknownEmail = apperr.New(
		"UNKNOWN_EMAIL",
		"No existe una cuenta con ese email",
		http.StatusBadRequest,
	)

	// ErrInvalidResetToken covers unknown, expired and already-consumed
	// reset tokens, indistinguishably.
	ErrInvalidResetToken = apperr.New(
		"INVALID_RESET_TOKEN",
		"Token inválido o expirado",
		http.StatusBadRequest,
	)

	// ErrInvalidAccessToken is returned by revalidation when the presented
	// access token fails verification or its subject cannot authenticate.
	ErrInvalidAccessToken = apperr.New(
		"INVALID_ACCESS_TOKEN",
		"Token inválido",
		http.StatusUnauthorized,
	)
)
