// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/mail"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/sec"
)

// # Service Dependencies

// TokenCodec issues and verifies the two token classes. Satisfied by
// [sec.TokenService].
type TokenCodec interface {
	IssueAccessToken(subjectID string) (string, error)
	IssueRefreshToken(subjectID string) (string, error)
	VerifyAccessToken(tokenString string) (*sec.AuthClaims, error)
	VerifyRefreshToken(tokenString string) (string, error)
}

// Service orchestrates the session and credential lifecycle: login,
// refresh-token rotation, logout, revalidation and password reset.
//
// All session mutations for one account run inside the store's per-account
// critical section, so two concurrent refreshes of the same account are
// fully serialized and the loser of a same-token race observes the token
// already rotated away.
type Service struct {
	store       AccountStore
	codec       TokenCodec
	mailer      mail.Sender
	frontendURL string
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates the auth service with its production collaborators.
func NewService(store AccountStore, codec TokenCodec, mailer mail.Sender, frontendURL string, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		codec:       codec,
		mailer:      mailer,
		frontendURL: frontendURL,
		logger:      logger.With(slog.String("component", "auth_service")),
		now:         time.Now,
	}
}

// WithClock overrides the service's time source. Used by tests to pin
// token and reset expiry.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// # Inputs and Results

// Credentials carries a login attempt together with the device metadata
// recorded on the resulting session.
type Credentials struct {
	Email     string
	Password  string
	Device    string
	IPAddress string
}

// TokenPair is one issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is the outcome of a successful login: the authenticated
// account profile plus its fresh token pair.
type LoginResult struct {
	Account *Account
	Tokens  TokenPair
}

// RefreshInput carries a refresh attempt together with the device metadata
// recorded on the replacement session.
type RefreshInput struct {
	RefreshToken string
	Device       string
	IPAddress    string
}

// # Session Lifecycle

/*
Login authenticates an email/password pair and registers a new session.

Unknown email, wrong password and disabled account are deliberately
indistinguishable to the caller: all three return [ErrInvalidCredentials].
Password verification always runs the full hash comparison so response
timing does not reveal whether the email exists.

On success a fresh access/refresh pair is issued and the refresh token is
registered on the account. When the account already holds
[MaxActiveSessions] live sessions, the oldest is evicted.

Parameters:
  - ctx: Request context.
  - credentials: Email, password and the device metadata to record.

Returns:
  - *LoginResult: Account profile and the issued token pair.
  - error: [ErrInvalidCredentials] or a transient internal error.
*/
func (service *Service) Login(ctx context.Context, credentials Credentials) (*LoginResult, error) {
	account, err := service.store.FindByEmail(ctx, credentials.Email)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			// Burn a hash comparison so unknown emails cost the same as
			// wrong passwords.
			sec.CheckPasswordHash(credentials.Password, sec.DummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}

	if !sec.CheckPasswordHash(credentials.Password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !account.Active {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := service.codec.IssueAccessToken(account.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refreshToken, err := service.codec.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var result *LoginResult
	err = service.store.WithAccountLock(ctx, account.ID, func(ctx context.Context) error {
		// Reload inside the critical section so a concurrent login on
		// another device cannot be lost to a stale registry.
		current, err := service.store.FindByID(ctx, account.ID)
		if err != nil {
			return err
		}
		if !current.Active {
			return ErrInvalidCredentials
		}

		current.Sessions.Add(Session{
			Token:     refreshToken,
			Device:    credentials.Device,
			IPAddress: credentials.IPAddress,
			CreatedAt: service.now(),
		})
		if err := service.store.Save(ctx, current); err != nil {
			return err
		}

		result = &LoginResult{
			Account: current,
			Tokens:  TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	service.logger.InfoContext(ctx, "login succeeded",
		slog.String("user_id", account.ID),
		slog.Int("active_sessions", result.Account.Sessions.Len()),
	)
	return result, nil
}

/*
Refresh rotates a refresh token: the presented token is retired and a new
access/refresh pair is issued in its place.

A refresh token must pass two independent checks, in order:

 1. Cryptographic verification: signature, expiry and token class. Failure
    returns [ErrInvalidRefreshToken] with no state change.
 2. Registry membership: the token must still be registered on its account.
    A valid but unregistered token means it was already rotated, evicted or
    revoked — presented again it is treated as stolen, every session of the
    account is revoked, and [ErrReuseDetected] is returned.

If the account was disabled after issuance, its sessions are cleared and
[ErrAccountDisabled] is returned.

The whole check-and-rotate runs inside the per-account critical section, so
two racing presentations of the same token serialize: the winner rotates,
the loser finds the token unregistered and trips reuse detection.
*/
func (service *Service) Refresh(ctx context.Context, input RefreshInput) (TokenPair, error) {
	subjectID, err := service.codec.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	var pair TokenPair
	err = service.store.WithAccountLock(ctx, subjectID, func(ctx context.Context) error {
		account, err := service.store.FindByID(ctx, subjectID)
		if err != nil {
			if apperr.IsCode(err, "NOT_FOUND") {
				return ErrInvalidRefreshToken
			}
			return err
		}

		if !account.Active {
			if account.Sessions.Len() > 0 {
				account.Sessions.Clear()
				if err := service.store.Save(ctx, account); err != nil {
					return err
				}
			}
			service.logger.WarnContext(ctx, "refresh attempt on disabled account",
				slog.String("user_id", account.ID),
			)
			return ErrAccountDisabled
		}

		if !account.Sessions.Contains(input.RefreshToken) {
			account.Sessions.Clear()
			if err := service.store.Save(ctx, account); err != nil {
				return err
			}
			service.logger.WarnContext(ctx, "refresh token reuse detected, all sessions revoked",
				slog.String("user_id", account.ID),
				slog.String("ip_address", input.IPAddress),
			)
			return ErrReuseDetected
		}

		accessToken, err := service.codec.IssueAccessToken(account.ID)
		if err != nil {
			return err
		}
		refreshToken, err := service.codec.IssueRefreshToken(account.ID)
		if err != nil {
			return err
		}

		account.Sessions.RemoveByToken(input.RefreshToken)
		account.Sessions.Add(Session{
			Token:     refreshToken,
			Device:    input.Device,
			IPAddress: input.IPAddress,
			CreatedAt: service.now(),
		})
		if err := service.store.Save(ctx, account); err != nil {
			// Rotation is a single save: if it fails, the presented token
			// stays registered and remains usable.
			return err
		}

		pair = TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}
		return nil
	})
	if err != nil {
		return TokenPair{}, classify(err)
	}
	return pair, nil
}

/*
Logout unregisters the session holding the given refresh token.

Logout is idempotent: an absent token (already rotated, evicted or revoked)
succeeds without touching any other session. The access token the caller
authenticated with stays cryptographically valid until expiry; only the
refresh session dies.
*/
func (service *Service) Logout(ctx context.Context, accountID, refreshToken string) error {
	err := service.store.WithAccountLock(ctx, accountID, func(ctx context.Context) error {
		account, err := service.store.FindByID(ctx, accountID)
		if err != nil {
			if apperr.IsCode(err, "NOT_FOUND") {
				return nil
			}
			return err
		}
		if !account.Sessions.RemoveByToken(refreshToken) {
			return nil
		}
		return service.store.Save(ctx, account)
	})
	return classify(err)
}

// LogoutAll revokes every session of the account at once. Used by the
// "close all devices" action.
func (service *Service) LogoutAll(ctx context.Context, accountID string) error {
	err := service.store.WithAccountLock(ctx, accountID, func(ctx context.Context) error {
		account, err := service.store.FindByID(ctx, accountID)
		if err != nil {
			if apperr.IsCode(err, "NOT_FOUND") {
				return nil
			}
			return err
		}
		if account.Sessions.Len() == 0 {
			return nil
		}
		account.Sessions.Clear()
		return service.store.Save(ctx, account)
	})
	if err == nil {
		service.logger.InfoContext(ctx, "all sessions revoked", slog.String("user_id", accountID))
	}
	return classify(err)
}

/*
Revalidate verifies an access token and resolves its account.

It is a pure check: the session registry is never consulted and no state is
mutated. A fresh access token therefore keeps working for its remaining
lifetime even after its refresh session was revoked.

Returns the account on success, [ErrInvalidAccessToken] when the token
fails verification or its subject no longer exists or is disabled.
*/
func (service *Service) Revalidate(ctx context.Context, accessToken string) (*Account, error) {
	claims, err := service.codec.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}

	account, err := service.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil, ErrInvalidAccessToken
		}
		return nil, apperr.Internal(err)
	}
	if !account.Active {
		return nil, ErrInvalidAccessToken
	}
	return account, nil
}

// classify wraps unexpected errors as transient internal errors while
// letting already-classified AppErrors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsAppError(err) {
		return err
	}
	return apperr.Internal(err)
}
