// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces (e.g. the auth TokenCodec).
//
// # Dual-Secret Scheme
//
// Access and refresh tokens are signed with two independent HS256 secrets.
// Secret separation means a leaked access secret cannot be used to forge
// refresh tokens, and vice versa. Refresh tokens additionally carry a token
// class claim so an access token replayed against the refresh path is
// rejected even before any registry lookup.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/STCzao/Perdidos-y-adopciones-back/pkg/uuidv7"
)

// TokenClassRefresh is the class claim value carried by refresh tokens.
const TokenClassRefresh = "refresh"

// Default lifetimes of the dual-token scheme.
const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	// Short (30m) to minimize the impact of a leaked token.
	AccessTokenTTL = 30 * time.Minute

	// RefreshTokenTTL is the duration a refresh token remains valid.
	// Long-lived (30 days) to provide a good user experience; real
	// revocation happens through the session registry, not expiry.
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// ErrInvalidToken is the generic classification for every verification
// failure. Callers must not surface anything more specific to clients;
// the underlying cause stays reachable via [errors.Is] for logging and
// testing only.
var ErrInvalidToken = errors.New("sec: invalid token")

// AuthClaims represents the payload embedded inside a signed token.
//
// # Why custom claims?
//
// By embedding the UserID directly, [middleware.Authenticate] can
// reconstruct the active user context WITHOUT querying the database on
// every single API request.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID string `json:"uid"`
	// TokenClass is empty for access tokens and "refresh" for refresh tokens.
	TokenClass string `json:"cls,omitempty"`
}

// TokenService signs and verifies the two token classes using HS256 with
// independent secrets and independent expirations.
//
// Operations are pure: no storage access, no side effects.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenService creates a TokenService with the default lifetimes.
func NewTokenService(accessSecret, refreshSecret, issuer string) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     AccessTokenTTL,
		refreshTTL:    RefreshTokenTTL,
		issuer:        issuer,
		now:           time.Now,
	}
}

// WithClock replaces the wall-clock source. Tests use it to drive expiry.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	service.now = now
	return service
}

// AccessTTL returns the configured access-token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// # Issuance

// IssueAccessToken signs a short-lived access token for the given subject.
func (service *TokenService) IssueAccessToken(subjectID string) (string, error) {
	return service.sign(subjectID, "", service.accessTTL, service.accessSecret)
}

// IssueRefreshToken signs a long-lived refresh token for the given subject.
//
// The token carries the "refresh" class claim and is signed with the
// refresh secret. Cryptographic validity alone does not make it usable:
// it must also be a live entry in the account's session registry.
func (service *TokenService) IssueRefreshToken(subjectID string) (string, error) {
	return service.sign(subjectID, TokenClassRefresh, service.refreshTTL, service.refreshSecret)
}

func (service *TokenService) sign(subjectID, class string, ttl time.Duration, secret []byte) (string, error) {
	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// A unique jti per issuance. JWT timestamps have second
			// granularity, so without it two tokens minted for the same
			// subject in the same second would be byte-identical, and the
			// session registry keys sessions by the token string.
			ID:        uuidv7.New(),
			Subject:   subjectID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(ttl)),
		},
		UserID:     subjectID,
		TokenClass: class,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// # Verification

// VerifyAccessToken checks the signature and validity of an access token
// and returns its claims.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, service.accessSecret)
}

// VerifyRefreshToken checks the signature, validity, AND token class of a
// refresh token, returning the subject ID it was issued for.
//
// A cryptographically valid token whose class is not "refresh" is rejected:
// this prevents access tokens from being replayed as refresh tokens.
func (service *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	claims, err := service.verify(tokenString, service.refreshSecret)
	if err != nil {
		return "", err
	}

	if claims.TokenClass != TokenClassRefresh {
		return "", fmt.Errorf("%w: wrong token class", ErrInvalidToken)
	}

	return claims.UserID, nil
}

func (service *TokenService) verify(tokenString string, secret []byte) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(service.now),
	)

	if err != nil {
		// Collapse every parse failure into the generic classification while
		// keeping the library cause (e.g. jwt.ErrTokenExpired) in the chain.
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
