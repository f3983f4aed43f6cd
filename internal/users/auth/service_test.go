// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/apperr"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/platform/sec"
	"github.com/STCzao/Perdidos-y-adopciones-back/internal/users/auth"
)

// # Test Doubles

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.current
}

func (clock *fakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.current = clock.current.Add(d)
}

// fakeStore keeps account aggregates in memory. It hands out copies so the
// service's in-flight mutations only become visible through Save, the same
// way rows behave.
type fakeStore struct {
	mu       sync.Mutex
	lockMu   sync.Mutex
	accounts map[string]*auth.Account
	saveErr  error
	now      func() time.Time
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{accounts: make(map[string]*auth.Account), now: now}
}

func cloneAccount(account *auth.Account) *auth.Account {
	copied := *account
	copied.Sessions = append(auth.Registry(nil), account.Sessions...)
	return &copied
}

func (store *fakeStore) put(account *auth.Account) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.accounts[account.ID] = cloneAccount(account)
}

func (store *fakeStore) get(id string) *auth.Account {
	store.mu.Lock()
	defer store.mu.Unlock()
	if account, ok := store.accounts[id]; ok {
		return cloneAccount(account)
	}
	return nil
}

func (store *fakeStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, account := range store.accounts {
		if account.Email == email {
			return cloneAccount(account), nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *fakeStore) FindByID(_ context.Context, id string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if account, ok := store.accounts[id]; ok {
		return cloneAccount(account), nil
	}
	return nil, apperr.NotFound("Account")
}

func (store *fakeStore) FindByResetToken(_ context.Context, token string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, account := range store.accounts {
		if account.ResetToken == token && account.ResetTokenExpiresAt.After(store.now()) {
			return cloneAccount(account), nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *fakeStore) Save(_ context.Context, account *auth.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.saveErr != nil {
		return store.saveErr
	}
	if _, ok := store.accounts[account.ID]; !ok {
		return apperr.NotFound("Account")
	}
	store.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (store *fakeStore) WithAccountLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	store.lockMu.Lock()
	defer store.lockMu.Unlock()
	return fn(ctx)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (mailer *fakeMailer) Send(_ context.Context, toAddress, subject, htmlBody string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if mailer.sendErr != nil {
		return mailer.sendErr
	}
	mailer.sent = append(mailer.sent, sentMail{To: toAddress, Subject: subject, Body: htmlBody})
	return nil
}

// # Fixture

type fixture struct {
	clock   *fakeClock
	store   *fakeStore
	mailer  *fakeMailer
	tokens  *sec.TokenService
	service *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newFakeClock()
	store := newFakeStore(clock.Now)
	mailer := &fakeMailer{}
	tokens := sec.NewTokenService("access-secret", "refresh-secret", "test").WithClock(clock.Now)

	logger := slog.New(slog.DiscardHandler)
	service := auth.NewService(store, tokens, mailer, "https://app.example.test", logger).WithClock(clock.Now)

	return &fixture{clock: clock, store: store, mailer: mailer, tokens: tokens, service: service}
}

var accountSeq int

func (f *fixture) seedAccount(t *testing.T, email, password string, active bool) *auth.Account {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	accountSeq++
	account := &auth.Account{
		ID:           fmt.Sprintf("0198f1c2-0000-7000-8000-%012d", accountSeq),
		Name:         "Agustina",
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleUser,
		Active:       active,
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	f.store.put(account)
	return account
}

func (f *fixture) login(t *testing.T, email, password string) *auth.LoginResult {
	t.Helper()
	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:     email,
		Password:  password,
		Device:    "Firefox on Linux",
		IPAddress: "203.0.113.7",
	})
	require.NoError(t, err)
	return result
}

// # Login

func TestLogin(t *testing.T) {
	t.Run("issues a token pair and registers the session", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

		result := f.login(t, "ana@example.test", "secret1")

		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
		assert.NotEqual(t, result.Tokens.AccessToken, result.Tokens.RefreshToken)

		stored := f.store.get(seeded.ID)
		require.Equal(t, 1, stored.Sessions.Len())
		assert.True(t, stored.Sessions.Contains(result.Tokens.RefreshToken))
		assert.Equal(t, "Firefox on Linux", stored.Sessions[0].Device)
		assert.Equal(t, "203.0.113.7", stored.Sessions[0].IPAddress)

		claims, err := f.tokens.VerifyAccessToken(result.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, claims.UserID)
	})

	t.Run("rejects unknown email, wrong password and disabled account alike", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "ana@example.test", "secret1", true)
		f.seedAccount(t, "off@example.test", "secret1", false)

		cases := []struct {
			name     string
			email    string
			password string
		}{
			{"unknown email", "nadie@example.test", "secret1"},
			{"wrong password", "ana@example.test", "wrong12"},
			{"disabled account", "off@example.test", "secret1"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.service.Login(context.Background(), auth.Credentials{
					Email:    tc.email,
					Password: tc.password,
				})
				assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
			})
		}
	})

	t.Run("sixth login evicts the oldest session", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

		results := make([]*auth.LoginResult, 0, auth.MaxActiveSessions+1)
		for i := 0; i <= auth.MaxActiveSessions; i++ {
			f.clock.Advance(time.Second)
			results = append(results, f.login(t, "ana@example.test", "secret1"))
		}

		stored := f.store.get(seeded.ID)
		assert.Equal(t, auth.MaxActiveSessions, stored.Sessions.Len())
		assert.False(t, stored.Sessions.Contains(results[0].Tokens.RefreshToken))
		for _, result := range results[1:] {
			assert.True(t, stored.Sessions.Contains(result.Tokens.RefreshToken))
		}
	})
}

// # Refresh

func TestRefresh(t *testing.T) {
	t.Run("rotates the presented token", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		login := f.login(t, "ana@example.test", "secret1")

		f.clock.Advance(time.Minute)
		pair, err := f.service.Refresh(context.Background(), auth.RefreshInput{
			RefreshToken: login.Tokens.RefreshToken,
			Device:       "Firefox on Linux",
			IPAddress:    "203.0.113.7",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEqual(t, login.Tokens.RefreshToken, pair.RefreshToken)

		stored := f.store.get(seeded.ID)
		assert.Equal(t, 1, stored.Sessions.Len(), "rotation must not grow the registry")
		assert.False(t, stored.Sessions.Contains(login.Tokens.RefreshToken))
		assert.True(t, stored.Sessions.Contains(pair.RefreshToken))
	})

	t.Run("rejects malformed, expired and wrongly classed tokens", func(t *testing.T) {
		f := newFixture(t)
		f.seedAccount(t, "ana@example.test", "secret1", true)
		login := f.login(t, "ana@example.test", "secret1")

		t.Run("garbage", func(t *testing.T) {
			_, err := f.service.Refresh(context.Background(), auth.RefreshInput{RefreshToken: "not-a-jwt"})
			assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
		})

		t.Run("access token on the refresh path", func(t *testing.T) {
			_, err := f.service.Refresh(context.Background(), auth.RefreshInput{RefreshToken: login.Tokens.AccessToken})
			assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
		})

		t.Run("expired", func(t *testing.T) {
			f.clock.Advance(sec.RefreshTokenTTL + time.Minute)
			_, err := f.service.Refresh(context.Background(), auth.RefreshInput{RefreshToken: login.Tokens.RefreshToken})
			assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
		})
	})

	t.Run("reuse of a rotated token revokes every session", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

		first := f.login(t, "ana@example.test", "secret1")
		f.clock.Advance(time.Second)
		second := f.login(t, "ana@example.test", "secret1")

		f.clock.Advance(time.Minute)
		_, err := f.service.Refresh(context.Background(), auth.RefreshInput{RefreshToken: first.Tokens.RefreshToken})
		require.NoError(t, err)

		// The rotated-away token is cryptographically valid but no longer
		// registered: presenting it again must nuke everything, including
		// the untouched second session.
		_, err = f.service.Refresh(context.Background(), auth.RefreshInput{RefreshToken: first.Tokens.RefreshToken})
		assert.ErrorIs(t, err, auth.ErrReuseDetected)

		stored := f.store.get(seeded.ID)
		assert.Equal(t, 0, stored.Sessions.Len())
		assert.False(t, stored.Sessions.Contains(second.Tokens.RefreshToken))
	})

	t.Run("concurrent refreshes of one token produce a single winner", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		login := f.login(t, "ana@example.test", "secret1")

		// The clock stays pinned: both racers run inside the same second,
		// so rotation must not depend on issuance timestamps to tell the
		// replacement token apart from the presented one.
		outcomes := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.service.Refresh(context.Background(), auth.RefreshInput{
					RefreshToken: login.Tokens.RefreshToken,
				})
				outcomes <- err
			}()
		}
		wg.Wait()
		close(outcomes)

		var wins, reuses int
		for err := range outcomes {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, auth.ErrReuseDetected):
				reuses++
			default:
				t.Fatalf("unexpected refresh outcome: %v", err)
			}
		}
		assert.Equal(t, 1, wins, "exactly one racer may rotate")
		assert.Equal(t, 1, reuses, "the loser must observe the token as already spent")

		// The loser's revocation sweep runs after the winner rotated, so it
		// takes the winner's fresh session with it.
		assert.Equal(t, 0, f.store.get(seeded.ID).Sessions.Len())
	})

	t.Run("disabled account clears its sessions", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		login := f.login(t, "ana@example.test", "secret1")

		disabled := f.store.get(seeded.ID)
		disabled.Active = false
		f.store.put(disabled)

		_, err := f.service.Refresh(context.Background(), auth.RefreshInput{RefreshToken: login.Tokens.RefreshToken})
		assert.ErrorIs(t, err, auth.ErrAccountDisabled)

		stored := f.store.get(seeded.ID)
		assert.Equal(t, 0, stored.Sessions.Len())
	})
}

// # Logout

func TestLogout(t *testing.T) {
	t.Run("removes only the presented session", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

		first := f.login(t, "ana@example.test", "secret1")
		f.clock.Advance(time.Second)
		second := f.login(t, "ana@example.test", "secret1")

		err := f.service.Logout(context.Background(), seeded.ID, first.Tokens.RefreshToken)
		require.NoError(t, err)

		stored := f.store.get(seeded.ID)
		assert.Equal(t, 1, stored.Sessions.Len())
		assert.True(t, stored.Sessions.Contains(second.Tokens.RefreshToken))
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		login := f.login(t, "ana@example.test", "secret1")

		require.NoError(t, f.service.Logout(context.Background(), seeded.ID, login.Tokens.RefreshToken))
		assert.NoError(t, f.service.Logout(context.Background(), seeded.ID, login.Tokens.RefreshToken))
		assert.NoError(t, f.service.Logout(context.Background(), seeded.ID, "never-registered"))
	})
}

func TestLogoutAll(t *testing.T) {
	f := newFixture(t)
	seeded := f.seedAccount(t, "ana@example.test", "secret1", true)

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Second)
		f.login(t, "ana@example.test", "secret1")
	}
	require.Equal(t, 3, f.store.get(seeded.ID).Sessions.Len())

	require.NoError(t, f.service.LogoutAll(context.Background(), seeded.ID))
	assert.Equal(t, 0, f.store.get(seeded.ID).Sessions.Len())
}

// # Revalidate

func TestRevalidate(t *testing.T) {
	t.Run("resolves the account without touching sessions", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		login := f.login(t, "ana@example.test", "secret1")

		account, err := f.service.Revalidate(context.Background(), login.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, account.ID)
		assert.Equal(t, "ana@example.test", account.Email)

		assert.Equal(t, 1, f.store.get(seeded.ID).Sessions.Len())
	})

	t.Run("keeps working after the refresh session was revoked", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		login := f.login(t, "ana@example.test", "secret1")

		require.NoError(t, f.service.LogoutAll(context.Background(), seeded.ID))

		// Access tokens are pure bearer credentials for their lifetime.
		_, err := f.service.Revalidate(context.Background(), login.Tokens.AccessToken)
		assert.NoError(t, err)
	})

	t.Run("rejects expired tokens and disabled accounts", func(t *testing.T) {
		f := newFixture(t)
		seeded := f.seedAccount(t, "ana@example.test", "secret1", true)
		login := f.login(t, "ana@example.test", "secret1")

		t.Run("disabled", func(t *testing.T) {
			disabled := f.store.get(seeded.ID)
			disabled.Active = false
			f.store.put(disabled)

			_, err := f.service.Revalidate(context.Background(), login.Tokens.AccessToken)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)

			disabled.Active = true
			f.store.put(disabled)
		})

		t.Run("expired", func(t *testing.T) {
			f.clock.Advance(sec.AccessTokenTTL + time.Minute)
			_, err := f.service.Revalidate(context.Background(), login.Tokens.AccessToken)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	})
}
