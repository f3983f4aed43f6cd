// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

package auth

import "time"

// # Session Registry

// MaxActiveSessions is the per-account cap on concurrently live sessions.
// Registering beyond the cap evicts the oldest session first.
const MaxActiveSessions = 5

// Session is one live refresh-token session on an account: the opaque
// refresh token plus the device metadata captured at issuance.
type Session struct {
	Token     string    `json:"-"` // Never serialized outward.
	Device    string    `json:"device"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry is the bounded collection of live sessions for one account,
// ordered oldest first. The zero value is an empty registry.
//
// Registry does no locking of its own: all mutation happens inside the
// per-account critical section the store provides, so concurrent refreshes
// of the same account are serialized before they touch the registry.
type Registry []Session

// Add registers a session. If the registry already holds MaxActiveSessions
// entries, the oldest entries are evicted until the new session fits.
//
// The evicted refresh tokens remain cryptographically valid until their
// natural expiry, but they are no longer registered and will trip reuse
// detection if presented.
func (registry *Registry) Add(session Session) {
	*registry = append(*registry, session)
	if overflow := len(*registry) - MaxActiveSessions; overflow > 0 {
		*registry = append(Registry(nil), (*registry)[overflow:]...)
	}
}

// Contains reports whether the given refresh token is currently registered.
func (registry Registry) Contains(token string) bool {
	for _, session := range registry {
		if session.Token == token {
			return true
		}
	}
	return false
}

// RemoveByToken unregisters the session holding the given refresh token and
// reports whether anything was removed. Removing an absent token is a no-op.
func (registry *Registry) RemoveByToken(token string) bool {
	for index, session := range *registry {
		if session.Token == token {
			*registry = append((*registry)[:index], (*registry)[index+1:]...)
			return true
		}
	}
	return false
}

// Clear unregisters every session.
func (registry *Registry) Clear() {
	*registry = nil
}

// Len returns the number of live sessions.
func (registry Registry) Len() int {
	return len(registry)
}
