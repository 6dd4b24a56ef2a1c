package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

// Snapshot is a persisted session.
type Snapshot struct {
	Credentials authsdk.CredentialPair
	Principal   authsdk.Principal
}

// principalEntry is what the principal key holds. The credential expiries
// ride along with the principal so the three-key layout stays unchanged.
type principalEntry struct {
	authsdk.Principal
	AccessExpiresAt  *time.Time `json:"accessExpiresAt,omitempty"`
	RefreshExpiresAt *time.Time `json:"refreshExpiresAt,omitempty"`
}

// SessionStore persists the session as three independent KV entries.
//
// No method returns an error. Substrate failures are logged and reported as
// false so the caller can keep running on its in-memory session.
type SessionStore struct {
	kv KV
}

func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// Save writes the access token, refresh token and principal. The writes are
// not atomic; if any fails the store may hold a partial session, which Load
// treats as no session at all.
func (s *SessionStore) Save(ctx context.Context, pair authsdk.CredentialPair, principal authsdk.Principal) bool {
	log := slogx.FromContext(ctx)

	raw, err := json.Marshal(principalEntry{
		Principal:        principal,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		log.Error("session store: encode principal", "err", err)
		return false
	}

	ok := true
	for _, kv := range [][2]string{
		{KeyAccessToken, pair.AccessToken},
		{KeyRefreshToken, pair.RefreshToken},
		{KeyPrincipal, string(raw)},
	} {
		if err := s.kv.Set(ctx, kv[0], kv[1]); err != nil {
			log.Warn("session store: write failed", "key", kv[0], "err", err)
			ok = false
		}
	}

	return ok
}

// Load returns the persisted session. All three entries must be present and
// the principal must decode; anything less yields false.
func (s *SessionStore) Load(ctx context.Context) (Snapshot, bool) {
	access, ok := s.get(ctx, KeyAccessToken)
	if !ok {
		return Snapshot{}, false
	}
	refresh, ok := s.get(ctx, KeyRefreshToken)
	if !ok {
		return Snapshot{}, false
	}
	rawPrincipal, ok := s.get(ctx, KeyPrincipal)
	if !ok {
		return Snapshot{}, false
	}

	var entry principalEntry
	if err := json.Unmarshal([]byte(rawPrincipal), &entry); err != nil || entry.ID == "" {
		slogx.FromContext(ctx).Warn("session store: discarding undecodable principal", "err", err)
		return Snapshot{}, false
	}

	return Snapshot{
		Credentials: authsdk.CredentialPair{
			AccessToken:      access,
			RefreshToken:     refresh,
			AccessExpiresAt:  entry.AccessExpiresAt,
			RefreshExpiresAt: entry.RefreshExpiresAt,
		},
		Principal: entry.Principal,
	}, true
}

// Clear deletes the session entries and nothing else. It is idempotent.
func (s *SessionStore) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, SessionKeys...); err != nil {
		slogx.FromContext(ctx).Warn("session store: clear failed", "err", err)
	}
}

// UpdatePrincipal overwrites only the principal entry. Credential expiries
// already stored with it are kept.
func (s *SessionStore) UpdatePrincipal(ctx context.Context, principal authsdk.Principal) bool {
	entry := principalEntry{Principal: principal}
	if prev, ok := s.get(ctx, KeyPrincipal); ok {
		var old principalEntry
		if json.Unmarshal([]byte(prev), &old) == nil {
			entry.AccessExpiresAt = old.AccessExpiresAt
			entry.RefreshExpiresAt = old.RefreshExpiresAt
		}
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		slogx.FromContext(ctx).Error("session store: encode principal", "err", err)
		return false
	}

	if err := s.kv.Set(ctx, KeyPrincipal, string(raw)); err != nil {
		slogx.FromContext(ctx).Warn("session store: write failed", "key", KeyPrincipal, "err", err)
		return false
	}
	return true
}

// Ping reports whether the substrate is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

func (s *SessionStore) get(ctx context.Context, key string) (string, bool) {
	v, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return "", false
	case err != nil:
		slogx.FromContext(ctx).Warn("session store: read failed", "key", key, "err", err)
		return "", false
	}
	return v, v != ""
}
