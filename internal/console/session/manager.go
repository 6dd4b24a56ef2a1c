package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/bartab-console/internal/console/store"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/cryptox"
	"github.com/aussiebroadwan/bartab-console/pkg/jwtx"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRefreshTimeout = 15 * time.Second

	refreshKey = "refresh"
)

// State is the externally visible session state. Refreshing is not a state of
// its own: a session being refreshed is still Authenticated until the refresh
// fails.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Backend is the credential-issuing side of the backend. Calls made through
// it carry no session credentials.
type Backend interface {
	Login(ctx context.Context, identifier, secret string) (*authsdk.LoginResponse, error)
	Register(ctx context.Context, req authsdk.RegisterRequest) (*authsdk.RegisterResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*authsdk.CredentialPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AdminAPI is the authenticated side of the backend. It is expected to send
// requests through the transport pipeline so they carry the session's access
// token and recover from expiry.
type AdminAPI interface {
	CurrentPrincipal(ctx context.Context) (*authsdk.Principal, error)
	PendingApprovals(ctx context.Context) ([]authsdk.PendingApprovalEntry, error)
	Decide(ctx context.Context, id string, decision authsdk.Decision, reason string) (*authsdk.DecisionRecord, error)
}

// Config tunes a Manager. Zero values select the defaults.
type Config struct {
	// RefreshThreshold is how close to expiry an access token may get before
	// RefreshIfExpiringSoon renews it.
	RefreshThreshold time.Duration

	// RefreshTimeout bounds a single refresh call. Hitting it counts as a
	// failed refresh.
	RefreshTimeout time.Duration

	// Now is the clock used for expiry checks.
	Now func() time.Time
}

// Manager owns the console's single admin session: the principal, the
// credential pair and the pending approvals list. It is safe for concurrent
// use.
type Manager struct {
	// Admin is set once the transport pipeline has been built on top of this
	// Manager. Operations that need it fail until it is.
	Admin AdminAPI

	backend Backend
	store   *store.SessionStore
	codec   jwtx.Codec

	refreshThreshold time.Duration
	refreshTimeout   time.Duration

	mu        sync.RWMutex
	state     State
	principal authsdk.Principal
	creds     authsdk.CredentialPair
	pending   []authsdk.PendingApprovalEntry
	epoch     uint64 // bumped whenever the session is replaced or removed

	refreshes singleflight.Group

	obsMu        sync.Mutex
	observers    []observer
	nextObserver uint64
}

func NewManager(backend Backend, st *store.SessionStore, cfg Config) *Manager {
	if cfg.RefreshThreshold <= 0 {
		cfg.RefreshThreshold = jwtx.DefaultRefreshThreshold
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}

	return &Manager{
		backend:          backend,
		store:            st,
		codec:            jwtx.Codec{Now: cfg.Now},
		refreshThreshold: cfg.RefreshThreshold,
		refreshTimeout:   cfg.RefreshTimeout,
	}
}

func (m *Manager) now() time.Time {
	if m.codec.Now != nil {
		return m.codec.Now()
	}
	return time.Now()
}

// ============================================================================
// Lifecycle
// ============================================================================

// Restore adopts the persisted session if there is one. It does nothing when
// already authenticated and reports whether the Manager is authenticated
// afterwards.
func (m *Manager) Restore(ctx context.Context) bool {
	m.mu.RLock()
	state, epoch := m.state, m.epoch
	m.mu.RUnlock()
	if state == Authenticated {
		return true
	}

	snap, ok := m.store.Load(ctx)
	if !ok {
		return false
	}

	m.mu.Lock()
	if m.state == Authenticated || m.epoch != epoch {
		// Signed in or out while the store was being read.
		authenticated := m.state == Authenticated
		m.mu.Unlock()
		return authenticated
	}
	m.setLocked(snap.Principal, snap.Credentials)
	m.mu.Unlock()

	slogx.FromContext(ctx).Info("session restored",
		"principal_id", snap.Principal.ID,
		"refresh_fp", cryptox.LogFingerprint(snap.Credentials.RefreshToken),
	)
	m.emit(EventRestored, snap.Principal)
	return true
}

// SignIn exchanges identifier and secret for a new session. On failure the
// current session, if any, is left untouched.
func (m *Manager) SignIn(ctx context.Context, identifier, secret string) error {
	l := slogx.FromContext(ctx)

	identifier = strings.TrimSpace(identifier)
	fields := map[string]string{}
	if identifier == "" {
		fields["identifier"] = "required"
	}
	if secret == "" {
		fields["secret"] = "required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	resp, err := m.backend.Login(ctx, identifier, secret)
	if err != nil {
		l.Info("sign-in failed", "err", err)
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	if !resp.Tokens.Valid() || resp.Principal.ID == "" {
		return fmt.Errorf("%w: backend returned an incomplete session", ErrAuthenticationFailed)
	}

	m.mu.Lock()
	m.setLocked(resp.Principal, resp.Tokens)
	m.pending = nil
	if !m.store.Save(ctx, resp.Tokens, resp.Principal) {
		l.Warn("session not persisted, continuing in memory")
	}
	m.mu.Unlock()

	l.Info("signed in",
		"principal_id", resp.Principal.ID,
		"role", resp.Principal.Role,
		"status", resp.Principal.Status,
	)
	m.emit(EventSignedIn, resp.Principal)
	return nil
}

// SignOut revokes the refresh token on a best-effort basis and then always
// clears the session from memory and the store.
func (m *Manager) SignOut(ctx context.Context) {
	l := slogx.FromContext(ctx)

	m.mu.RLock()
	refreshToken := m.creds.RefreshToken
	m.mu.RUnlock()

	if refreshToken != "" {
		revokeCtx, cancel := context.WithTimeout(ctx, m.refreshTimeout)
		if err := m.backend.Logout(revokeCtx, refreshToken); err != nil {
			l.Warn("refresh token revocation failed, clearing session anyway", "err", err)
		}
		cancel()
	}

	m.mu.Lock()
	m.clearLocked(ctx)
	m.mu.Unlock()

	l.Info("signed out")
	m.emit(EventSignedOut, authsdk.Principal{})
}

// Refresh replaces the credential pair using the refresh token. Concurrent
// callers share one backend call and all see its outcome. Any failure ends
// the session: memory and store are cleared and EventExpired is emitted.
//
// The refresh itself does not stop when ctx is cancelled, since other callers
// may be waiting on it; only this caller's wait is abandoned.
func (m *Manager) Refresh(ctx context.Context) error {
	ch := m.refreshes.DoChan(refreshKey, func() (any, error) {
		return nil, m.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) refresh(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	m.mu.RLock()
	refreshToken := m.creds.RefreshToken
	epoch := m.epoch
	m.mu.RUnlock()

	if refreshToken == "" {
		m.expire(ctx, epoch)
		return ErrNoRefreshToken
	}

	callCtx, cancel := context.WithTimeout(ctx, m.refreshTimeout)
	defer cancel()

	pair, err := m.backend.Refresh(callCtx, refreshToken)
	if err == nil && !pair.Valid() {
		err = errors.New("backend returned an incomplete credential pair")
	}
	if err != nil {
		l.Warn("refresh failed, ending session",
			"refresh_fp", cryptox.LogFingerprint(refreshToken),
			"err", err,
		)
		m.expire(ctx, epoch)
		return fmt.Errorf("%w: %w", ErrRefreshRejected, err)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		// Signed out or signed in again while the refresh was in flight.
		state := m.state
		m.mu.Unlock()
		if state == Authenticated {
			return nil
		}
		return ErrNoRefreshToken
	}
	m.creds = *pair
	principal := m.principal
	if !m.store.Save(ctx, m.creds, principal) {
		l.Warn("refreshed session not persisted, continuing in memory")
	}
	m.mu.Unlock()

	l.Debug("session refreshed", "refresh_fp", cryptox.LogFingerprint(pair.RefreshToken))
	m.emit(EventRefreshed, principal)
	return nil
}

// expire clears the session unless it has been replaced since epoch.
func (m *Manager) expire(ctx context.Context, epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	wasAuthenticated := m.state == Authenticated
	m.clearLocked(ctx)
	m.mu.Unlock()

	if wasAuthenticated {
		m.emit(EventExpired, authsdk.Principal{})
	}
}

// RefreshIfExpiringSoon refreshes when the access token is within the
// refresh threshold of expiry, or its expiry cannot be read.
func (m *Manager) RefreshIfExpiringSoon(ctx context.Context) error {
	m.mu.RLock()
	state, access := m.state, m.creds.AccessToken
	m.mu.RUnlock()

	if state != Authenticated {
		return ErrNoRefreshToken
	}
	if !m.codec.IsExpiringSoon(access, m.refreshThreshold) {
		return nil
	}
	return m.Refresh(ctx)
}

// setLocked installs a new session. Callers hold m.mu.
func (m *Manager) setLocked(p authsdk.Principal, pair authsdk.CredentialPair) {
	m.state = Authenticated
	m.principal = p
	m.creds = pair
	m.epoch++
}

// clearLocked drops the session from memory and the store. Callers hold m.mu.
func (m *Manager) clearLocked(ctx context.Context) {
	m.state = Anonymous
	m.principal = authsdk.Principal{}
	m.creds = authsdk.CredentialPair{}
	m.pending = nil
	m.epoch++
	m.store.Clear(ctx)
}

// ============================================================================
// Registration and profile
// ============================================================================

// Register applies for a new administrator account. It does not touch the
// current session.
func (m *Manager) Register(ctx context.Context, req authsdk.RegisterRequest) (*authsdk.RegisterResponse, error) {
	if errs := req.Validate(); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	resp, err := m.backend.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return resp, nil
}

// ReloadProfile fetches the current principal from the backend and replaces
// the cached copy, e.g. after a super admin changed this account's status.
func (m *Manager) ReloadProfile(ctx context.Context) (authsdk.Principal, error) {
	if !m.IsAuthenticated() {
		return authsdk.Principal{}, ErrUnauthorized
	}
	if m.Admin == nil {
		return authsdk.Principal{}, errNoAdminAPI
	}

	p, err := m.Admin.CurrentPrincipal(ctx)
	if err != nil {
		return authsdk.Principal{}, fmt.Errorf("reload profile: %w", err)
	}

	m.mu.Lock()
	if m.state != Authenticated || m.principal.ID != p.ID {
		m.mu.Unlock()
		return authsdk.Principal{}, ErrUnauthorized
	}
	m.principal = *p
	if !m.store.UpdatePrincipal(ctx, *p) {
		slogx.FromContext(ctx).Warn("principal not persisted, continuing in memory")
	}
	m.mu.Unlock()

	m.emit(EventPrincipalUpdated, *p)
	return *p, nil
}

// ============================================================================
// Predicates and accessors
// ============================================================================

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == Authenticated
}

func (m *Manager) IsSuperAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == Authenticated && m.principal.Role == authsdk.RoleSuperAdmin
}

func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == Authenticated && m.principal.Status == authsdk.StatusActive
}

// CanApprove reports whether the principal may act on pending applications:
// an active super admin.
func (m *Manager) CanApprove() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == Authenticated &&
		m.principal.Role == authsdk.RoleSuperAdmin &&
		m.principal.Status == authsdk.StatusActive
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Principal returns the signed-in principal, if any.
func (m *Manager) Principal() (authsdk.Principal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.principal, m.state == Authenticated
}

// AccessToken returns the current access token, or "" when anonymous.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken
}

// AccessExpiresAt reads the exp claim of the current access token.
func (m *Manager) AccessExpiresAt() (time.Time, bool) {
	return m.codec.ExpirationTime(m.AccessToken())
}

// Pending returns a copy of the last fetched pending approvals list.
func (m *Manager) Pending() []authsdk.PendingApprovalEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]authsdk.PendingApprovalEntry(nil), m.pending...)
}
