package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/internal/console/store"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestSignIn(t *testing.T) {
	t.Parallel()

	t.Run("persists the new session", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.srv.AddAccount("admin@x.com", "p@ss", superAdmin())
		rec := &recorder{}
		h.manager.Subscribe(rec.observe)

		require.NoError(t, h.manager.SignIn(context.Background(), "admin@x.com", "p@ss"))

		require.True(t, h.manager.IsAuthenticated())
		require.True(t, h.manager.IsSuperAdmin())
		require.True(t, h.manager.IsActive())
		require.True(t, h.manager.CanApprove())
		require.Equal(t, session.Authenticated, h.manager.State())
		require.Equal(t, "A1", h.manager.AccessToken())
		require.Equal(t, 3, h.kv.Len())

		snap, ok := h.store.Load(context.Background())
		require.True(t, ok)
		require.Equal(t, "A1", snap.Credentials.AccessToken)
		require.Equal(t, "R1", snap.Credentials.RefreshToken)
		require.Equal(t, authsdk.RoleSuperAdmin, snap.Principal.Role)

		require.Equal(t, []session.EventKind{session.EventSignedIn}, rec.kinds())
	})

	t.Run("blank fields fail before any call", func(t *testing.T) {
		h := newHarness(t, session.Config{})

		err := h.manager.SignIn(context.Background(), "   ", "")
		require.ErrorIs(t, err, session.ErrValidation)

		var vErr *session.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Contains(t, vErr.Fields, "identifier")
		require.Contains(t, vErr.Fields, "secret")
		require.Zero(t, h.srv.LoginCalls.Load())
	})

	t.Run("failure leaves the current session alone", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.signIn(t, superAdmin())

		err := h.manager.SignIn(context.Background(), "admin@x.com", "wrong")
		require.ErrorIs(t, err, session.ErrAuthenticationFailed)

		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, authsdk.ErrorCodeInvalidCredentials, apiErr.Code)

		require.True(t, h.manager.IsAuthenticated())
		require.Equal(t, "A1", h.manager.AccessToken())
		require.Equal(t, 3, h.kv.Len())
	})

	t.Run("unreachable backend", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.srv.Close()

		err := h.manager.SignIn(context.Background(), "admin@x.com", "p@ss")
		require.ErrorIs(t, err, session.ErrAuthenticationFailed)

		var netErr *authsdk.NetworkError
		require.ErrorAs(t, err, &netErr)
		require.False(t, h.manager.IsAuthenticated())
	})
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("adopts a persisted session", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.persisted(t)
		rec := &recorder{}
		h.manager.Subscribe(rec.observe)

		require.True(t, h.manager.Restore(context.Background()))
		require.True(t, h.manager.Restore(context.Background()))

		p, ok := h.manager.Principal()
		require.True(t, ok)
		require.Equal(t, "1", p.ID)
		require.Equal(t, "A1", h.manager.AccessToken())
		require.Equal(t, []session.EventKind{session.EventRestored}, rec.kinds())
	})

	t.Run("empty store", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		require.False(t, h.manager.Restore(context.Background()))
		require.Equal(t, session.Anonymous, h.manager.State())
	})

	for _, missing := range store.SessionKeys {
		t.Run("missing "+missing, func(t *testing.T) {
			h := newHarness(t, session.Config{})
			h.persisted(t)
			require.NoError(t, h.kv.Delete(context.Background(), missing))

			require.False(t, h.manager.Restore(context.Background()))
			require.False(t, h.manager.IsAuthenticated())
		})
	}

	t.Run("sign-out during load wins", func(t *testing.T) {
		ctx := context.Background()
		h := newHarness(t, session.Config{})
		kv := newGatedKV()
		st := store.NewSessionStore(kv)
		require.True(t, st.Save(ctx, authsdk.CredentialPair{AccessToken: "A1", RefreshToken: "R1"}, superAdmin()))

		m := session.NewManager(authsdk.NewSDKClient(h.srv.URL), st, session.Config{})
		rec := &recorder{}
		m.Subscribe(rec.observe)

		restored := make(chan bool, 1)
		go func() { restored <- m.Restore(ctx) }()

		<-kv.reached
		m.SignOut(ctx)
		close(kv.release)

		require.False(t, <-restored)
		require.False(t, m.IsAuthenticated())
		require.Empty(t, m.AccessToken())
		require.Zero(t, kv.Len())
		require.Equal(t, []session.EventKind{session.EventSignedOut}, rec.kinds())
	})
}

func TestSignOut(t *testing.T) {
	t.Parallel()

	t.Run("revokes and clears", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.signIn(t, superAdmin())

		h.manager.SignOut(context.Background())

		require.Equal(t, int64(1), h.srv.LogoutCalls.Load())
		require.False(t, h.manager.IsAuthenticated())
		require.Empty(t, h.manager.AccessToken())
		require.Zero(t, h.kv.Len())

		require.ErrorIs(t, h.manager.RefreshIfExpiringSoon(context.Background()), session.ErrNoRefreshToken)
	})

	t.Run("clears even when revocation fails", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.srv.LogoutStatus = 500
		h.signIn(t, superAdmin())
		rec := &recorder{}
		h.manager.Subscribe(rec.observe)

		h.manager.SignOut(context.Background())

		require.Equal(t, int64(1), h.srv.LogoutCalls.Load())
		require.False(t, h.manager.IsAuthenticated())
		require.Zero(t, h.kv.Len())
		require.Equal(t, []session.EventKind{session.EventSignedOut}, rec.kinds())
	})

	t.Run("anonymous makes no call", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.manager.SignOut(context.Background())
		require.Zero(t, h.srv.LogoutCalls.Load())
	})
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("rotates the pair and keeps the principal", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.persisted(t)
		require.True(t, h.manager.Restore(context.Background()))
		rec := &recorder{}
		h.manager.Subscribe(rec.observe)

		require.NoError(t, h.manager.Refresh(context.Background()))

		require.Equal(t, "A2", h.manager.AccessToken())
		p, ok := h.manager.Principal()
		require.True(t, ok)
		require.Equal(t, "1", p.ID)

		snap, ok := h.store.Load(context.Background())
		require.True(t, ok)
		require.Equal(t, "A2", snap.Credentials.AccessToken)
		require.Equal(t, "R2", snap.Credentials.RefreshToken)
		require.Equal(t, []session.EventKind{session.EventRefreshed}, rec.kinds())
	})

	t.Run("rejection ends the session", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.persisted(t)
		require.True(t, h.manager.Restore(context.Background()))
		h.srv.Revoke("R1")
		rec := &recorder{}
		h.manager.Subscribe(rec.observe)

		err := h.manager.Refresh(context.Background())
		require.ErrorIs(t, err, session.ErrRefreshRejected)

		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.True(t, apiErr.IsUnauthorized())

		require.False(t, h.manager.IsAuthenticated())
		require.Zero(t, h.kv.Len())
		require.Zero(t, h.srv.LogoutCalls.Load())
		require.Equal(t, []session.EventKind{session.EventExpired}, rec.kinds())
	})

	t.Run("no refresh token", func(t *testing.T) {
		h := newHarness(t, session.Config{})

		require.ErrorIs(t, h.manager.Refresh(context.Background()), session.ErrNoRefreshToken)
		require.Zero(t, h.srv.RefreshCalls.Load())
	})

	t.Run("concurrent callers share one call", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.persisted(t)
		h.srv.RefreshDelay = 100 * time.Millisecond
		require.True(t, h.manager.Restore(context.Background()))

		const callers = 5
		errs := make([]error, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = h.manager.Refresh(context.Background())
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		require.Equal(t, int64(1), h.srv.RefreshCalls.Load())
		require.Equal(t, "A2", h.manager.AccessToken())
	})

	t.Run("timeout counts as failure", func(t *testing.T) {
		h := newHarness(t, session.Config{RefreshTimeout: 20 * time.Millisecond})
		h.persisted(t)
		h.srv.RefreshDelay = 200 * time.Millisecond
		require.True(t, h.manager.Restore(context.Background()))

		err := h.manager.Refresh(context.Background())
		require.ErrorIs(t, err, session.ErrRefreshRejected)
		require.False(t, h.manager.IsAuthenticated())
		require.Zero(t, h.kv.Len())
	})

	t.Run("cancelled waiter does not cancel the refresh", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.persisted(t)
		h.srv.RefreshDelay = 50 * time.Millisecond
		require.True(t, h.manager.Restore(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, h.manager.Refresh(ctx), context.Canceled)
		require.Eventually(t, func() bool {
			return h.manager.AccessToken() == "A2"
		}, 2*time.Second, 10*time.Millisecond)
		require.True(t, h.manager.IsAuthenticated())
	})

	t.Run("sign-in during refresh wins", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.persisted(t)
		h.srv.RefreshDelay = 150 * time.Millisecond
		require.True(t, h.manager.Restore(context.Background()))

		done := make(chan error, 1)
		go func() { done <- h.manager.Refresh(context.Background()) }()

		// Let the refresh get in flight, then replace the session under it.
		time.Sleep(30 * time.Millisecond)
		h.srv.SetNextSeq(10)
		require.NoError(t, h.manager.SignIn(context.Background(), "admin@x.com", "p@ss"))

		require.NoError(t, <-done)
		require.Equal(t, "A10", h.manager.AccessToken())

		snap, ok := h.store.Load(context.Background())
		require.True(t, ok)
		require.Equal(t, "A10", snap.Credentials.AccessToken)
	})
}

func TestRefreshIfExpiringSoon(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		require.ErrorIs(t, h.manager.RefreshIfExpiringSoon(context.Background()), session.ErrNoRefreshToken)
	})

	t.Run("fresh token is left alone", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.srv.JWTAccess = true
		h.srv.AccessTTL = time.Hour
		h.signIn(t, superAdmin())

		require.NoError(t, h.manager.RefreshIfExpiringSoon(context.Background()))
		require.Zero(t, h.srv.RefreshCalls.Load())

		exp, ok := h.manager.AccessExpiresAt()
		require.True(t, ok)
		require.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
	})

	t.Run("token inside threshold is refreshed", func(t *testing.T) {
		h := newHarness(t, session.Config{RefreshThreshold: 5 * time.Minute})
		h.srv.JWTAccess = true
		h.srv.AccessTTL = time.Minute
		h.signIn(t, superAdmin())
		before := h.manager.AccessToken()

		require.NoError(t, h.manager.RefreshIfExpiringSoon(context.Background()))
		require.Equal(t, int64(1), h.srv.RefreshCalls.Load())
		require.NotEqual(t, before, h.manager.AccessToken())
	})

	t.Run("opaque token counts as expiring", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.signIn(t, superAdmin())

		require.NoError(t, h.manager.RefreshIfExpiringSoon(context.Background()))
		require.Equal(t, int64(1), h.srv.RefreshCalls.Load())
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	h := newHarness(t, session.Config{})

	t.Run("valid application", func(t *testing.T) {
		resp, err := h.manager.Register(context.Background(), authsdk.RegisterRequest{
			Email:    "new@x.com",
			FullName: "New Admin",
			Secret:   "longenough1",
		})
		require.NoError(t, err)
		require.Equal(t, authsdk.StatusPending, resp.Status)
		require.False(t, h.manager.IsAuthenticated())
		require.Len(t, h.srv.Pending(), 1)
	})

	t.Run("invalid application", func(t *testing.T) {
		_, err := h.manager.Register(context.Background(), authsdk.RegisterRequest{Secret: "short"})
		require.ErrorIs(t, err, session.ErrValidation)

		var vErr *session.ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Contains(t, vErr.Fields, "identity")
		require.Contains(t, vErr.Fields, "secret")
		require.Len(t, h.srv.Pending(), 1)
	})
}

func TestReloadProfile(t *testing.T) {
	t.Parallel()

	t.Run("replaces the cached principal", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.signIn(t, superAdmin())
		rec := &recorder{}
		h.manager.Subscribe(rec.observe)

		renamed := superAdmin()
		renamed.FullName = "Renamed Admin"
		h.srv.AddAccount(renamed.Email, "p@ss", renamed)

		p, err := h.manager.ReloadProfile(context.Background())
		require.NoError(t, err)
		require.Equal(t, "Renamed Admin", p.FullName)

		cached, _ := h.manager.Principal()
		require.Equal(t, "Renamed Admin", cached.FullName)

		snap, ok := h.store.Load(context.Background())
		require.True(t, ok)
		require.Equal(t, "Renamed Admin", snap.Principal.FullName)
		require.Equal(t, []session.EventKind{session.EventPrincipalUpdated}, rec.kinds())
	})

	t.Run("anonymous", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		_, err := h.manager.ReloadProfile(context.Background())
		require.ErrorIs(t, err, session.ErrUnauthorized)
		require.Zero(t, h.srv.MeCalls.Load())
	})

	t.Run("status change revokes approval rights", func(t *testing.T) {
		h := newHarness(t, session.Config{})
		h.signIn(t, superAdmin())
		require.True(t, h.manager.CanApprove())

		suspended := superAdmin()
		suspended.Status = authsdk.StatusInactive
		h.srv.AddAccount(suspended.Email, "p@ss", suspended)

		_, err := h.manager.ReloadProfile(context.Background())
		require.NoError(t, err)
		require.False(t, h.manager.CanApprove())
		require.False(t, h.manager.IsActive())
	})
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	h := newHarness(t, session.Config{})
	rec := &recorder{}
	unsubscribe := h.manager.Subscribe(rec.observe)

	var reentrant bool
	h.manager.Subscribe(func(ev session.Event) {
		if ev.Kind == session.EventSignedIn {
			// Observers run outside the session lock.
			reentrant = h.manager.IsAuthenticated()
		}
	})

	h.signIn(t, superAdmin())
	unsubscribe()
	h.manager.SignOut(context.Background())

	require.Equal(t, []session.EventKind{session.EventSignedIn}, rec.kinds())
	require.True(t, reentrant)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, "1", rec.events[0].Principal.ID)
	require.False(t, rec.events[0].At.IsZero())
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	err := &session.ValidationError{Fields: map[string]string{"secret": "required", "identifier": "required"}}
	require.Equal(t, "session: validation failed: identifier required; secret required", err.Error())
	require.True(t, errors.Is(err, session.ErrValidation))
}
