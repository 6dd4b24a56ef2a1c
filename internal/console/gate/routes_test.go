package gate_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/bartab-console/internal/console/gate"
	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/internal/console/store"
	"github.com/aussiebroadwan/bartab-console/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk/authsdktest"
	"github.com/stretchr/testify/require"
)

func TestRoutes(t *testing.T) {
	t.Parallel()

	anon := &fakeSession{}
	admin := signedIn(authsdk.RoleAdmin, authsdk.StatusActive)
	root := signedIn(authsdk.RoleSuperAdmin, authsdk.StatusActive)
	pending := signedIn(authsdk.RoleAdmin, authsdk.StatusPending)

	cases := []struct {
		name    string
		session *fakeSession
		target  string
		want    string
	}{
		{"anonymous dashboard", anon, "/dashboard", "/login?redirect=%2Fdashboard"},
		{"anonymous login", anon, "/login", ""},
		{"anonymous forbidden page", anon, "/forbidden", ""},
		{"unknown path", anon, "/nope", gate.PathNotFound},
		{"not-found page", anon, "/not-found", ""},
		{"admin dashboard", admin, "/dashboard", ""},
		{"admin login", admin, "/login", "/dashboard"},
		{"admin admins", admin, "/admins", gate.PathForbidden},
		{"admin approvals", admin, "/approvals", gate.PathForbidden},
		{"root admins", root, "/admins", ""},
		{"root approvals", root, "/approvals", ""},
		{"pending dashboard", pending, "/dashboard", gate.PathPendingApproval},
		{"pending status page", pending, "/pending-approval", ""},
		{"pending approvals", pending, "/approvals", gate.PathPendingApproval},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := gate.Routes(tc.session, "").Evaluate(context.Background(), nav(t, tc.target))
			require.NoError(t, err)
			require.Equal(t, tc.want, d.Redirect)
		})
	}
}

func TestNavigatorDiscardsSupersededDecisions(t *testing.T) {
	t.Parallel()

	s := &fakeSession{restoreCh: make(chan struct{}), enteredCh: make(chan struct{})}
	n := gate.NewNavigator(gate.Routes(s, ""))

	first := make(chan error, 1)
	go func() {
		_, err := n.Navigate(context.Background(), "/dashboard")
		first <- err
	}()

	// Wait until the first navigation is blocked in Restore, then start a
	// second one that needs no session.
	<-s.enteredCh

	d, err := n.Navigate(context.Background(), "/forbidden")
	require.NoError(t, err)
	require.True(t, d.Allowed())

	close(s.restoreCh)
	require.ErrorIs(t, <-first, gate.ErrSuperseded)
}

func TestNavigatorRejectsNonLocalTargets(t *testing.T) {
	t.Parallel()

	n := gate.NewNavigator(gate.Routes(&fakeSession{}, ""))
	_, err := n.Navigate(context.Background(), "https://evil.example/")
	require.Error(t, err)
}

func TestRoutesWithManager(t *testing.T) {
	t.Parallel()

	srv := authsdktest.NewServer(t)
	p := authsdk.Principal{ID: "1", Role: authsdk.RoleSuperAdmin, Status: authsdk.StatusActive, Email: "admin@x.com"}
	srv.AddAccount(p.Email, "p@ss", p)
	srv.Seed("", "R1", p.ID)
	srv.SetNextSeq(2)

	st := store.NewSessionStore(memory.NewStore())
	require.True(t, st.Save(context.Background(), authsdk.CredentialPair{AccessToken: "A1", RefreshToken: "R1"}, p))

	m := session.NewManager(authsdk.NewSDKClient(srv.URL), st, session.Config{})
	n := gate.NewNavigator(gate.Routes(m, gate.PathDashboard))

	// A1 is opaque, so it counts as expiring: the navigation restores the
	// persisted session and refreshes it before allowing the page.
	d, err := n.Navigate(context.Background(), "/approvals")
	require.NoError(t, err)
	require.True(t, d.Allowed())
	require.Equal(t, int64(1), srv.RefreshCalls.Load())
	require.Equal(t, "A2", m.AccessToken())

	srv.Revoke("R2")
	d, err = n.Navigate(context.Background(), "/approvals")
	require.NoError(t, err)
	require.Equal(t, "/login?redirect=%2Fapprovals", d.Redirect)
	require.False(t, m.IsAuthenticated())
}
