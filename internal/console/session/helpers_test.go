package session_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/internal/console/store"
	"github.com/aussiebroadwan/bartab-console/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk/authsdktest"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv     *authsdktest.Server
	kv      *memory.Store
	store   *store.SessionStore
	manager *session.Manager
}

// tokenRT attaches whatever access token the manager currently holds. It
// stands in for the transport pipeline, without the 401 recovery.
type tokenRT struct{ m *session.Manager }

func (t tokenRT) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	if tok := t.m.AccessToken(); tok != "" {
		r.Header.Set("Authorization", authsdk.BearerHeader(tok))
	}
	return http.DefaultTransport.RoundTrip(r)
}

func newHarness(t *testing.T, cfg session.Config) *harness {
	t.Helper()

	srv := authsdktest.NewServer(t)
	kv := memory.NewStore()
	st := store.NewSessionStore(kv)
	client := authsdk.NewSDKClient(srv.URL)

	m := session.NewManager(client, st, cfg)
	m.Admin = client.WithHTTPClient(&http.Client{Transport: tokenRT{m: m}, Timeout: 5 * time.Second})

	return &harness{srv: srv, kv: kv, store: st, manager: m}
}

func superAdmin() authsdk.Principal {
	return authsdk.Principal{
		ID:       "1",
		Role:     authsdk.RoleSuperAdmin,
		Status:   authsdk.StatusActive,
		Email:    "admin@x.com",
		FullName: "Root Admin",
	}
}

func plainAdmin() authsdk.Principal {
	return authsdk.Principal{
		ID:     "2",
		Role:   authsdk.RoleAdmin,
		Status: authsdk.StatusActive,
		Email:  "ops@x.com",
	}
}

// signIn registers p on the fake backend and signs the manager in as p.
func (h *harness) signIn(t *testing.T, p authsdk.Principal) {
	t.Helper()
	h.srv.AddAccount(p.Email, "p@ss", p)
	require.NoError(t, h.manager.SignIn(context.Background(), p.Email, "p@ss"))
}

// persisted seeds the store and the backend with A1/R1 for the super admin,
// as if a previous process had signed in.
func (h *harness) persisted(t *testing.T) {
	t.Helper()
	p := superAdmin()
	h.srv.AddAccount(p.Email, "p@ss", p)
	h.srv.Seed("A1", "R1", p.ID)
	h.srv.SetNextSeq(2)
	require.True(t, h.store.Save(context.Background(), authsdk.CredentialPair{AccessToken: "A1", RefreshToken: "R1"}, p))
}

// gatedKV holds reads of the principal entry until release is closed.
type gatedKV struct {
	*memory.Store
	reached chan struct{}
	release chan struct{}
}

func newGatedKV() *gatedKV {
	return &gatedKV{Store: memory.NewStore(), reached: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedKV) Get(ctx context.Context, key string) (string, error) {
	if key == store.KeyPrincipal {
		close(g.reached)
		<-g.release
	}
	return g.Store.Get(ctx, key)
}

type recorder struct {
	mu     sync.Mutex
	events []session.Event
}

func (r *recorder) observe(ev session.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []session.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}
