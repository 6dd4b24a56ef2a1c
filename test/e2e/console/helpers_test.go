//go:build integration

package console_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/bartab-console/internal/console/app"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk/authsdktest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common helpers for console end-to-end tests. The console runs in-process
 * against a fake backend and keeps its session in a real Redis container.
 */

const (
	adminEmail  = "admin@bartab.test"
	adminSecret = "Admin123!"
	masterKey   = "e2e-master-key-material"
)

func superAdmin() authsdk.Principal {
	return authsdk.Principal{
		ID:       "1",
		Role:     authsdk.RoleSuperAdmin,
		Status:   authsdk.StatusActive,
		Email:    adminEmail,
		FullName: "Administrator",
	}
}

// setupRedisContainer starts a throwaway Redis and returns its address.
func setupRedisContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, mappedPort.Port())
}

func consoleConfig(backendURL, redisAddr string) app.Config {
	return app.Config{
		APIBaseURL:          backendURL,
		StoreDriver:         app.DriverRedis,
		RedisAddr:           redisAddr,
		RedisPrefix:         "e2e:",
		RefreshThreshold:    5 * time.Minute,
		RefreshTimeout:      5 * time.Second,
		HTTPTimeout:         5 * time.Second,
		KeeperInterval:      time.Hour,
		DefaultLanding:      "/dashboard",
		Env:                 "test",
		LogLevel:            "warn",
		LogFormat:           "json",
		Port:                8090,
		ShutdownGracePeriod: 5 * time.Second,
	}
}

// startConsole builds a console from cfg and serves it on a local listener.
// The returned stop function shuts the console down.
func startConsole(t *testing.T, cfg app.Config) (baseURL string, stop func()) {
	t.Helper()

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())

	stopped := false
	stop = func() {
		if stopped {
			return
		}
		stopped = true
		srv.Close()
		require.NoError(t, application.Shutdown())
	}
	t.Cleanup(stop)

	return srv.URL, stop
}

// consoleClient talks to the console the way the browser UI does.
type consoleClient struct {
	baseURL string
	http    *http.Client
}

func newConsoleClient(t *testing.T, baseURL string) *consoleClient {
	t.Helper()
	return &consoleClient{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Detail  map[string]string `json:"detail"`
}

func (c *consoleClient) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequestWithContext(t.Context(), method, c.baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func (c *consoleClient) session(t *testing.T) sessionView {
	t.Helper()
	code, env := c.do(t, http.MethodGet, "/v1/session", nil)
	require.Equal(t, http.StatusOK, code)

	var v sessionView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type sessionView struct {
	Authenticated bool               `json:"authenticated"`
	Principal     *authsdk.Principal `json:"principal"`
	CanApprove    bool               `json:"canApprove"`
}

// newBackend starts the fake backend with the super admin account.
func newBackend(t *testing.T) *authsdktest.Server {
	t.Helper()
	backend := authsdktest.NewServer(t)
	backend.AddAccount(adminEmail, adminSecret, superAdmin())
	return backend
}
