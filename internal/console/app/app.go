package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/bartab-console/internal/console/gate"
	httpapi "github.com/aussiebroadwan/bartab-console/internal/console/http"
	"github.com/aussiebroadwan/bartab-console/internal/console/obs"
	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/internal/console/store"
	"github.com/aussiebroadwan/bartab-console/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/bartab-console/internal/console/store/drivers/redis"
	"github.com/aussiebroadwan/bartab-console/internal/console/store/drivers/sqlite"
	"github.com/aussiebroadwan/bartab-console/internal/console/transport"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/cryptox"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application is the console process with all its dependencies.
type Application struct {
	cfg     Config
	logger  *slog.Logger
	metrics *obs.Metrics

	// Session storage
	kv       store.KV
	sessions *store.SessionStore

	// Session layer
	client      *authsdk.SDKClient
	manager     *session.Manager
	transport   *transport.Transport
	navigator   *gate.Navigator
	keeper      *session.Keeper
	unsubscribe func()

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "bartab-console",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: obs.NewMetrics(),
	}
	app.metrics.SetBuildInfo(BuildVersion)

	ctx := slogx.WithContext(context.Background(), app.logger)

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	app.initSession(ctx)

	if err := app.initHTTP(); err != nil {
		_ = app.kv.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.keeper.Start()

	app.logger.Info("console starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"backend", app.cfg.APIBaseURL,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.keeper.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Handler returns the console's HTTP handler without starting a listener.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Shutdown stops the server and the keeper and closes the session store. The
// session itself is left persisted so the next start restores it.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down console...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.keeper.Stop()
	app.unsubscribe()

	if err := app.kv.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("console stopped")
	return nil
}

// initStore opens the configured KV driver and seals it when a master key is
// available.
func (app *Application) initStore(ctx context.Context) error {
	var kv store.KV

	switch app.cfg.StoreDriver {
	case DriverRedis:
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		rdb, err := redis.Open(dialCtx, app.cfg.RedisAddr, app.cfg.RedisPrefix)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		kv = rdb
		app.logger.Info("session store ready", "driver", DriverRedis, "addr", app.cfg.RedisAddr)

	case DriverMemory:
		kv = memory.NewStore()
		app.logger.Warn("session store is in memory, sessions will not survive restarts")

	default:
		host := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(host)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		kv = db
		app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	}

	key, ok, err := cryptox.LoadMasterKey(app.cfg.MasterKeyPath, MasterKeyEnv)
	if err != nil {
		_ = kv.Close()
		return fmt.Errorf("failed to load master key: %w", err)
	}
	if ok {
		sealer, err := cryptox.NewSealer(key)
		if err != nil {
			_ = kv.Close()
			return fmt.Errorf("failed to initialize sealer: %w", err)
		}
		kv = store.Sealed(kv, sealer)
		app.logger.Info("session store values sealed at rest")
	} else {
		app.logger.Warn("no master key configured, session tokens are stored unsealed",
			"env", MasterKeyEnv,
		)
	}

	app.kv = kv
	app.sessions = store.NewSessionStore(kv)
	return nil
}

// initSession builds the session manager, the authenticated transport on top
// of it and everything driven by session events.
func (app *Application) initSession(ctx context.Context) {
	app.client = authsdk.NewSDKClient(app.cfg.APIBaseURL)
	app.client.HTTPClient.Timeout = app.cfg.HTTPTimeout

	app.manager = session.NewManager(app.client, app.sessions, session.Config{
		RefreshThreshold: app.cfg.RefreshThreshold,
		RefreshTimeout:   app.cfg.RefreshTimeout,
	})

	app.transport = &transport.Transport{
		Session: app.manager,
		Metrics: app.metrics,
		OnSessionExpired: func(req *http.Request, err error) {
			app.logger.Warn("session expired during backend request",
				"method", req.Method,
				"path", req.URL.Path,
				"error", err,
			)
		},
	}
	app.manager.Admin = app.client.WithHTTPClient(&http.Client{
		Transport: app.transport,
		Timeout:   app.cfg.HTTPTimeout,
	})

	app.unsubscribe = app.manager.Subscribe(func(ev session.Event) {
		app.metrics.ObserveSessionEvent(string(ev.Kind))
		switch ev.Kind {
		case session.EventRefreshed:
			app.metrics.ObserveRefresh(true)
		case session.EventExpired:
			app.metrics.ObserveRefresh(false)
		}
	})

	app.navigator = gate.NewNavigator(gate.Routes(app.manager, app.cfg.DefaultLanding))
	app.keeper = session.NewKeeper(app.manager, app.logger, app.cfg.KeeperInterval)

	if app.manager.Restore(ctx) {
		p, _ := app.manager.Principal()
		app.logger.Info("previous session restored", "principal_id", p.ID, "role", p.Role)
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	target, err := url.Parse(app.cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend url: %w", err)
	}

	router := httpapi.NewRouter(BuildVersion, app.logger, app.metrics)

	router.Manager = app.manager
	router.Navigator = app.navigator
	router.Store = app.sessions
	router.Backend = app.client
	router.Proxy = httpapi.NewBackendProxy(target, app.transport)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
