package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bartab-console/internal/console/gate"
	"github.com/aussiebroadwan/bartab-console/internal/console/obs"
	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/internal/console/store"
	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"

	_ "github.com/aussiebroadwan/bartab-console/api/console" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *obs.Metrics

	Manager   *session.Manager
	Navigator *gate.Navigator
	Store     *store.SessionStore
	Backend   LivenessChecker

	// Proxy forwards /api/ to the backend. Nil disables the route.
	Proxy http.Handler
}

func NewRouter(buildVersion string, logger *slog.Logger, metrics *obs.Metrics) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		metrics:      metrics,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerNavigation()
	r.registerApprovals()
	r.registerProxy()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			BarTab Admin Console API
//	@version		0.1.0
//	@description	Session layer of the BarTab admin console. The console signs in against the BarTab backend,
//	@description	keeps the session fresh and forwards authenticated calls under /api/.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/bartab
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8090
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern, wrapped in mws and measured under the
// pattern as its route label.
func (r *Router) handle(pattern string, h http.Handler, mws ...httpx.Middleware) {
	r.Mux.Handle(pattern, r.metrics.InstrumentRoute(pattern, httpx.Chain(h, mws...)))
}

// withPrincipal exposes the signed-in principal's id to per-principal rate
// limits.
func (r *Router) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if p, ok := r.Manager.Principal(); ok {
			req = req.WithContext(httpx.WithPrincipalID(req.Context(), p.ID))
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) registerSession() {
	h := &SessionHandler{Manager: r.Manager}

	r.handle("GET /v1/session", http.HandlerFunc(h.HandleGet),
		httpx.RateLimitByIP(httpx.PublicLimit),
	)

	// Sign-in is limited per IP and identifier to slow down guessing.
	r.handle("POST /v1/session", http.HandlerFunc(h.HandleSignIn),
		httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "identifier"),
	)

	// Sign-out is never throttled so it cannot be refused.
	r.handle("DELETE /v1/session", http.HandlerFunc(h.HandleSignOut))
	r.handle("POST /v1/session/refresh", http.HandlerFunc(h.HandleRefresh),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	)
	r.handle("POST /v1/session/profile", http.HandlerFunc(h.HandleReloadProfile),
		r.withPrincipal,
		httpx.RateLimitByPrincipal(httpx.ModerateLimit),
	)

	register := &RegisterHandler{Manager: r.Manager}
	r.handle("POST /v1/register", register,
		httpx.RateLimitByIP(httpx.StrictLimit),
	)
}

func (r *Router) registerNavigation() {
	h := &NavigateHandler{Navigator: r.Navigator}
	r.handle("GET /v1/navigate", h,
		httpx.RateLimitByIP(httpx.PublicLimit),
	)
}

func (r *Router) registerApprovals() {
	h := &ApprovalsHandler{Manager: r.Manager}

	r.handle("GET /v1/approvals", http.HandlerFunc(h.HandleList),
		r.withPrincipal,
		httpx.RateLimitByPrincipal(httpx.PublicLimit),
	)
	r.handle("POST /v1/approvals/{id}/{decision}", http.HandlerFunc(h.HandleDecide),
		r.withPrincipal,
		httpx.RateLimitByPrincipal(httpx.ModerateLimit),
	)
}

func (r *Router) registerProxy() {
	if r.Proxy == nil {
		return
	}
	r.handle("/api/", r.Proxy)
}

func (r *Router) registerSystem() {
	r.handle("GET /livez", LivezHandler(r.startTime, r.buildVersion),
		httpx.RateLimitByIP(httpx.PublicLimit),
	)
	r.handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.Store, r.Backend),
		httpx.RateLimitByIP(httpx.PublicLimit),
	)
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
