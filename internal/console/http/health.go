package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bartab-console/internal/console/store"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
)

// LivenessChecker is the backend's liveness probe.
type LivenessChecker interface {
	GetLiveness(ctx context.Context) (*authsdk.HealthResponse, error)
}

// ReadyChecks reports the console's dependencies.
type ReadyChecks struct {
	Store   string `json:"store"`
	Backend string `json:"backend"`
}

// ReadyzResponse is a health response with dependency checks.
type ReadyzResponse struct {
	authsdk.HealthResponse
	Checks ReadyChecks `json:"checks"`
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe returning console status, uptime and version. Always 200 while the process runs.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the session store and the backend's liveness endpoint
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	ReadyzResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	ReadyzResponse	"status, uptime, version, checks - console not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st *store.SessionStore,
	backend LivenessChecker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := ReadyChecks{
			Store:   "ok",
			Backend: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if backend != nil {
			if _, err := backend.GetLiveness(r.Context()); err != nil {
				checks.Backend = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := ReadyzResponse{
			HealthResponse: authsdk.HealthResponse{
				Status:  overallStatus,
				Uptime:  time.Since(startTime).String(),
				Version: version,
			},
			Checks: checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
