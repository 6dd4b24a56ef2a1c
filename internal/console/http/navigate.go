package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/bartab-console/internal/console/gate"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
)

// NavigationResult tells the UI whether to show the requested page.
type NavigationResult struct {
	Allow    bool   `json:"allow"`
	Path     string `json:"path,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

type NavigateHandler struct {
	Navigator *gate.Navigator
}

// ServeHTTP godoc
//
//	@Summary		Authorize a page navigation
//	@Description	Runs the route gate for a console page. A navigation overtaken by a newer one gets 409 and must not be applied.
//	@Tags			Navigation
//	@Produce		json
//	@Param			to	query		string	true	"Local path with optional query, e.g. /approvals?page=2"
//	@Success		200	{object}	NavigationResult
//	@Failure		400	{object}	authsdk.Envelope	"Missing or non-local target"
//	@Failure		409	{object}	authsdk.Envelope	"Superseded by a later navigation"
//	@Router			/v1/navigate [get].
func (h *NavigateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("to")
	if target == "" {
		httpx.WriteErrorDetail(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "validation failed",
			map[string]string{"to": "required"},
		)
		return
	}

	d, err := h.Navigator.Navigate(r.Context(), target)
	switch {
	case err == nil:
	case errors.Is(err, gate.ErrSuperseded):
		httpx.WriteError(w, r, http.StatusConflict, "SUPERSEDED", "navigation superseded")
		return
	case errors.Is(err, gate.ErrInvalidTarget):
		httpx.WriteErrorDetail(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "validation failed",
			map[string]string{"to": "must be a local path"},
		)
		return
	default:
		writeSessionError(w, r, err, target)
		return
	}

	if !d.Allowed() {
		httpx.WriteData(w, http.StatusOK, NavigationResult{Redirect: d.Redirect})
		return
	}
	httpx.WriteData(w, http.StatusOK, NavigationResult{Allow: true, Path: target})
}
