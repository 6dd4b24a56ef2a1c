package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/bartab-console/internal/console/gate"
	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/internal/console/transport"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

// writeSessionError maps errors from the session layer onto the console's
// error envelope. Errors that end the session carry the sign-in redirect,
// returning to returnTo, in the detail.
func writeSessionError(w http.ResponseWriter, r *http.Request, err error, returnTo string) {
	var (
		vErr   *session.ValidationError
		apiErr *authsdk.APIError
		netErr *authsdk.NetworkError
	)

	switch {
	case errors.As(err, &vErr):
		httpx.WriteErrorDetail(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "validation failed", vErr.Fields)

	case errors.Is(err, session.ErrRefreshRejected),
		errors.Is(err, session.ErrNoRefreshToken),
		transport.IsSessionExpired(err):
		writeSignInRequired(w, r, returnTo)

	case errors.Is(err, session.ErrUnauthorized):
		httpx.WriteError(w, r, http.StatusForbidden, authsdk.ErrorCodeForbidden, "not allowed for the current principal")

	case errors.As(err, &apiErr):
		apiErr.WriteError(w, r)

	case errors.As(err, &netErr):
		slogx.FromContext(r.Context()).Warn("backend unreachable", "error", err)
		httpx.WriteError(w, r, http.StatusBadGateway, authsdk.ErrorCodeServerError, netErr.Message())

	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, authsdk.ErrorCodeServerError, "internal error")
	}
}

// writeSignInRequired answers 401 with where the operator should go next.
func writeSignInRequired(w http.ResponseWriter, r *http.Request, returnTo string) {
	httpx.WriteErrorDetail(w, r, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken, "session expired, sign in again",
		map[string]string{"redirect": gate.SignInRedirect(returnTo)},
	)
}
