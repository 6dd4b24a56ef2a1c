package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
)

// SessionView is what the console UI knows about the current session.
// Tokens never leave the console process.
type SessionView struct {
	Authenticated   bool               `json:"authenticated"`
	Principal       *authsdk.Principal `json:"principal,omitempty"`
	CanApprove      bool               `json:"canApprove"`
	AccessExpiresAt *time.Time         `json:"accessExpiresAt,omitempty"`
}

func viewOf(m *session.Manager) SessionView {
	p, ok := m.Principal()
	if !ok {
		return SessionView{}
	}

	v := SessionView{
		Authenticated: true,
		Principal:     &p,
		CanApprove:    m.CanApprove(),
	}
	if exp, ok := m.AccessExpiresAt(); ok {
		v.AccessExpiresAt = &exp
	}
	return v
}

type SessionHandler struct {
	Manager *session.Manager
}

// HandleGet godoc
//
//	@Summary		Current session
//	@Description	Restores a persisted session if there is one and describes it
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	SessionView
//	@Router			/v1/session [get].
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.Manager.Restore(r.Context())
	httpx.WriteData(w, http.StatusOK, viewOf(h.Manager))
}

// HandleSignIn godoc
//
//	@Summary		Sign in
//	@Description	Exchanges an identifier (email, phone or username) and secret for a console session
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	SessionView
//	@Failure		400		{object}	authsdk.Envelope	"Missing identifier or secret"
//	@Failure		401		{object}	authsdk.Envelope	"Invalid credentials"
//	@Failure		429		{object}	authsdk.Envelope	"Too many attempts"
//	@Failure		502		{object}	authsdk.Envelope	"Backend unreachable"
//	@Router			/v1/session [post].
func (h *SessionHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "request body must be valid JSON")
		return
	}

	if err := h.Manager.SignIn(r.Context(), req.Identifier, req.Secret); err != nil {
		writeSessionError(w, r, err, "")
		return
	}

	httpx.WriteData(w, http.StatusOK, viewOf(h.Manager))
}

// HandleSignOut godoc
//
//	@Summary		Sign out
//	@Description	Revokes the refresh token when the backend allows and always ends the local session
//	@Tags			Session
//	@Success		204
//	@Router			/v1/session [delete].
func (h *SessionHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.Manager.SignOut(r.Context())
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh godoc
//
//	@Summary		Refresh the session
//	@Description	Rotates the credential pair. On failure the session is ended and the response says where to sign in.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	SessionView
//	@Failure		401	{object}	authsdk.Envelope	"Session ended, detail.redirect points at sign-in"
//	@Router			/v1/session/refresh [post].
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.Refresh(r.Context()); err != nil {
		writeSessionError(w, r, err, r.URL.Query().Get("redirect"))
		return
	}
	httpx.WriteData(w, http.StatusOK, viewOf(h.Manager))
}

// HandleReloadProfile godoc
//
//	@Summary		Reload the signed-in principal
//	@Description	Fetches the current principal from the backend and replaces the cached copy
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	SessionView
//	@Failure		401	{object}	authsdk.Envelope	"Session ended"
//	@Failure		403	{object}	authsdk.Envelope	"Not signed in"
//	@Router			/v1/session/profile [post].
func (h *SessionHandler) HandleReloadProfile(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Manager.ReloadProfile(r.Context()); err != nil {
		writeSessionError(w, r, err, "/profile")
		return
	}
	httpx.WriteData(w, http.StatusOK, viewOf(h.Manager))
}

type RegisterHandler struct {
	Manager *session.Manager
}

// ServeHTTP godoc
//
//	@Summary		Apply for an administrator account
//	@Description	Forwards a registration to the backend. The account stays PENDING until a super admin approves it.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Application"
//	@Success		201		{object}	authsdk.RegisterResponse
//	@Failure		400		{object}	authsdk.Envelope	"Validation failed, detail lists fields"
//	@Router			/v1/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "request body must be valid JSON")
		return
	}

	resp, err := h.Manager.Register(r.Context(), req)
	if err != nil {
		writeSessionError(w, r, err, "")
		return
	}

	httpx.WriteData(w, http.StatusCreated, resp)
}
