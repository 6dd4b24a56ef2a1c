// Package authsdktest runs an in-process fake of the BarTab admin backend for
// tests. Tokens are issued sequentially (A1/R1, A2/R2, ...). With JWTAccess
// set, access tokens are HS256 JWTs carrying sub, role and exp so expiry logic
// can be exercised; nothing on the console side checks their signature.
package authsdktest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
	"github.com/golang-jwt/jwt/v5"
)

type account struct {
	secret    string
	principal authsdk.Principal
}

// Server is a fake backend. Configure it before issuing requests; the
// counters may be read at any time.
type Server struct {
	*httptest.Server

	// RefreshDelay is slept before a refresh is answered, to widen race
	// windows in concurrency tests.
	RefreshDelay time.Duration

	// LogoutStatus, when non-zero, makes the revoke endpoint fail with it.
	LogoutStatus int

	// JWTAccess issues JWT access tokens expiring after AccessTTL.
	JWTAccess bool
	AccessTTL time.Duration

	LoginCalls    atomic.Int64
	RefreshCalls  atomic.Int64
	LogoutCalls   atomic.Int64
	MeCalls       atomic.Int64
	PendingCalls  atomic.Int64
	DecisionCalls atomic.Int64
	ResourceCalls atomic.Int64

	mu       sync.Mutex
	seq      int
	accounts map[string]*account // identifier -> account
	byID     map[string]*account
	access   map[string]string // access token -> principal id
	refresh  map[string]string // refresh token -> principal id
	pending  []authsdk.PendingApprovalEntry
	authSeen []string
}

// NewServer starts a fake backend. It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		AccessTTL: 15 * time.Minute,
		accounts:  make(map[string]*account),
		byID:      make(map[string]*account),
		access:    make(map[string]string),
		refresh:   make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", s.handleLivez)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", s.handleMe)
	mux.HandleFunc("GET /api/v1/admin/approvals/pending", s.handlePending)
	mux.HandleFunc("POST /api/v1/admin/approvals/{id}/{decision}", s.handleDecision)
	mux.HandleFunc("/api/v1/admin/resource", s.handleResource)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddAccount registers identifier/secret for principal.
func (s *Server) AddAccount(identifier, secret string, p authsdk.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := &account{secret: secret, principal: p}
	s.accounts[identifier] = a
	s.byID[p.ID] = a
}

// AddPending queues an application for the approvals endpoints.
func (s *Server) AddPending(entries ...authsdk.PendingApprovalEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, entries...)
}

// Seed makes an existing pair valid for principalID, as if issued earlier.
// An empty access token seeds only the refresh token.
func (s *Server) Seed(access, refresh, principalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if access != "" {
		s.access[access] = principalID
	}
	if refresh != "" {
		s.refresh[refresh] = principalID
	}
}

// Expire invalidates an access token; later requests bearing it get 401.
func (s *Server) Expire(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, access)
}

// Revoke invalidates a refresh token.
func (s *Server) Revoke(refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, refresh)
}

// SetNextSeq makes the next issued pair A<n>/R<n>.
func (s *Server) SetNextSeq(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = n - 1
}

// AuthHeaders returns the Authorization headers seen by the resource
// endpoint, in order.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authSeen...)
}

// Pending returns the current pending list.
func (s *Server) Pending() []authsdk.PendingApprovalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]authsdk.PendingApprovalEntry(nil), s.pending...)
}

// issueLocked mints a pair for p. Callers hold s.mu.
func (s *Server) issueLocked(p authsdk.Principal) authsdk.CredentialPair {
	s.seq++
	access := fmt.Sprintf("A%d", s.seq)
	refresh := fmt.Sprintf("R%d", s.seq)
	exp := time.Now().Add(s.AccessTTL)

	if s.JWTAccess {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  p.ID,
			"role": string(p.Role),
			"exp":  exp.Unix(),
			"jti":  access,
		}).SignedString([]byte("authsdktest"))
		if err == nil {
			access = tok
		}
	}

	s.access[access] = p.ID
	s.refresh[refresh] = p.ID
	return authsdk.CredentialPair{AccessToken: access, RefreshToken: refresh, AccessExpiresAt: &exp}
}

// principalFor resolves the bearer token on r.
func (s *Server) principalFor(r *http.Request) (authsdk.Principal, bool) {
	token, ok := authsdk.ParseBearer(r.Header.Get("Authorization"))
	if !ok {
		return authsdk.Principal{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.access[token]
	if !ok {
		return authsdk.Principal{}, false
	}
	a, ok := s.byID[id]
	if !ok {
		return authsdk.Principal{ID: id}, true
	}
	return a.principal, true
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(w, r, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken, "token is invalid or expired")
}

func (s *Server) handleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{Status: "ok", Version: "test"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.LoginCalls.Add(1)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "invalid body")
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[req.Identifier]
	if !ok || a.secret != req.Secret {
		s.mu.Unlock()
		httpx.WriteError(w, r, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials, "invalid credentials")
		return
	}
	pair := s.issueLocked(a.principal)
	p := a.principal
	s.mu.Unlock()

	httpx.WriteData(w, http.StatusOK, authsdk.LoginResponse{Principal: p, Tokens: pair})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "invalid body")
		return
	}
	if errs := req.Validate(); errs != nil {
		httpx.WriteErrorDetail(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "validation failed", errs)
		return
	}

	s.mu.Lock()
	s.seq++
	id := fmt.Sprintf("P%d", s.seq)
	role := req.RequestedRole
	if role == "" {
		role = authsdk.RoleAdmin
	}
	s.pending = append(s.pending, authsdk.PendingApprovalEntry{
		ID:            id,
		Email:         req.Email,
		Phone:         req.Phone,
		Username:      req.Username,
		FullName:      req.FullName,
		AppliedAt:     time.Now().UTC(),
		RequestedRole: role,
	})
	s.mu.Unlock()

	httpx.WriteData(w, http.StatusCreated, authsdk.RegisterResponse{ID: id, Status: authsdk.StatusPending})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.RefreshCalls.Add(1)
	if s.RefreshDelay > 0 {
		time.Sleep(s.RefreshDelay)
	}

	var req authsdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "invalid body")
		return
	}

	s.mu.Lock()
	id, ok := s.refresh[req.RefreshToken]
	if !ok {
		s.mu.Unlock()
		httpx.WriteError(w, r, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken, "refresh token is invalid or expired")
		return
	}
	delete(s.refresh, req.RefreshToken)
	p := authsdk.Principal{ID: id}
	if a, ok := s.byID[id]; ok {
		p = a.principal
	}
	pair := s.issueLocked(p)
	s.mu.Unlock()

	httpx.WriteData(w, http.StatusOK, authsdk.RefreshResponse{Tokens: pair})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.LogoutCalls.Add(1)
	if s.LogoutStatus != 0 {
		httpx.WriteError(w, r, s.LogoutStatus, authsdk.ErrorCodeServerError, "revocation unavailable")
		return
	}

	var req authsdk.LogoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.Revoke(req.RefreshToken)

	httpx.WriteData(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.MeCalls.Add(1)

	p, ok := s.principalFor(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	httpx.WriteData(w, http.StatusOK, p)
}

func canApprove(p authsdk.Principal) bool {
	return p.Role == authsdk.RoleSuperAdmin && p.Status == authsdk.StatusActive
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	s.PendingCalls.Add(1)

	p, ok := s.principalFor(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	if !canApprove(p) {
		httpx.WriteError(w, r, http.StatusForbidden, authsdk.ErrorCodeForbidden, "super admin required")
		return
	}

	pending := s.Pending()
	if pending == nil {
		pending = []authsdk.PendingApprovalEntry{}
	}
	httpx.WriteData(w, http.StatusOK, pending)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	s.DecisionCalls.Add(1)

	p, ok := s.principalFor(r)
	if !ok {
		unauthorized(w, r)
		return
	}
	if !canApprove(p) {
		httpx.WriteError(w, r, http.StatusForbidden, authsdk.ErrorCodeForbidden, "super admin required")
		return
	}

	var req authsdk.DecisionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	var status authsdk.Status
	switch authsdk.Decision(r.PathValue("decision")) {
	case authsdk.DecisionApprove:
		status = authsdk.StatusActive
	case authsdk.DecisionReject:
		if req.Reason == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "reason is required")
			return
		}
		status = authsdk.StatusRejected
	default:
		httpx.WriteError(w, r, http.StatusNotFound, authsdk.ErrorCodeNotFound, "unknown decision")
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	found := false
	for i, e := range s.pending {
		if e.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		httpx.WriteError(w, r, http.StatusNotFound, authsdk.ErrorCodeNotFound, "application not found")
		return
	}

	httpx.WriteData(w, http.StatusOK, authsdk.DecisionRecord{
		ID:              id,
		ResultingStatus: status,
		DecidedBy:       p.ID,
		DecidedAt:       time.Now().UTC(),
		Reason:          req.Reason,
	})
}

// handleResource is a protected endpoint that echoes the request body. It
// stands in for any authenticated backend resource.
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	s.ResourceCalls.Add(1)

	s.mu.Lock()
	s.authSeen = append(s.authSeen, r.Header.Get("Authorization"))
	s.mu.Unlock()

	p, ok := s.principalFor(r)
	if !ok {
		unauthorized(w, r)
		return
	}

	var body any
	_ = json.NewDecoder(r.Body).Decode(&body)
	httpx.WriteData(w, http.StatusOK, map[string]any{
		"principal": p.ID,
		"method":    r.Method,
		"body":      body,
		"requestId": r.Header.Get("X-Request-ID"),
	})
}
