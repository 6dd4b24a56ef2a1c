package authsdk

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Envelope
// ============================================================================

// Envelope is the wrapper every backend response is sent in. Data is left raw
// so callers decode it into the operation-specific type. Timestamp is kept as
// sent; its format is not part of the contract.
type Envelope struct {
	Success   bool            `json:"success"`
	Code      int             `json:"code"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`

	// Error variant only.
	Path   string `json:"path,omitempty"`
	Method string `json:"method,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ============================================================================
// Roles and Statuses
// ============================================================================

// Role is an administrator's role.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Status is an administrator's account status. Only ACTIVE accounts are
// authorized for anything beyond the status pages.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusRejected Status = "REJECTED"
)

// ============================================================================
// Credentials and Principal
// ============================================================================

// CredentialPair is an access token plus the refresh token that renews it.
// Both are present or neither is.
type CredentialPair struct {
	AccessToken      string     `json:"accessToken"`
	RefreshToken     string     `json:"refreshToken"`
	AccessExpiresAt  *time.Time `json:"accessExpiresAt,omitempty"`
	RefreshExpiresAt *time.Time `json:"refreshExpiresAt,omitempty"`
}

// Valid reports whether both tokens are present.
func (p CredentialPair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Principal is the authenticated administrator as described by the backend.
type Principal struct {
	ID          string     `json:"id"`
	Role        Role       `json:"role"`
	Status      Status     `json:"status"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Username    string     `json:"username,omitempty"`
	FullName    string     `json:"fullName,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// DisplayName picks the most human identity field available.
func (p Principal) DisplayName() string {
	for _, v := range []string{p.FullName, p.Username, p.Email, p.Phone} {
		if v != "" {
			return v
		}
	}
	return p.ID
}

// HasIdentity reports whether at least one identity field is set.
func (p Principal) HasIdentity() bool {
	return p.Email != "" || p.Phone != "" || p.Username != "" || p.FullName != ""
}

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /api/v1/auth/login. Identifier is an
// email, phone number or username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// LoginResponse is the data of a successful sign-in.
type LoginResponse struct {
	Principal Principal      `json:"principal"`
	Tokens    CredentialPair `json:"tokens"`
}

// RegisterRequest applies for a new administrator account. The account starts
// PENDING until a super admin approves it.
type RegisterRequest struct {
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Username      string `json:"username,omitempty"`
	FullName      string `json:"fullName,omitempty"`
	Secret        string `json:"secret"`
	RequestedRole Role   `json:"requestedRole,omitempty"`
}

// RegisterResponse acknowledges a registration.
type RegisterResponse struct {
	ID     string `json:"id,omitempty"`
	Status Status `json:"status,omitempty"`
}

// RefreshRequest is the body of POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is the data of a successful refresh.
type RefreshResponse struct {
	Tokens CredentialPair `json:"tokens"`
}

// LogoutRequest is the body of POST /api/v1/auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ============================================================================
// Approval Types
// ============================================================================

// Decision is the outcome requested for a pending application.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// PendingApprovalEntry is an administrator application awaiting a decision.
type PendingApprovalEntry struct {
	ID            string    `json:"id"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Username      string    `json:"username,omitempty"`
	FullName      string    `json:"fullName,omitempty"`
	AppliedAt     time.Time `json:"appliedAt"`
	RequestedRole Role      `json:"requestedRole"`
}

// DecisionRequest is the body of the approve and reject endpoints.
type DecisionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// DecisionRecord is the backend's record of an approval decision.
type DecisionRecord struct {
	ID              string    `json:"id"`
	ResultingStatus Status    `json:"resultingStatus"`
	DecidedBy       string    `json:"decidedBy"`
	DecidedAt       time.Time `json:"decidedAt"`
	Reason          string    `json:"reason,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is the raw body of /livez. It is not wrapped in an Envelope.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime,omitempty"`
	Version string `json:"version,omitempty"`
}
