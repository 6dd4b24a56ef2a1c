package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/slogx"
)

var errNoAdminAPI = errors.New("session: admin api not configured")

// FetchPendingApprovals loads the applications awaiting a decision and
// replaces the cached list with them. Only an active super admin may call
// it; anyone else gets ErrUnauthorized without a backend call.
func (m *Manager) FetchPendingApprovals(ctx context.Context) ([]authsdk.PendingApprovalEntry, error) {
	if !m.CanApprove() {
		return nil, ErrUnauthorized
	}
	if m.Admin == nil {
		return nil, errNoAdminAPI
	}

	entries, err := m.Admin.PendingApprovals(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pending approvals: %w", err)
	}

	m.mu.Lock()
	m.pending = slices.Clone(entries)
	m.mu.Unlock()

	return slices.Clone(entries), nil
}

// Decide approves or rejects the pending application id. A rejection needs
// a reason. On success the entry leaves the cached list; on failure the list
// is left as it was.
func (m *Manager) Decide(ctx context.Context, id string, decision authsdk.Decision, reason string) (*authsdk.DecisionRecord, error) {
	if !m.CanApprove() {
		return nil, ErrUnauthorized
	}

	id = strings.TrimSpace(id)
	reason = strings.TrimSpace(reason)
	switch {
	case id == "":
		return nil, newValidationError("id", "required")
	case decision != authsdk.DecisionApprove && decision != authsdk.DecisionReject:
		return nil, newValidationError("decision", "must be approve or reject")
	case decision == authsdk.DecisionReject && reason == "":
		return nil, newValidationError("reason", "required when rejecting")
	}

	if m.Admin == nil {
		return nil, errNoAdminAPI
	}

	rec, err := m.Admin.Decide(ctx, id, decision, reason)
	if err != nil {
		return nil, fmt.Errorf("%s application %s: %w", decision, id, err)
	}

	m.mu.Lock()
	m.pending = slices.DeleteFunc(m.pending, func(e authsdk.PendingApprovalEntry) bool { return e.ID == id })
	m.mu.Unlock()

	slogx.FromContext(ctx).Info("application decided",
		"application_id", id,
		"decision", decision,
		"resulting_status", rec.ResultingStatus,
	)
	return rec, nil
}
