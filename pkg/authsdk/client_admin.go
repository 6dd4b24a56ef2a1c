package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CurrentPrincipal returns the principal the request's credentials belong to.
func (c *SDKClient) CurrentPrincipal(ctx context.Context) (*Principal, error) {
	resp, err := c.doRequest(ctx, "current principal", http.MethodGet, "/api/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var out Principal
	if err := decodeEnvelope(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// PendingApprovals lists applications awaiting a decision.
func (c *SDKClient) PendingApprovals(ctx context.Context) ([]PendingApprovalEntry, error) {
	resp, err := c.doRequest(ctx, "pending approvals", http.MethodGet, "/api/v1/admin/approvals/pending", nil)
	if err != nil {
		return nil, err
	}

	var out []PendingApprovalEntry
	if err := decodeEnvelope(resp, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Decide approves or rejects the application with the given id.
func (c *SDKClient) Decide(ctx context.Context, id string, decision Decision, reason string) (*DecisionRecord, error) {
	switch decision {
	case DecisionApprove, DecisionReject:
	default:
		return nil, fmt.Errorf("unknown decision %q", decision)
	}

	path := "/api/v1/admin/approvals/" + url.PathEscape(id) + "/" + string(decision)
	resp, err := c.doRequest(ctx, string(decision), http.MethodPost, path, DecisionRequest{Reason: reason})
	if err != nil {
		return nil, err
	}

	var out DecisionRecord
	if err := decodeEnvelope(resp, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
