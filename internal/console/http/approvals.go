package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aussiebroadwan/bartab-console/internal/console/session"
	"github.com/aussiebroadwan/bartab-console/pkg/authsdk"
	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
)

type ApprovalsHandler struct {
	Manager *session.Manager
}

// HandleList godoc
//
//	@Summary		Pending applications
//	@Description	Lists administrator applications awaiting a decision. Active super admins only.
//	@Tags			Approvals
//	@Produce		json
//	@Success		200	{array}		authsdk.PendingApprovalEntry
//	@Failure		401	{object}	authsdk.Envelope	"Session ended"
//	@Failure		403	{object}	authsdk.Envelope	"Not an active super admin"
//	@Router			/v1/approvals [get].
func (h *ApprovalsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Manager.FetchPendingApprovals(r.Context())
	if err != nil {
		writeSessionError(w, r, err, "/approvals")
		return
	}
	if entries == nil {
		entries = []authsdk.PendingApprovalEntry{}
	}
	httpx.WriteData(w, http.StatusOK, entries)
}

// HandleDecide godoc
//
//	@Summary		Decide an application
//	@Description	Approves or rejects a pending application. Rejections need a reason.
//	@Tags			Approvals
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Application id"
//	@Param			decision	path		string					true	"approve or reject"
//	@Param			request		body		authsdk.DecisionRequest	false	"Reason"
//	@Success		200			{object}	authsdk.DecisionRecord
//	@Failure		400			{object}	authsdk.Envelope	"Validation failed"
//	@Failure		401			{object}	authsdk.Envelope	"Session ended"
//	@Failure		403			{object}	authsdk.Envelope	"Not an active super admin"
//	@Failure		404			{object}	authsdk.Envelope	"No such application"
//	@Router			/v1/approvals/{id}/{decision} [post].
func (h *ApprovalsHandler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	var req authsdk.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, r, http.StatusBadRequest, authsdk.ErrorCodeValidation, "request body must be valid JSON")
		return
	}

	rec, err := h.Manager.Decide(r.Context(), r.PathValue("id"), authsdk.Decision(r.PathValue("decision")), req.Reason)
	if err != nil {
		writeSessionError(w, r, err, "/approvals")
		return
	}

	httpx.WriteData(w, http.StatusOK, rec)
}
