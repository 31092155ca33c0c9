package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/auth"
	"github.com/sakif/collabcampus/internal/service"
)

// RequestHandler manages contribution-request endpoints: sending a request,
// the owner's review listing, and the accept/reject decisions.
type RequestHandler struct {
	collab *service.CollaborationService
	logger *slog.Logger
}

// NewRequestHandler creates a RequestHandler.
func NewRequestHandler(collab *service.CollaborationService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{collab: collab, logger: logger}
}

// HandleCreate sends (or re-sends after rejection) a contribution request
// to the given post. The body is optional; it may carry a message.
//
// HTTP: POST /api/requests/{helpPostID} (auth, non-owner)
func (h *RequestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	req, err := h.collab.CreateRequest(r.Context(), r.PathValue("helpPostID"), callerID, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// HandleListForPost returns the pending requests on the caller's own post,
// each with the requester's public profile.
//
// HTTP: GET /api/requests/help-post/{helpPostID} (auth, owner)
func (h *RequestHandler) HandleListForPost(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	requests, err := h.collab.ListRequestsForPost(r.Context(), r.PathValue("helpPostID"), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// HandleAccept accepts a pending request and returns the new contributor
// record.
//
// HTTP: PATCH /api/requests/{requestID}/accept (auth, owner)
func (h *RequestHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	contributor, err := h.collab.AcceptRequest(r.Context(), r.PathValue("requestID"), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contributor)
}

// HandleReject rejects a pending request. The requester may re-request
// afterwards.
//
// HTTP: PATCH /api/requests/{requestID}/reject (auth, owner)
func (h *RequestHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	if err := h.collab.RejectRequest(r.Context(), r.PathValue("requestID"), callerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "request rejected"})
}
