package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/auth"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/service"
)

// HelpPostHandler manages the help-post endpoints: create, feed, the
// caller's own listings, the public detail view, update, close, delete.
type HelpPostHandler struct {
	collab *service.CollaborationService
	logger *slog.Logger
}

// NewHelpPostHandler creates a HelpPostHandler.
func NewHelpPostHandler(collab *service.CollaborationService, logger *slog.Logger) *HelpPostHandler {
	return &HelpPostHandler{collab: collab, logger: logger}
}

// postBody is the JSON shape for create and update requests. For updates,
// omitted fields are left unchanged.
type postBody struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	TechStack            []string `json:"techStack"`
	GitHubRepoURL        string   `json:"githubRepoUrl"`
	ExpectedContribution string   `json:"expectedContribution"`
}

func (b postBody) toInput() service.PostInput {
	return service.PostInput{
		Title:                b.Title,
		Description:          b.Description,
		TechStack:            b.TechStack,
		GitHubRepoURL:        b.GitHubRepoURL,
		ExpectedContribution: b.ExpectedContribution,
	}
}

// HandleCreate creates a new help post owned by the caller.
//
// HTTP: POST /api/help-posts (auth)
func (h *HelpPostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	var body postBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	post, err := h.collab.CreatePost(r.Context(), callerID, body.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleFeed lists OPEN posts by everyone except the caller, newest first.
//
// HTTP: GET /api/help-posts/feed?limit=20&offset=0 (auth)
func (h *HelpPostHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	posts, err := h.collab.Feed(r.Context(), callerID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleMyOpen lists the caller's own OPEN posts.
//
// HTTP: GET /api/help-posts/my/open (auth)
func (h *HelpPostHandler) HandleMyOpen(w http.ResponseWriter, r *http.Request) {
	h.handleMyPosts(w, r, model.PostStatusOpen)
}

// HandleMyClosed lists the caller's own CLOSED posts, most recently closed
// first.
//
// HTTP: GET /api/help-posts/my/closed (auth)
func (h *HelpPostHandler) HandleMyClosed(w http.ResponseWriter, r *http.Request) {
	h.handleMyPosts(w, r, model.PostStatusClosed)
}

func (h *HelpPostHandler) handleMyPosts(w http.ResponseWriter, r *http.Request, status string) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	posts, err := h.collab.ListMyPosts(r.Context(), callerID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleMyContributions lists the posts on which the caller is an accepted
// contributor.
//
// HTTP: GET /api/help-posts/my/contributions (auth)
func (h *HelpPostHandler) HandleMyContributions(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	posts, err := h.collab.ListMyContributions(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post with its owner and contributors expanded.
// This endpoint is public.
//
// HTTP: GET /api/help-posts/{id}
func (h *HelpPostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.collab.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleUpdate applies a partial update to the caller's own post.
//
// HTTP: PATCH /api/help-posts/{id} (auth, owner)
func (h *HelpPostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	var body postBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	post, err := h.collab.UpdatePost(r.Context(), r.PathValue("id"), callerID, body.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleClose transitions the caller's own post to CLOSED.
//
// HTTP: PATCH /api/help-posts/{id}/close (auth, owner)
func (h *HelpPostHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	post, err := h.collab.ClosePost(r.Context(), r.PathValue("id"), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes the caller's own post and everything attached to it.
//
// HTTP: DELETE /api/help-posts/{id} (auth, owner)
func (h *HelpPostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	if err := h.collab.DeletePost(r.Context(), r.PathValue("id"), callerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
