// Package service contains the business logic layer.
//
// CollaborationService is the orchestrator for the help-post workflow: it
// validates input, enforces ownership and state rules across the post,
// request, and contributor stores, and returns domain errors from the
// apperror taxonomy. It knows nothing about HTTP, and every operation
// takes the caller's identity as an explicit parameter — there is no
// request-scoped "current user" below the handler layer.
package service

import (
	"log/slog"

	"github.com/sakif/collabcampus/internal/repository"
)

// Listing limits for the feed.
const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// Input length limits. Generous, but bounded — nobody needs a 10MB title.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
	MaxMessageLength     = 2000
	MaxTechStackEntries  = 25
)

// CollaborationService orchestrates the post store, the request ledger,
// and the contributor registry.
type CollaborationService struct {
	posts        repository.HelpPostRepository
	requests     repository.RequestRepository
	contributors repository.ContributorRepository
	logger       *slog.Logger
}

// NewCollaborationService wires the three stores together. In production
// all three interfaces are the same *sqlite.DB; tests inject mocks.
func NewCollaborationService(
	posts repository.HelpPostRepository,
	requests repository.RequestRepository,
	contributors repository.ContributorRepository,
	logger *slog.Logger,
) *CollaborationService {
	return &CollaborationService{
		posts:        posts,
		requests:     requests,
		contributors: contributors,
		logger:       logger,
	}
}
