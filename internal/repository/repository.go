// Package repository declares the storage interfaces consumed by the
// service layer. The sqlite subpackage provides the concrete
// implementation; tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/collabcampus/internal/model"
)

// ListOptions controls pagination for listing queries. Offset-based
// pagination keeps listings restartable: re-issuing the same query with the
// same options always starts from the same logical position.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists user accounts and profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateProfile overwrites exactly the profile fields present (non-nil)
	// in the patch. Identity fields (email, password) are not touched.
	UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.User, error)
}

// HelpPostRepository persists help posts and their status lifecycle.
type HelpPostRepository interface {
	CreatePost(ctx context.Context, post *model.HelpPost) error
	GetPostByID(ctx context.Context, id string) (*model.HelpPost, error)
	// GetPostDetail expands the owner profile and accepted contributors.
	GetPostDetail(ctx context.Context, id string) (*model.HelpPostDetail, error)
	// ListOpenExcludingOwner returns OPEN posts not owned by the given
	// user, newest-created-first, with the owner profile attached.
	ListOpenExcludingOwner(ctx context.Context, excludeOwnerID string, opts ListOptions) ([]model.HelpPostWithOwner, error)
	// ListByOwnerAndStatus orders OPEN posts by creation time and CLOSED
	// posts by last update, both descending.
	ListByOwnerAndStatus(ctx context.Context, ownerID, status string) ([]model.HelpPost, error)
	UpdatePost(ctx context.Context, post *model.HelpPost) error
	// ClosePost flips an OPEN post to CLOSED. Returns ErrConflict if the
	// post is already CLOSED; the check and the flip are one statement.
	ClosePost(ctx context.Context, id string) (*model.HelpPost, error)
	// DeletePostCascade removes the post together with all of its
	// contribution requests and contributors in one transaction,
	// dependents first.
	DeletePostCascade(ctx context.Context, id string) error
}

// RequestRepository persists contribution requests and implements the
// pending/accepted/rejected state machine at the store level.
type RequestRepository interface {
	// CreateOrReactivate inserts a new pending request. If a request for
	// (post, requester) already exists, the unique index rejects the
	// insert and the existing record decides the outcome: pending and
	// accepted fail with ErrConflict, rejected flips back to pending with
	// the new message.
	CreateOrReactivate(ctx context.Context, req *model.ContributionRequest) error
	GetRequestByID(ctx context.Context, id string) (*model.ContributionRequest, error)
	GetRequestByPostAndRequester(ctx context.Context, postID, requesterID string) (*model.ContributionRequest, error)
	// ListPendingForPost returns pending requests, newest-first, with the
	// requester's public profile attached.
	ListPendingForPost(ctx context.Context, postID string) ([]model.RequestWithRequester, error)
	// AcceptRequest atomically flips a pending request to accepted and
	// records the contributor. Two concurrent accepts for the same request
	// cannot both succeed: the loser sees ErrConflict.
	AcceptRequest(ctx context.Context, requestID string) (*model.Contributor, error)
	// RejectRequest flips a pending request to rejected. ErrConflict if
	// the request is not pending.
	RejectRequest(ctx context.Context, requestID string) error
}

// ContributorRepository persists accepted-contributor records.
type ContributorRepository interface {
	// AddContributor inserts a contributor record. ErrConflict if one
	// already exists for the (post, user) pair.
	AddContributor(ctx context.Context, c *model.Contributor) error
	ListContributorsForPost(ctx context.Context, postID string) ([]model.ContributorDetail, error)
	// ListContributedPosts returns the posts on which the user is an
	// accepted contributor, newest acceptance first, owner profile
	// attached. Contributor records whose post no longer exists are
	// filtered out, not surfaced as errors.
	ListContributedPosts(ctx context.Context, userID string) ([]model.HelpPostWithOwner, error)
	RemoveContributorsForPost(ctx context.Context, postID string) error
}
