package model

import "time"

// Contribution request status values.
//
// The lifecycle is a small state machine:
//
//	[none] → pending → accepted   (terminal)
//	              ↘ rejected → pending (re-request, same record)
//
// accepted never transitions again. rejected can be reactivated exactly by
// a new request from the same user, which flips the existing record back to
// pending rather than inserting a second row.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// ContributionRequest is a bid by a non-owner to join a help post's effort.
//
// The database enforces UNIQUE(help_post_id, requester_id), so a user can
// hold at most one request per post regardless of status. Re-requests after
// rejection reuse the same row.
type ContributionRequest struct {
	ID          string    `json:"id"`
	HelpPostID  string    `json:"helpPostId"`
	RequesterID string    `json:"requesterId"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RequestWithRequester pairs a pending request with the requester's public
// profile, as shown to the post owner when reviewing requests.
type RequestWithRequester struct {
	ContributionRequest
	Requester PublicProfile `json:"requester"`
}

// Contributor role values, carried on the record so a post owner can later
// distinguish hands-on contributors from reviewers.
const (
	ContributorRoleContributor = "contributor"
	ContributorRoleReviewer    = "reviewer"
)

// Contributor records that a user's contribution request on a post was
// accepted. Created exactly once per acceptance; UNIQUE(help_post_id,
// user_id) guards against duplicates.
type Contributor struct {
	ID         string    `json:"id"`
	HelpPostID string    `json:"helpPostId"`
	UserID     string    `json:"userId"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ContributorDetail is a Contributor expanded with the user's public
// profile, for the post detail view.
type ContributorDetail struct {
	Contributor
	User PublicProfile `json:"user"`
}
