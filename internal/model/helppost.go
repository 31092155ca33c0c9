package model

import "time"

// Help post status values. The transition is one-directional: a post is
// created OPEN and may only ever move to CLOSED. There is no reopen.
const (
	PostStatusOpen   = "OPEN"
	PostStatusClosed = "CLOSED"
)

// HelpPost is a request for collaborators on a project.
//
// OwnerID is immutable after creation — every mutating operation checks the
// caller against it. TechStack is required and non-empty; GitHubRepoURL and
// ExpectedContribution are optional freeform context for would-be
// contributors.
type HelpPost struct {
	ID                   string    `json:"id"`
	OwnerID              string    `json:"ownerId"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	TechStack            []string  `json:"techStack"`
	GitHubRepoURL        string    `json:"githubRepoUrl,omitempty"`
	ExpectedContribution string    `json:"expectedContribution,omitempty"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// IsOpen reports whether the post still accepts contribution requests.
func (p *HelpPost) IsOpen() bool {
	return p.Status == PostStatusOpen
}

// HelpPostDetail is a HelpPost expanded with its owner's public profile and
// the accepted contributors. Returned by the single-post view.
type HelpPostDetail struct {
	HelpPost
	Owner        PublicProfile       `json:"owner"`
	Contributors []ContributorDetail `json:"contributors"`
}

// HelpPostWithOwner pairs a post with its owner's public profile. Used by
// the feed and the contributions listing, where rendering a card requires
// the owner's name and avatar but not the contributor roster.
type HelpPostWithOwner struct {
	HelpPost
	Owner PublicProfile `json:"owner"`
}
