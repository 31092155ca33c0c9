// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered student account.
//
// Email is the login identifier and is UNIQUE in the database. CollegeEmail
// is collected separately at signup so students can keep a personal address
// for login while still proving campus affiliation.
//
// PasswordHash holds the bcrypt hash of the user's password. The json:"-"
// tag ensures it can never leak into an API response, no matter which
// handler serializes the struct. It is empty for accounts created through
// GitHub sign-in.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	CollegeEmail     string    `json:"collegeEmail,omitempty"`
	GitHubUsername   string    `json:"githubUsername,omitempty"`
	GitHubProfileURL string    `json:"githubProfileUrl,omitempty"`
	AvatarURL        string    `json:"avatarUrl,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	Skills           []string  `json:"skills"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PublicProfile is the subset of User that is safe to attach to someone
// else's view — the requester shown to a post owner, or the owner shown on
// a feed card. It deliberately omits both email addresses.
type PublicProfile struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	GitHubUsername string   `json:"githubUsername,omitempty"`
	AvatarURL      string   `json:"avatarUrl,omitempty"`
	Skills         []string `json:"skills"`
}

// ProfilePatch is a partial profile update. Nil fields are left untouched;
// pointers distinguish "not provided" from "set to empty".
type ProfilePatch struct {
	Name             *string
	Bio              *string
	Skills           *[]string
	GitHubUsername   *string
	GitHubProfileURL *string
	AvatarURL        *string
}

// Empty reports whether the patch carries no fields at all.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Bio == nil && p.Skills == nil &&
		p.GitHubUsername == nil && p.GitHubProfileURL == nil && p.AvatarURL == nil
}

// Public returns the user's public profile projection.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Name:           u.Name,
		GitHubUsername: u.GitHubUsername,
		AvatarURL:      u.AvatarURL,
		Skills:         u.Skills,
	}
}
