package sqlite

import (
	"context"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/repository"
)

// compile-time check that *DB implements repository.ContributorRepository
var _ repository.ContributorRepository = (*DB)(nil)

// AddContributor inserts a contributor record directly. The accept path
// records contributors inside its own transaction (AcceptRequest); this
// standalone insert exists for the registry interface and guards against
// double-invocation with the same UNIQUE(help_post_id, user_id) index.
func (db *DB) AddContributor(ctx context.Context, c *model.Contributor) error {
	if c.ID == "" {
		c.ID = xid.New().String()
	}
	if c.Role == "" {
		c.Role = model.ContributorRoleContributor
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO contributors (id, help_post_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.HelpPostID, c.UserID, c.Role, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user is already a contributor on this help post")
		}
		return apperror.Transient("sqlite: adding contributor", err)
	}
	return nil
}

// ListContributorsForPost returns the post's contributors with their public
// profiles, in acceptance order.
func (db *DB) ListContributorsForPost(ctx context.Context, postID string) ([]model.ContributorDetail, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.help_post_id, c.user_id, c.role, c.created_at,
		        u.name, u.github_username, u.avatar_url, u.skills
		 FROM contributors c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.help_post_id = ?
		 ORDER BY c.created_at ASC`,
		postID,
	)
	if err != nil {
		return nil, apperror.Transient("sqlite: listing contributors", err)
	}
	defer rows.Close()

	contributors := []model.ContributorDetail{}
	for rows.Next() {
		var (
			c      model.ContributorDetail
			skills string
		)
		if err := rows.Scan(
			&c.ID, &c.HelpPostID, &c.UserID, &c.Role, &c.CreatedAt,
			&c.User.Name, &c.User.GitHubUsername, &c.User.AvatarURL, &skills,
		); err != nil {
			return nil, apperror.Transient("sqlite: scanning contributor row", err)
		}
		c.User.ID = c.UserID
		if c.User.Skills, err = unmarshalStrings(skills); err != nil {
			return nil, apperror.Transient("sqlite: listing contributors", err)
		}
		contributors = append(contributors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Transient("sqlite: iterating contributors", err)
	}

	return contributors, nil
}

// ListContributedPosts returns every post the user was accepted onto,
// newest acceptance first, with the owner's public profile.
//
// The inner joins double as the dangling-reference filter: a contributor
// record whose post (or owner) has vanished simply produces no row, so the
// sequence degrades to "fewer entries" rather than an error.
func (db *DB) ListContributedPosts(ctx context.Context, userID string) ([]model.HelpPostWithOwner, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.owner_id, p.title, p.description, p.tech_stack,
		        p.github_repo_url, p.expected_contribution, p.status,
		        p.created_at, p.updated_at,
		        u.name, u.github_username, u.avatar_url, u.skills
		 FROM contributors c
		 JOIN help_posts p ON p.id = c.help_post_id
		 JOIN users u ON u.id = p.owner_id
		 WHERE c.user_id = ?
		 ORDER BY c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, apperror.Transient("sqlite: listing contributed posts", err)
	}
	defer rows.Close()

	posts := []model.HelpPostWithOwner{}
	for rows.Next() {
		var (
			p          model.HelpPostWithOwner
			techStack  string
			ownerSkill string
		)
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Title, &p.Description, &techStack,
			&p.GitHubRepoURL, &p.ExpectedContribution, &p.Status,
			&p.CreatedAt, &p.UpdatedAt,
			&p.Owner.Name, &p.Owner.GitHubUsername, &p.Owner.AvatarURL, &ownerSkill,
		); err != nil {
			return nil, apperror.Transient("sqlite: scanning contributed post row", err)
		}
		p.Owner.ID = p.OwnerID
		if p.TechStack, err = unmarshalStrings(techStack); err != nil {
			return nil, apperror.Transient("sqlite: listing contributed posts", err)
		}
		if p.Owner.Skills, err = unmarshalStrings(ownerSkill); err != nil {
			return nil, apperror.Transient("sqlite: listing contributed posts", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Transient("sqlite: iterating contributed posts", err)
	}

	return posts, nil
}

// RemoveContributorsForPost deletes every contributor record for the post.
// Deleting where nothing matches is a no-op, so the cascade step is safe to
// retry.
func (db *DB) RemoveContributorsForPost(ctx context.Context, postID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM contributors WHERE help_post_id = ?`, postID)
	if err != nil {
		return apperror.Transient("sqlite: removing contributors", err)
	}
	return nil
}
