package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/repository"
)

// compile-time check that *DB implements repository.HelpPostRepository
var _ repository.HelpPostRepository = (*DB)(nil)

const postColumns = `id, owner_id, title, description, tech_stack,
	github_repo_url, expected_contribution, status, created_at, updated_at`

// Create inserts a new help post with status OPEN. Field validation is the
// service's job; the repository only persists.
func (db *DB) CreatePost(ctx context.Context, post *model.HelpPost) error {
	post.ID = xid.New().String()
	post.Status = model.PostStatusOpen

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	techStack, err := marshalStrings(post.TechStack)
	if err != nil {
		return fmt.Errorf("sqlite: creating help post: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO help_posts (id, owner_id, title, description, tech_stack,
		   github_repo_url, expected_contribution, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.OwnerID,
		post.Title,
		post.Description,
		techStack,
		post.GitHubRepoURL,
		post.ExpectedContribution,
		post.Status,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return apperror.Transient("sqlite: creating help post", err)
	}

	return nil
}

func (db *DB) GetPostByID(ctx context.Context, id string) (*model.HelpPost, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM help_posts WHERE id = ?`, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("help post", id)
		}
		return nil, apperror.Transient("sqlite: getting help post", err)
	}
	return post, nil
}

// GetDetail loads the post together with its owner's public profile and the
// accepted contributors (oldest acceptance first, matching the order they
// joined the effort).
func (db *DB) GetPostDetail(ctx context.Context, id string) (*model.HelpPostDetail, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT p.id, p.owner_id, p.title, p.description, p.tech_stack,
		        p.github_repo_url, p.expected_contribution, p.status,
		        p.created_at, p.updated_at,
		        u.name, u.github_username, u.avatar_url, u.skills
		 FROM help_posts p
		 JOIN users u ON u.id = p.owner_id
		 WHERE p.id = ?`, id)

	var (
		detail     model.HelpPostDetail
		techStack  string
		ownerSkill string
	)
	err := row.Scan(
		&detail.ID, &detail.OwnerID, &detail.Title, &detail.Description,
		&techStack, &detail.GitHubRepoURL, &detail.ExpectedContribution,
		&detail.Status, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.Owner.Name, &detail.Owner.GitHubUsername,
		&detail.Owner.AvatarURL, &ownerSkill,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("help post", id)
		}
		return nil, apperror.Transient("sqlite: getting help post detail", err)
	}

	detail.Owner.ID = detail.OwnerID
	if detail.TechStack, err = unmarshalStrings(techStack); err != nil {
		return nil, fmt.Errorf("sqlite: getting help post detail: %w", err)
	}
	if detail.Owner.Skills, err = unmarshalStrings(ownerSkill); err != nil {
		return nil, fmt.Errorf("sqlite: getting help post detail: %w", err)
	}

	contributors, err := db.ListContributorsForPost(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Contributors = contributors

	return &detail, nil
}

// ListOpenExcludingOwner powers the feed: OPEN posts by everyone except the
// caller, newest first. Limit/offset keeps the listing restartable — the
// same options always resume from the same logical position.
func (db *DB) ListOpenExcludingOwner(ctx context.Context, excludeOwnerID string, opts repository.ListOptions) ([]model.HelpPostWithOwner, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.owner_id, p.title, p.description, p.tech_stack,
		        p.github_repo_url, p.expected_contribution, p.status,
		        p.created_at, p.updated_at,
		        u.name, u.github_username, u.avatar_url, u.skills
		 FROM help_posts p
		 JOIN users u ON u.id = p.owner_id
		 WHERE p.status = ? AND p.owner_id != ?
		 ORDER BY p.created_at DESC
		 LIMIT ? OFFSET ?`,
		model.PostStatusOpen, excludeOwnerID, limit, offset,
	)
	if err != nil {
		return nil, apperror.Transient("sqlite: listing feed", err)
	}
	defer rows.Close()

	posts := make([]model.HelpPostWithOwner, 0, limit)
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
			return nil, apperror.Transient("sqlite: scanning feed row", err)
		}
		p.Owner.ID = p.OwnerID
		if p.TechStack, err = unmarshalStrings(techStack); err != nil {
			return nil, fmt.Errorf("sqlite: listing feed: %w", err)
		}
		if p.Owner.Skills, err = unmarshalStrings(ownerSkill); err != nil {
			return nil, fmt.Errorf("sqlite: listing feed: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Transient("sqlite: iterating feed", err)
	}

	return posts, nil
}

// ListByOwnerAndStatus returns the caller's own posts. OPEN posts are
// ordered by creation time, CLOSED posts by the time they were last
// touched (which for a closed post is the close time), both descending.
func (db *DB) ListByOwnerAndStatus(ctx context.Context, ownerID, status string) ([]model.HelpPost, error) {
	orderBy := "created_at DESC"
	if status == model.PostStatusClosed {
		orderBy = "updated_at DESC"
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM help_posts
		 WHERE owner_id = ? AND status = ?
		 ORDER BY `+orderBy,
		ownerID, status,
	)
	if err != nil {
		return nil, apperror.Transient("sqlite: listing posts by owner", err)
	}
	defer rows.Close()

	var posts []model.HelpPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, apperror.Transient("sqlite: scanning post row", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Transient("sqlite: iterating posts", err)
	}

	if posts == nil {
		posts = []model.HelpPost{}
	}
	return posts, nil
}

// Update persists the mutable content fields. OwnerID and Status are
// deliberately absent from the SET list — ownership never changes, and
// status only moves through Close.
func (db *DB) UpdatePost(ctx context.Context, post *model.HelpPost) error {
	post.UpdatedAt = time.Now()

	techStack, err := marshalStrings(post.TechStack)
	if err != nil {
		return fmt.Errorf("sqlite: updating help post: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE help_posts
		 SET title = ?, description = ?, tech_stack = ?,
		     github_repo_url = ?, expected_contribution = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title,
		post.Description,
		techStack,
		post.GitHubRepoURL,
		post.ExpectedContribution,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return apperror.Transient("sqlite: updating help post", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Transient("sqlite: checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("help post", post.ID)
	}

	return nil
}

// Close flips an OPEN post to CLOSED. The status guard lives in the WHERE
// clause, so the check and the transition are one statement: a concurrent
// close or an already-closed post both land in the zero-rows branch, which
// then distinguishes "missing" from "already closed".
func (db *DB) ClosePost(ctx context.Context, id string) (*model.HelpPost, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE help_posts
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		model.PostStatusClosed, time.Now(), id, model.PostStatusOpen,
	)
	if err != nil {
		return nil, apperror.Transient("sqlite: closing help post", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperror.Transient("sqlite: checking rows affected", err)
	}
	if affected == 0 {
		post, err := db.GetPostByID(ctx, id)
		if err != nil {
			return nil, err // not found
		}
		if !post.IsOpen() {
			return nil, apperror.Conflict("help post is already closed")
		}
		// The row was open a moment ago and the update still missed it;
		// treat as a retryable anomaly rather than inventing a state.
		return nil, apperror.Transient("sqlite: closing help post", fmt.Errorf("post %s: concurrent modification", id))
	}

	return db.GetPostByID(ctx, id)
}

// DeleteCascade removes the post's contribution requests and contributors,
// then the post itself, in one transaction. Dependents go first so a replay
// after a mid-sequence failure finds nothing left to trip over.
func (db *DB) DeletePostCascade(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Transient("sqlite: beginning delete transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM contribution_requests WHERE help_post_id = ?`, id); err != nil {
		return apperror.Transient("sqlite: deleting contribution requests", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM contributors WHERE help_post_id = ?`, id); err != nil {
		return apperror.Transient("sqlite: deleting contributors", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM help_posts WHERE id = ?`, id)
	if err != nil {
		return apperror.Transient("sqlite: deleting help post", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Transient("sqlite: checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("help post", id)
	}

	if err := tx.Commit(); err != nil {
		return apperror.Transient("sqlite: committing delete transaction", err)
	}
	return nil
}

func scanPost(row rowScanner) (*model.HelpPost, error) {
	var (
		p         model.HelpPost
		techStack string
	)
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &techStack,
		&p.GitHubRepoURL, &p.ExpectedContribution, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.TechStack, err = unmarshalStrings(techStack); err != nil {
		return nil, err
	}
	return &p, nil
}
