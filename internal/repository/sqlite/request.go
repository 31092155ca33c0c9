package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/repository"
)

// compile-time check that *DB implements repository.RequestRepository
var _ repository.RequestRepository = (*DB)(nil)

const requestColumns = `id, help_post_id, requester_id, message, status,
	created_at, updated_at`

// CreateOrReactivate implements the upsert-with-state-gating pattern for
// contribution requests.
//
// We attempt the INSERT first and let the UNIQUE(help_post_id,
// requester_id) index tell us whether a request already exists. Only on a
// constraint violation do we load the existing record and branch on its
// status. Pre-checking existence and then inserting would leave a window
// where two concurrent creates both pass the check; insert-first has no
// such window.
//
// Branches on the existing record:
//   - pending  → ErrConflict ("already pending")
//   - accepted → ErrConflict ("already a contributor")
//   - rejected → reactivate: status back to pending, message overwritten,
//     updated_at bumped. Same row, same unique-key slot.
func (db *DB) CreateOrReactivate(ctx context.Context, req *model.ContributionRequest) error {
	req.ID = xid.New().String()
	req.Status = model.RequestStatusPending

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO contribution_requests
		   (id, help_post_id, requester_id, message, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.HelpPostID,
		req.RequesterID,
		req.Message,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return apperror.Transient("sqlite: creating contribution request", err)
	}

	// A request for this (post, requester) pair already exists.
	existing, err := db.GetRequestByPostAndRequester(ctx, req.HelpPostID, req.RequesterID)
	if err != nil {
		return err
	}

	switch existing.Status {
	case model.RequestStatusPending:
		return apperror.Conflict("you already have a pending request for this help post")
	case model.RequestStatusAccepted:
		return apperror.Conflict("you are already a contributor on this help post")
	}

	// Rejected: reactivate in place. The status guard in the WHERE clause
	// protects against a concurrent accept/reject landing between our read
	// and this write.
	result, err := db.conn.ExecContext(ctx,
		`UPDATE contribution_requests
		 SET status = ?, message = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		model.RequestStatusPending,
		req.Message,
		now,
		existing.ID,
		model.RequestStatusRejected,
	)
	if err != nil {
		return apperror.Transient("sqlite: reactivating contribution request", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Transient("sqlite: checking rows affected", err)
	}
	if affected == 0 {
		return apperror.Conflict("you already have a request for this help post")
	}

	// Return the reactivated record, not the aborted insert.
	req.ID = existing.ID
	req.Status = model.RequestStatusPending
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = now
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id string) (*model.ContributionRequest, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM contribution_requests WHERE id = ?`, id)

	req, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("contribution request", id)
		}
		return nil, apperror.Transient("sqlite: getting contribution request", err)
	}
	return req, nil
}

func (db *DB) GetRequestByPostAndRequester(ctx context.Context, postID, requesterID string) (*model.ContributionRequest, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM contribution_requests
		 WHERE help_post_id = ? AND requester_id = ?`,
		postID, requesterID)

	req, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("contribution request", postID+"/"+requesterID)
		}
		return nil, apperror.Transient("sqlite: getting contribution request", err)
	}
	return req, nil
}

// ListPendingForPost returns pending requests newest-first with requester
// profiles. Accepted and rejected requests are excluded from this view —
// the owner reviews the queue, not the history.
func (db *DB) ListPendingForPost(ctx context.Context, postID string) ([]model.RequestWithRequester, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT r.id, r.help_post_id, r.requester_id, r.message, r.status,
		        r.created_at, r.updated_at,
		        u.name, u.github_username, u.avatar_url, u.skills
		 FROM contribution_requests r
		 JOIN users u ON u.id = r.requester_id
		 WHERE r.help_post_id = ? AND r.status = ?
		 ORDER BY r.updated_at DESC`,
		postID, model.RequestStatusPending,
	)
	if err != nil {
		return nil, apperror.Transient("sqlite: listing pending requests", err)
	}
	defer rows.Close()

	requests := []model.RequestWithRequester{}
	for rows.Next() {
		var (
			r      model.RequestWithRequester
			skills string
		)
		if err := rows.Scan(
			&r.ID, &r.HelpPostID, &r.RequesterID, &r.Message, &r.Status,
			&r.CreatedAt, &r.UpdatedAt,
			&r.Requester.Name, &r.Requester.GitHubUsername,
			&r.Requester.AvatarURL, &skills,
		); err != nil {
			return nil, apperror.Transient("sqlite: scanning request row", err)
		}
		r.Requester.ID = r.RequesterID
		if r.Requester.Skills, err = unmarshalStrings(skills); err != nil {
			return nil, apperror.Transient("sqlite: listing pending requests", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Transient("sqlite: iterating pending requests", err)
	}

	return requests, nil
}

// AcceptRequest flips a pending request to accepted and records the
// contributor, atomically.
//
// Both writes share one transaction: if the contributor insert fails, the
// status flip rolls back, so a request can never be accepted without its
// contributor record. The status guard in the UPDATE's WHERE clause
// serializes concurrent accepts of the same request — exactly one caller
// sees rows-affected 1, every other sees 0 and gets ErrConflict.
func (db *DB) AcceptRequest(ctx context.Context, requestID string) (*model.Contributor, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Transient("sqlite: beginning accept transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE contribution_requests
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		model.RequestStatusAccepted, time.Now(), requestID, model.RequestStatusPending,
	)
	if err != nil {
		return nil, apperror.Transient("sqlite: accepting request", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperror.Transient("sqlite: checking rows affected", err)
	}
	if affected == 0 {
		return nil, apperror.Conflict("contribution request is not pending")
	}

	var postID, requesterID string
	err = tx.QueryRowContext(ctx,
		`SELECT help_post_id, requester_id FROM contribution_requests WHERE id = ?`,
		requestID,
	).Scan(&postID, &requesterID)
	if err != nil {
		return nil, apperror.Transient("sqlite: reading accepted request", err)
	}

	contributor := &model.Contributor{
		ID:         xid.New().String(),
		HelpPostID: postID,
		UserID:     requesterID,
		Role:       model.ContributorRoleContributor,
		CreatedAt:  time.Now(),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO contributors (id, help_post_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		contributor.ID,
		contributor.HelpPostID,
		contributor.UserID,
		contributor.Role,
		contributor.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// A contributor record exists without an accepted request
			// having created it in this transaction. Rolling back leaves
			// the request pending; surface the inconsistency.
			return nil, apperror.Conflict("user is already a contributor on this help post")
		}
		return nil, apperror.Transient("sqlite: recording contributor", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Transient("sqlite: committing accept transaction", err)
	}
	return contributor, nil
}

// RejectRequest flips a pending request to rejected. Same WHERE-guard
// pattern as AcceptRequest, without the contributor insert.
func (db *DB) RejectRequest(ctx context.Context, requestID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE contribution_requests
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		model.RequestStatusRejected, time.Now(), requestID, model.RequestStatusPending,
	)
	if err != nil {
		return apperror.Transient("sqlite: rejecting request", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Transient("sqlite: checking rows affected", err)
	}
	if affected == 0 {
		return apperror.Conflict("contribution request is not pending")
	}
	return nil
}

func scanRequest(row rowScanner) (*model.ContributionRequest, error) {
	var r model.ContributionRequest
	err := row.Scan(
		&r.ID, &r.HelpPostID, &r.RequesterID, &r.Message, &r.Status,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
