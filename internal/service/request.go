package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/model"
)

// CreateRequest sends (or re-sends) a contribution request from
// requesterID to the given post.
//
// Order of checks matters and is part of the contract:
//  1. The post must exist and be OPEN. A CLOSED post is reported as not
//     found — from the requester's point of view it is no longer
//     available, and we don't leak its state.
//  2. The requester must not be the owner, regardless of post status.
//  3. The store decides between new, duplicate, and re-request based on
//     the unique (post, requester) slot: pending and accepted duplicates
//     conflict, a rejected request is reactivated in place.
func (s *CollaborationService) CreateRequest(ctx context.Context, postID, requesterID, message string) (*model.ContributionRequest, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperror.ValidationFailed("helpPostId", "help post ID is required")
	}
	message = strings.TrimSpace(message)
	if len(message) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID == requesterID {
		return nil, apperror.SelfRequest()
	}
	if !post.IsOpen() {
		return nil, apperror.NotFound("help post", postID)
	}

	req := &model.ContributionRequest{
		HelpPostID:  postID,
		RequesterID: requesterID,
		Message:     message,
	}
	if err := s.requests.CreateOrReactivate(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("contribution request created",
		slog.String("id", req.ID),
		slog.String("postID", postID),
		slog.String("requesterID", requesterID),
	)
	return req, nil
}

// AcceptRequest accepts a pending contribution request on behalf of the
// post's owner. The status flip and the contributor record are committed
// together by the store; a failure in either leaves the request pending.
func (s *CollaborationService) AcceptRequest(ctx context.Context, requestID, callerID string) (*model.Contributor, error) {
	req, err := s.resolveOwnedRequest(ctx, requestID, callerID)
	if err != nil {
		return nil, err
	}

	contributor, err := s.requests.AcceptRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("contribution request accepted",
		slog.String("requestID", req.ID),
		slog.String("postID", req.HelpPostID),
		slog.String("contributorID", contributor.UserID),
	)
	return contributor, nil
}

// RejectRequest rejects a pending contribution request on behalf of the
// post's owner. The requester may re-request afterwards.
func (s *CollaborationService) RejectRequest(ctx context.Context, requestID, callerID string) error {
	req, err := s.resolveOwnedRequest(ctx, requestID, callerID)
	if err != nil {
		return err
	}

	if err := s.requests.RejectRequest(ctx, req.ID); err != nil {
		return err
	}

	s.logger.Info("contribution request rejected",
		slog.String("requestID", req.ID),
		slog.String("postID", req.HelpPostID),
	)
	return nil
}

// ListRequestsForPost returns the pending requests on the caller's own
// post, newest first, with each requester's public profile. Accepted and
// rejected requests are not part of this view.
func (s *CollaborationService) ListRequestsForPost(ctx context.Context, postID, callerID string) ([]model.RequestWithRequester, error) {
	if _, err := s.resolveOwnedPost(ctx, postID, callerID, "review requests on"); err != nil {
		return nil, err
	}
	return s.requests.ListPendingForPost(ctx, postID)
}

// resolveOwnedRequest loads a request and verifies the caller owns the
// post it targets. Note the order: a missing request is NotFound before
// any authorization question arises, but a request on someone else's post
// is Forbidden even if it is no longer pending.
func (s *CollaborationService) resolveOwnedRequest(ctx context.Context, requestID, callerID string) (*model.ContributionRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, apperror.ValidationFailed("requestId", "request ID is required")
	}

	req, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetPostByID(ctx, req.HelpPostID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != callerID {
		return nil, apperror.Forbidden("only the post owner can review this request")
	}
	return req, nil
}
