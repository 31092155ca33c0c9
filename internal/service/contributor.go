package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/collabcampus/internal/model"
)

// ListMyContributions returns the posts on which the caller is an accepted
// contributor, most recent acceptance first, each with the owner's public
// profile. Records pointing at posts that no longer exist are quietly
// absent rather than turning the whole listing into an error.
func (s *CollaborationService) ListMyContributions(ctx context.Context, callerID string) ([]model.HelpPostWithOwner, error) {
	posts, err := s.contributors.ListContributedPosts(ctx, callerID)
	if err != nil {
		s.logger.Error("failed to list contributions",
			slog.String("userID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	return posts, nil
}
