package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/repository"
)

// PostInput carries the content fields for creating or updating a help
// post. For updates, empty fields mean "leave unchanged" — a partial
// update never nulls anything out.
type PostInput struct {
	Title                string
	Description          string
	TechStack            []string
	GitHubRepoURL        string
	ExpectedContribution string
}

// CreatePost validates the input and creates a new OPEN help post owned by
// ownerID. Title, description, and a non-empty tech stack are required.
func (s *CollaborationService) CreatePost(ctx context.Context, ownerID string, in PostInput) (*model.HelpPost, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	techStack := cleanTechStack(in.TechStack)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if description == "" {
		return nil, apperror.ValidationFailed("description", "description is required")
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if len(techStack) == 0 {
		return nil, apperror.ValidationFailed("techStack", "tech stack must not be empty")
	}
	if len(techStack) > MaxTechStackEntries {
		return nil, apperror.ValidationFailed("techStack",
			fmt.Sprintf("tech stack must have %d entries or fewer", MaxTechStackEntries))
	}

	post := &model.HelpPost{
		OwnerID:              ownerID,
		Title:                title,
		Description:          description,
		TechStack:            techStack,
		GitHubRepoURL:        strings.TrimSpace(in.GitHubRepoURL),
		ExpectedContribution: strings.TrimSpace(in.ExpectedContribution),
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create help post",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating help post: %w", err)
	}

	s.logger.Info("help post created",
		slog.String("id", post.ID),
		slog.String("ownerID", ownerID),
	)

	return post, nil
}

// GetPost returns the post with owner and contributors expanded. This is
// the one public (unauthenticated) read in the system.
func (s *CollaborationService) GetPost(ctx context.Context, id string) (*model.HelpPostDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "help post ID is required")
	}
	return s.posts.GetPostDetail(ctx, id)
}

// Feed lists OPEN posts by everyone except the caller, newest first.
func (s *CollaborationService) Feed(ctx context.Context, callerID string, limit, offset int) ([]model.HelpPostWithOwner, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.posts.ListOpenExcludingOwner(ctx, callerID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list feed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing feed: %w", err)
	}
	return posts, nil
}

// ListMyPosts returns the caller's own posts with the given status.
// OPEN posts come back newest-created-first, CLOSED posts most-recently-
// closed-first.
func (s *CollaborationService) ListMyPosts(ctx context.Context, callerID, status string) ([]model.HelpPost, error) {
	if status != model.PostStatusOpen && status != model.PostStatusClosed {
		return nil, apperror.ValidationFailed("status", "status must be OPEN or CLOSED")
	}

	posts, err := s.posts.ListByOwnerAndStatus(ctx, callerID, status)
	if err != nil {
		s.logger.Error("failed to list posts by owner",
			slog.String("ownerID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// UpdatePost applies a partial update to the caller's own post. Only
// non-empty input fields overwrite; everything else is preserved.
func (s *CollaborationService) UpdatePost(ctx context.Context, id, callerID string, in PostInput) (*model.HelpPost, error) {
	post, err := s.resolveOwnedPost(ctx, id, callerID, "update")
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		post.Title = title
	}
	if description := strings.TrimSpace(in.Description); description != "" {
		if len(description) > MaxDescriptionLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
		}
		post.Description = description
	}
	if techStack := cleanTechStack(in.TechStack); len(techStack) > 0 {
		if len(techStack) > MaxTechStackEntries {
			return nil, apperror.ValidationFailed("techStack",
				fmt.Sprintf("tech stack must have %d entries or fewer", MaxTechStackEntries))
		}
		post.TechStack = techStack
	}
	if repoURL := strings.TrimSpace(in.GitHubRepoURL); repoURL != "" {
		post.GitHubRepoURL = repoURL
	}
	if expected := strings.TrimSpace(in.ExpectedContribution); expected != "" {
		post.ExpectedContribution = expected
	}

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		s.logger.Error("failed to update help post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating help post: %w", err)
	}

	s.logger.Info("help post updated", slog.String("id", post.ID))
	return post, nil
}

// ClosePost transitions the caller's own post from OPEN to CLOSED. Closing
// an already-closed post fails with a conflict, not a silent no-op — the
// caller should know their view of the post was stale.
func (s *CollaborationService) ClosePost(ctx context.Context, id, callerID string) (*model.HelpPost, error) {
	if _, err := s.resolveOwnedPost(ctx, id, callerID, "close"); err != nil {
		return nil, err
	}

	post, err := s.posts.ClosePost(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("help post closed",
		slog.String("id", post.ID),
		slog.String("ownerID", callerID),
	)
	return post, nil
}

// DeletePost removes the caller's own post along with every contribution
// request and contributor record attached to it.
func (s *CollaborationService) DeletePost(ctx context.Context, id, callerID string) error {
	if _, err := s.resolveOwnedPost(ctx, id, callerID, "delete"); err != nil {
		return err
	}

	if err := s.posts.DeletePostCascade(ctx, id); err != nil {
		s.logger.Error("failed to delete help post",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting help post: %w", err)
	}

	s.logger.Info("help post deleted",
		slog.String("id", id),
		slog.String("ownerID", callerID),
	)
	return nil
}

// resolveOwnedPost loads a post and verifies the caller owns it.
func (s *CollaborationService) resolveOwnedPost(ctx context.Context, id, callerID, action string) (*model.HelpPost, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "help post ID is required")
	}

	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != callerID {
		return nil, apperror.Forbidden("only the owner can " + action + " this help post")
	}
	return post, nil
}

// cleanTechStack trims entries and drops empties, preserving order.
func cleanTechStack(stack []string) []string {
	cleaned := make([]string, 0, len(stack))
	for _, entry := range stack {
		if entry = strings.TrimSpace(entry); entry != "" {
			cleaned = append(cleaned, entry)
		}
	}
	return cleaned
}
