package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/repository"
	"github.com/sakif/collabcampus/internal/storage"
)

// MaxAvatarBytes bounds avatar uploads. 5MB covers any sensible profile
// picture.
const MaxAvatarBytes = 5 << 20

// UserService handles profile management.
type UserService struct {
	users   repository.UserRepository
	avatars storage.BlobStore
	logger  *slog.Logger
}

// NewUserService creates a UserService. avatars may be nil, in which case
// avatar uploads are rejected with a validation error but the rest of the
// profile update still works.
func NewUserService(users repository.UserRepository, avatars storage.BlobStore, logger *slog.Logger) *UserService {
	return &UserService{
		users:   users,
		avatars: avatars,
		logger:  logger,
	}
}

// ProfileUpdateInput carries the updatable profile fields. Nil means "not
// provided"; a pointer to an empty value clears the field.
type ProfileUpdateInput struct {
	Name             *string
	Bio              *string
	Skills           *[]string
	GitHubUsername   *string
	GitHubProfileURL *string

	// Avatar, when non-nil, is uploaded to blob storage and its public URL
	// stored on the profile.
	Avatar            []byte
	AvatarContentType string
}

// UpdateProfile applies a partial update to the caller's own profile.
// At least one field (or an avatar) must be provided.
func (s *UserService) UpdateProfile(ctx context.Context, callerID string, in ProfileUpdateInput) (*model.User, error) {
	patch := model.ProfilePatch{
		Bio:              in.Bio,
		Skills:           in.Skills,
		GitHubUsername:   in.GitHubUsername,
		GitHubProfileURL: in.GitHubProfileURL,
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name must not be empty")
		}
		patch.Name = &name
	}

	if in.Avatar != nil {
		if s.avatars == nil {
			return nil, apperror.ValidationFailed("avatar", "avatar uploads are not enabled")
		}
		if len(in.Avatar) == 0 {
			return nil, apperror.ValidationFailed("avatar", "avatar file is empty")
		}
		if len(in.Avatar) > MaxAvatarBytes {
			return nil, apperror.ValidationFailed("avatar",
				fmt.Sprintf("avatar must be %d bytes or less", MaxAvatarBytes))
		}

		url, err := s.avatars.Store(ctx, in.Avatar, in.AvatarContentType)
		if err != nil {
			s.logger.Error("avatar upload failed",
				slog.String("userID", callerID),
				slog.String("error", err.Error()),
			)
			return nil, apperror.Transient("uploading avatar", err)
		}
		patch.AvatarURL = &url
	}

	if patch.Empty() {
		return nil, apperror.ValidationFailed("", "no valid fields provided for update")
	}

	user, err := s.users.UpdateProfile(ctx, callerID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", callerID))
	return user, nil
}
