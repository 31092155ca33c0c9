package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/auth"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/repository"
)

const minPasswordLength = 8

// AuthService handles signup, login, and token validation. Students sign
// up with email and password; signing in with GitHub is also supported
// and fills the GitHub profile fields that post owners see when
// reviewing requests.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued token so the HTTP
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignupInput carries the fields collected at registration.
type SignupInput struct {
	Name         string
	Email        string
	Password     string
	CollegeEmail string
}

// Signup registers a new account and issues a token. Duplicate emails
// surface as a conflict from the store's unique index — no pre-check.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	collegeEmail := strings.ToLower(strings.TrimSpace(in.CollegeEmail))

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "email is not a valid address")
	}
	if collegeEmail == "" {
		return nil, apperror.ValidationFailed("collegeEmail", "college email is required")
	}
	if _, err := mail.ParseAddress(collegeEmail); err != nil {
		return nil, apperror.ValidationFailed("collegeEmail", "college email is not a valid address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is not usable")
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CollegeEmail: collegeEmail,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates with email and password. Unknown email and wrong
// password produce the same error, so the response never confirms whether
// an address has an account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	invalid := apperror.Unauthenticated("invalid credentials")

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if user.PasswordHash == "" {
		// GitHub-only account; no password to compare against.
		return nil, invalid
	}

	ok, err := s.passwords.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}
	if !ok {
		return nil, invalid
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub completes a GitHub OAuth sign-in. An existing
// account with the same email gains the GitHub profile fields; otherwise a
// new account is created without a password.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	email := strings.ToLower(strings.TrimSpace(ghUser.Email))
	if email == "" {
		// GitHub lets users hide their email; we need one as the account key.
		return nil, apperror.ValidationFailed("email",
			"your GitHub account has no public email; sign up with email and password instead")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		patch := model.ProfilePatch{
			GitHubUsername:   &ghUser.Login,
			GitHubProfileURL: &ghUser.HTMLURL,
		}
		if user.AvatarURL == "" && ghUser.AvatarURL != "" {
			patch.AvatarURL = &ghUser.AvatarURL
		}
		if user, err = s.users.UpdateProfile(ctx, user.ID, patch); err != nil {
			return nil, fmt.Errorf("service/auth: linking GitHub profile: %w", err)
		}

	case errors.Is(err, apperror.ErrNotFound):
		name := strings.TrimSpace(ghUser.Name)
		if name == "" {
			name = ghUser.Login
		}
		user = &model.User{
			Name:             name,
			Email:            email,
			GitHubUsername:   ghUser.Login,
			GitHubProfileURL: ghUser.HTMLURL,
			AvatarURL:        ghUser.AvatarURL,
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: registering GitHub user: %w", err)
		}

	default:
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the full user record for the given internal ID.
// Used by the /api/me handler after the middleware resolves the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthenticated("no authenticated user")
	}
	return s.users.GetUserByID(ctx, id)
}
