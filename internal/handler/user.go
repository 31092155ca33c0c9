package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/auth"
	"github.com/sakif/collabcampus/internal/service"
)

// UserHandler manages profile updates.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleUpdateMe applies a partial update to the caller's own profile.
//
// HTTP: PATCH /api/users/me (auth)
//
// Two content types are accepted:
//   - application/json: {"name": ..., "bio": ..., "skills": [...], ...},
//     where omitted fields are left unchanged
//   - multipart/form-data: the same fields as form values plus an optional
//     "avatar" file part
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("no authenticated user"))
		return
	}

	var (
		in  service.ProfileUpdateInput
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		in, err = decodeProfileForm(r)
	} else {
		in, err = decodeProfileJSON(r)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), callerID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func decodeProfileJSON(r *http.Request) (service.ProfileUpdateInput, error) {
	var body struct {
		Name             *string   `json:"name"`
		Bio              *string   `json:"bio"`
		Skills           *[]string `json:"skills"`
		GitHubUsername   *string   `json:"githubUsername"`
		GitHubProfileURL *string   `json:"githubProfileUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return service.ProfileUpdateInput{}, apperror.ValidationFailed("", "invalid JSON body")
	}
	return service.ProfileUpdateInput{
		Name:             body.Name,
		Bio:              body.Bio,
		Skills:           body.Skills,
		GitHubUsername:   body.GitHubUsername,
		GitHubProfileURL: body.GitHubProfileURL,
	}, nil
}

func decodeProfileForm(r *http.Request) (service.ProfileUpdateInput, error) {
	// Memory cap for the non-file parts; larger file parts spill to disk.
	if err := r.ParseMultipartForm(service.MaxAvatarBytes + 1<<20); err != nil {
		return service.ProfileUpdateInput{}, apperror.ValidationFailed("", "invalid multipart form")
	}

	var in service.ProfileUpdateInput
	if v, ok := formValue(r, "name"); ok {
		in.Name = &v
	}
	if v, ok := formValue(r, "bio"); ok {
		in.Bio = &v
	}
	if v, ok := formValue(r, "skills"); ok {
		skills := splitSkills(v)
		in.Skills = &skills
	}
	if v, ok := formValue(r, "githubUsername"); ok {
		in.GitHubUsername = &v
	}
	if v, ok := formValue(r, "githubProfileUrl"); ok {
		in.GitHubProfileURL = &v
	}

	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, service.MaxAvatarBytes+1))
		if err != nil {
			return service.ProfileUpdateInput{}, apperror.ValidationFailed("avatar", "could not read avatar file")
		}
		in.Avatar = data
		in.AvatarContentType = header.Header.Get("Content-Type")
	} else if err != http.ErrMissingFile {
		return service.ProfileUpdateInput{}, apperror.ValidationFailed("avatar", "invalid avatar file")
	}

	return in, nil
}

// formValue distinguishes "field absent" from "field set to empty".
func formValue(r *http.Request, name string) (string, bool) {
	vs, ok := r.MultipartForm.Value[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// splitSkills accepts either a JSON array or a comma-separated list.
func splitSkills(raw string) []string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var skills []string
		if err := json.Unmarshal([]byte(raw), &skills); err == nil {
			return skills
		}
	}
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}
