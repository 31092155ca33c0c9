package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, password_hash, college_email,
	github_username, github_profile_url, avatar_url, bio, skills,
	created_at, updated_at`

// Create inserts a new user account. Email uniqueness is enforced by the
// database; a duplicate surfaces as ErrConflict so the signup flow can
// report "already exists" without a prior existence check.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	skills, err := marshalStrings(user.Skills)
	if err != nil {
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, college_email,
		   github_username, github_profile_url, avatar_url, bio, skills,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		strings.ToLower(user.CollegeEmail),
		user.GitHubUsername,
		user.GitHubProfileURL,
		user.AvatarURL,
		user.Bio,
		skills,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("an account with this email already exists")
		}
		return apperror.Transient("sqlite: creating user", err)
	}

	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, strings.ToLower(email))
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, arg)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, apperror.Transient("sqlite: getting user", err)
	}
	return user, nil
}

// UpdateProfile applies a partial profile update. Only non-nil patch fields
// overwrite; a patch carrying nothing is the caller's validation problem and
// never reaches here.
func (db *DB) UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now()}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *patch.Bio)
	}
	if patch.Skills != nil {
		skills, err := marshalStrings(*patch.Skills)
		if err != nil {
			return nil, fmt.Errorf("sqlite: updating profile: %w", err)
		}
		sets = append(sets, "skills = ?")
		args = append(args, skills)
	}
	if patch.GitHubUsername != nil {
		sets = append(sets, "github_username = ?")
		args = append(args, *patch.GitHubUsername)
	}
	if patch.GitHubProfileURL != nil {
		sets = append(sets, "github_profile_url = ?")
		args = append(args, *patch.GitHubProfileURL)
	}
	if patch.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *patch.AvatarURL)
	}

	args = append(args, id)
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, apperror.Transient("sqlite: updating profile", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperror.Transient("sqlite: checking rows affected", err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return db.GetUserByID(ctx, id)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u      model.User
		skills string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CollegeEmail,
		&u.GitHubUsername, &u.GitHubProfileURL, &u.AvatarURL, &u.Bio, &skills,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Skills, err = unmarshalStrings(skills)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
