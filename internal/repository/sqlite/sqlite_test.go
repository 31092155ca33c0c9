package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/sakif/collabcampus/internal/model"
)

// newTestDB opens a fresh in-memory database with the full schema applied.
// Each test gets its own database; t.Cleanup closes it when the test ends,
// subtests included.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var userSeq int

// createTestUser inserts a user with a unique email and returns it.
func createTestUser(t *testing.T, db *DB, name string) *model.User {
	t.Helper()
	userSeq++
	user := &model.User{
		Name:   name,
		Email:  fmt.Sprintf("%s-%d@example.com", name, userSeq),
		Skills: []string{"go"},
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", name, err)
	}
	return user
}

// createTestPost inserts an OPEN help post owned by ownerID.
func createTestPost(t *testing.T, db *DB, ownerID, title string) *model.HelpPost {
	t.Helper()
	post := &model.HelpPost{
		OwnerID:     ownerID,
		Title:       title,
		Description: "description for " + title,
		TechStack:   []string{"go", "sqlite"},
	}
	if err := db.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("failed to create test post %q: %v", title, err)
	}
	return post
}

// createTestRequest inserts a pending contribution request.
func createTestRequest(t *testing.T, db *DB, postID, requesterID string) *model.ContributionRequest {
	t.Helper()
	req := &model.ContributionRequest{
		HelpPostID:  postID,
		RequesterID: requesterID,
		Message:     "let me help",
	}
	if err := db.CreateOrReactivate(context.Background(), req); err != nil {
		t.Fatalf("failed to create test request: %v", err)
	}
	return req
}

// countRows returns the number of rows in a table. Used to assert that
// reactivation reuses rows instead of inserting new ones.
func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return n
}
