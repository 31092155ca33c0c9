package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/auth"
	"github.com/sakif/collabcampus/internal/model"
	"github.com/sakif/collabcampus/internal/repository"
)

// mockStore is an in-memory implementation of all four repository
// interfaces, mirroring how the production *sqlite.DB implements them on a
// single receiver. It reproduces the store-level contracts the services
// rely on: the unique (post, requester) request slot, the pending-only
// accept/reject guards, and the cascade delete.
type mockStore struct {
	users        map[string]*model.User
	posts        map[string]*model.HelpPost
	requests     map[string]*model.ContributionRequest
	contributors map[string]*model.Contributor
	nextID       int

	// failNext, when non-nil, is returned by the next mutating call.
	failNext error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:        make(map[string]*model.User),
		posts:        make(map[string]*model.HelpPost),
		requests:     make(map[string]*model.ContributionRequest),
		contributors: make(map[string]*model.Contributor),
	}
}

func (m *mockStore) genID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// --- UserRepository ---

func (m *mockStore) CreateUser(_ context.Context, user *model.User) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("an account with this email already exists")
		}
	}
	user.ID = m.genID("user")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockStore) UpdateProfile(_ context.Context, id string, patch model.ProfilePatch) (*model.User, error) {
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	if patch.Skills != nil {
		u.Skills = *patch.Skills
	}
	if patch.GitHubUsername != nil {
		u.GitHubUsername = *patch.GitHubUsername
	}
	if patch.GitHubProfileURL != nil {
		u.GitHubProfileURL = *patch.GitHubProfileURL
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	u.UpdatedAt = time.Now()
	result := *u
	return &result, nil
}

// --- HelpPostRepository ---

func (m *mockStore) CreatePost(_ context.Context, post *model.HelpPost) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	post.ID = m.genID("post")
	post.Status = model.PostStatusOpen
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *mockStore) GetPostByID(_ context.Context, id string) (*model.HelpPost, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, apperror.NotFound("help post", id)
	}
	result := *p
	return &result, nil
}

func (m *mockStore) GetPostDetail(ctx context.Context, id string) (*model.HelpPostDetail, error) {
	p, err := m.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, ok := m.users[p.OwnerID]
	if !ok {
		return nil, apperror.NotFound("help post", id)
	}
	contributors, err := m.ListContributorsForPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.HelpPostDetail{
		HelpPost:     *p,
		Owner:        owner.Public(),
		Contributors: contributors,
	}, nil
}

func (m *mockStore) ListOpenExcludingOwner(_ context.Context, excludeOwnerID string, opts repository.ListOptions) ([]model.HelpPostWithOwner, error) {
	var result []model.HelpPostWithOwner
	for _, p := range m.posts {
		if p.Status != model.PostStatusOpen || p.OwnerID == excludeOwnerID {
			continue
		}
		owner, ok := m.users[p.OwnerID]
		if !ok {
			continue
		}
		result = append(result, model.HelpPostWithOwner{HelpPost: *p, Owner: owner.Public()})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if opts.Offset >= len(result) {
		return []model.HelpPostWithOwner{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockStore) ListByOwnerAndStatus(_ context.Context, ownerID, status string) ([]model.HelpPost, error) {
	var result []model.HelpPost
	for _, p := range m.posts {
		if p.OwnerID == ownerID && p.Status == status {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockStore) UpdatePost(_ context.Context, post *model.HelpPost) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	if _, ok := m.posts[post.ID]; !ok {
		return apperror.NotFound("help post", post.ID)
	}
	post.UpdatedAt = time.Now()
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *mockStore) ClosePost(_ context.Context, id string) (*model.HelpPost, error) {
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, apperror.NotFound("help post", id)
	}
	if p.Status != model.PostStatusOpen {
		return nil, apperror.Conflict("help post is already closed")
	}
	p.Status = model.PostStatusClosed
	p.UpdatedAt = time.Now()
	result := *p
	return &result, nil
}

func (m *mockStore) DeletePostCascade(_ context.Context, id string) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	if _, ok := m.posts[id]; !ok {
		return apperror.NotFound("help post", id)
	}
	for rid, r := range m.requests {
		if r.HelpPostID == id {
			delete(m.requests, rid)
		}
	}
	for cid, c := range m.contributors {
		if c.HelpPostID == id {
			delete(m.contributors, cid)
		}
	}
	delete(m.posts, id)
	return nil
}

// --- RequestRepository ---

func (m *mockStore) CreateOrReactivate(_ context.Context, req *model.ContributionRequest) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	for _, existing := range m.requests {
		if existing.HelpPostID != req.HelpPostID || existing.RequesterID != req.RequesterID {
			continue
		}
		switch existing.Status {
		case model.RequestStatusPending:
			return apperror.Conflict("you already have a pending request for this help post")
		case model.RequestStatusAccepted:
			return apperror.Conflict("you are already a contributor on this help post")
		case model.RequestStatusRejected:
			existing.Status = model.RequestStatusPending
			existing.Message = req.Message
			existing.UpdatedAt = time.Now()
			*req = *existing
			return nil
		}
	}
	req.ID = m.genID("req")
	req.Status = model.RequestStatusPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

func (m *mockStore) GetRequestByID(_ context.Context, id string) (*model.ContributionRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, apperror.NotFound("contribution request", id)
	}
	result := *r
	return &result, nil
}

func (m *mockStore) GetRequestByPostAndRequester(_ context.Context, postID, requesterID string) (*model.ContributionRequest, error) {
	for _, r := range m.requests {
		if r.HelpPostID == postID && r.RequesterID == requesterID {
			result := *r
			return &result, nil
		}
	}
	return nil, apperror.NotFound("contribution request", postID)
}

func (m *mockStore) ListPendingForPost(_ context.Context, postID string) ([]model.RequestWithRequester, error) {
	result := []model.RequestWithRequester{}
	for _, r := range m.requests {
		if r.HelpPostID != postID || r.Status != model.RequestStatusPending {
			continue
		}
		requester, ok := m.users[r.RequesterID]
		if !ok {
			continue
		}
		result = append(result, model.RequestWithRequester{
			ContributionRequest: *r,
			Requester:           requester.Public(),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *mockStore) AcceptRequest(_ context.Context, requestID string) (*model.Contributor, error) {
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	r, ok := m.requests[requestID]
	if !ok {
		return nil, apperror.NotFound("contribution request", requestID)
	}
	if r.Status != model.RequestStatusPending {
		return nil, apperror.Conflict("contribution request is not pending")
	}
	for _, c := range m.contributors {
		if c.HelpPostID == r.HelpPostID && c.UserID == r.RequesterID {
			return nil, apperror.Conflict("user is already a contributor on this help post")
		}
	}
	r.Status = model.RequestStatusAccepted
	r.UpdatedAt = time.Now()
	c := &model.Contributor{
		ID:         m.genID("contrib"),
		HelpPostID: r.HelpPostID,
		UserID:     r.RequesterID,
		Role:       model.ContributorRoleContributor,
		CreatedAt:  time.Now(),
	}
	stored := *c
	m.contributors[c.ID] = &stored
	return c, nil
}

func (m *mockStore) RejectRequest(_ context.Context, requestID string) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	r, ok := m.requests[requestID]
	if !ok {
		return apperror.NotFound("contribution request", requestID)
	}
	if r.Status != model.RequestStatusPending {
		return apperror.Conflict("contribution request is not pending")
	}
	r.Status = model.RequestStatusRejected
	r.UpdatedAt = time.Now()
	return nil
}

// --- ContributorRepository ---

func (m *mockStore) AddContributor(_ context.Context, c *model.Contributor) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	for _, existing := range m.contributors {
		if existing.HelpPostID == c.HelpPostID && existing.UserID == c.UserID {
			return apperror.Conflict("user is already a contributor on this help post")
		}
	}
	if c.ID == "" {
		c.ID = m.genID("contrib")
	}
	if c.Role == "" {
		c.Role = model.ContributorRoleContributor
	}
	c.CreatedAt = time.Now()
	stored := *c
	m.contributors[c.ID] = &stored
	return nil
}

func (m *mockStore) ListContributorsForPost(_ context.Context, postID string) ([]model.ContributorDetail, error) {
	result := []model.ContributorDetail{}
	for _, c := range m.contributors {
		if c.HelpPostID != postID {
			continue
		}
		user, ok := m.users[c.UserID]
		if !ok {
			continue
		}
		result = append(result, model.ContributorDetail{Contributor: *c, User: user.Public()})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockStore) ListContributedPosts(_ context.Context, userID string) ([]model.HelpPostWithOwner, error) {
	result := []model.HelpPostWithOwner{}
	for _, c := range m.contributors {
		if c.UserID != userID {
			continue
		}
		post, ok := m.posts[c.HelpPostID]
		if !ok {
			continue
		}
		owner, ok := m.users[post.OwnerID]
		if !ok {
			continue
		}
		result = append(result, model.HelpPostWithOwner{HelpPost: *post, Owner: owner.Public()})
	}
	return result, nil
}

func (m *mockStore) RemoveContributorsForPost(_ context.Context, postID string) error {
	for id, c := range m.contributors {
		if c.HelpPostID == postID {
			delete(m.contributors, id)
		}
	}
	return nil
}

// --- Test helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCollab(t *testing.T) (*CollaborationService, *mockStore) {
	t.Helper()
	store := newMockStore()
	return NewCollaborationService(store, store, store, testLogger()), store
}

func newTestAuth(t *testing.T) (*AuthService, *mockStore) {
	t.Helper()
	store := newMockStore()
	tokens, err := auth.NewTokenService("test-secret-key-for-auth-tests")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return NewAuthService(store, tokens, auth.NewPasswordService(), testLogger()), store
}

// seedUser adds a user directly to the store and returns its ID.
func seedUser(t *testing.T, store *mockStore, name, email string) string {
	t.Helper()
	u := &model.User{Name: name, Email: email}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user %q: %v", email, err)
	}
	return u.ID
}

// seedPost creates an OPEN post owned by ownerID and returns it.
func seedPost(t *testing.T, store *mockStore, ownerID, title string) *model.HelpPost {
	t.Helper()
	p := &model.HelpPost{
		OwnerID:     ownerID,
		Title:       title,
		Description: "need a hand with " + title,
		TechStack:   []string{"go", "sqlite"},
	}
	if err := store.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("seed post %q: %v", title, err)
	}
	return p
}
