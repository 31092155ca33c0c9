package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/collabcampus/internal/apperror"
	"github.com/sakif/collabcampus/internal/model"
)

func TestCreateRequest_Success(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	req, err := svc.CreateRequest(context.Background(), post.ID, requester, "I know chi well")
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if req.Status != model.RequestStatusPending {
		t.Errorf("Status = %q, want %q", req.Status, model.RequestStatusPending)
	}
	if req.ID == "" {
		t.Error("expected request to have an ID")
	}
	if req.Message != "I know chi well" {
		t.Errorf("Message = %q, want %q", req.Message, "I know chi well")
	}
}

func TestCreateRequest_SelfRequest(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	post := seedPost(t, store, owner, "my own post")

	_, err := svc.CreateRequest(context.Background(), post.ID, owner, "")
	if err == nil {
		t.Fatal("CreateRequest() should reject the post owner")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

// The owner is rejected even when the post is closed. Ownership is checked
// before availability so a closed post never reads as "not found" to its
// own author.
func TestCreateRequest_SelfRequestOnClosedPost(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	post := seedPost(t, store, owner, "closed post")
	if _, err := store.ClosePost(context.Background(), post.ID); err != nil {
		t.Fatalf("setup: ClosePost() error = %v", err)
	}

	_, err := svc.CreateRequest(context.Background(), post.ID, owner, "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestCreateRequest_ClosedPostReadsAsNotFound(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "closed post")
	if _, err := store.ClosePost(context.Background(), post.ID); err != nil {
		t.Fatalf("setup: ClosePost() error = %v", err)
	}

	_, err := svc.CreateRequest(context.Background(), post.ID, requester, "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCreateRequest_PendingDuplicateConflicts(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	if _, err := svc.CreateRequest(context.Background(), post.ID, requester, "first"); err != nil {
		t.Fatalf("setup: CreateRequest() error = %v", err)
	}

	_, err := svc.CreateRequest(context.Background(), post.ID, requester, "second")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
	if len(store.requests) != 1 {
		t.Errorf("store holds %d requests, want 1", len(store.requests))
	}
}

func TestCreateRequest_AfterRejectionReusesSlot(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	first, err := svc.CreateRequest(context.Background(), post.ID, requester, "first try")
	if err != nil {
		t.Fatalf("setup: CreateRequest() error = %v", err)
	}
	if err := svc.RejectRequest(context.Background(), first.ID, owner); err != nil {
		t.Fatalf("setup: RejectRequest() error = %v", err)
	}

	second, err := svc.CreateRequest(context.Background(), post.ID, requester, "second try")
	if err != nil {
		t.Fatalf("CreateRequest() after rejection error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-request ID = %q, want same record %q", second.ID, first.ID)
	}
	if second.Status != model.RequestStatusPending {
		t.Errorf("Status = %q, want %q", second.Status, model.RequestStatusPending)
	}
	if second.Message != "second try" {
		t.Errorf("Message = %q, want the new message", second.Message)
	}
	if len(store.requests) != 1 {
		t.Errorf("store holds %d requests, want 1", len(store.requests))
	}
}

func TestCreateRequest_AfterAcceptanceConflicts(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	req, err := svc.CreateRequest(context.Background(), post.ID, requester, "")
	if err != nil {
		t.Fatalf("setup: CreateRequest() error = %v", err)
	}
	if _, err := svc.AcceptRequest(context.Background(), req.ID, owner); err != nil {
		t.Fatalf("setup: AcceptRequest() error = %v", err)
	}

	_, err = svc.CreateRequest(context.Background(), post.ID, requester, "again")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestCreateRequest_MessageTooLong(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	_, err := svc.CreateRequest(context.Background(), post.ID, requester, strings.Repeat("x", MaxMessageLength+1))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestAcceptRequest_AddsContributorExactlyOnce(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	req, err := svc.CreateRequest(context.Background(), post.ID, requester, "")
	if err != nil {
		t.Fatalf("setup: CreateRequest() error = %v", err)
	}

	contributor, err := svc.AcceptRequest(context.Background(), req.ID, owner)
	if err != nil {
		t.Fatalf("AcceptRequest() error = %v", err)
	}
	if contributor.UserID != requester {
		t.Errorf("UserID = %q, want %q", contributor.UserID, requester)
	}
	if contributor.HelpPostID != post.ID {
		t.Errorf("HelpPostID = %q, want %q", contributor.HelpPostID, post.ID)
	}
	if contributor.Role != model.ContributorRoleContributor {
		t.Errorf("Role = %q, want %q", contributor.Role, model.ContributorRoleContributor)
	}

	contributions, err := svc.ListMyContributions(context.Background(), requester)
	if err != nil {
		t.Fatalf("ListMyContributions() error = %v", err)
	}
	if len(contributions) != 1 {
		t.Fatalf("contributions = %d, want exactly 1", len(contributions))
	}
	if contributions[0].ID != post.ID {
		t.Errorf("contribution post = %q, want %q", contributions[0].ID, post.ID)
	}
}

func TestAcceptRequest_DoubleAcceptConflicts(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	req, _ := svc.CreateRequest(context.Background(), post.ID, requester, "")
	if _, err := svc.AcceptRequest(context.Background(), req.ID, owner); err != nil {
		t.Fatalf("first AcceptRequest() error = %v", err)
	}

	_, err := svc.AcceptRequest(context.Background(), req.ID, owner)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second accept: error = %v, want ErrConflict", err)
	}
	if len(store.contributors) != 1 {
		t.Errorf("store holds %d contributors, want 1", len(store.contributors))
	}
}

func TestAcceptRequest_NonOwnerForbidden(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	stranger := seedUser(t, store, "Stranger", "other@example.com")
	post := seedPost(t, store, owner, "API refactor")

	req, _ := svc.CreateRequest(context.Background(), post.ID, requester, "")
	_, err := svc.AcceptRequest(context.Background(), req.ID, stranger)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}

	// Same rule for the requester themselves.
	if _, err := svc.AcceptRequest(context.Background(), req.ID, requester); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("requester accept: error = %v, want ErrForbidden", err)
	}
}

func TestRejectRequest_ThenAcceptConflicts(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	req, _ := svc.CreateRequest(context.Background(), post.ID, requester, "")
	if err := svc.RejectRequest(context.Background(), req.ID, owner); err != nil {
		t.Fatalf("RejectRequest() error = %v", err)
	}

	_, err := svc.AcceptRequest(context.Background(), req.ID, owner)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("accept after reject: error = %v, want ErrConflict", err)
	}
}

func TestRejectRequest_NotFound(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")

	err := svc.RejectRequest(context.Background(), "nonexistent", owner)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListRequestsForPost_OwnerOnly(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	requester := seedUser(t, store, "Requester", "req@example.com")
	post := seedPost(t, store, owner, "API refactor")

	if _, err := svc.CreateRequest(context.Background(), post.ID, requester, "pick me"); err != nil {
		t.Fatalf("setup: CreateRequest() error = %v", err)
	}

	requests, err := svc.ListRequestsForPost(context.Background(), post.ID, owner)
	if err != nil {
		t.Fatalf("ListRequestsForPost() error = %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	if requests[0].Requester.ID != requester {
		t.Errorf("Requester.ID = %q, want %q", requests[0].Requester.ID, requester)
	}

	if _, err := svc.ListRequestsForPost(context.Background(), post.ID, requester); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-owner list: error = %v, want ErrForbidden", err)
	}
}

func TestListRequestsForPost_OnlyPending(t *testing.T) {
	svc, store := newTestCollab(t)
	owner := seedUser(t, store, "Owner", "owner@example.com")
	alice := seedUser(t, store, "Alice", "alice@example.com")
	bob := seedUser(t, store, "Bob", "bob@example.com")
	carol := seedUser(t, store, "Carol", "carol@example.com")
	post := seedPost(t, store, owner, "API refactor")

	accepted, _ := svc.CreateRequest(context.Background(), post.ID, alice, "")
	rejected, _ := svc.CreateRequest(context.Background(), post.ID, bob, "")
	if _, err := svc.CreateRequest(context.Background(), post.ID, carol, ""); err != nil {
		t.Fatalf("setup: CreateRequest() error = %v", err)
	}

	if _, err := svc.AcceptRequest(context.Background(), accepted.ID, owner); err != nil {
		t.Fatalf("setup: AcceptRequest() error = %v", err)
	}
	if err := svc.RejectRequest(context.Background(), rejected.ID, owner); err != nil {
		t.Fatalf("setup: RejectRequest() error = %v", err)
	}

	requests, err := svc.ListRequestsForPost(context.Background(), post.ID, owner)
	if err != nil {
		t.Fatalf("ListRequestsForPost() error = %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("requests = %d, want only the pending one", len(requests))
	}
	if requests[0].RequesterID != carol {
		t.Errorf("RequesterID = %q, want %q", requests[0].RequesterID, carol)
	}
}
