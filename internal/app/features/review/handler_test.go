package review_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/hackhub/internal/app/admission"
	"github.com/dalemusser/hackhub/internal/app/features/review"
	settingsstore "github.com/dalemusser/hackhub/internal/app/store/settings"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/events"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/dalemusser/hackhub/internal/testutil"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type reviewHarness struct {
	handler  *review.Handler
	users    *userstore.Store
	fixtures *testutil.Fixtures
}

func newReviewHarness(t *testing.T, db *mongo.Database) *reviewHarness {
	users := userstore.New(db)
	settings := settingsstore.New(db)
	svc := admission.NewService(users, settings, nil, events.NewSyncDispatcher(zap.NewNop()), zap.NewNop())
	return &reviewHarness{
		handler:  review.NewHandler(users, svc, zap.NewNop()),
		users:    users,
		fixtures: testutil.NewFixtures(t, db),
	}
}

func reviewerAs(u models.User) testutil.TestUser {
	return testutil.TestUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName(),
		Email: u.Email,
		Level: models.LevelReviewer,
	}
}

func TestQueue_ExcludesAlreadyVoted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")
	pending := h.fixtures.CreateApplicant(ctx, "Pat", "Pending", "pat@example.com")
	voted := h.fixtures.CreateApplicant(ctx, "Val", "Voted", "val@example.com")

	if _, err := h.handler.Admission.Vote(ctx, reviewer.ID, reviewer.Email, voted.ID, userstore.VoteAdmit); err != nil {
		t.Fatalf("seed vote: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/review/queue", reviewerAs(reviewer))
	rec := testutil.NewRecorder()
	h.handler.ServeQueue(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, pending.Email)
	if got := rec.Body.String(); strings.Contains(got, voted.Email) {
		t.Errorf("queue should exclude applicants this reviewer voted on, body: %s", got)
	}
}

func TestQueue_ExcludesDecidedAndUnsubmitted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")
	h.fixtures.CreateAdmittedUser(ctx, "Ann", "Admitted", "ann@example.com")
	h.fixtures.CreateUser(ctx, models.User{
		Email:       "drew@example.com",
		FirstName:   "Drew",
		LastName:    "Draft",
		Permissions: models.Permissions{Verified: true},
		Status:      models.Status{Active: true},
	})
	open := h.fixtures.CreateApplicant(ctx, "Ollie", "Open", "ollie@example.com")

	req := testutil.NewAuthenticatedRequest("GET", "/review/queue", reviewerAs(reviewer))
	rec := testutil.NewRecorder()
	h.handler.ServeQueue(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, open.Email)
	rec.AssertContains(t, `"count":1`)
}

func TestVote_RecordsBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")
	applicant := h.fixtures.CreateApplicant(ctx, "Pat", "Pending", "pat@example.com")

	req := testutil.NewJSONRequest("POST", "/review/vote/"+applicant.ID.Hex(), `{"vote":"admit"}`)
	req = testutil.WithUser(req, reviewerAs(reviewer))
	req = testutil.WithChiURLParam(req, "id", applicant.ID.Hex())
	rec := testutil.NewRecorder()
	h.handler.ServeVote(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"num_votes":1`)

	got, err := h.users.GetByID(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("reload applicant: %v", err)
	}
	if got.NumVotes != 1 || len(got.ApplicationAdmit) != 1 {
		t.Errorf("ballot not recorded: votes=%d admit=%v", got.NumVotes, got.ApplicationAdmit)
	}
}

func TestVote_DuplicateBallotConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")
	applicant := h.fixtures.CreateApplicant(ctx, "Pat", "Pending", "pat@example.com")
	if _, err := h.handler.Admission.Vote(ctx, reviewer.ID, reviewer.Email, applicant.ID, userstore.VoteAdmit); err != nil {
		t.Fatalf("seed vote: %v", err)
	}

	req := testutil.NewJSONRequest("POST", "/review/vote/"+applicant.ID.Hex(), `{"vote":"reject"}`)
	req = testutil.WithUser(req, reviewerAs(reviewer))
	req = testutil.WithChiURLParam(req, "id", applicant.ID.Hex())
	rec := testutil.NewRecorder()
	h.handler.ServeVote(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
}

func TestVote_RejectsUnknownKind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")
	applicant := h.fixtures.CreateApplicant(ctx, "Pat", "Pending", "pat@example.com")

	req := testutil.NewJSONRequest("POST", "/review/vote/"+applicant.ID.Hex(), `{"vote":"maybe"}`)
	req = testutil.WithUser(req, reviewerAs(reviewer))
	req = testutil.WithChiURLParam(req, "id", applicant.ID.Hex())
	rec := testutil.NewRecorder()
	h.handler.ServeVote(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestReset_ClearsDecision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")
	applicant := h.fixtures.CreateApplicant(ctx, "Pat", "Pending", "pat@example.com")

	for i := 0; i < 3; i++ {
		other := h.fixtures.CreateReviewer(ctx, "Rev", fmt.Sprint(i), fmt.Sprintf("rev%d@example.com", i))
		if _, err := h.handler.Admission.Vote(ctx, other.ID, other.Email, applicant.ID, userstore.VoteReject); err != nil {
			t.Fatalf("seed vote %d: %v", i, err)
		}
	}

	req := testutil.NewAuthenticatedRequest("POST", "/review/reset/"+applicant.ID.Hex(), reviewerAs(reviewer))
	req = testutil.WithChiURLParam(req, "id", applicant.ID.Hex())
	rec := testutil.NewRecorder()
	h.handler.ServeReset(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"decided":false`)

	got, err := h.users.GetByID(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("reload applicant: %v", err)
	}
	if got.NumVotes != 0 || got.Status.Rejected {
		t.Errorf("expected reset slate, got votes=%d rejected=%v", got.NumVotes, got.Status.Rejected)
	}
}

func TestResetVotes_WipesBallot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")
	applicant := h.fixtures.CreateApplicant(ctx, "Pat", "Pending", "pat@example.com")

	for i := 0; i < 2; i++ {
		other := h.fixtures.CreateReviewer(ctx, "Rev", fmt.Sprint(i), fmt.Sprintf("rev%d@example.com", i))
		if _, err := h.handler.Admission.Vote(ctx, other.ID, other.Email, applicant.ID, userstore.VoteAdmit); err != nil {
			t.Fatalf("seed vote %d: %v", i, err)
		}
	}

	req := testutil.NewAuthenticatedRequest("POST", "/review/reset-votes/"+applicant.ID.Hex(), reviewerAs(reviewer))
	req = testutil.WithChiURLParam(req, "id", applicant.ID.Hex())
	rec := testutil.NewRecorder()
	h.handler.ServeResetVotes(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"num_votes":0`)

	got, err := h.users.GetByID(ctx, applicant.ID)
	if err != nil {
		t.Fatalf("reload applicant: %v", err)
	}
	if got.NumVotes != 0 || len(got.ApplicationVotes) != 0 {
		t.Errorf("expected empty ballot, got votes=%d ledger=%v", got.NumVotes, got.ApplicationVotes)
	}
}

func TestResetVotes_DecidedUserConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")
	admitted := h.fixtures.CreateAdmittedUser(ctx, "Ada", "Admit", "ada@example.com")

	req := testutil.NewAuthenticatedRequest("POST", "/review/reset-votes/"+admitted.ID.Hex(), reviewerAs(reviewer))
	req = testutil.WithChiURLParam(req, "id", admitted.ID.Hex())
	rec := testutil.NewRecorder()
	h.handler.ServeResetVotes(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
}

func TestReset_UnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newReviewHarness(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewer := h.fixtures.CreateReviewer(ctx, "Rae", "Viewer", "rae@example.com")

	missing := "64b000000000000000000000"
	req := testutil.NewAuthenticatedRequest("POST", "/review/reset/"+missing, reviewerAs(reviewer))
	req = testutil.WithChiURLParam(req, "id", missing)
	rec := testutil.NewRecorder()
	h.handler.ServeReset(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}
