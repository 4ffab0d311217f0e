package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/hackhub/internal/app/store/audit"
	"github.com/dalemusser/hackhub/internal/app/system/auditlog"
	"github.com/dalemusser/hackhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "test@example.com")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.Vote(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "admit", 1)
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:      "off",
		Admission: "off",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		Success:   true,
	})

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth: "db",
	})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestLogger_LoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "TestBrowser/1.0")

	logger.LoginSuccess(ctx, req, userID, "hacker@example.com")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != audit.EventLoginSuccess {
		t.Errorf("EventType: got %q, want %q", event.EventType, audit.EventLoginSuccess)
	}
	if !event.Success {
		t.Error("expected Success to be true")
	}
}

func TestLogger_LoginFailedUserNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("GET", "/", nil)
	logger.LoginFailedUserNotFound(ctx, req, "unknown@example.com")

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != audit.EventLoginFailedUserNotFound {
		t.Errorf("EventType: got %q, want %q", event.EventType, audit.EventLoginFailedUserNotFound)
	}
	if event.Success {
		t.Error("expected Success to be false")
	}
	if event.FailureReason != "user not found" {
		t.Errorf("FailureReason: got %q, want %q", event.FailureReason, "user not found")
	}
}

func TestLogger_Logout_InvalidID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zapLog, auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("GET", "/", nil)
	// Should not panic with an invalid hex ID
	logger.Logout(ctx, req, "invalid-hex")
}

func TestLogger_Vote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	reviewerID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{Admission: "db"})

	logger.Vote(ctx, reviewerID, userID, "reject", 2)

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventVoteReject {
		t.Errorf("EventType: got %q, want %q", events[0].EventType, audit.EventVoteReject)
	}
	if events[0].ActorID == nil || *events[0].ActorID != reviewerID {
		t.Error("expected ActorID to be set")
	}
	if events[0].Details["num_votes"] != "2" {
		t.Errorf("num_votes: got %q, want %q", events[0].Details["num_votes"], "2")
	}
}

func TestLogger_CategoryFilteredByConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()
	authUser := primitive.NewObjectID()
	voteUser := primitive.NewObjectID()

	// Auth = off, Admission = db
	logger := auditlog.New(store, zapLog, auditlog.Config{
		Auth:      "off",
		Admission: "db",
	})

	req := httptest.NewRequest("GET", "/", nil)

	logger.LoginSuccess(ctx, req, authUser, "test@example.com")
	logger.Vote(ctx, actorID, voteUser, "admit", 1)

	authEvents, _ := store.GetByUser(ctx, authUser, 10)
	if len(authEvents) != 0 {
		t.Error("expected no auth events when auth config is 'off'")
	}

	voteEvents, _ := store.GetByUser(ctx, voteUser, 10)
	if len(voteEvents) != 1 {
		t.Errorf("expected 1 admission event, got %d", len(voteEvents))
	}
}

func TestGetClientIP_XForwardedFor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.195")
	req.Header.Set("X-Real-IP", "192.168.1.1")
	req.RemoteAddr = "127.0.0.1:12345"

	logger.LoginSuccess(ctx, req, userID, "test@example.com")

	events, _ := store.GetByUser(ctx, userID, 10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	// X-Forwarded-For should take precedence
	if events[0].IP != "203.0.113.195" {
		t.Errorf("IP: got %q, want %q", events[0].IP, "203.0.113.195")
	}
}

func TestGetClientIP_RemoteAddr(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	zapLog := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zapLog, auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:12345"

	logger.LoginSuccess(ctx, req, userID, "test@example.com")

	events, _ := store.GetByUser(ctx, userID, 10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	// Should fall back to RemoteAddr with the port stripped
	if events[0].IP != "10.0.0.5" {
		t.Errorf("IP: got %q, want %q", events[0].IP, "10.0.0.5")
	}
}
