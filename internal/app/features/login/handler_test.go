package login_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/hackhub/internal/app/features/login"
	userstore "github.com/dalemusser/hackhub/internal/app/store/users"
	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/app/system/ratelimit"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/dalemusser/hackhub/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func initSessions(t *testing.T) {
	t.Helper()
	if err := auth.InitSessionStore("0123456789abcdef0123456789abcdef", "", false, zap.NewNop()); err != nil {
		t.Fatalf("init session store: %v", err)
	}
}

func seedAccount(t *testing.T, users *userstore.Store, email, password string, active bool) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := models.User{
		Email:     email,
		FirstName: "Sam",
		LastName:  "Park",
		Password:  string(hash),
		Permissions: models.Permissions{
			Verified: true,
		},
		Status: models.Status{
			Active: active,
		},
	}
	if err := users.Create(ctx, &user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLogin_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	initSessions(t)

	users := userstore.New(db)
	seedAccount(t, users, "sam@hacker.com", "hunter2hunter2", true)

	h := login.NewHandler(users, nil, nil, zap.NewNop())

	req := testutil.NewJSONRequest(http.MethodPost, "/login",
		`{"email":"sam@hacker.com","password":"hunter2hunter2"}`)
	rec := testutil.NewRecorder()
	h.ServeLogin(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Email     string `json:"email"`
		Level     int    `json:"level"`
		LevelName string `json:"level_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Email != "sam@hacker.com" {
		t.Errorf("email: got %q", body.Email)
	}
	if body.Level != models.LevelHacker || body.LevelName != "hacker" {
		t.Errorf("level: got %d %q, want %d %q", body.Level, body.LevelName, models.LevelHacker, "hacker")
	}

	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie to be set")
	}
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	db := testutil.SetupTestDB(t)
	initSessions(t)

	users := userstore.New(db)
	seedAccount(t, users, "sam@hacker.com", "hunter2hunter2", true)

	h := login.NewHandler(users, nil, nil, zap.NewNop())

	rec1 := testutil.NewRecorder()
	h.ServeLogin(rec1, testutil.NewJSONRequest(http.MethodPost, "/login",
		`{"email":"sam@hacker.com","password":"wrong-password"}`))
	rec1.AssertStatus(t, http.StatusUnauthorized)

	rec2 := testutil.NewRecorder()
	h.ServeLogin(rec2, testutil.NewJSONRequest(http.MethodPost, "/login",
		`{"email":"ghost@hacker.com","password":"wrong-password"}`))
	rec2.AssertStatus(t, http.StatusUnauthorized)

	if rec1.Body.String() != rec2.Body.String() {
		t.Error("wrong-password and unknown-email responses must be identical")
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	initSessions(t)

	users := userstore.New(db)
	seedAccount(t, users, "gone@hacker.com", "hunter2hunter2", false)

	h := login.NewHandler(users, nil, nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login",
		`{"email":"gone@hacker.com","password":"hunter2hunter2"}`))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestLogin_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	initSessions(t)

	users := userstore.New(db)
	seedAccount(t, users, "sam@hacker.com", "hunter2hunter2", true)

	limiter := ratelimit.NewLoginLimiterWithConfig(1000, time.Minute, 2, time.Minute)
	h := login.NewHandler(users, nil, limiter, zap.NewNop())

	body := `{"email":"sam@hacker.com","password":"wrong-password"}`
	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		h.ServeLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login", body))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}

	rec := testutil.NewRecorder()
	h.ServeLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}
