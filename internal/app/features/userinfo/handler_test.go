package userinfo_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dalemusser/hackhub/internal/app/features/userinfo"
	"github.com/dalemusser/hackhub/internal/testutil"
)

func TestUserInfo_SignedIn(t *testing.T) {
	h := userinfo.NewHandler()
	user := testutil.HackerUser()

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/user", user)
	rec := testutil.NewRecorder()
	h.ServeUserInfo(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		IsAuthenticated bool   `json:"is_authenticated"`
		ID              string `json:"id"`
		Email           string `json:"email"`
		Level           int    `json:"level"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !body.IsAuthenticated {
		t.Error("expected is_authenticated true")
	}
	if body.ID != user.ID || body.Email != user.Email || body.Level != user.Level {
		t.Errorf("identity mismatch: got %+v", body)
	}
}

func TestUserInfo_Anonymous(t *testing.T) {
	h := userinfo.NewHandler()

	req := testutil.NewRequest(http.MethodGet, "/api/user")
	rec := testutil.NewRecorder()
	h.ServeUserInfo(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		IsAuthenticated bool `json:"is_authenticated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body.IsAuthenticated {
		t.Error("expected is_authenticated false for anonymous request")
	}
}
