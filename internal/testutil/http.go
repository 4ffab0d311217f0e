package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/hackhub/internal/app/system/auth"
	"github.com/dalemusser/hackhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Level int
}

// HackerUser returns a TestUser at the verified hacker level.
func HackerUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Hacker",
		Email: "hacker@test.com",
		Level: models.LevelHacker,
	}
}

// ReviewerUser returns a TestUser at the reviewer level.
func ReviewerUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Reviewer",
		Email: "reviewer@test.com",
		Level: models.LevelReviewer,
	}
}

// AdminUser returns a TestUser at the admin level.
func AdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Level: models.LevelAdmin,
	}
}

// OwnerUser returns a TestUser at the owner level.
func OwnerUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Owner",
		Email: "owner@test.com",
		Level: models.LevelOwner,
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Level: user.Level,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// NewJSONRequest creates an HTTP request with a JSON body and the
// matching Content-Type header.
func NewJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
