package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/hackhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateApplicant creates a verified user with a submitted application,
// which is the state reviewers vote on.
func (f *Fixtures) CreateApplicant(ctx context.Context, firstName, lastName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Permissions: models.Permissions{
			Verified: true,
		},
		Status: models.Status{
			Active:               true,
			SubmittedApplication: true,
		},
		ApplicationAdmit:  []string{},
		ApplicationReject: []string{},
		ApplicationVotes:  []string{},
		CreatedAt:         now,
		LastUpdated:       now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test applicant: %v", err)
	}

	return user
}

// CreateUser inserts the given user document, filling in ID and
// timestamps when they are zero. Use for states CreateApplicant does not
// cover.
func (f *Fixtures) CreateUser(ctx context.Context, user models.User) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastUpdated.IsZero() {
		user.LastUpdated = now
	}
	if user.ApplicationAdmit == nil {
		user.ApplicationAdmit = []string{}
	}
	if user.ApplicationReject == nil {
		user.ApplicationReject = []string{}
	}
	if user.ApplicationVotes == nil {
		user.ApplicationVotes = []string{}
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateAdmittedUser creates a verified user who has been admitted but
// not yet confirmed.
func (f *Fixtures) CreateAdmittedUser(ctx context.Context, firstName, lastName, email string) models.User {
	f.t.Helper()

	u := models.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Permissions: models.Permissions{
			Verified: true,
		},
		Status: models.Status{
			Active:               true,
			SubmittedApplication: true,
			Admitted:             true,
			AdmittedBy:           "test",
		},
	}
	return f.CreateUser(ctx, u)
}

// CreateReviewer creates a user with reviewer permissions.
func (f *Fixtures) CreateReviewer(ctx context.Context, firstName, lastName, email string) models.User {
	f.t.Helper()

	u := models.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Permissions: models.Permissions{
			Verified: true,
			Admin:    true,
			Reviewer: true,
		},
		Status: models.Status{
			Active: true,
		},
	}
	return f.CreateUser(ctx, u)
}

// CreateTeam creates an active team with the given members. A join code
// is generated the same way the team service does it.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, memberIDs ...primitive.ObjectID) models.Team {
	f.t.Helper()

	if memberIDs == nil {
		memberIDs = []primitive.ObjectID{}
	}
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Code:      uuid.NewString()[:7],
		MemberIDs: memberIDs,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("teams").InsertOne(ctx, team)
	if err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}

	// Members reference the team by code.
	for _, id := range memberIDs {
		_, err := f.db.Collection("users").UpdateByID(ctx, id,
			map[string]any{"$set": map[string]any{"team_code": team.Code}})
		if err != nil {
			f.t.Fatalf("failed to set team code on member: %v", err)
		}
	}

	return team
}

// CreateSettings inserts an event settings singleton with the given
// participant cap and sensible time windows.
func (f *Fixtures) CreateSettings(ctx context.Context, maxParticipants int) models.EventSettings {
	f.t.Helper()

	now := time.Now().UTC()
	settings := models.EventSettings{
		ID:              primitive.NewObjectID(),
		MaxParticipants: maxParticipants,
		TimeOpen:        now.Add(-24 * time.Hour),
		TimeClose:       now.Add(24 * time.Hour),
		TimeConfirm:     now.Add(14 * 24 * time.Hour),
		EmailQueues:     map[models.EmailKind]models.EmailQueue{},
		LastUpdated:     now,
	}
	for _, kind := range models.EmailKinds {
		settings.EmailQueues[kind] = models.EmailQueue{Recipients: []string{}}
	}

	_, err := f.db.Collection("settings").InsertOne(ctx, settings)
	if err != nil {
		f.t.Fatalf("failed to create test settings: %v", err)
	}

	return settings
}
