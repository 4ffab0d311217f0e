// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/hackhub/internal/app/system/normalize"
	"github.com/dalemusser/hackhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when creating a user with an email
	// that is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNoMatch is returned by conditional updates whose precondition
	// failed. Callers cannot tell which clause failed, only that the
	// whole action was not performed.
	ErrNoMatch = errors.New("unable to perform action")
)

// Store provides access to the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new user store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index and the lookup indexes
// the admission and release scans rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "team_code", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "status.admitted", Value: 1},
				{Key: "status.declined", Value: 1},
				{Key: "permissions.checkin", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "status.rejected", Value: 1},
				{Key: "status.status_released", Value: 1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new user. The email is normalized before insert.
func (s *Store) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = normalize.Email(user.Email)
	if user.ApplicationAdmit == nil {
		user.ApplicationAdmit = []string{}
	}
	if user.ApplicationReject == nil {
		user.ApplicationReject = []string{}
	}
	if user.ApplicationVotes == nil {
		user.ApplicationVotes = []string{}
	}
	user.CreatedAt = now
	user.LastUpdated = now

	_, err := s.c.InsertOne(ctx, user)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByID fetches a user by ID. Returns ErrNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail fetches a user by normalized email. Returns ErrNotFound
// if absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPassword replaces the stored bcrypt hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"password":     hash,
			"last_updated": time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetVerified flips the verified flag once the user has proven their
// email address.
func (s *Store) SetVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"permissions.verified": true,
			"last_updated":         time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSubmitted marks the user's application as submitted (or retracts
// it before the window closes).
func (s *Store) SetSubmitted(ctx context.Context, id primitive.ObjectID, submitted bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status.submitted_application": submitted,
			"last_updated":                 time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCheckedIn flags the user as checked in on site and records the
// time.
func (s *Store) SetCheckedIn(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status.checked_in": true,
			"check_in_time":     now,
			"last_updated":      now,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCheckedIn undoes a check-in, for badge-desk mistakes.
func (s *Store) ClearCheckedIn(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"status.checked_in": false, "last_updated": time.Now().UTC()},
		"$unset": bson.M{"check_in_time": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetWaiver records whether the signed waiver is on file.
func (s *Store) SetWaiver(ctx context.Context, id primitive.ObjectID, signed bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status.waiver": signed,
			"last_updated":  time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPoints appends an entry to the user's points ledger.
func (s *Store) AddPoints(ctx context.Context, id primitive.ObjectID, entry models.PointsEntry) error {
	if entry.AwardedAt.IsZero() {
		entry.AwardedAt = time.Now().UTC()
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"points_history": entry},
		"$set":  bson.M{"last_updated": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns users matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter bson.M, limit, skip int64) ([]models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)

	cursor, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// notStaff excludes users holding any elevated permission flag. Bulk
// status operations never touch staff accounts.
func notStaff() bson.M {
	return bson.M{
		"permissions.checkin":   false,
		"permissions.admin":     false,
		"permissions.reviewer":  false,
		"permissions.owner":     false,
		"permissions.developer": false,
	}
}
