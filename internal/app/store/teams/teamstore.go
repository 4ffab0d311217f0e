// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/hackhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound          = errors.New("team not found")
	ErrDuplicateTeamName = errors.New("a team with this name already exists")
	ErrTeamFull          = errors.New("team is full")
	ErrTeamInactive      = errors.New("team is no longer active")
	ErrAlreadyMember     = errors.New("user is already on the team")
	ErrNotMember         = errors.New("user is not on the team")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("teams")}
}

// EnsureIndexes creates the unique indexes on the join code and the
// case-folded team name.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// newCode returns a fresh short join code.
func newCode() string {
	return uuid.NewString()[:7]
}

// Create inserts a new active team with a generated join code. The
// creator is not added here; membership goes through AddMember so the
// size cap applies uniformly.
func (s *Store) Create(ctx context.Context, name string) (models.Team, error) {
	t := models.Team{
		Name:      name,
		NameCI:    text.Fold(name),
		MemberIDs: []primitive.ObjectID{},
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	// A duplicate-key error is almost always the name; a collision on
	// the generated code gets a retry with a fresh one.
	for attempt := 0; attempt < 3; attempt++ {
		t.ID = primitive.NewObjectID()
		t.Code = newCode()
		_, err := s.c.InsertOne(ctx, t)
		if err == nil {
			return t, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Team{}, err
		}
		n, cerr := s.c.CountDocuments(ctx, bson.M{"name_ci": t.NameCI})
		if cerr != nil {
			return models.Team{}, cerr
		}
		if n > 0 {
			return models.Team{}, ErrDuplicateTeamName
		}
	}
	return models.Team{}, ErrDuplicateTeamName
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Team{}, ErrNotFound
		}
		return models.Team{}, err
	}
	return t, nil
}

// GetByCode looks a team up by join code, active or not.
func (s *Store) GetByCode(ctx context.Context, code string) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"code": code}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Team{}, ErrNotFound
		}
		return models.Team{}, err
	}
	return t, nil
}

// AddMember adds userID to the team with the given code, refusing
// atomically when the team is full, inactive, or already lists the
// user. Returns the team after the join.
func (s *Store) AddMember(ctx context.Context, code string, userID primitive.ObjectID) (models.Team, error) {
	filter := bson.M{
		"code":       code,
		"active":     true,
		"member_ids": bson.M{"$ne": userID},
		"$expr":      bson.M{"$lt": bson.A{bson.M{"$size": "$member_ids"}, models.MaxTeamSize}},
	}
	update := bson.M{"$addToSet": bson.M{"member_ids": userID}}

	var t models.Team
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Team{}, err
	}
	return models.Team{}, s.classifyJoinFailure(ctx, code, userID)
}

// classifyJoinFailure works out why a conditional join matched nothing.
func (s *Store) classifyJoinFailure(ctx context.Context, code string, userID primitive.ObjectID) error {
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	switch {
	case !t.Active:
		return ErrTeamInactive
	case t.HasMember(userID):
		return ErrAlreadyMember
	case t.Size() >= models.MaxTeamSize:
		return ErrTeamFull
	}
	return ErrNotFound
}

// RemoveMember pulls userID from the team's member list and returns the
// team after the removal.
func (s *Store) RemoveMember(ctx context.Context, code string, userID primitive.ObjectID) (models.Team, error) {
	filter := bson.M{"code": code, "member_ids": userID}
	update := bson.M{"$pull": bson.M{"member_ids": userID}}

	var t models.Team
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, gerr := s.GetByCode(ctx, code); gerr != nil {
				return models.Team{}, gerr
			}
			return models.Team{}, ErrNotMember
		}
		return models.Team{}, err
	}
	return t, nil
}

// DeleteIfEmpty removes the team only when its member list is empty.
// Reports whether a document was deleted.
// Delete removes a team outright, regardless of roster or active
// state. Callers clear member team codes first.
func (s *Store) Delete(ctx context.Context, code string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"code": code})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteIfEmpty(ctx context.Context, code string) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"code": code, "member_ids": bson.M{"$size": 0}})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Deactivate retires an active team. The member list stays on the
// record; the join code stops working because every lookup that
// mutates membership filters on active.
func (s *Store) Deactivate(ctx context.Context, code string) (models.Team, error) {
	now := time.Now().UTC()
	filter := bson.M{"code": code, "active": true}
	update := bson.M{"$set": bson.M{"active": false, "deactivated_at": now}}

	var t models.Team
	err := s.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, gerr := s.GetByCode(ctx, code); gerr != nil {
				return models.Team{}, gerr
			}
			return models.Team{}, ErrTeamInactive
		}
		return models.Team{}, err
	}
	return t, nil
}

// AddPoints appends an entry to the team's points ledger.
func (s *Store) AddPoints(ctx context.Context, code string, entry models.PointsEntry) error {
	if entry.AwardedAt.IsZero() {
		entry.AwardedAt = time.Now().UTC()
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"code": code, "active": true},
		bson.M{"$push": bson.M{"points_history": entry}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActive returns all active teams, newest first.
func (s *Store) ListActive(ctx context.Context) ([]models.Team, error) {
	cur, err := s.c.Find(ctx, bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var teams []models.Team
	if err := cur.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// Count returns the number of active teams.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"active": true})
}
