// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"github.com/dalemusser/hackhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store provides access to the settings collection, which holds a
// single event configuration document. Get creates the document with
// defaults on first use, so callers never see ErrNoDocuments.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("settings")}
}

func defaults() models.EventSettings {
	now := time.Now().UTC()
	s := models.EventSettings{
		ID:              primitive.NewObjectID(),
		MaxParticipants: models.DefaultMaxParticipants,
		TimeOpen:        now,
		TimeClose:       now.Add(30 * 24 * time.Hour),
		TimeConfirm:     now.Add(45 * 24 * time.Hour),
		EmailQueues:     map[models.EmailKind]models.EmailQueue{},
		LastUpdated:     now,
	}
	for _, kind := range models.EmailKinds {
		s.EmailQueues[kind] = models.EmailQueue{Recipients: []string{}}
	}
	return s
}

// Get returns the event settings, creating the singleton with defaults
// if it does not exist yet.
func (s *Store) Get(ctx context.Context) (models.EventSettings, error) {
	var settings models.EventSettings
	err := s.c.FindOne(ctx, bson.M{}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		settings = defaults()
		if _, err := s.c.InsertOne(ctx, settings); err != nil {
			return models.EventSettings{}, err
		}
		return settings, nil
	}
	if err != nil {
		return models.EventSettings{}, err
	}
	if settings.EmailQueues == nil {
		settings.EmailQueues = map[models.EmailKind]models.EmailQueue{}
	}
	return settings, nil
}

// Update sets the mutable configuration fields. Queue contents are
// managed through the queue operations, not here.
func (s *Store) Update(ctx context.Context, maxParticipants int, timeOpen, timeClose, timeConfirm time.Time) error {
	// Ensure the singleton exists before updating it.
	if _, err := s.Get(ctx); err != nil {
		return err
	}
	_, err := s.c.UpdateOne(ctx, bson.M{}, bson.M{
		"$set": bson.M{
			"max_participants": maxParticipants,
			"time_open":        timeOpen,
			"time_close":       timeClose,
			"time_confirm":     timeConfirm,
			"last_updated":     time.Now().UTC(),
		},
	})
	return err
}

// QueuePush adds an email address to the named queue if it is not
// already present.
func (s *Store) QueuePush(ctx context.Context, kind models.EmailKind, email string) error {
	if _, err := s.Get(ctx); err != nil {
		return err
	}
	_, err := s.c.UpdateOne(ctx, bson.M{}, bson.M{
		"$addToSet": bson.M{
			"email_queues." + string(kind) + ".recipients": email,
		},
		"$set": bson.M{"last_updated": time.Now().UTC()},
	})
	return err
}

// QueuePull removes an email address from the named queue.
func (s *Store) QueuePull(ctx context.Context, kind models.EmailKind, email string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{}, bson.M{
		"$pull": bson.M{
			"email_queues." + string(kind) + ".recipients": email,
		},
		"$set": bson.M{"last_updated": time.Now().UTC()},
	})
	return err
}

// QueuePullAll removes an email address from every queue. Used when a
// user's admission state is reset so a stale notification never goes
// out.
func (s *Store) QueuePullAll(ctx context.Context, email string) error {
	pull := bson.M{}
	for _, kind := range models.EmailKinds {
		pull["email_queues."+string(kind)+".recipients"] = email
	}
	_, err := s.c.UpdateOne(ctx, bson.M{}, bson.M{
		"$pull": pull,
		"$set":  bson.M{"last_updated": time.Now().UTC()},
	})
	return err
}

// QueueDrain empties the named queue, records the flush time, and
// returns the recipients that were queued.
func (s *Store) QueueDrain(ctx context.Context, kind models.EmailKind) ([]string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	recipients := settings.EmailQueues[kind].Recipients

	now := time.Now().UTC()
	_, err = s.c.UpdateOne(ctx, bson.M{}, bson.M{
		"$set": bson.M{
			"email_queues." + string(kind) + ".recipients":   []string{},
			"email_queues." + string(kind) + ".last_flushed": now,
			"last_updated": now,
		},
	})
	if err != nil {
		return nil, err
	}
	return recipients, nil
}

// QueueStats returns the pending count per queue.
func (s *Store) QueueStats(ctx context.Context) (map[models.EmailKind]int, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[models.EmailKind]int, len(models.EmailKinds))
	for _, kind := range models.EmailKinds {
		stats[kind] = len(settings.EmailQueues[kind].Recipients)
	}
	return stats, nil
}
