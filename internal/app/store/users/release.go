// internal/app/store/users/release.go
package userstore

import (
	"context"
	"time"

	"github.com/dalemusser/hackhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetStatusReleased shows or hides the admission decision for one user.
func (s *Store) SetStatusReleased(ctx context.Context, id primitive.ObjectID, released bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"status.status_released": released,
			"last_updated":           time.Now().UTC(),
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

// releaseWhere flips status_released on everyone still hidden who
// matches the extra criteria. Returns the number of users touched.
func (s *Store) releaseWhere(ctx context.Context, extra bson.M) (int64, error) {
	filter := bson.M{"status.status_released": false}
	for k, v := range extra {
		filter[k] = v
	}
	res, err := s.c.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{
			"status.status_released": true,
			"last_updated":           time.Now().UTC(),
		},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ReleaseAllStatuses releases every hidden status, decided or not.
// Undecided users released here simply see that no decision exists yet.
func (s *Store) ReleaseAllStatuses(ctx context.Context) (int64, error) {
	return s.releaseWhere(ctx, nil)
}

// ReleaseAdmitted releases every hidden admit.
func (s *Store) ReleaseAdmitted(ctx context.Context) (int64, error) {
	return s.releaseWhere(ctx, bson.M{"status.admitted": true})
}

// ReleaseWaitlisted releases every hidden waitlist placement.
func (s *Store) ReleaseWaitlisted(ctx context.Context) (int64, error) {
	return s.releaseWhere(ctx, bson.M{"status.waitlisted": true})
}

// ReleaseRejected releases every hidden rejection.
func (s *Store) ReleaseRejected(ctx context.Context) (int64, error) {
	return s.releaseWhere(ctx, bson.M{"status.rejected": true})
}

// HideAllReleased hides every released status. Staff accounts are
// excluded so organizers keep seeing their own state.
func (s *Store) HideAllReleased(ctx context.Context) (int64, error) {
	filter := notStaff()
	filter["status.status_released"] = true
	res, err := s.c.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{
			"status.status_released": false,
			"last_updated":           time.Now().UTC(),
		},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FindRejectedUnreleased returns rejected users whose decision is still
// hidden. The push-back sweep resets each of them individually.
func (s *Store) FindRejectedUnreleased(ctx context.Context) ([]models.User, error) {
	return s.findAll(ctx, bson.M{
		"status.rejected":        true,
		"status.status_released": false,
	})
}

// RejectUndecided force-rejects every non-staff verified user without a
// decision. Used at the end of the review period. Returns the number of
// users rejected.
func (s *Store) RejectUndecided(ctx context.Context) (int64, error) {
	filter := notStaff()
	filter["permissions.verified"] = true
	filter["status.admitted"] = false
	filter["status.rejected"] = false
	filter["status.waitlisted"] = false

	res, err := s.c.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{
			"status.rejected":        true,
			"status.status_released": false,
			"last_updated":           time.Now().UTC(),
		},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FindLaggers returns the reminder populations: verified users who have
// not submitted an application, admitted users who have neither
// confirmed nor declined, and confirmed users without a waiver on file.
// The three scans mirror the reminder email audiences.
func (s *Store) FindLaggers(ctx context.Context) (unsubmitted, unconfirmed, unwaivered []models.User, err error) {
	base := notStaff()
	base["permissions.verified"] = true
	base["status.active"] = true

	notSubmitted := cloneFilter(base)
	notSubmitted["status.submitted_application"] = false
	unsubmitted, err = s.findAll(ctx, notSubmitted)
	if err != nil {
		return nil, nil, nil, err
	}

	undecidedInvite := cloneFilter(base)
	undecidedInvite["status.admitted"] = true
	undecidedInvite["status.confirmed"] = false
	undecidedInvite["status.declined"] = false
	unconfirmed, err = s.findAll(ctx, undecidedInvite)
	if err != nil {
		return nil, nil, nil, err
	}

	noWaiver := cloneFilter(base)
	noWaiver["status.confirmed"] = true
	noWaiver["status.waiver"] = false
	unwaivered, err = s.findAll(ctx, noWaiver)
	if err != nil {
		return nil, nil, nil, err
	}

	return unsubmitted, unconfirmed, unwaivered, nil
}

// ByTeamCode returns the users currently carrying the given team code.
func (s *Store) ByTeamCode(ctx context.Context, code string) ([]models.User, error) {
	return s.findAll(ctx, bson.M{"team_code": code})
}

// SetTeamCode attaches a team code to a user who is not already on a
// team. Returns ErrNoMatch when the user is missing or already has a
// team.
func (s *Store) SetTeamCode(ctx context.Context, id primitive.ObjectID, code string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "team_code": ""},
		bson.M{"$set": bson.M{
			"team_code":    code,
			"last_updated": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

// ClearTeamCode detaches a user from their team.
func (s *Store) ClearTeamCode(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"team_code":    "",
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

// ClearTeamCodeByTeam detaches every user carrying the given code.
// Used when a team is deactivated. Returns the number of users cleared.
func (s *Store) ClearTeamCodeByTeam(ctx context.Context, code string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"team_code": code},
		bson.M{"$set": bson.M{
			"team_code":    "",
			"last_updated": time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) findAll(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := s.c.Find(ctx, filter)
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

func cloneFilter(m bson.M) bson.M {
	out := make(bson.M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
