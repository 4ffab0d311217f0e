// internal/app/store/users/admission.go
package userstore

import (
	"context"
	"time"

	"github.com/dalemusser/hackhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VoteKind distinguishes the two vote directions.
type VoteKind string

const (
	VoteAdmit  VoteKind = "admit"
	VoteReject VoteKind = "reject"
)

// votable is the precondition for a ballot: the user is verified and
// neither admitted nor rejected. Waitlisted users can still collect
// votes; the ballot just cannot move them anymore.
func votable(id primitive.ObjectID) bson.M {
	return bson.M{
		"_id":                  id,
		"permissions.verified": true,
		"status.admitted":      false,
		"status.rejected":      false,
	}
}

// undecided is the precondition for recording a decision: votable and
// not already parked on the waitlist.
func undecided(id primitive.ObjectID) bson.M {
	filter := votable(id)
	filter["status.waitlisted"] = false
	return filter
}

// PushVote atomically records a reviewer's vote. The filter folds all
// preconditions into one conditional update: the user must be verified,
// undecided, and the reviewer must not already appear in either vote
// array. A failure on any clause returns ErrNoMatch; the document is
// never partially modified.
func (s *Store) PushVote(ctx context.Context, id primitive.ObjectID, reviewer string, kind VoteKind) (*models.User, error) {
	filter := votable(id)
	filter["application_admit"] = bson.M{"$nin": []string{reviewer}}
	filter["application_reject"] = bson.M{"$nin": []string{reviewer}}

	ballot := "application_admit"
	if kind == VoteReject {
		ballot = "application_reject"
	}

	update := bson.M{
		"$push": bson.M{
			ballot:              reviewer,
			"application_votes": reviewer,
		},
		"$inc": bson.M{"num_votes": 1},
		"$set": bson.M{"last_updated": time.Now().UTC()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Admit records an admit decision for an undecided verified user.
// confirmBy is the deadline for the user to confirm attendance.
// Releasing the new status is a separate, explicit step, so
// status_released is cleared here.
func (s *Store) Admit(ctx context.Context, id primitive.ObjectID, admittedBy string, confirmBy time.Time) (*models.User, error) {
	update := bson.M{
		"$set": bson.M{
			"status.admitted":        true,
			"status.admitted_by":     admittedBy,
			"status.rejected":        false,
			"status.waitlisted":      false,
			"status.confirm_by":      confirmBy,
			"status.status_released": false,
			"last_updated":           time.Now().UTC(),
		},
	}
	return s.decide(ctx, undecided(id), update)
}

// Reject records a reject decision for an undecided verified user.
func (s *Store) Reject(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	update := bson.M{
		"$set": bson.M{
			"status.rejected":        true,
			"status.admitted":        false,
			"status.waitlisted":      false,
			"status.status_released": false,
			"last_updated":           time.Now().UTC(),
		},
	}
	return s.decide(ctx, undecided(id), update)
}

// Waitlist records a waitlist decision for an undecided verified user.
func (s *Store) Waitlist(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	update := bson.M{
		"$set": bson.M{
			"status.waitlisted":      true,
			"status.admitted":        false,
			"status.rejected":        false,
			"status.status_released": false,
			"last_updated":           time.Now().UTC(),
		},
	}
	return s.decide(ctx, undecided(id), update)
}

func (s *Store) decide(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetVotes clears the vote ledger of an applicant who is not yet
// admitted or rejected, leaving any waitlist placement and the release
// state alone. Returns ErrNoMatch when the user is missing, unverified,
// or already decided.
func (s *Store) ResetVotes(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	update := bson.M{
		"$set": bson.M{
			"application_admit":  []string{},
			"application_reject": []string{},
			"application_votes":  []string{},
			"num_votes":          0,
			"last_updated":       time.Now().UTC(),
		},
	}
	return s.decide(ctx, votable(id), update)
}

// ResetAdmissionState clears the decision, the confirmation state, and
// the entire vote ledger, returning the user to the undecided pool.
// The caller is responsible for pulling any queued notification emails.
func (s *Store) ResetAdmissionState(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	update := bson.M{
		"$set": bson.M{
			"status.admitted":        false,
			"status.admitted_by":     "",
			"status.rejected":        false,
			"status.waitlisted":      false,
			"status.confirmed":       false,
			"status.declined":        false,
			"status.status_released": false,
			"application_admit":      []string{},
			"application_reject":     []string{},
			"application_votes":      []string{},
			"num_votes":              0,
			"last_updated":           time.Now().UTC(),
		},
		"$unset": bson.M{"status.confirm_by": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CountActiveAdmits counts admitted users still occupying a seat:
// not declined and not already through check-in staffing.
func (s *Store) CountActiveAdmits(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"status.admitted":     true,
		"status.declined":     false,
		"permissions.checkin": false,
	})
}

// Confirm records that an admitted user accepted their spot. The
// conditional filter enforces that the user is admitted, has not
// declined, and is inside the confirmation deadline.
func (s *Store) Confirm(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.User, error) {
	filter := bson.M{
		"_id":               id,
		"status.admitted":   true,
		"status.declined":   false,
		"status.confirm_by": bson.M{"$gte": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status.confirmed": true,
			"last_updated":     time.Now().UTC(),
		},
	}
	return s.decide(ctx, filter, update)
}

// Decline records that an admitted user gave up their spot, freeing
// capacity for the next quorum admit.
func (s *Store) Decline(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	filter := bson.M{
		"_id":             id,
		"status.admitted": true,
	}
	update := bson.M{
		"$set": bson.M{
			"status.confirmed": false,
			"status.declined":  true,
			"last_updated":     time.Now().UTC(),
		},
	}
	return s.decide(ctx, filter, update)
}

// ResetInvitation clears the confirmed/declined flags and extends the
// confirmation deadline, re-opening the invitation.
func (s *Store) ResetInvitation(ctx context.Context, id primitive.ObjectID, confirmBy time.Time) (*models.User, error) {
	filter := bson.M{
		"_id":             id,
		"status.admitted": true,
	}
	update := bson.M{
		"$set": bson.M{
			"status.confirmed":  false,
			"status.declined":   false,
			"status.confirm_by": confirmBy,
			"last_updated":      time.Now().UTC(),
		},
	}
	return s.decide(ctx, filter, update)
}
