package admissionstats

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stats summarizes where the applicant pool stands. Staff accounts are
// excluded so the numbers track real participants.
type Stats struct {
	Registered int `bson:"registered" json:"registered"`
	Submitted  int `bson:"submitted" json:"submitted"`
	Admitted   int `bson:"admitted" json:"admitted"`
	Rejected   int `bson:"rejected" json:"rejected"`
	Waitlisted int `bson:"waitlisted" json:"waitlisted"`
	Confirmed  int `bson:"confirmed" json:"confirmed"`
	Declined   int `bson:"declined" json:"declined"`
	CheckedIn  int `bson:"checked_in" json:"checked_in"`
}

// Pending returns submitted applications with no recorded decision.
func (s Stats) Pending() int {
	n := s.Submitted - s.Admitted - s.Rejected - s.Waitlisted
	if n < 0 {
		return 0
	}
	return n
}

func countIf(field string) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{"$" + field, 1, 0}}}
}

// Collect computes the admission funnel in one aggregation pass over users.
func Collect(ctx context.Context, db *mongo.Database) (Stats, error) {
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"permissions.verified":  true,
			"permissions.checkin":   false,
			"permissions.admin":     false,
			"permissions.reviewer":  false,
			"permissions.owner":     false,
			"permissions.developer": false,
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"registered": bson.M{"$sum": 1},
			"submitted":  countIf("status.submitted_application"),
			"admitted":   countIf("status.admitted"),
			"rejected":   countIf("status.rejected"),
			"waitlisted": countIf("status.waitlisted"),
			"confirmed":  countIf("status.confirmed"),
			"declined":   countIf("status.declined"),
			"checked_in": countIf("status.checked_in"),
		}}},
	}

	cur, err := db.Collection("users").Aggregate(ctx, pipe)
	if err != nil {
		return Stats{}, err
	}
	defer cur.Close(ctx)

	var out []Stats
	if err := cur.All(ctx, &out); err != nil {
		return Stats{}, err
	}
	if len(out) == 0 {
		return Stats{}, nil
	}
	return out[0], nil
}
