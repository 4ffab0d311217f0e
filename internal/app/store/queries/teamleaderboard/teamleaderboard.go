package teamleaderboard

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Row is one leaderboard entry.
type Row struct {
	Name    string `bson:"name" json:"name"`
	Code    string `bson:"code" json:"code"`
	Members int    `bson:"members" json:"members"`
	Points  int    `bson:"points" json:"points"`
}

// DefaultLimit caps the leaderboard when the caller passes limit <= 0.
const DefaultLimit = 25

// Top returns active teams ranked by total points from their ledgers.
// Ties break on name so the order is stable.
func Top(ctx context.Context, db *mongo.Database, limit int64) ([]Row, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"active": true}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"points": bson.M{"$sum": bson.M{"$ifNull": bson.A{"$points_history.amount", bson.A{}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "points", Value: -1},
			{Key: "name_ci", Value: 1},
			{Key: "_id", Value: 1},
		}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$project", Value: bson.M{
			"name":    1,
			"code":    1,
			"members": bson.M{"$size": bson.M{"$ifNull": bson.A{"$member_ids", bson.A{}}}},
			"points":  1,
		}}},
	}

	cur, err := db.Collection("teams").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Row
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
