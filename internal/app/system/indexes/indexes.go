// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureTeams(ctx, db); err != nil {
		problems = append(problems, "teams: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()

		// Load existing indexes keyed by their key signature.
		existing := map[string]existingIndex{}
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				// Same keys, same options, same name: nothing to do.
				continue
			}
			// Name or options drifted: drop and recreate with the desired spec.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			switch {
			case isOptionsConflictErr(err):
				// An equivalent index already serves the keys; leave it.
				zap.L().Info("reusing conflicting index",
					zap.String("collection", coll.Name()),
					zap.String("keys", desiredSig))
			case isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique:
				helper := ""
				if coll.Name() == "users" && strings.Contains(desiredSig, "email:1") {
					helper = " — duplicates exist on users.email. Example finder:\n" +
						`db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
				}
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s", coll.Name(), desiredName, helper))
			default:
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all users
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},

		// Team rosters look members up by join code
		{
			Keys:    bson.D{{Key: "team_code", Value: 1}},
			Options: options.Index().SetName("idx_users_teamcode"),
		},

		// Capacity counts: admitted, not declined, not check-in staff
		{
			Keys: bson.D{
				{Key: "status.admitted", Value: 1},
				{Key: "status.declined", Value: 1},
				{Key: "permissions.checkin", Value: 1},
			},
			Options: options.Index().SetName("idx_users_admitted_declined_checkin"),
		},

		// Push-back scan: rejected users whose status is not yet released
		{
			Keys: bson.D{
				{Key: "status.rejected", Value: 1},
				{Key: "status.status_released", Value: 1},
			},
			Options: options.Index().SetName("idx_users_rejected_released"),
		},

		// Admin list pages, newest-first
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_users_created"),
		},
	})
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("teams")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Join codes must be unique
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_teams_code"),
		},

		// No duplicate team names (case/diacritics-folded via name_ci)
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_teams_nameci"),
		},

		// Active team listings, newest-first
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_teams_active_created"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Site-wide recent events (latest-first)
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		// Filtered queries by category/type in a time window
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_ts"),
		},
		// Per-user event history (latest-first)
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_ts"),
		},
	})
}
