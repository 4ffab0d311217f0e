// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/hackhub/internal/app/store/emailverify"
	"github.com/dalemusser/hackhub/internal/app/store/oauthstate"
	"github.com/dalemusser/hackhub/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and verifies it with a
// ping before the rest of startup proceeds.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		HackHubMongoClient:   client,
		HackHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every collection depends on: the
// unique email and team-code constraints, the audit trail indexes, and
// the TTL indexes backing email verification and OAuth state expiry.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.HackHubMongoDatabase

	// EnsureAll reconciles the users, teams, and audit_events index
	// sets; the TTL-backed stores manage their own.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure core indexes: %w", err)
	}
	if err := emailverify.New(db, appCfg.EmailVerifyExpiry).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure email verification indexes: %w", err)
	}
	if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure oauth state indexes: %w", err)
	}

	logger.Info("database indexes ensured")
	return nil
}
