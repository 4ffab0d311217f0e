// Package testutil provides shared helpers for integration and handler
// tests: a disposable Mongo database per test, context helpers, request
// builders, and document fixtures.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var dbCounter atomic.Int64

// SetupTestDB connects to the test MongoDB instance and returns a fresh
// database for this test. The database is dropped when the test finishes.
// The test is skipped when no MongoDB is reachable, so the rest of the
// suite runs without infrastructure.
//
// Set MONGO_TEST_URI to point at a non-default instance; the default is
// mongodb://localhost:27017.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test MongoDB at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("skipping: test MongoDB at %s not reachable: %v", uri, err)
	}

	name := fmt.Sprintf("hackhub_test_%d_%d", time.Now().UnixNano(), dbCounter.Add(1))
	db := client.Database(name)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with a generous timeout for test
// database operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
