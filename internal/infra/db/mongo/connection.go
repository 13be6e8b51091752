// File: internal/infra/db/mongo/connection.go
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/HOLYLABS972/esim-main-sub001/internal/config"
)

// Connect opens the client, pings, and hands back the database plus a
// shutdown func.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*mongo.Database, func(), error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxConnIdleTime(5 * time.Minute)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	cleanup := func() {
		shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		_ = client.Disconnect(shutCtx)
	}
	return client.Database(cfg.Name), cleanup, nil
}

// setDoc marshals v and strips _id so it can be used inside $set on an
// upsert. omitempty tags keep empty fields out, which is what gives the
// writes their merge semantics.
func setDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	delete(m, "_id")
	return m, nil
}
