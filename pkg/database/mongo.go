package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Shalmalsakpal31/Whisper-tags/pkg/config"
)

const mongoConnectTimeout = 10 * time.Second

// NewMongo dials MongoDB and returns the database holding the GridFS content
// store. One long-lived client is created at startup; the driver handles
// pooling and reconnects.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Database, func(context.Context) error, error) {
	dialCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(mongoConnectTimeout).
		SetServerSelectionTimeout(mongoConnectTimeout))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client.Database(cfg.Database), client.Disconnect, nil
}
