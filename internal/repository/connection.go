package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PoolConfig bounds the driver connection pool. Zero values keep the driver defaults.
type PoolConfig struct {
	MaxPoolSize uint64
	MinPoolSize uint64
}

// ConnectMongoDB dials uri, pings the primary and returns the named database.
// The caller owns the client and disconnects it through db.Client().
func ConnectMongoDB(ctx context.Context, uri, database string, pool PoolConfig) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, clientOptions(uri, pool))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", database, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", database, err)
	}

	return client.Database(database), nil
}

func clientOptions(uri string, pool PoolConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)
	if pool.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(pool.MaxPoolSize)
	}
	if pool.MinPoolSize > 0 {
		opts.SetMinPoolSize(pool.MinPoolSize)
	}
	return opts
}
