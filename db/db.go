package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names shared by every store implementation.
const (
	EventsCollection  = "Events"
	TicketsCollection = "Tickets"
	WalletsCollection = "Wallets"
	UsersCollection   = "Users"
	TasksCollection   = "Tasks"
)

// Connect opens the MongoDB client once at start-up and pings it.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(database), nil
}

// EnsureIndexes creates the secondary indexes the query paths rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		TicketsCollection: {
			{Keys: bson.D{{Key: "eventId", Value: 1}}},
			{Keys: bson.D{{Key: "walletAddress", Value: 1}}},
		},
		WalletsCollection: {
			{Keys: bson.D{{Key: "walletAddress", Value: 1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "wallet_address", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
