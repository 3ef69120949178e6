package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	BlogPosts = "blogposts"
	Issues    = "issues"
	Products  = "products"
)

// ConnectMongo dials uri and pings the primary.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the document indexes, including the TTL index that
// expires blog posts blogTTL after creation.
func EnsureIndexes(ctx context.Context, db *mongo.Database, blogTTL time.Duration) error {
	blogs := []mongo.IndexModel{
		{Keys: bson.D{{Key: "municipalityEmail", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "authorEmail", Value: 1}}},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(blogTTL / time.Second)),
		},
	}
	issues := []mongo.IndexModel{
		{Keys: bson.D{{Key: "municipalityEmail", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userEmail", Value: 1}}},
	}
	products := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "sellerEmail", Value: 1}}},
	}

	for name, idx := range map[string][]mongo.IndexModel{BlogPosts: blogs, Issues: issues, Products: products} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("indexes %s: %w", name, err)
		}
	}
	return nil
}
