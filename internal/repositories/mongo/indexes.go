package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. Creation is
// idempotent, so this runs on every boot.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	orders := []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: 1}}},
	}
	if _, err := db.Collection(ordersCollection).Indexes().CreateMany(ctx, orders); err != nil {
		return fmt.Errorf("mongo: create order indexes: %w", err)
	}

	payments := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "amount.value", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}
	if _, err := db.Collection(paymentsCollection).Indexes().CreateMany(ctx, payments); err != nil {
		return fmt.Errorf("mongo: create payment indexes: %w", err)
	}
	return nil
}
