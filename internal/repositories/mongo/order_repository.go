package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/spec"
	"github.com/fluxcart/api/internal/repositories"
)

const ordersCollection = "orders"

// OrderRepository persists Order aggregates in the orders collection.
type OrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository builds an order repository over the given database.
func NewOrderRepository(db *mongo.Database) (*OrderRepository, error) {
	if db == nil {
		return nil, errors.New("mongo: database is required")
	}
	return &OrderRepository{collection: db.Collection(ordersCollection)}, nil
}

// Insert stores a new aggregate. A duplicate id maps to a conflict.
func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	const op = "orders.insert"
	if o == nil {
		return repositories.NewUnavailable(op, errors.New("order is required"))
	}
	doc, err := encodeOrder(o)
	if err != nil {
		return repositories.NewUnavailable(op, err)
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return wrapError(op, err)
	}
	return nil
}

// Update replaces the stored document, guarded by the version the aggregate
// was loaded with. A stale version maps to a conflict, a missing document to
// not-found.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	const op = "orders.update"
	if o == nil {
		return repositories.NewUnavailable(op, errors.New("order is required"))
	}
	doc, err := encodeOrder(o)
	if err != nil {
		return repositories.NewUnavailable(op, err)
	}

	filter := bson.M{"_id": o.ID().Raw(), "version": o.StoredVersion()}
	result, err := r.collection.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return wrapError(op, err)
	}
	if result.MatchedCount == 0 {
		exists, err := r.Exists(ctx, o.ID())
		if err != nil {
			return err
		}
		if !exists {
			return repositories.NewNotFound(op, fmt.Errorf("order %s not found", o.ID().Raw()))
		}
		return repositories.NewConflict(op, fmt.Errorf("order %s modified concurrently (expected version %d)", o.ID().Raw(), o.StoredVersion()))
	}
	return nil
}

// Delete removes the aggregate.
func (r *OrderRepository) Delete(ctx context.Context, id order.ID) error {
	const op = "orders.delete"
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.Raw()})
	if err != nil {
		return wrapError(op, err)
	}
	if result.DeletedCount == 0 {
		return repositories.NewNotFound(op, fmt.Errorf("order %s not found", id.Raw()))
	}
	return nil
}

// Exists reports whether an aggregate with the given id is stored.
func (r *OrderRepository) Exists(ctx context.Context, id order.ID) (bool, error) {
	const op = "orders.exists"
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id.Raw()}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrapError(op, err)
	}
	return count > 0, nil
}

// FindByID loads and reconstitutes one aggregate.
func (r *OrderRepository) FindByID(ctx context.Context, id order.ID) (*order.Order, error) {
	const op = "orders.find"
	var doc orderDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.Raw()}).Decode(&doc); err != nil {
		return nil, wrapError(op, err)
	}
	o, err := decodeOrder(doc)
	if err != nil {
		return nil, repositories.NewUnavailable(op, err)
	}
	return o, nil
}

// FindMatching lowers the specification to a native filter and returns the
// matching aggregates ordered by creation time.
func (r *OrderRepository) FindMatching(ctx context.Context, node spec.Node) ([]*order.Order, error) {
	const op = "orders.query"
	filter, err := CompileFilter(node)
	if err != nil {
		return nil, repositories.NewUnavailable(op, err)
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer cursor.Close(ctx)

	var orders []*order.Order
	for cursor.Next(ctx) {
		var doc orderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapError(op, err)
		}
		o, err := decodeOrder(doc)
		if err != nil {
			return nil, repositories.NewUnavailable(op, err)
		}
		orders = append(orders, o)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapError(op, err)
	}
	return orders, nil
}
