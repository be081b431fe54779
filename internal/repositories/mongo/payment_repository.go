package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fluxcart/api/internal/domain/payment"
	"github.com/fluxcart/api/internal/domain/spec"
	"github.com/fluxcart/api/internal/repositories"
)

const paymentsCollection = "payments"

// PaymentRepository persists Payment aggregates in the payments collection.
type PaymentRepository struct {
	collection *mongo.Collection
}

// NewPaymentRepository builds a payment repository over the given database.
func NewPaymentRepository(db *mongo.Database) (*PaymentRepository, error) {
	if db == nil {
		return nil, errors.New("mongo: database is required")
	}
	return &PaymentRepository{collection: db.Collection(paymentsCollection)}, nil
}

// Insert stores a new aggregate. The unique order_id index turns a second
// payment for the same order into a conflict.
func (r *PaymentRepository) Insert(ctx context.Context, p *payment.Payment) error {
	const op = "payments.insert"
	if p == nil {
		return repositories.NewUnavailable(op, errors.New("payment is required"))
	}
	doc, err := encodePayment(p)
	if err != nil {
		return repositories.NewUnavailable(op, err)
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return wrapError(op, err)
	}
	return nil
}

// Update replaces the stored document, guarded by the version the aggregate
// was loaded with.
func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	const op = "payments.update"
	if p == nil {
		return repositories.NewUnavailable(op, errors.New("payment is required"))
	}
	doc, err := encodePayment(p)
	if err != nil {
		return repositories.NewUnavailable(op, err)
	}

	filter := bson.M{"_id": p.ID().Raw(), "version": p.StoredVersion()}
	result, err := r.collection.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return wrapError(op, err)
	}
	if result.MatchedCount == 0 {
		exists, err := r.Exists(ctx, p.ID())
		if err != nil {
			return err
		}
		if !exists {
			return repositories.NewNotFound(op, fmt.Errorf("payment %s not found", p.ID().Raw()))
		}
		return repositories.NewConflict(op, fmt.Errorf("payment %s modified concurrently (expected version %d)", p.ID().Raw(), p.StoredVersion()))
	}
	return nil
}

// Delete removes the aggregate.
func (r *PaymentRepository) Delete(ctx context.Context, id payment.ID) error {
	const op = "payments.delete"
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.Raw()})
	if err != nil {
		return wrapError(op, err)
	}
	if result.DeletedCount == 0 {
		return repositories.NewNotFound(op, fmt.Errorf("payment %s not found", id.Raw()))
	}
	return nil
}

// Exists reports whether an aggregate with the given id is stored.
func (r *PaymentRepository) Exists(ctx context.Context, id payment.ID) (bool, error) {
	const op = "payments.exists"
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id.Raw()}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrapError(op, err)
	}
	return count > 0, nil
}

// FindByID loads and reconstitutes one aggregate.
func (r *PaymentRepository) FindByID(ctx context.Context, id payment.ID) (*payment.Payment, error) {
	const op = "payments.find"
	var doc paymentDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.Raw()}).Decode(&doc); err != nil {
		return nil, wrapError(op, err)
	}
	p, err := decodePayment(doc)
	if err != nil {
		return nil, repositories.NewUnavailable(op, err)
	}
	return p, nil
}

// FindByOrderID loads the payment created for the given order.
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID payment.OrderRef) (*payment.Payment, error) {
	const op = "payments.find_by_order"
	var doc paymentDoc
	if err := r.collection.FindOne(ctx, bson.M{"order_id": orderID.Raw()}).Decode(&doc); err != nil {
		return nil, wrapError(op, err)
	}
	p, err := decodePayment(doc)
	if err != nil {
		return nil, repositories.NewUnavailable(op, err)
	}
	return p, nil
}

// FindMatching lowers the specification to a native filter and returns the
// matching aggregates ordered by creation time.
func (r *PaymentRepository) FindMatching(ctx context.Context, node spec.Node) ([]*payment.Payment, error) {
	const op = "payments.query"
	filter, err := CompileFilter(node)
	if err != nil {
		return nil, repositories.NewUnavailable(op, err)
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer cursor.Close(ctx)

	var payments []*payment.Payment
	for cursor.Next(ctx) {
		var doc paymentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, wrapError(op, err)
		}
		p, err := decodePayment(doc)
		if err != nil {
			return nil, repositories.NewUnavailable(op, err)
		}
		payments = append(payments, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapError(op, err)
	}
	return payments, nil
}
