package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fluxcart/api/internal/repositories"
)

// wrapError annotates driver errors with repository semantics. Context
// cancellations are passed through untouched.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var repoErr *repositories.Error
	if errors.As(err, &repoErr) {
		return err
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.NewNotFound(op, err)
	case mongo.IsDuplicateKeyError(err):
		return repositories.NewConflict(op, err)
	default:
		return repositories.NewUnavailable(op, err)
	}
}
