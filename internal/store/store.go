package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"laundry/internal/apperr"
)

const (
	colServices      = "services"
	colUsers         = "users"
	colVouchers      = "vouchers"
	colCarts         = "carts"
	colOrders        = "orders"
	colNotifications = "notifications"
)

// Store is the MongoDB implementation of every collaborator the core
// services consume. Each call runs under its own timeout.
type Store struct {
	db      *mongo.Database
	timeout time.Duration
	clock   func() time.Time
}

func New(db *mongo.Database, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout, clock: time.Now}
}

func (s *Store) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// errNoMatch stands in for an update that matched nothing.
var errNoMatch = mongo.ErrNoDocuments

// mapError translates driver errors into the apperr taxonomy.
func mapError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s: %v", apperr.ErrConflict, what, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
