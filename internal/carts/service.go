package carts

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/apperr"
	"laundry/internal/lock"
	"laundry/internal/models"
	"laundry/internal/pricing"
)

var (
	ErrCartNotFound  = apperr.New(apperr.ErrNotFound, "cart not found")
	ErrItemNotInCart = apperr.New(apperr.ErrNotFound, "service not found in cart")
)

type Store interface {
	GetCart(ctx context.Context, userID primitive.ObjectID) (models.Cart, bool, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
}

// Service mutates carts one user at a time. It shares its lock keys with
// order creation so checkout never races an edit.
type Service struct {
	store   Store
	catalog pricing.Catalog
	locker  lock.Locker
	clock   func() time.Time
}

func NewService(store Store, catalog pricing.Catalog, locker lock.Locker, clock func() time.Time) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, catalog: catalog, locker: locker, clock: clock}
}

// Get returns the user's cart, or an empty one when none was saved yet.
func (s *Service) Get(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	cart, found, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return models.Cart{}, err
	}
	if !found {
		return models.Cart{User: userID, Services: []models.CartItem{}}, nil
	}
	return cart, nil
}

// AddItem adds qty of a service, accumulating onto an existing line.
func (s *Service) AddItem(ctx context.Context, userID, serviceID primitive.ObjectID, qty int) (models.Cart, error) {
	if err := validQty(qty); err != nil {
		return models.Cart{}, err
	}
	found, err := s.catalog.FindServicesByIDs(ctx, []primitive.ObjectID{serviceID})
	if err != nil {
		return models.Cart{}, err
	}
	if len(found) == 0 {
		return models.Cart{}, fmt.Errorf("%w: %s", pricing.ErrServiceNotFound, serviceID.Hex())
	}

	return s.mutate(ctx, userID, true, func(cart *models.Cart) error {
		if i := cart.IndexOf(serviceID); i >= 0 {
			cart.Services[i].Qty += qty
			return nil
		}
		cart.Services = append(cart.Services, models.CartItem{ServiceID: serviceID, Qty: qty})
		return nil
	})
}

// UpdateQuantity sets the quantity of a service already in the cart.
func (s *Service) UpdateQuantity(ctx context.Context, userID, serviceID primitive.ObjectID, qty int) (models.Cart, error) {
	if err := validQty(qty); err != nil {
		return models.Cart{}, err
	}
	return s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		i := cart.IndexOf(serviceID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotInCart, serviceID.Hex())
		}
		cart.Services[i].Qty = qty
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, userID, serviceID primitive.ObjectID) (models.Cart, error) {
	return s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		i := cart.IndexOf(serviceID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotInCart, serviceID.Hex())
		}
		cart.Services = append(cart.Services[:i], cart.Services[i+1:]...)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, userID primitive.ObjectID, create bool, fn func(*models.Cart) error) (models.Cart, error) {
	unlock, err := s.locker.Lock(ctx, lock.CartKey(userID.Hex()))
	if err != nil {
		return models.Cart{}, fmt.Errorf("lock cart: %w", err)
	}
	defer unlock()

	cart, found, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return models.Cart{}, err
	}
	now := s.clock().UTC()
	if !found {
		if !create {
			return models.Cart{}, ErrCartNotFound
		}
		cart = models.Cart{User: userID, Services: []models.CartItem{}, CreatedAt: now}
	}

	if err := fn(&cart); err != nil {
		return models.Cart{}, err
	}
	cart.UpdatedAt = now
	if err := s.store.SaveCart(ctx, &cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func validQty(qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: qty must be at least 1", apperr.ErrValidation)
	}
	return nil
}
