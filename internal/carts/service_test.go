package carts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/apperr"
	"laundry/internal/lock"
	"laundry/internal/models"
	"laundry/internal/pricing"
)

type memStore struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]models.Cart
	saves int
}

func (m *memStore) GetCart(_ context.Context, userID primitive.ObjectID) (models.Cart, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if ok {
		c.Services = append([]models.CartItem(nil), c.Services...)
	}
	return c, ok, nil
}

func (m *memStore) SaveCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.carts[cart.User] = *cart
	return nil
}

type catalog map[primitive.ObjectID]models.Service

func (c catalog) FindServicesByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Service, error) {
	var out []models.Service
	for _, id := range ids {
		if s, ok := c[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

var now = time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

func setup() (*Service, *memStore, models.Service) {
	wash := models.Service{ID: primitive.NewObjectID(), Price: 25000}
	store := &memStore{carts: map[primitive.ObjectID]models.Cart{}}
	svc := NewService(store, catalog{wash.ID: wash}, lock.NewLocal(), func() time.Time { return now })
	return svc, store, wash
}

func TestGetReturnsEmptyCartWhenAbsent(t *testing.T) {
	svc, _, _ := setup()
	user := primitive.NewObjectID()

	cart, err := svc.Get(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, user, cart.User)
	assert.Empty(t, cart.Services)
}

func TestAddItemCreatesAndAccumulates(t *testing.T) {
	svc, store, wash := setup()
	ctx := context.Background()
	user := primitive.NewObjectID()

	_, err := svc.AddItem(ctx, user, wash.ID, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user, wash.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Services, 1)
	assert.Equal(t, 5, cart.Services[0].Qty)
	assert.Equal(t, now, cart.CreatedAt)
	assert.Equal(t, 2, store.saves)
}

func TestAddItemValidation(t *testing.T) {
	svc, store, wash := setup()
	ctx := context.Background()
	user := primitive.NewObjectID()

	_, err := svc.AddItem(ctx, user, wash.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.AddItem(ctx, user, primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, pricing.ErrServiceNotFound)
	assert.Zero(t, store.saves)
}

func TestUpdateAndRemove(t *testing.T) {
	svc, _, wash := setup()
	ctx := context.Background()
	user := primitive.NewObjectID()

	_, err := svc.UpdateQuantity(ctx, user, wash.ID, 4)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = svc.AddItem(ctx, user, wash.ID, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, user, wash.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Services[0].Qty)

	_, err = svc.UpdateQuantity(ctx, user, primitive.NewObjectID(), 4)
	assert.ErrorIs(t, err, ErrItemNotInCart)

	cart, err = svc.RemoveItem(ctx, user, wash.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Services)

	_, err = svc.RemoveItem(ctx, user, wash.ID)
	assert.ErrorIs(t, err, ErrItemNotInCart)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	svc, store, wash := setup()
	user := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), user, wash.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, store.carts[user].Services[0].Qty)
}
