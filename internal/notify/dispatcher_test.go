package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/apperr"
	"laundry/internal/metrics"
	"laundry/internal/models"
)

type stubStore struct {
	inserted []models.Notification
	list     []models.Notification
	markErr  error
}

func (s *stubStore) InsertNotification(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	s.inserted = append(s.inserted, *n)
	return nil
}

func (s *stubStore) ListForRecipient(context.Context, primitive.ObjectID) ([]models.Notification, error) {
	return s.list, nil
}

func (s *stubStore) MarkRead(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return s.markErr
}

func (s *stubStore) SoftDelete(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return s.markErr
}

type stubDirectory struct {
	users []models.User
}

func (d stubDirectory) FindUsersByRole(_ context.Context, role string) ([]models.User, error) {
	var out []models.User
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

var fixedNow = time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)

func newDispatcher(store *stubStore, dir stubDirectory) (*Dispatcher, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewDispatcher(store, dir, func() time.Time { return fixedNow }, m, nil), m
}

func TestNotifySharesOneRecordAcrossRecipients(t *testing.T) {
	store := &stubStore{}
	d, m := newDispatcher(store, stubDirectory{})
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	order := primitive.NewObjectID()

	err := d.Notify(context.Background(), Message{
		Type:         models.NotificationOrderStatus,
		Text:         "Order ORD-1 is now confirmed",
		Recipients:   []primitive.ObjectID{a, b, a},
		RelatedOrder: &order,
	})
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	n := store.inserted[0]
	assert.Len(t, n.Recipients, 2)
	assert.Equal(t, fixedNow, n.CreatedAt)
	assert.Equal(t, &order, n.RelatedOrder)
	for _, r := range n.Recipients {
		assert.False(t, r.IsRead)
		assert.False(t, r.IsDeleted)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(models.NotificationOrderStatus)))
}

func TestNotifyWithoutRecipientsWritesNothing(t *testing.T) {
	store := &stubStore{}
	d, _ := newDispatcher(store, stubDirectory{})
	require.NoError(t, d.Notify(context.Background(), Message{Type: models.NotificationNewOrder}))
	assert.Empty(t, store.inserted)
}

func TestNotifyAdminsAddressesEveryAdminOnce(t *testing.T) {
	admins := []models.User{
		{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
		{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
	}
	dir := stubDirectory{users: append(admins, models.User{ID: primitive.NewObjectID(), Role: models.RoleUser})}
	store := &stubStore{}
	d, _ := newDispatcher(store, dir)

	require.NoError(t, d.NotifyAdmins(context.Background(), Message{Type: models.NotificationNewOrder, Text: "new"}))

	require.Len(t, store.inserted, 1)
	n := store.inserted[0]
	assert.Equal(t, models.RoleAdmin, n.ForRole)
	require.Len(t, n.Recipients, 2)
	for _, admin := range admins {
		_, ok := n.RecipientState(admin.ID)
		assert.True(t, ok)
	}
}

func TestInboxHidesDeletedAndProjectsReadState(t *testing.T) {
	me, other := primitive.NewObjectID(), primitive.NewObjectID()
	store := &stubStore{list: []models.Notification{
		{ID: primitive.NewObjectID(), Type: "a", Recipients: []models.Recipient{{User: me, IsRead: true}, {User: other}}},
		{ID: primitive.NewObjectID(), Type: "b", Recipients: []models.Recipient{{User: me, IsDeleted: true}}},
		{ID: primitive.NewObjectID(), Type: "c", Recipients: []models.Recipient{{User: other}}},
	}}
	d, _ := newDispatcher(store, stubDirectory{})

	items, err := d.Inbox(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Type)
	assert.True(t, items[0].IsRead)
}

func TestMarkReadMapsMissingRecipientToNotFound(t *testing.T) {
	store := &stubStore{markErr: fmt.Errorf("%w: no recipient entry", apperr.ErrNotFound)}
	d, _ := newDispatcher(store, stubDirectory{})

	err := d.MarkRead(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.True(t, errors.Is(err, ErrNotificationNotFound))

	err = d.Delete(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, 404, apperr.HTTPStatus(err))

	store.markErr = nil
	assert.NoError(t, d.MarkRead(context.Background(), primitive.NewObjectID(), primitive.NewObjectID()))
}
