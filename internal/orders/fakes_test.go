package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/apperr"
	"laundry/internal/models"
	"laundry/internal/voucher"
)

type memOrders struct {
	mu        sync.Mutex
	byID      map[string]models.Order
	insertErr error
}

func newMemOrders() *memOrders {
	return &memOrders{byID: make(map[string]models.Order)}
}

func (m *memOrders) InsertOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.byID[o.OrderID]; ok {
		return fmt.Errorf("%w: duplicate orderId", apperr.ErrConflict)
	}
	o.ID = primitive.NewObjectID()
	m.byID[o.OrderID] = *o
	return nil
}

func (m *memOrders) FindOrderByOrderID(_ context.Context, orderID string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[orderID]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, orderID)
	}
	return o, nil
}

func (m *memOrders) ListOrders(_ context.Context, f ListFilter) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.byID {
		if f.User != nil && o.User != *f.User {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (m *memOrders) DeleteOrder(_ context.Context, orderID string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[orderID]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, orderID)
	}
	delete(m.byID, orderID)
	return o, nil
}

func (m *memOrders) UpdateTrack(_ context.Context, orderID string, ch TrackChange) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[orderID]
	if !ok {
		return models.Order{}, fmt.Errorf("%w: order %s", apperr.ErrNotFound, orderID)
	}

	var current string
	switch ch.Track {
	case models.TrackPayment:
		current = string(o.PaymentStatus)
	case models.TrackOrder:
		current = string(o.OrderStatus)
	case models.TrackDelivery:
		current = string(o.DeliveryStatus)
	}
	if current != ch.From {
		return models.Order{}, fmt.Errorf("%w: %s is %s", apperr.ErrConflict, ch.Track, current)
	}

	switch ch.Track {
	case models.TrackPayment:
		o.PaymentStatus = models.PaymentStatus(ch.To)
	case models.TrackOrder:
		o.OrderStatus = models.OrderStatus(ch.To)
	case models.TrackDelivery:
		o.DeliveryStatus = models.DeliveryStatus(ch.To)
	}
	o.Stamp(ch.Track, ch.To, ch.At)
	o.UpdatedAt = ch.At
	m.byID[orderID] = o
	return o, nil
}

func (m *memOrders) SetLineItemImages(_ context.Context, orderID string, serviceID primitive.ObjectID, phase models.ImagePhase, images models.ImageList, at time.Time) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.byID[orderID]
	items := append([]models.LineItem(nil), o.Services...)
	for i := range items {
		if items[i].ServiceID != serviceID {
			continue
		}
		if phase == models.PhaseBefore {
			items[i].BeforeWashingImages = images
		} else {
			items[i].AfterWashingImages = images
		}
	}
	o.Services = items
	o.UpdatedAt = at
	m.byID[orderID] = o
	return o, nil
}

func (m *memOrders) AddPaymentReceipts(_ context.Context, orderID string, receipts models.ImageList, at time.Time) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.byID[orderID]
	o.PaymentReceipts = append(append(models.ImageList{}, o.PaymentReceipts...), receipts...)
	o.UpdatedAt = at
	m.byID[orderID] = o
	return o, nil
}

type memVouchers struct {
	mu     sync.Mutex
	byCode map[string]*models.Voucher
}

func (m *memVouchers) FindVoucherByCode(_ context.Context, code string) (models.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byCode[code]
	if !ok {
		return models.Voucher{}, fmt.Errorf("%w: voucher %s", apperr.ErrNotFound, code)
	}
	return *v, nil
}

func (m *memVouchers) RedeemVoucher(_ context.Context, id primitive.ObjectID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.byCode {
		if v.ID != id {
			continue
		}
		if v.UsageLimit != nil && v.UsageCount >= *v.UsageLimit {
			return voucher.ErrVoucherExhausted
		}
		v.UsageCount++
		return nil
	}
	return fmt.Errorf("%w: voucher", apperr.ErrNotFound)
}

type memCarts struct {
	mu     sync.Mutex
	byUser map[primitive.ObjectID]models.Cart
}

func (m *memCarts) GetCart(_ context.Context, userID primitive.ObjectID) (models.Cart, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byUser[userID]
	return c, ok, nil
}

func (m *memCarts) SaveCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser[cart.User] = *cart
	return nil
}

type memCatalog struct {
	services map[primitive.ObjectID]models.Service
}

func (c memCatalog) FindServicesByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Service, error) {
	var out []models.Service
	for _, id := range ids {
		if s, ok := c.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type memNotifications struct {
	mu    sync.Mutex
	saved []models.Notification
}

func (m *memNotifications) InsertNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = primitive.NewObjectID()
	m.saved = append(m.saved, *n)
	return nil
}

func (m *memNotifications) ListForRecipient(context.Context, primitive.ObjectID) ([]models.Notification, error) {
	return nil, nil
}

func (m *memNotifications) MarkRead(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (m *memNotifications) SoftDelete(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (m *memNotifications) ofType(kind string) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.saved {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type memUsers struct {
	users []models.User
}

func (m memUsers) FindUsersByRole(_ context.Context, role string) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}
