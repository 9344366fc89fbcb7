package orders

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"laundry/internal/logging"
	"laundry/internal/models"
	"laundry/internal/notify"
)

// Get returns an order to its owner or to an admin.
func (s *Service) Get(ctx context.Context, actor models.Actor, orderID string) (models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !actor.IsAdmin() && order.User != actor.UserID {
		return models.Order{}, ErrNotOrderOwner
	}
	return order, nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context, skip, limit int64) ([]models.Order, int64, error) {
	return s.orders.ListOrders(ctx, ListFilter{Skip: skip, Limit: limit})
}

// ListMine returns the caller's orders, newest first.
func (s *Service) ListMine(ctx context.Context, actor models.Actor, skip, limit int64) ([]models.Order, int64, error) {
	user := actor.UserID
	return s.orders.ListOrders(ctx, ListFilter{User: &user, Skip: skip, Limit: limit})
}

// Delete removes an order and tells its owner. Voucher usage is not reversed.
func (s *Service) Delete(ctx context.Context, orderID string) (err error) {
	ctx, span := s.start(ctx, "Delete")
	defer func() { endSpan(span, err) }()

	order, err := s.orders.DeleteOrder(ctx, orderID)
	if err != nil {
		return mapStoreError(err, orderID)
	}
	logging.Info(ctx, s.logger, "order deleted", zap.String("order_id", order.OrderID))

	s.notifyOwner(ctx, order, models.NotificationOrderDeleted,
		fmt.Sprintf("Your order %s has been deleted by the admin", order.OrderID))
	return nil
}

var _ Notifier = (*notify.Dispatcher)(nil)
