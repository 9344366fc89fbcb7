package orders

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"laundry/internal/apperr"
	"laundry/internal/logging"
	"laundry/internal/models"
	"laundry/internal/notify"
)

// UpdateOrderStatus moves the fulfillment track and notifies the owner.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, next models.OrderStatus) (order models.Order, err error) {
	ctx, span := s.start(ctx, "UpdateOrderStatus")
	defer func() { endSpan(span, err) }()

	current, err := s.load(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err := checkTransition(orderTransitions, models.TrackOrder, string(current.OrderStatus), string(next)); err != nil {
		return models.Order{}, err
	}

	order, err = s.apply(ctx, current, models.TrackOrder, string(current.OrderStatus), string(next))
	if err != nil {
		return models.Order{}, err
	}
	s.notifyOwner(ctx, order, models.NotificationOrderStatus,
		fmt.Sprintf("Your order %s status has been updated to %s", order.OrderID, next))
	return order, nil
}

// UpdateDeliveryStatus moves the delivery track and notifies the owner.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, orderID string, next models.DeliveryStatus) (order models.Order, err error) {
	ctx, span := s.start(ctx, "UpdateDeliveryStatus")
	defer func() { endSpan(span, err) }()

	current, err := s.load(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err := checkTransition(deliveryTransitions, models.TrackDelivery, string(current.DeliveryStatus), string(next)); err != nil {
		return models.Order{}, err
	}

	order, err = s.apply(ctx, current, models.TrackDelivery, string(current.DeliveryStatus), string(next))
	if err != nil {
		return models.Order{}, err
	}
	s.notifyOwner(ctx, order, models.NotificationDeliveryStatus,
		fmt.Sprintf("Delivery status for your order %s has been updated to %s", order.OrderID, next))
	return order, nil
}

// UpdateCODPayment lets an admin toggle a cash-on-delivery order between
// pending and settlement.
func (s *Service) UpdateCODPayment(ctx context.Context, orderID string, next models.PaymentStatus) (order models.Order, err error) {
	ctx, span := s.start(ctx, "UpdateCODPayment")
	defer func() { endSpan(span, err) }()

	current, err := s.load(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !current.IsCOD() {
		return models.Order{}, fmt.Errorf("%w: %s uses %s", ErrNotCOD, orderID, current.PaymentMethod)
	}
	if next != models.PaymentPending && next != models.PaymentSettlement {
		return models.Order{}, fmt.Errorf("%w: invalid payment status %q", apperr.ErrValidation, next)
	}
	if err := checkTransition(codPaymentTransitions, models.TrackPayment, string(current.PaymentStatus), string(next)); err != nil {
		return models.Order{}, err
	}

	order, err = s.settle(ctx, current, next)
	if err != nil {
		return models.Order{}, err
	}
	s.notifyOwner(ctx, order, models.NotificationPaymentStatus,
		fmt.Sprintf("Payment status for your COD order %s has been updated to %s", order.OrderID, next))
	return order, nil
}

// ApplyGatewayPayment records a payment gateway callback. Repeated reports of
// the current status are acknowledged without a write.
func (s *Service) ApplyGatewayPayment(ctx context.Context, orderID, transactionStatus string) (order models.Order, err error) {
	ctx, span := s.start(ctx, "ApplyGatewayPayment")
	defer func() { endSpan(span, err) }()

	next, err := MapGatewayStatus(transactionStatus)
	if err != nil {
		return models.Order{}, err
	}
	current, err := s.load(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if current.PaymentStatus == next {
		return current, nil
	}
	if err := checkTransition(gatewayPaymentTransitions, models.TrackPayment, string(current.PaymentStatus), string(next)); err != nil {
		return models.Order{}, err
	}

	order, err = s.settle(ctx, current, next)
	if err != nil {
		return models.Order{}, err
	}
	s.notifyOwner(ctx, order, models.NotificationPaymentStatus,
		fmt.Sprintf("Payment status for your order %s has been updated to %s", order.OrderID, next))
	return order, nil
}

// settle writes the payment status and, on settlement, confirms an order that
// is still pending. Fulfillment never moves backwards.
func (s *Service) settle(ctx context.Context, current models.Order, next models.PaymentStatus) (models.Order, error) {
	order, err := s.apply(ctx, current, models.TrackPayment, string(current.PaymentStatus), string(next))
	if err != nil {
		return models.Order{}, err
	}
	if next != models.PaymentSettlement || order.OrderStatus != models.OrderPending {
		return order, nil
	}

	confirmed, err := s.apply(ctx, order, models.TrackOrder, string(models.OrderPending), string(models.OrderConfirmed))
	if errors.Is(err, apperr.ErrConflict) {
		logging.Warn(ctx, s.logger, "order moved before settlement confirmation",
			zap.String("order_id", order.OrderID))
		return s.load(ctx, order.OrderID)
	}
	if err != nil {
		return models.Order{}, err
	}
	return confirmed, nil
}

func (s *Service) apply(ctx context.Context, current models.Order, track models.Track, from, to string) (models.Order, error) {
	updated, err := s.orders.UpdateTrack(ctx, current.OrderID, TrackChange{
		Track: track,
		From:  from,
		To:    to,
		At:    s.clock(),
	})
	if err != nil {
		return models.Order{}, mapStoreError(err, current.OrderID)
	}
	s.metrics.Transition(string(track), to)
	logging.Info(ctx, s.logger, "status transition",
		zap.String("order_id", current.OrderID),
		zap.String("track", string(track)),
		zap.String("from", from),
		zap.String("to", to),
	)
	return updated, nil
}

func (s *Service) notifyOwner(ctx context.Context, order models.Order, kind, text string) {
	ref := order.ID
	err := s.notifier.Notify(ctx, notify.Message{
		Type:         kind,
		Text:         text,
		ForRole:      models.RoleUser,
		Recipients:   []primitive.ObjectID{order.User},
		RelatedOrder: &ref,
	})
	if err != nil {
		logging.Error(ctx, s.logger, "owner notification failed",
			zap.String("order_id", order.OrderID),
			zap.String("type", kind),
			zap.Error(err),
		)
	}
}
