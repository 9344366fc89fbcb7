package orders

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"laundry/internal/apperr"
	"laundry/internal/logging"
	"laundry/internal/models"
	"laundry/internal/notify"
)

// AttachImages replaces the before- or after-washing images of one line item.
func (s *Service) AttachImages(ctx context.Context, orderID string, serviceID primitive.ObjectID, phase models.ImagePhase, links []string) (order models.Order, err error) {
	ctx, span := s.start(ctx, "AttachImages")
	defer func() { endSpan(span, err) }()

	if phase.Field() == "" {
		return models.Order{}, fmt.Errorf("%w: phase must be before or after", apperr.ErrValidation)
	}
	images := models.NewImageList(links)
	if len(images) == 0 {
		return models.Order{}, fmt.Errorf("%w: at least one image is required", apperr.ErrValidation)
	}

	current, err := s.load(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	found := false
	for _, item := range current.Services {
		if item.ServiceID == serviceID {
			found = true
			break
		}
	}
	if !found {
		return models.Order{}, fmt.Errorf("%w: %s", ErrServiceNotInOrder, serviceID.Hex())
	}

	order, err = s.orders.SetLineItemImages(ctx, orderID, serviceID, phase, images, s.clock())
	if err != nil {
		return models.Order{}, mapStoreError(err, orderID)
	}
	return order, nil
}

// AddPaymentReceipts appends receipt links uploaded by the order owner and
// tells the admins. The payment status is left for an admin or the gateway.
func (s *Service) AddPaymentReceipts(ctx context.Context, actor models.Actor, orderID string, links []string) (order models.Order, err error) {
	ctx, span := s.start(ctx, "AddPaymentReceipts")
	defer func() { endSpan(span, err) }()

	receipts := models.NewImageList(links)
	if len(receipts) == 0 {
		return models.Order{}, fmt.Errorf("%w: at least one receipt is required", apperr.ErrValidation)
	}

	current, err := s.load(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if current.User != actor.UserID {
		return models.Order{}, ErrNotOrderOwner
	}

	order, err = s.orders.AddPaymentReceipts(ctx, orderID, receipts, s.clock())
	if err != nil {
		return models.Order{}, mapStoreError(err, orderID)
	}

	ref := order.ID
	if err := s.notifier.NotifyAdmins(ctx, notify.Message{
		Type:         models.NotificationReceiptUploaded,
		Text:         fmt.Sprintf("Payment receipt uploaded for order %s", order.OrderID),
		RelatedOrder: &ref,
	}); err != nil {
		logging.Error(ctx, s.logger, "receipt notification failed",
			zap.String("order_id", order.OrderID), zap.Error(err))
	}
	return order, nil
}
