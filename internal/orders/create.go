package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"laundry/internal/apperr"
	"laundry/internal/lock"
	"laundry/internal/logging"
	"laundry/internal/models"
	"laundry/internal/notify"
	"laundry/internal/pricing"
	"laundry/internal/voucher"
)

const (
	sourceDirect = "direct"
	sourceCart   = "cart"
)

// Details are the order attributes shared by both creation paths.
type Details struct {
	OrderID        string
	Address        string
	Phone          string
	PaymentMethod  string
	DeliveryOption models.DeliveryOption
	ShippingCost   *float64
	VoucherCode    string
}

func (d *Details) validate() error {
	d.OrderID = strings.TrimSpace(d.OrderID)
	d.Address = strings.TrimSpace(d.Address)
	d.Phone = strings.TrimSpace(d.Phone)

	if d.Phone == "" {
		return fmt.Errorf("%w: phone is required", apperr.ErrValidation)
	}
	if !models.ValidPaymentMethod(d.PaymentMethod) {
		return fmt.Errorf("%w: invalid payment method %q", apperr.ErrValidation, d.PaymentMethod)
	}
	if !d.DeliveryOption.Valid() {
		return fmt.Errorf("%w: invalid delivery option %q", apperr.ErrValidation, d.DeliveryOption)
	}
	if d.ShippingCost != nil && *d.ShippingCost < 0 {
		return fmt.Errorf("%w: shipping cost cannot be negative", apperr.ErrValidation)
	}
	if d.DeliveryOption == models.DeliveryPickupByLaundry {
		if d.Address == "" {
			return fmt.Errorf("%w: address is required for pickup by laundry", apperr.ErrValidation)
		}
		if d.ShippingCost == nil {
			return fmt.Errorf("%w: shipping cost is required for pickup by laundry", apperr.ErrValidation)
		}
	}
	return nil
}

func (d Details) shipping() float64 {
	if d.DeliveryOption != models.DeliveryPickupByLaundry || d.ShippingCost == nil {
		return 0
	}
	return *d.ShippingCost
}

// CreateDirect places an order from explicit line items.
func (s *Service) CreateDirect(ctx context.Context, actor models.Actor, details Details, items []models.CartItem) (order models.Order, err error) {
	ctx, span := s.start(ctx, "CreateDirect")
	defer func() { endSpan(span, err) }()

	if err := s.window.Check(s.clock()); err != nil {
		return models.Order{}, err
	}
	if len(items) == 0 {
		return models.Order{}, fmt.Errorf("%w: at least one service is required", apperr.ErrValidation)
	}
	lineItems, err := toLineItems(items)
	if err != nil {
		return models.Order{}, err
	}
	if err := details.validate(); err != nil {
		return models.Order{}, err
	}

	return s.place(ctx, actor, details, lineItems, sourceDirect)
}

// CreateFromCart places an order from a subset of the user's cart. Selected
// items leave the cart only after the order is persisted.
func (s *Service) CreateFromCart(ctx context.Context, actor models.Actor, details Details, selected []primitive.ObjectID) (order models.Order, err error) {
	ctx, span := s.start(ctx, "CreateFromCart")
	defer func() { endSpan(span, err) }()

	if err := s.window.Check(s.clock()); err != nil {
		return models.Order{}, err
	}
	if len(selected) == 0 {
		return models.Order{}, ErrNoServicesSelected
	}
	if err := details.validate(); err != nil {
		return models.Order{}, err
	}

	unlock, err := s.locker.Lock(ctx, lock.CartKey(actor.UserID.Hex()))
	if err != nil {
		return models.Order{}, fmt.Errorf("lock cart: %w", err)
	}
	defer unlock()

	cart, found, err := s.carts.GetCart(ctx, actor.UserID)
	if err != nil {
		return models.Order{}, err
	}
	if !found || len(cart.Services) == 0 {
		return models.Order{}, ErrCartEmpty
	}

	wanted := make(map[primitive.ObjectID]struct{}, len(selected))
	for _, id := range selected {
		wanted[id] = struct{}{}
	}

	var picked, remaining []models.CartItem
	for _, item := range cart.Services {
		if _, ok := wanted[item.ServiceID]; ok {
			picked = append(picked, item)
		} else {
			remaining = append(remaining, item)
		}
	}
	if len(picked) == 0 {
		return models.Order{}, fmt.Errorf("%w: none of the selected services are in the cart", ErrNoServicesSelected)
	}

	lineItems, err := toLineItems(picked)
	if err != nil {
		return models.Order{}, err
	}

	order, err = s.place(ctx, actor, details, lineItems, sourceCart)
	if err != nil {
		return models.Order{}, err
	}

	if remaining == nil {
		remaining = []models.CartItem{}
	}
	cart.Services = remaining
	cart.UpdatedAt = s.clock()
	if err := s.carts.SaveCart(ctx, &cart); err != nil {
		logging.Error(ctx, s.logger, "order placed but cart not updated",
			zap.String("order_id", order.OrderID),
			zap.String("user", actor.UserID.Hex()),
			zap.Error(err),
		)
	}
	return order, nil
}

func toLineItems(items []models.CartItem) ([]models.LineItem, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(items))
	out := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if item.ServiceID.IsZero() {
			return nil, fmt.Errorf("%w: service id is required", apperr.ErrValidation)
		}
		if item.Qty < 1 {
			return nil, fmt.Errorf("%w: qty must be at least 1 for service %s", apperr.ErrValidation, item.ServiceID.Hex())
		}
		if _, dup := seen[item.ServiceID]; dup {
			return nil, fmt.Errorf("%w: service %s listed twice", apperr.ErrValidation, item.ServiceID.Hex())
		}
		seen[item.ServiceID] = struct{}{}
		out = append(out, models.LineItem{
			ServiceID:           item.ServiceID,
			Qty:                 item.Qty,
			BeforeWashingImages: models.ImageList{},
			AfterWashingImages:  models.ImageList{},
		})
	}
	return out, nil
}

// place prices, redeems and persists. Redemption and insertion are separate
// writes: a failed insert after a redemption leaves the voucher counter
// incremented and is logged for reconciliation.
func (s *Service) place(ctx context.Context, actor models.Actor, details Details, items []models.LineItem, source string) (models.Order, error) {
	if details.OrderID != "" {
		_, err := s.orders.FindOrderByOrderID(ctx, details.OrderID)
		switch {
		case err == nil:
			return models.Order{}, fmt.Errorf("%w: %s", ErrDuplicateOrderID, details.OrderID)
		case !errors.Is(err, apperr.ErrNotFound):
			return models.Order{}, err
		}
	} else {
		details.OrderID = s.newID()
	}

	quote, err := s.calculator.Quote(ctx, items)
	if err != nil {
		return models.Order{}, err
	}

	now := s.clock()
	order := models.Order{
		OrderID:             details.OrderID,
		User:                actor.UserID,
		Address:             details.Address,
		Phone:               details.Phone,
		Services:            items,
		Subtotal:            quote.Subtotal,
		ShippingCost:        details.shipping(),
		PaymentMethod:       details.PaymentMethod,
		DeliveryOption:      details.DeliveryOption,
		PaymentStatus:       models.PaymentPending,
		OrderStatus:         models.OrderPending,
		DeliveryStatus:      models.DeliveryPending,
		PaymentReceipts:     models.ImageList{},
		EstimatedFinishTime: pricing.EstimatedFinish(now, quote.Services),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	order.Stamp(models.TrackPayment, string(models.PaymentPending), now)

	var redeemed *models.Voucher
	if code := voucher.NormalizeCode(details.VoucherCode); code != "" {
		v, err := s.redeem(ctx, actor, code, order.ServiceIDs())
		if err != nil {
			return models.Order{}, err
		}
		redeemed = &v
		order.Discount = pricing.ApplyDiscount(v, order.Subtotal)
		order.VoucherApplied = &v.ID
	}
	order.Total = pricing.Total(order.Subtotal, order.Discount, order.ShippingCost)

	if err := s.orders.InsertOrder(ctx, &order); err != nil {
		if redeemed != nil {
			logging.Error(ctx, s.logger, "voucher redeemed but order not persisted",
				zap.String("voucher_code", redeemed.Code),
				zap.String("order_id", order.OrderID),
				zap.Error(err),
			)
		}
		if errors.Is(err, apperr.ErrConflict) {
			return models.Order{}, fmt.Errorf("%w: %s", ErrDuplicateOrderID, order.OrderID)
		}
		return models.Order{}, err
	}
	s.metrics.OrderCreated(source)

	logging.Info(ctx, s.logger, "order created",
		zap.String("order_id", order.OrderID),
		zap.String("source", source),
		zap.Float64("total", order.Total),
	)

	orderRef := order.ID
	if err := s.notifier.NotifyAdmins(ctx, notify.Message{
		Type:         models.NotificationNewOrder,
		Text:         fmt.Sprintf("New order received: %s", order.OrderID),
		RelatedOrder: &orderRef,
	}); err != nil {
		logging.Error(ctx, s.logger, "new order notification failed",
			zap.String("order_id", order.OrderID), zap.Error(err))
	}
	return order, nil
}

func (s *Service) redeem(ctx context.Context, actor models.Actor, code string, serviceIDs []primitive.ObjectID) (models.Voucher, error) {
	v, err := s.vouchers.FindVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.metrics.VoucherRedeemed("not_found")
			return models.Voucher{}, fmt.Errorf("%w: %s", voucher.ErrVoucherNotFound, code)
		}
		return models.Voucher{}, err
	}

	if err := voucher.CheckRedeemable(v, actor.UserID, serviceIDs, s.clock()); err != nil {
		s.metrics.VoucherRedeemed("rejected")
		return models.Voucher{}, err
	}

	if err := s.vouchers.RedeemVoucher(ctx, v.ID, s.clock()); err != nil {
		s.metrics.VoucherRedeemed("exhausted")
		return models.Voucher{}, err
	}
	s.metrics.VoucherRedeemed("ok")
	return v, nil
}
