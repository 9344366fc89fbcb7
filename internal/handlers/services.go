package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/models"
	"laundry/internal/notify"
	"laundry/internal/orders"
	"laundry/internal/voucher"
)

type OrderService interface {
	CreateDirect(ctx context.Context, actor models.Actor, details orders.Details, items []models.CartItem) (models.Order, error)
	CreateFromCart(ctx context.Context, actor models.Actor, details orders.Details, selected []primitive.ObjectID) (models.Order, error)
	Get(ctx context.Context, actor models.Actor, orderID string) (models.Order, error)
	List(ctx context.Context, skip, limit int64) ([]models.Order, int64, error)
	ListMine(ctx context.Context, actor models.Actor, skip, limit int64) ([]models.Order, int64, error)
	Delete(ctx context.Context, orderID string) error
	UpdateOrderStatus(ctx context.Context, orderID string, next models.OrderStatus) (models.Order, error)
	UpdateDeliveryStatus(ctx context.Context, orderID string, next models.DeliveryStatus) (models.Order, error)
	UpdateCODPayment(ctx context.Context, orderID string, next models.PaymentStatus) (models.Order, error)
	ApplyGatewayPayment(ctx context.Context, orderID, transactionStatus string) (models.Order, error)
	AttachImages(ctx context.Context, orderID string, serviceID primitive.ObjectID, phase models.ImagePhase, links []string) (models.Order, error)
	AddPaymentReceipts(ctx context.Context, actor models.Actor, orderID string, links []string) (models.Order, error)
}

type CartService interface {
	Get(ctx context.Context, userID primitive.ObjectID) (models.Cart, error)
	AddItem(ctx context.Context, userID, serviceID primitive.ObjectID, qty int) (models.Cart, error)
	UpdateQuantity(ctx context.Context, userID, serviceID primitive.ObjectID, qty int) (models.Cart, error)
	RemoveItem(ctx context.Context, userID, serviceID primitive.ObjectID) (models.Cart, error)
}

type VoucherService interface {
	Create(ctx context.Context, d voucher.Draft) (models.Voucher, error)
	Update(ctx context.Context, id primitive.ObjectID, p voucher.Patch) (models.Voucher, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context) ([]models.Voucher, error)
	GetByCode(ctx context.Context, code string) (models.Voucher, error)
	PreviewFor(ctx context.Context, actor models.Actor, code string, items []models.CartItem) (voucher.Preview, error)
}

type NotificationService interface {
	Inbox(ctx context.Context, userID primitive.ObjectID) ([]notify.InboxItem, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

var (
	_ OrderService        = (*orders.Service)(nil)
	_ VoucherService      = (*voucher.Service)(nil)
	_ NotificationService = (*notify.Dispatcher)(nil)
)
