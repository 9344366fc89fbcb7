package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"laundry/internal/middleware"
	"laundry/internal/models"
	"laundry/internal/orders"
)

type Services struct {
	Orders        OrderService
	Carts         CartService
	Vouchers      VoucherService
	Notifications NotificationService
}

type RouteOptions struct {
	JWTSecret      string
	CallbackKey    string
	// BusinessOffset is the UTC offset voucher dates without a zone are read in.
	BusinessOffset time.Duration
	Ping           func(ctx context.Context) error
	Metrics        http.Handler
}

// Register mounts every route on r.
func Register(r *gin.Engine, svc Services, opts RouteOptions) {
	if opts.Ping != nil {
		r.GET("/healthz", Healthz(opts.Ping))
	}
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	r.POST("/payments/notifications", middleware.CallbackKey(opts.CallbackKey), PaymentNotification(svc.Orders))
	r.GET("/vouchers/:code", GetVoucherByCode(svc.Vouchers))

	authed := r.Group("/")
	authed.Use(middleware.AuthGuard(opts.JWTSecret))

	userOnly := middleware.RequireRole(models.RoleUser)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	zone := orders.BusinessZone(opts.BusinessOffset)

	orders := authed.Group("/orders")
	{
		orders.POST("", userOnly, CreateOrder(svc.Orders))
		orders.POST("/from-cart", userOnly, CreateOrderFromCart(svc.Orders))
		orders.GET("", adminOnly, GetOrders(svc.Orders))
		orders.GET("/mine", userOnly, GetMyOrders(svc.Orders))
		orders.GET("/:orderId", GetOrder(svc.Orders))
		orders.PATCH("/:orderId/status", adminOnly, UpdateOrderStatus(svc.Orders))
		orders.PATCH("/:orderId/payment", adminOnly, UpdateCODPayment(svc.Orders))
		orders.PATCH("/:orderId/delivery", adminOnly, UpdateDeliveryStatus(svc.Orders))
		orders.POST("/:orderId/images", adminOnly, AttachOrderImages(svc.Orders))
		orders.POST("/:orderId/receipts", userOnly, UploadPaymentReceipts(svc.Orders))
		orders.DELETE("/:orderId", adminOnly, DeleteOrder(svc.Orders))
	}

	cart := authed.Group("/cart", userOnly)
	{
		cart.GET("", GetCart(svc.Carts))
		cart.POST("/items", AddCartItem(svc.Carts))
		cart.PUT("/items/:serviceId", UpdateCartItem(svc.Carts))
		cart.DELETE("/items/:serviceId", RemoveCartItem(svc.Carts))
	}

	vouchers := authed.Group("/vouchers")
	{
		vouchers.POST("/validate", ValidateVoucher(svc.Vouchers))
		vouchers.POST("", adminOnly, CreateVoucher(svc.Vouchers, zone))
		vouchers.GET("", adminOnly, GetVouchers(svc.Vouchers))
		vouchers.PATCH("/:id", adminOnly, UpdateVoucher(svc.Vouchers, zone))
		vouchers.DELETE("/:id", adminOnly, DeleteVoucher(svc.Vouchers))
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", GetNotifications(svc.Notifications))
		notifications.PATCH("/:id/read", MarkNotificationRead(svc.Notifications))
		notifications.DELETE("/:id", DeleteNotification(svc.Notifications))
	}
}
