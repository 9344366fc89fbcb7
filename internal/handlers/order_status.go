package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"laundry/internal/models"
	"laundry/internal/orders"
)

type orderStatusRequest struct {
	OrderStatus string `json:"orderStatus" binding:"required"`
}

type deliveryStatusRequest struct {
	DeliveryStatus string `json:"deliveryStatus" binding:"required"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

// gatewayNotification is the subset of the payment gateway callback we read.
type gatewayNotification struct {
	OrderID           string `json:"order_id" binding:"required"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
}

func UpdateOrderStatus(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /orders/:orderId/status"
		defer handlePanic(c, route)

		var req orderStatusRequest
		if !bindJSON(c, route, &req) {
			return
		}

		order, err := svc.UpdateOrderStatus(c.Request.Context(), c.Param("orderId"), models.OrderStatus(req.OrderStatus))
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order status updated", "order": order})
	}
}

func UpdateDeliveryStatus(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /orders/:orderId/delivery"
		defer handlePanic(c, route)

		var req deliveryStatusRequest
		if !bindJSON(c, route, &req) {
			return
		}

		order, err := svc.UpdateDeliveryStatus(c.Request.Context(), c.Param("orderId"), models.DeliveryStatus(req.DeliveryStatus))
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "delivery status updated", "order": order})
	}
}

func UpdateCODPayment(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /orders/:orderId/payment"
		defer handlePanic(c, route)

		var req paymentStatusRequest
		if !bindJSON(c, route, &req) {
			return
		}

		order, err := svc.UpdateCODPayment(c.Request.Context(), c.Param("orderId"), models.PaymentStatus(req.PaymentStatus))
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "payment status updated", "order": order})
	}
}

// PaymentNotification receives gateway callbacks. The gateway retries on any
// non-2xx answer, so a status the order can no longer take (a late pending
// after settlement, say) is acknowledged with 200 and dropped.
func PaymentNotification(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/notifications"
		defer handlePanic(c, route)

		var req gatewayNotification
		if !bindJSON(c, route, &req) {
			return
		}

		order, err := svc.ApplyGatewayPayment(c.Request.Context(), req.OrderID, req.TransactionStatus)
		if errors.Is(err, orders.ErrInvalidTransition) {
			zap.L().Warn("gateway notification ignored",
				zap.String("route", route),
				zap.String("orderId", req.OrderID),
				zap.String("transactionStatus", req.TransactionStatus),
				zap.Error(err))
			c.JSON(http.StatusOK, gin.H{
				"message": "notification ignored",
				"orderId": req.OrderID,
				"reason":  err.Error(),
			})
			return
		}
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "notification processed",
			"orderId":       order.OrderID,
			"paymentStatus": order.PaymentStatus,
		})
	}
}
