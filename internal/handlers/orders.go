package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/models"
	"laundry/internal/orders"
)

/* =========================
   REQUEST DTOs
========================= */

type orderItemRequest struct {
	ServiceID string `json:"serviceId" binding:"required"`
	Qty       int    `json:"qty" binding:"required,min=1"`
}

type orderDetailsRequest struct {
	OrderID        string   `json:"orderId"`
	Address        string   `json:"address"`
	Phone          string   `json:"phone" binding:"required"`
	PaymentMethod  string   `json:"paymentMethod" binding:"required"`
	DeliveryOption string   `json:"deliveryOption" binding:"required,oneof=pickup_by_laundry self_service"`
	ShippingCost   *float64 `json:"shippingCost"`
	VoucherCode    string   `json:"voucherCode"`
}

type createOrderRequest struct {
	orderDetailsRequest
	Services []orderItemRequest `json:"services" binding:"required,min=1,dive"`
}

type createFromCartRequest struct {
	orderDetailsRequest
	SelectedServices []string `json:"selectedServices" binding:"required,min=1"`
}

func (r orderDetailsRequest) details() orders.Details {
	return orders.Details{
		OrderID:        strings.TrimSpace(r.OrderID),
		Address:        strings.TrimSpace(r.Address),
		Phone:          strings.TrimSpace(r.Phone),
		PaymentMethod:  strings.TrimSpace(r.PaymentMethod),
		DeliveryOption: models.DeliveryOption(r.DeliveryOption),
		ShippingCost:   r.ShippingCost,
		VoucherCode:    strings.TrimSpace(r.VoucherCode),
	}
}

func toCartItems(req []orderItemRequest) ([]models.CartItem, error) {
	ids := make([]string, 0, len(req))
	for _, item := range req {
		ids = append(ids, item.ServiceID)
	}
	parsed, err := parseObjectIDs(ids, "serviceId")
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(req))
	for i, item := range req {
		items = append(items, models.CartItem{ServiceID: parsed[i], Qty: item.Qty})
	}
	return items, nil
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		var req createOrderRequest
		if !bindJSON(c, route, &req) {
			return
		}

		items, err := toCartItems(req.Services)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		order, err := svc.CreateDirect(c.Request.Context(), actor, req.details(), items)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "order created",
			"order":   order,
		})
	}
}

func CreateOrderFromCart(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/from-cart"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		var req createFromCartRequest
		if !bindJSON(c, route, &req) {
			return
		}

		selected, err := parseObjectIDs(req.SelectedServices, "selectedServices")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		order, err := svc.CreateFromCart(c.Request.Context(), actor, req.details(), selected)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "order created",
			"order":   order,
		})
	}
}

/* =========================
   READ ORDERS
========================= */

func GetOrders(svc OrderService) gin.HandlerFunc {
	return listOrders("GET /orders", func(c *gin.Context, _ models.Actor, skip, limit int64) ([]models.Order, int64, error) {
		return svc.List(c.Request.Context(), skip, limit)
	})
}

func GetMyOrders(svc OrderService) gin.HandlerFunc {
	return listOrders("GET /orders/mine", func(c *gin.Context, actor models.Actor, skip, limit int64) ([]models.Order, int64, error) {
		return svc.ListMine(c.Request.Context(), actor, skip, limit)
	})
}

type orderLister func(c *gin.Context, actor models.Actor, skip, limit int64) ([]models.Order, int64, error)

func listOrders(route string, list orderLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		found, total, err := list(c, actor, (page-1)*limit, limit)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, paginated(found, page, limit, total))
	}
}

func GetOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:orderId"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		order, err := svc.Get(c.Request.Context(), actor, c.Param("orderId"))
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

/* =========================
   DELETE ORDER
========================= */

func DeleteOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /orders/:orderId"
		defer handlePanic(c, route)

		if err := svc.Delete(c.Request.Context(), c.Param("orderId")); err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

/* =========================
   IMAGES & RECEIPTS
========================= */

type attachImagesRequest struct {
	ServiceID string   `json:"serviceId" binding:"required"`
	Phase     string   `json:"phase" binding:"required,oneof=before after"`
	Images    []string `json:"images" binding:"required,min=1"`
}

func AttachOrderImages(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/images"
		defer handlePanic(c, route)

		var req attachImagesRequest
		if !bindJSON(c, route, &req) {
			return
		}

		serviceID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ServiceID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid serviceId")
			return
		}

		links, err := normalizeUploadLinks(req.Images)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		order, err := svc.AttachImages(c.Request.Context(), c.Param("orderId"), serviceID, models.ImagePhase(req.Phase), links)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "images uploaded",
			"order":   order,
		})
	}
}

type uploadReceiptsRequest struct {
	Links []string `json:"links" binding:"required,min=1"`
}

func UploadPaymentReceipts(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/receipts"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		var req uploadReceiptsRequest
		if !bindJSON(c, route, &req) {
			return
		}

		links, err := normalizeUploadLinks(req.Links)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		order, err := svc.AddPaymentReceipts(c.Request.Context(), actor, c.Param("orderId"), links)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "payment receipts uploaded",
			"order":   order,
		})
	}
}
