package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/carts"
)

var _ CartService = (*carts.Service)(nil)

type addCartItemRequest struct {
	ServiceID string `json:"serviceId" binding:"required"`
	Qty       int    `json:"qty" binding:"required,min=1"`
}

type updateCartItemRequest struct {
	Qty int `json:"qty" binding:"required,min=1"`
}

func GetCart(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		cart, err := svc.Get(c.Request.Context(), actor.UserID)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}

func AddCartItem(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		var req addCartItemRequest
		if !bindJSON(c, route, &req) {
			return
		}

		serviceID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ServiceID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid serviceId")
			return
		}

		cart, err := svc.AddItem(c.Request.Context(), actor.UserID, serviceID, req.Qty)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}

func UpdateCartItem(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/items/:serviceId"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		serviceID, ok := objectIDParam(c, route, "serviceId")
		if !ok {
			return
		}

		var req updateCartItemRequest
		if !bindJSON(c, route, &req) {
			return
		}

		cart, err := svc.UpdateQuantity(c.Request.Context(), actor.UserID, serviceID, req.Qty)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}

func RemoveCartItem(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:serviceId"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		serviceID, ok := objectIDParam(c, route, "serviceId")
		if !ok {
			return
		}

		cart, err := svc.RemoveItem(c.Request.Context(), actor.UserID, serviceID)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}
