package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetNotifications(svc NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /notifications"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}

		items, err := svc.Inbox(c.Request.Context(), actor.UserID)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": items})
	}
}

func MarkNotificationRead(svc NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /notifications/:id/read"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		if err := svc.MarkRead(c.Request.Context(), id, actor.UserID); err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
	}
}

func DeleteNotification(svc NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /notifications/:id"
		defer handlePanic(c, route)

		actor, ok := currentActor(c, route)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, route, "id")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), id, actor.UserID); err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
	}
}
