package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"laundry/internal/apperr"
	"laundry/internal/middleware"
	"laundry/internal/models"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		zap.L().Error("panic recovered", zap.String("route", route), zap.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	zap.L().Warn("returning error",
		zap.String("route", route),
		zap.Int("status", status),
		zap.String("error", message))
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondWithServiceError answers with the status of the error's category.
// Unclassified errors are logged in full and hidden from the client.
func respondWithServiceError(c *gin.Context, route string, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("route", route), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	respondWithError(c, status, route, err.Error())
}

func currentActor(c *gin.Context, route string) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
	}
	return actor, ok
}

func objectIDParam(c *gin.Context, route, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectIDs(values []string, field string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, value := range values {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", field, value)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func bindJSON(c *gin.Context, route string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondWithError(c, http.StatusBadRequest, route, bindingMessage(err))
		return false
	}
	return true
}

// bindingMessage names the failing fields instead of echoing validator internals.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return "invalid request body: " + strings.Join(fields, ", ")
}
