package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"laundry/internal/apperr"
	"laundry/internal/models"
	"laundry/internal/orders"
)

var at = time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "order"))

	err := mapError(mongo.ErrNoDocuments, "order ORD-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), "ORD-1")

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, mapError(dup, "insert order"), apperr.ErrConflict)

	boom := errors.New("connection reset")
	err = mapError(boom, "find orders")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, apperr.ErrNotFound))
}

func TestTrackUpdateStampsStatusField(t *testing.T) {
	filter, update, err := trackUpdate("ORD-1", orders.TrackChange{
		Track: models.TrackOrder,
		From:  string(models.OrderQueue),
		To:    string(models.OrderProcessing),
		At:    at,
	})
	require.NoError(t, err)

	assert.Equal(t, bson.M{"orderId": "ORD-1", "orderStatus": "queue"}, filter)
	set := update["$set"].(bson.M)
	assert.Equal(t, "processing", set["orderStatus"])
	assert.Equal(t, at, set["processingTime"])
	assert.Equal(t, at, set["updatedAt"])
}

func TestTrackUpdateWithoutStampField(t *testing.T) {
	_, update, err := trackUpdate("ORD-1", orders.TrackChange{
		Track: models.TrackDelivery,
		From:  string(models.DeliveryPending),
		To:    string(models.DeliveryPending),
		At:    at,
	})
	require.NoError(t, err)
	assert.Len(t, update["$set"].(bson.M), 2)
}

func TestTrackUpdateRejectsUnknownTrack(t *testing.T) {
	_, _, err := trackUpdate("ORD-1", orders.TrackChange{Track: "shippingStatus", To: "x", At: at})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRedeemUpdateGuardsLimitAndWindow(t *testing.T) {
	id := primitive.NewObjectID()
	filter, update := redeemUpdate(id, at)

	assert.Equal(t, id, filter["_id"])
	assert.Equal(t, true, filter["isActive"])
	assert.Equal(t, bson.M{"$lte": at}, filter["startDate"])
	assert.Equal(t, bson.M{"$gte": at}, filter["endDate"])
	assert.Len(t, filter["$or"], 2)
	assert.Equal(t, bson.M{"usageCount": 1}, update["$inc"])
}

func TestRecipientFlagUpdateTargetsMatchedElement(t *testing.T) {
	id, user := primitive.NewObjectID(), primitive.NewObjectID()
	filter, update := recipientFlagUpdate(id, user, "isRead")

	assert.Equal(t, id, filter["_id"])
	assert.Equal(t, bson.M{"$elemMatch": bson.M{"user": user, "isDeleted": false}}, filter["recipients"])
	assert.Equal(t, bson.M{"recipients.$.isRead": true}, update["$set"])
}
