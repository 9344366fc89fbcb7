package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"laundry/internal/models"
)

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col(colNotifications).InsertOne(ctx, n)
	if err != nil {
		return mapError(err, "insert notification")
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = id
	}
	return nil
}

// ListForRecipient returns the notifications the user has not deleted, newest first.
func (s *Store) ListForRecipient(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := bson.M{"recipients": recipientMatch(userID)}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.col(colNotifications).Find(ctx, filter, opts)
	if err != nil {
		return nil, mapError(err, "find notifications")
	}
	defer cursor.Close(ctx)

	list := make([]models.Notification, 0)
	if err := cursor.All(ctx, &list); err != nil {
		return nil, mapError(err, "decode notifications")
	}
	return list, nil
}

func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.setRecipientFlag(ctx, id, userID, "isRead")
}

func (s *Store) SoftDelete(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.setRecipientFlag(ctx, id, userID, "isDeleted")
}

func (s *Store) setRecipientFlag(ctx context.Context, id, userID primitive.ObjectID, flag string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter, update := recipientFlagUpdate(id, userID, flag)
	res, err := s.col(colNotifications).UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err, "update notification "+id.Hex())
	}
	if res.MatchedCount == 0 {
		return mapError(errNoMatch, "notification "+id.Hex())
	}
	return nil
}

func recipientMatch(userID primitive.ObjectID) bson.M {
	return bson.M{"$elemMatch": bson.M{"user": userID, "isDeleted": false}}
}

func recipientFlagUpdate(id, userID primitive.ObjectID, flag string) (bson.M, bson.M) {
	filter := bson.M{"_id": id, "recipients": recipientMatch(userID)}
	update := bson.M{"$set": bson.M{"recipients.$." + flag: true}}
	return filter, update
}
