package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"laundry/internal/apperr"
	"laundry/internal/models"
	"laundry/internal/orders"
)

func (s *Store) InsertOrder(ctx context.Context, o *models.Order) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col(colOrders).InsertOne(ctx, o)
	if err != nil {
		return mapError(err, "insert order "+o.OrderID)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = id
	}
	return nil
}

func (s *Store) FindOrderByOrderID(ctx context.Context, orderID string) (models.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var o models.Order
	err := s.col(colOrders).FindOne(ctx, bson.M{"orderId": orderID}).Decode(&o)
	return o, mapError(err, "order "+orderID)
}

func (s *Store) ListOrders(ctx context.Context, f orders.ListFilter) ([]models.Order, int64, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := bson.M{}
	if f.User != nil {
		filter["user"] = *f.User
	}

	total, err := s.col(colOrders).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mapError(err, "count orders")
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := s.col(colOrders).Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mapError(err, "find orders")
	}
	defer cursor.Close(ctx)

	list := make([]models.Order, 0)
	if err := cursor.All(ctx, &list); err != nil {
		return nil, 0, mapError(err, "decode orders")
	}
	return list, total, nil
}

func (s *Store) DeleteOrder(ctx context.Context, orderID string) (models.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var o models.Order
	err := s.col(colOrders).FindOneAndDelete(ctx, bson.M{"orderId": orderID}).Decode(&o)
	return o, mapError(err, "order "+orderID)
}

// UpdateTrack applies a compare-and-set on one status field. A missed match on
// an existing order is a conflict.
func (s *Store) UpdateTrack(ctx context.Context, orderID string, ch orders.TrackChange) (models.Order, error) {
	filter, update, err := trackUpdate(orderID, ch)
	if err != nil {
		return models.Order{}, err
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var o models.Order
	err = s.col(colOrders).FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, fmt.Errorf("%w: %s %s is no longer %s", apperr.ErrConflict, orderID, ch.Track, ch.From)
	}
	return o, mapError(err, "update order "+orderID)
}

func trackUpdate(orderID string, ch orders.TrackChange) (bson.M, bson.M, error) {
	switch ch.Track {
	case models.TrackPayment, models.TrackOrder, models.TrackDelivery:
	default:
		return nil, nil, fmt.Errorf("%w: unknown track %q", apperr.ErrValidation, ch.Track)
	}

	set := bson.M{
		string(ch.Track): ch.To,
		"updatedAt":      ch.At,
	}
	if field := models.StampField(ch.Track, ch.To); field != "" {
		set[field] = ch.At
	}

	filter := bson.M{"orderId": orderID, string(ch.Track): ch.From}
	return filter, bson.M{"$set": set}, nil
}

// SetLineItemImages replaces one phase's images on the line item of serviceID.
func (s *Store) SetLineItemImages(ctx context.Context, orderID string, serviceID primitive.ObjectID, phase models.ImagePhase, images models.ImageList, at time.Time) (models.Order, error) {
	field := phase.Field()
	if field == "" {
		return models.Order{}, fmt.Errorf("%w: unknown image phase %q", apperr.ErrValidation, phase)
	}

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := bson.M{"orderId": orderID, "services.serviceId": serviceID}
	update := bson.M{"$set": bson.M{
		"services.$." + field: images,
		"updatedAt":           at,
	}}

	var o models.Order
	err := s.col(colOrders).FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	return o, mapError(err, "order "+orderID)
}

func (s *Store) AddPaymentReceipts(ctx context.Context, orderID string, receipts models.ImageList, at time.Time) (models.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"paymentReceipts": bson.M{"$each": receipts}},
		"$set":  bson.M{"updatedAt": at},
	}

	var o models.Order
	err := s.col(colOrders).FindOneAndUpdate(ctx, bson.M{"orderId": orderID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	return o, mapError(err, "order "+orderID)
}
