package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"laundry/internal/models"
)

func (s *Store) GetCart(ctx context.Context, userID primitive.ObjectID) (models.Cart, bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var cart models.Cart
	err := s.col(colCarts).FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cart{}, false, nil
	}
	if err != nil {
		return models.Cart{}, false, mapError(err, "cart")
	}
	return cart, true, nil
}

// SaveCart upserts the cart of cart.User.
func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	services := cart.Services
	if services == nil {
		services = []models.CartItem{}
	}
	update := bson.M{
		"$set": bson.M{
			"services":  services,
			"updatedAt": cart.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"createdAt": cart.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Cart
	err := s.col(colCarts).FindOneAndUpdate(ctx, bson.M{"user": cart.User}, update, opts).Decode(&saved)
	if err != nil {
		return mapError(err, "save cart")
	}
	*cart = saved
	return nil
}
