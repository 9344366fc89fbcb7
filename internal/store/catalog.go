package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"laundry/internal/models"
)

func (s *Store) FindService(ctx context.Context, id primitive.ObjectID) (models.Service, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var svc models.Service
	err := s.col(colServices).FindOne(ctx, bson.M{"_id": id}).Decode(&svc)
	return svc, mapError(err, "service "+id.Hex())
}

func (s *Store) FindServicesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Service, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cursor, err := s.col(colServices).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, mapError(err, "find services")
	}
	defer cursor.Close(ctx)

	services := make([]models.Service, 0, len(ids))
	if err := cursor.All(ctx, &services); err != nil {
		return nil, mapError(err, "decode services")
	}
	return services, nil
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var u models.User
	err := s.col(colUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, mapError(err, "user "+id.Hex())
}

func (s *Store) FindUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{"role": role})
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) findUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cursor, err := s.col(colUsers).Find(ctx, filter)
	if err != nil {
		return nil, mapError(err, "find users")
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, mapError(err, "decode users")
	}
	return users, nil
}
