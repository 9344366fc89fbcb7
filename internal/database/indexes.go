package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// collectionIndex is one index to ensure on one collection.
type collectionIndex struct {
	collection string
	model      mongo.IndexModel
}

func collectionIndexes() []collectionIndex {
	return []collectionIndex{
		{"orders", mongo.IndexModel{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetName("orderId_unique").SetUnique(true),
		}},
		{"orders", mongo.IndexModel{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_createdAt"),
		}},
		{"vouchers", mongo.IndexModel{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetName("code_unique").SetUnique(true),
		}},
		{"carts", mongo.IndexModel{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetName("user_unique").SetUnique(true),
		}},
		{"notifications", mongo.IndexModel{
			Keys:    bson.D{{Key: "recipients.user", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("recipient_createdAt"),
		}},
		{"services", mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_unique").SetUnique(true),
		}},
	}
}

// EnsureIndexes creates every index concurrently and returns the first failure.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, idx := range collectionIndexes() {
		idx := idx
		g.Go(func() error {
			name, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model)
			if err != nil {
				return fmt.Errorf("ensure index on %s: %w", idx.collection, err)
			}
			logger.Info("index ensured", zap.String("collection", idx.collection), zap.String("index", name))
			return nil
		})
	}
	return g.Wait()
}
