package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"laundry/internal/models"
	"laundry/internal/voucher"
)

func (s *Store) InsertVoucher(ctx context.Context, v *models.Voucher) error {
	voucher.EnforceExpiry(v, s.clock())

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col(colVouchers).InsertOne(ctx, v)
	if err != nil {
		return mapError(err, "insert voucher "+v.Code)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		v.ID = id
	}
	return nil
}

func (s *Store) ReplaceVoucher(ctx context.Context, v *models.Voucher) error {
	voucher.EnforceExpiry(v, s.clock())

	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col(colVouchers).ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		return mapError(err, "replace voucher "+v.Code)
	}
	if res.MatchedCount == 0 {
		return mapError(errNoMatch, "voucher "+v.ID.Hex())
	}
	return nil
}

func (s *Store) DeleteVoucher(ctx context.Context, id primitive.ObjectID) (models.Voucher, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var v models.Voucher
	err := s.col(colVouchers).FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&v)
	return v, mapError(err, "voucher "+id.Hex())
}

func (s *Store) FindVoucherByID(ctx context.Context, id primitive.ObjectID) (models.Voucher, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var v models.Voucher
	err := s.col(colVouchers).FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	return v, mapError(err, "voucher "+id.Hex())
}

func (s *Store) FindVoucherByCode(ctx context.Context, code string) (models.Voucher, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var v models.Voucher
	err := s.col(colVouchers).FindOne(ctx, bson.M{"code": voucher.NormalizeCode(code)}).Decode(&v)
	return v, mapError(err, "voucher "+code)
}

func (s *Store) ListVouchers(ctx context.Context) ([]models.Voucher, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col(colVouchers).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapError(err, "find vouchers")
	}
	defer cursor.Close(ctx)

	list := make([]models.Voucher, 0)
	if err := cursor.All(ctx, &list); err != nil {
		return nil, mapError(err, "decode vouchers")
	}
	return list, nil
}

// RedeemVoucher increments usageCount only while the voucher is active, inside
// its window and below its usage limit. Losing that race is ErrVoucherExhausted.
func (s *Store) RedeemVoucher(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter, update := redeemUpdate(id, now)
	res, err := s.col(colVouchers).UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err, "redeem voucher "+id.Hex())
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", voucher.ErrVoucherExhausted, id.Hex())
	}
	return nil
}

func redeemUpdate(id primitive.ObjectID, now time.Time) (bson.M, bson.M) {
	filter := bson.M{
		"_id":       id,
		"isActive":  true,
		"startDate": bson.M{"$lte": now},
		"endDate":   bson.M{"$gte": now},
		"$or": bson.A{
			bson.M{"usageLimit": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usageCount", "$usageLimit"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"usageCount": 1},
		"$set": bson.M{"updatedAt": now},
	}
	return filter, update
}
