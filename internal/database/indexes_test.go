package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollectionIndexesCoverUniqueKeys(t *testing.T) {
	unique := map[string]bool{}
	for _, idx := range collectionIndexes() {
		if idx.model.Options.Unique != nil && *idx.model.Options.Unique {
			keys := idx.model.Keys.(bson.D)
			unique[idx.collection+"."+keys[0].Key] = true
		}
	}

	assert.Equal(t, map[string]bool{
		"orders.orderId": true,
		"vouchers.code":  true,
		"carts.user":     true,
		"services.name":  true,
	}, unique)
}
