package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (d DiscountType) Valid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}

// Voucher is a discount code. Dates are UTC instants.
type Voucher struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Code               string               `bson:"code" json:"code"`
	Description        string               `bson:"description" json:"description"`
	DiscountType       DiscountType         `bson:"discountType" json:"discountType"`
	DiscountValue      float64              `bson:"discountValue" json:"discountValue"`
	MaxDiscount        *float64             `bson:"maxDiscount" json:"maxDiscount"`
	MinPurchase        float64              `bson:"minPurchase" json:"minPurchase"`
	StartDate          time.Time            `bson:"startDate" json:"startDate"`
	EndDate            time.Time            `bson:"endDate" json:"endDate"`
	UsageLimit         *int                 `bson:"usageLimit" json:"usageLimit"`
	UsageCount         int                  `bson:"usageCount" json:"usageCount"`
	IsActive           bool                 `bson:"isActive" json:"isActive"`
	ApplicableServices []primitive.ObjectID `bson:"applicableServices" json:"applicableServices"`
	ExcludedServices   []primitive.ObjectID `bson:"excludedServices" json:"excludedServices"`
	Users              []primitive.ObjectID `bson:"users" json:"users"`
	CreatedAt          time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt" json:"updatedAt"`
}
