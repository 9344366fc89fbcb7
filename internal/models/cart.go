package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ServiceID primitive.ObjectID `bson:"serviceId" json:"serviceId"`
	Qty       int                `bson:"qty" json:"qty"`
}

// Cart is a per-user list of services waiting to be ordered.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Services  []CartItem         `bson:"services" json:"services"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IndexOf returns the position of a service in the cart or -1.
func (c Cart) IndexOf(serviceID primitive.ObjectID) int {
	for i, item := range c.Services {
		if item.ServiceID == serviceID {
			return i
		}
	}
	return -1
}
