package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Duration is the estimated processing time of a laundry service.
type Duration struct {
	Days  int `bson:"days" json:"days"`
	Hours int `bson:"hours" json:"hours"`
}

type Material struct {
	Name string  `bson:"name" json:"name"`
	Cost float64 `bson:"cost" json:"cost"`
}

// Service is a catalog entry customers can order.
type Service struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Category          string             `bson:"category,omitempty" json:"category,omitempty"`
	Price             float64            `bson:"price" json:"price"`
	EstimatedDuration Duration           `bson:"estimatedDuration" json:"estimatedDuration"`
	Materials         []Material         `bson:"materials" json:"materials"`
	LaborCost         float64            `bson:"laborCost" json:"laborCost"`
	IsAvailable       bool               `bson:"isAvailable" json:"isAvailable"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Profit is price minus materials and labor.
func (s Service) Profit() float64 {
	cost := s.LaborCost
	for _, m := range s.Materials {
		cost += m.Cost
	}
	return s.Price - cost
}
