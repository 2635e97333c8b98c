package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InterestRequest is a prospect asking to be contacted about the product.
// It belongs to no tenant.
type InterestRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CompanyName string             `bson:"company_name,omitempty" json:"company_name,omitempty"`
	FleetSize   string             `bson:"fleet_size,omitempty" json:"fleet_size,omitempty"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
