package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID       string             `bson:"tenant_id" json:"-"`
	VehicleType    string             `bson:"vehicle_type" json:"vehicle_type"` // "car", "van", "truck", "motorcycle", ...
	ChassisNumber  string             `bson:"chassis_number" json:"chassis_number"`
	Model          string             `bson:"model,omitempty" json:"model,omitempty"`
	Year           *int               `bson:"year,omitempty" json:"year,omitempty"`
	CurrentMileage *int64             `bson:"current_mileage,omitempty" json:"current_mileage,omitempty"` // in kilometers
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// Label is the human readable name used in reminder emails.
func (v *Vehicle) Label() string {
	switch {
	case v == nil:
		return "Vehicle"
	case v.Model != "":
		return v.Model + " (" + v.ChassisNumber + ")"
	case v.ChassisNumber != "":
		return v.ChassisNumber
	default:
		return "Vehicle"
	}
}
