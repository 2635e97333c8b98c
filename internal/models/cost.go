package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CostCategory classifies a fleet expense.
type CostCategory string

const (
	CostFuel         CostCategory = "fuel"
	CostMaintenance  CostCategory = "maintenance"
	CostInsurance    CostCategory = "insurance"
	CostRegistration CostCategory = "registration"
	CostTolls        CostCategory = "tolls"
	CostParking      CostCategory = "parking"
	CostOther        CostCategory = "other"
)

// IsValidCostCategory reports whether c is one of the known categories.
func IsValidCostCategory(c CostCategory) bool {
	switch c {
	case CostFuel, CostMaintenance, CostInsurance, CostRegistration, CostTolls, CostParking, CostOther:
		return true
	default:
		return false
	}
}

// Cost represents a fleet cost record.
type Cost struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID      string             `json:"-" bson:"tenant_id"`
	VehicleID     string             `json:"vehicle_id" bson:"vehicle_id"`
	Category      CostCategory       `json:"category" bson:"category"`
	Amount        float64            `json:"amount" bson:"amount"`
	Date          time.Time          `json:"date" bson:"date"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	ReceiptNumber string             `json:"receipt_number,omitempty" bson:"receipt_number,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
