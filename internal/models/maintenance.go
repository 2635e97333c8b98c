package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultNotificationDays is the reminder lead time used when a record has none.
const DefaultNotificationDays = 7

// MaintenanceType is the kind of service a record tracks.
type MaintenanceType string

const (
	MaintenanceOil       MaintenanceType = "oil"
	MaintenanceService   MaintenanceType = "service"
	MaintenanceTires     MaintenanceType = "tires"
	MaintenanceBrakes    MaintenanceType = "brakes"
	MaintenanceBattery   MaintenanceType = "battery"
	MaintenanceInsurance MaintenanceType = "insurance"
	MaintenanceKTEO      MaintenanceType = "kteo" // periodic roadworthiness inspection
	MaintenanceOther     MaintenanceType = "other"
)

var maintenanceTypeLabels = map[MaintenanceType]string{
	MaintenanceOil:       "Oil change",
	MaintenanceService:   "General service",
	MaintenanceTires:     "Tire replacement",
	MaintenanceBrakes:    "Brake replacement",
	MaintenanceBattery:   "Battery replacement",
	MaintenanceInsurance: "Insurance renewal",
	MaintenanceKTEO:      "Roadworthiness inspection (KTEO)",
	MaintenanceOther:     "Other",
}

// IsValidMaintenanceType checks if t belongs to the known vocabulary.
func IsValidMaintenanceType(t MaintenanceType) bool {
	_, ok := maintenanceTypeLabels[t]
	return ok
}

// MaintenanceStatus is the status as stored, not the computed display status.
type MaintenanceStatus string

const (
	MaintenancePending   MaintenanceStatus = "pending"
	MaintenanceActive    MaintenanceStatus = "active"
	MaintenanceCompleted MaintenanceStatus = "completed"
)

// IsValidMaintenanceStatus checks if s is a storable status.
func IsValidMaintenanceStatus(s MaintenanceStatus) bool {
	switch s {
	case MaintenancePending, MaintenanceActive, MaintenanceCompleted:
		return true
	default:
		return false
	}
}

// Maintenance represents a vehicle maintenance record.
type Maintenance struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID         string             `json:"-" bson:"tenant_id"`
	VehicleID        string             `json:"vehicle_id" bson:"vehicle_id"`
	Type             MaintenanceType    `json:"maintenance_type" bson:"maintenance_type"`
	CustomType       string             `json:"custom_type,omitempty" bson:"custom_type,omitempty"` // only with MaintenanceOther
	LastDate         *time.Time         `json:"last_date,omitempty" bson:"last_date,omitempty"`
	NextDate         *time.Time         `json:"next_date,omitempty" bson:"next_date,omitempty"`
	LastMileage      *int64             `json:"last_mileage,omitempty" bson:"last_mileage,omitempty"` // in kilometers
	NextMileage      *int64             `json:"next_mileage,omitempty" bson:"next_mileage,omitempty"` // in kilometers
	NotificationDays int                `json:"notification_days" bson:"notification_days"`
	Status           MaintenanceStatus  `json:"status" bson:"status"`
	CompletedDate    *time.Time         `json:"completed_date,omitempty" bson:"completed_date,omitempty"`
	Notes            string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// TypeLabel returns the display name, using the custom label for "other".
func (m *Maintenance) TypeLabel() string {
	if m.Type == MaintenanceOther && m.CustomType != "" {
		return m.CustomType
	}
	if label, ok := maintenanceTypeLabels[m.Type]; ok {
		return label
	}
	return string(m.Type)
}

// EffectiveNotificationDays applies the default lead time.
func (m *Maintenance) EffectiveNotificationDays() int {
	if m.NotificationDays <= 0 {
		return DefaultNotificationDays
	}
	return m.NotificationDays
}

// IsCompleted reports whether the stored status is terminal.
func (m *Maintenance) IsCompleted() bool {
	return m.Status == MaintenanceCompleted
}

// Complete rolls the targets into the "last" fields and marks the record
// completed on the given day.
func (m *Maintenance) Complete(today time.Time) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if m.NextDate != nil {
		last := *m.NextDate
		m.LastDate = &last
	} else {
		m.LastDate = &day
	}
	if m.NextMileage != nil {
		last := *m.NextMileage
		m.LastMileage = &last
	}
	if m.NotificationDays <= 0 {
		m.NotificationDays = DefaultNotificationDays
	}
	m.CompletedDate = &day
	m.Status = MaintenanceCompleted
}
