package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ErrNotFound is returned when a document does not exist within the caller's tenant.
var ErrNotFound = errors.New("not found")

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context, tenantID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, tenantID, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error
	DeleteVehicle(ctx context.Context, tenantID, id string) error
	DeleteVehiclesByTenant(ctx context.Context, tenantID string) error
}

// MaintenanceCollection defines the interface for maintenance data operations.
type MaintenanceCollection interface {
	InsertMaintenance(ctx context.Context, maintenance *models.Maintenance) error
	FindMaintenance(ctx context.Context, tenantID string) ([]models.Maintenance, error)
	FindMaintenanceByID(ctx context.Context, tenantID, id string) (*models.Maintenance, error)
	UpdateMaintenance(ctx context.Context, maintenance *models.Maintenance) error
	DeleteMaintenance(ctx context.Context, tenantID, id string) error
	DeleteMaintenanceByTenant(ctx context.Context, tenantID string) error
	DeleteMaintenanceByVehicle(ctx context.Context, tenantID, vehicleID string) error
	// FindReminderCandidates returns open records across all tenants whose
	// next date is on or after the given day.
	FindReminderCandidates(ctx context.Context, from time.Time) ([]models.Maintenance, error)
}

// CostCollection defines the interface for cost data operations.
type CostCollection interface {
	InsertCost(ctx context.Context, cost *models.Cost) error
	FindCosts(ctx context.Context, tenantID string) ([]models.Cost, error)
	FindCostByID(ctx context.Context, tenantID, id string) (*models.Cost, error)
	UpdateCost(ctx context.Context, cost *models.Cost) error
	DeleteCost(ctx context.Context, tenantID, id string) error
	DeleteCostsByTenant(ctx context.Context, tenantID string) error
}

// TenantWiper deletes all fleet data owned by a tenant.
type TenantWiper interface {
	WipeTenant(ctx context.Context, tenantID string) error
}
