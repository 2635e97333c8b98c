package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMaintenanceCollection implements MaintenanceCollection for MongoDB.
type MongoMaintenanceCollection struct {
	Collection *mongo.Collection
}

// InsertMaintenance inserts a maintenance record and assigns its ID.
func (c *MongoMaintenanceCollection) InsertMaintenance(ctx context.Context, maintenance *models.Maintenance) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	now := time.Now()
	maintenance.ID = primitive.NewObjectID()
	maintenance.CreatedAt = now
	maintenance.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, maintenance)
	return err
}

// FindMaintenance returns the tenant's maintenance records, newest first.
func (c *MongoMaintenanceCollection) FindMaintenance(ctx context.Context, tenantID string) ([]models.Maintenance, error) {
	records := []models.Maintenance{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if err := findAll(ctx, c.Collection, bson.M{"tenant_id": tenantID}, &records, opts); err != nil {
		return nil, err
	}
	return records, nil
}

// FindMaintenanceByID finds a maintenance record by its ID within a tenant.
func (c *MongoMaintenanceCollection) FindMaintenanceByID(ctx context.Context, tenantID, id string) (*models.Maintenance, error) {
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return nil, err
	}
	var maintenance models.Maintenance
	if err := findOne(ctx, c.Collection, filter, &maintenance); err != nil {
		return nil, err
	}
	return &maintenance, nil
}

// UpdateMaintenance replaces a stored maintenance record.
func (c *MongoMaintenanceCollection) UpdateMaintenance(ctx context.Context, maintenance *models.Maintenance) error {
	maintenance.UpdatedAt = time.Now()
	return replaceOne(ctx, c.Collection, bson.M{"_id": maintenance.ID, "tenant_id": maintenance.TenantID}, maintenance)
}

// DeleteMaintenance deletes a maintenance record by its ID within a tenant.
func (c *MongoMaintenanceCollection) DeleteMaintenance(ctx context.Context, tenantID, id string) error {
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return err
	}
	return deleteOne(ctx, c.Collection, filter)
}

// DeleteMaintenanceByTenant removes every maintenance record of a tenant.
func (c *MongoMaintenanceCollection) DeleteMaintenanceByTenant(ctx context.Context, tenantID string) error {
	return deleteByTenant(ctx, c.Collection, tenantID)
}

// DeleteMaintenanceByVehicle removes the records of one vehicle.
func (c *MongoMaintenanceCollection) DeleteMaintenanceByVehicle(ctx context.Context, tenantID, vehicleID string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{"tenant_id": tenantID, "vehicle_id": vehicleID})
	return err
}

// FindReminderCandidates returns non-completed records due on or after from.
// The exact "reminder day" check happens in Go so that it shares the day
// arithmetic used for display.
func (c *MongoMaintenanceCollection) FindReminderCandidates(ctx context.Context, from time.Time) ([]models.Maintenance, error) {
	y, m, d := from.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	filter := bson.M{
		"next_date": bson.M{"$gte": start},
		"status":    bson.M{"$ne": models.MaintenanceCompleted},
	}
	records := []models.Maintenance{}
	opts := options.Find().SetSort(bson.D{{Key: "next_date", Value: 1}})
	if err := findAll(ctx, c.Collection, filter, &records, opts); err != nil {
		return nil, err
	}
	return records, nil
}
