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

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle and assigns its ID.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	now := time.Now()
	vehicle.ID = primitive.NewObjectID()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return err
}

// FindVehicles returns the tenant's vehicles, newest first.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, tenantID string) ([]models.Vehicle, error) {
	vehicles := []models.Vehicle{}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if err := findAll(ctx, c.Collection, bson.M{"tenant_id": tenantID}, &vehicles, opts); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds a vehicle by its ID within a tenant.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, tenantID, id string) (*models.Vehicle, error) {
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return nil, err
	}
	var vehicle models.Vehicle
	if err := findOne(ctx, c.Collection, filter, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// UpdateVehicle replaces a stored vehicle.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.UpdatedAt = time.Now()
	return replaceOne(ctx, c.Collection, bson.M{"_id": vehicle.ID, "tenant_id": vehicle.TenantID}, vehicle)
}

// DeleteVehicle deletes a vehicle by its ID within a tenant.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, tenantID, id string) error {
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return err
	}
	return deleteOne(ctx, c.Collection, filter)
}

// DeleteVehiclesByTenant removes every vehicle of a tenant.
func (c *MongoVehicleCollection) DeleteVehiclesByTenant(ctx context.Context, tenantID string) error {
	return deleteByTenant(ctx, c.Collection, tenantID)
}
