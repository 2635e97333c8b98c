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

// MongoCostCollection implements CostCollection for MongoDB.
type MongoCostCollection struct {
	Collection *mongo.Collection
}

// InsertCost inserts a cost record and assigns its ID.
func (c *MongoCostCollection) InsertCost(ctx context.Context, cost *models.Cost) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	now := time.Now()
	cost.ID = primitive.NewObjectID()
	cost.CreatedAt = now
	cost.UpdatedAt = now
	_, err := c.Collection.InsertOne(ctx, cost)
	return err
}

// FindCosts returns the tenant's costs, latest date first.
func (c *MongoCostCollection) FindCosts(ctx context.Context, tenantID string) ([]models.Cost, error) {
	costs := []models.Cost{}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	if err := findAll(ctx, c.Collection, bson.M{"tenant_id": tenantID}, &costs, opts); err != nil {
		return nil, err
	}
	return costs, nil
}

// FindCostByID finds a cost record by its ID within a tenant.
func (c *MongoCostCollection) FindCostByID(ctx context.Context, tenantID, id string) (*models.Cost, error) {
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return nil, err
	}
	var cost models.Cost
	if err := findOne(ctx, c.Collection, filter, &cost); err != nil {
		return nil, err
	}
	return &cost, nil
}

// UpdateCost replaces a stored cost record.
func (c *MongoCostCollection) UpdateCost(ctx context.Context, cost *models.Cost) error {
	cost.UpdatedAt = time.Now()
	return replaceOne(ctx, c.Collection, bson.M{"_id": cost.ID, "tenant_id": cost.TenantID}, cost)
}

// DeleteCost deletes a cost record by its ID within a tenant.
func (c *MongoCostCollection) DeleteCost(ctx context.Context, tenantID, id string) error {
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return err
	}
	return deleteOne(ctx, c.Collection, filter)
}

// DeleteCostsByTenant removes every cost record of a tenant.
func (c *MongoCostCollection) DeleteCostsByTenant(ctx context.Context, tenantID string) error {
	return deleteByTenant(ctx, c.Collection, tenantID)
}
