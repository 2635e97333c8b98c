package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// InterestCollection stores contact requests from the public landing page.
type InterestCollection interface {
	InsertInterest(ctx context.Context, req *models.InterestRequest) error
}

// MongoInterestCollection implements InterestCollection for MongoDB.
type MongoInterestCollection struct {
	Collection *mongo.Collection
}

// InsertInterest stores req and assigns its ID and creation time.
func (c *MongoInterestCollection) InsertInterest(ctx context.Context, req *models.InterestRequest) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	req.ID = primitive.NewObjectID()
	req.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, req)
	return err
}

