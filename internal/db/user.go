package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsersByTenant(ctx context.Context, tenantID string) ([]models.User, error)
	ListUsersByTenant(ctx context.Context, tenantID string) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

// InsertUser inserts a new user into the database
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.IsActive = true

	_, err := c.Collection.InsertOne(ctx, user)
	return err
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := findOne(ctx, c.Collection, bson.M{"_id": objectID}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByUsername finds a user by their username
func (c *MongoUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, c.Collection, bson.M{"username": username}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail finds a user by their email
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, c.Collection, bson.M{"email": email}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUsersByTenant returns the active users owning a tenant's data: the
// company members, or the single user whose id is the tenant.
func (c *MongoUserCollection) FindUsersByTenant(ctx context.Context, tenantID string) ([]models.User, error) {
	filter := tenantMembers(tenantID)
	filter["is_active"] = true
	users := []models.User{}
	if err := findAll(ctx, c.Collection, filter, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListUsersByTenant returns every member of a tenant, deactivated accounts
// included, oldest first.
func (c *MongoUserCollection) ListUsersByTenant(ctx context.Context, tenantID string) ([]models.User, error) {
	users := []models.User{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if err := findAll(ctx, c.Collection, tenantMembers(tenantID), &users, opts); err != nil {
		return nil, err
	}
	return users, nil
}

// tenantMembers matches the company members, or the single user whose id
// is the tenant.
func tenantMembers(tenantID string) bson.M {
	or := bson.A{bson.M{"company_id": tenantID}}
	if objectID, err := primitive.ObjectIDFromHex(tenantID); err == nil {
		or = append(or, bson.M{"_id": objectID})
	}
	return bson.M{"$or": or}
}

// UpdateUser updates a user in the database
func (c *MongoUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	user.UpdatedAt = time.Now()
	user.ID = objectID

	return replaceOne(ctx, c.Collection, bson.M{"_id": objectID}, user)
}

// DeleteUser deletes a user from the database
func (c *MongoUserCollection) DeleteUser(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	return deleteOne(ctx, c.Collection, bson.M{"_id": objectID})
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	return err
}
