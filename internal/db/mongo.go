package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection        = "users"
	VehiclesCollection     = "vehicles"
	MaintenancesCollection = "maintenances"
	CostsCollection        = "costs"
	InterestsCollection    = "interest_requests"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store bundles the collections used by the API and the reminder job.
type Store struct {
	Users        *MongoUserCollection
	Vehicles     *MongoVehicleCollection
	Maintenances *MongoMaintenanceCollection
	Costs        *MongoCostCollection
	Interests    *MongoInterestCollection
}

// NewStore binds the collections of the named database.
func NewStore(client *mongo.Client, database string) *Store {
	d := client.Database(database)
	return &Store{
		Users:        &MongoUserCollection{Collection: d.Collection(UsersCollection)},
		Vehicles:     &MongoVehicleCollection{Collection: d.Collection(VehiclesCollection)},
		Maintenances: &MongoMaintenanceCollection{Collection: d.Collection(MaintenancesCollection)},
		Costs:        &MongoCostCollection{Collection: d.Collection(CostsCollection)},
		Interests:    &MongoInterestCollection{Collection: d.Collection(InterestsCollection)},
	}
}

// EnsureIndexes creates the indexes the tenant-scoped queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.Users.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "company_id", Value: 1}}},
		}},
		{s.Vehicles.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "_id", Value: -1}}},
		}},
		{s.Maintenances.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "next_date", Value: 1}, {Key: "status", Value: 1}}},
		}},
		{s.Costs.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "date", Value: -1}}},
		}},
		{s.Interests.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// WipeTenant removes every vehicle, maintenance record and cost of a tenant.
// Users are kept.
func (s *Store) WipeTenant(ctx context.Context, tenantID string) error {
	if err := s.Maintenances.DeleteMaintenanceByTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("wipe maintenances: %w", err)
	}
	if err := s.Costs.DeleteCostsByTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("wipe costs: %w", err)
	}
	if err := s.Vehicles.DeleteVehiclesByTenant(ctx, tenantID); err != nil {
		return fmt.Errorf("wipe vehicles: %w", err)
	}
	return nil
}

// tenantFilter matches a single document by hex id inside a tenant. An id
// that is not a valid ObjectID can never match, so it reports ErrNotFound.
func tenantFilter(tenantID, id string) (bson.M, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return bson.M{"_id": objectID, "tenant_id": tenantID}, nil
}

// findAll decodes every document matching filter into out.
func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	if coll == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// findOne decodes a single document, mapping ErrNoDocuments to ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}) error {
	if coll == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	err := coll.FindOne(ctx, filter).Decode(out)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}

// replaceOne replaces the document matched by filter.
func replaceOne(ctx context.Context, coll *mongo.Collection, filter interface{}, doc interface{}) error {
	if coll == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteOne removes the document matched by filter.
func deleteOne(ctx context.Context, coll *mongo.Collection, filter interface{}) error {
	if coll == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	result, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByTenant(ctx context.Context, coll *mongo.Collection, tenantID string) error {
	if coll == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := coll.DeleteMany(ctx, bson.M{"tenant_id": tenantID})
	return err
}
