package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// testStore connects to MONGO_URI and returns a store over freshly dropped
// collections. The test is skipped when no database is reachable.
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	store := NewStore(client, "test_fleet_maintenance")
	for _, c := range []*mongo.Collection{
		store.Users.Collection, store.Vehicles.Collection,
		store.Maintenances.Collection, store.Costs.Collection,
		store.Interests.Collection,
	} {
		require.NoError(t, c.Drop(context.Background()))
	}
	require.NoError(t, store.EnsureIndexes(context.Background()))
	return store
}

func day(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestNilCollection(t *testing.T) {
	ctx := context.Background()

	assert.Error(t, (&MongoVehicleCollection{}).InsertVehicle(ctx, &models.Vehicle{}))
	assert.Error(t, (&MongoMaintenanceCollection{}).InsertMaintenance(ctx, &models.Maintenance{}))
	assert.Error(t, (&MongoCostCollection{}).InsertCost(ctx, &models.Cost{}))
	assert.Error(t, (&MongoInterestCollection{}).InsertInterest(ctx, &models.InterestRequest{}))

	_, err := (&MongoMaintenanceCollection{}).FindMaintenance(ctx, "t1")
	assert.Error(t, err)
}

func TestTenantFilter_InvalidID(t *testing.T) {
	_, err := tenantFilter("t1", "not-an-object-id")
	assert.ErrorIs(t, err, ErrNotFound)

	id := primitive.NewObjectID()
	filter, err := tenantFilter("t1", id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, filter["_id"])
	assert.Equal(t, "t1", filter["tenant_id"])
}

func TestMongoVehicleCollection_TenantScoping(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	mileage := int64(1200)
	v := &models.Vehicle{TenantID: "acme", VehicleType: "van", ChassisNumber: "CH1", CurrentMileage: &mileage}
	require.NoError(t, store.Vehicles.InsertVehicle(ctx, v))
	require.False(t, v.ID.IsZero())

	found, err := store.Vehicles.FindVehicleByID(ctx, "acme", v.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1200), *found.CurrentMileage)

	_, err = store.Vehicles.FindVehicleByID(ctx, "globex", v.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Vehicles.DeleteVehicle(ctx, "globex", v.ID.Hex()), ErrNotFound)

	other := *found
	other.TenantID = "globex"
	assert.ErrorIs(t, store.Vehicles.UpdateVehicle(ctx, &other), ErrNotFound)

	found.Model = "Transit"
	found.CurrentMileage = nil
	require.NoError(t, store.Vehicles.UpdateVehicle(ctx, found))

	list, err := store.Vehicles.FindVehicles(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Transit", list[0].Model)
	assert.Nil(t, list[0].CurrentMileage)

	require.NoError(t, store.Vehicles.DeleteVehiclesByTenant(ctx, "acme"))
	list, err = store.Vehicles.FindVehicles(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMongoMaintenanceCollection_FindReminderCandidates(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	records := []*models.Maintenance{
		{TenantID: "acme", Type: models.MaintenanceOil, NextDate: day("2024-06-17"), Status: models.MaintenanceActive},
		{TenantID: "acme", Type: models.MaintenanceTires, NextDate: day("2024-06-01"), Status: models.MaintenanceActive},
		{TenantID: "globex", Type: models.MaintenanceKTEO, NextDate: day("2024-06-10"), Status: models.MaintenancePending},
		{TenantID: "globex", Type: models.MaintenanceBrakes, NextDate: day("2024-07-01"), Status: models.MaintenanceCompleted},
		{TenantID: "globex", Type: models.MaintenanceBattery, Status: models.MaintenanceActive},
	}
	for _, m := range records {
		require.NoError(t, store.Maintenances.InsertMaintenance(ctx, m))
	}

	today := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	got, err := store.Maintenances.FindReminderCandidates(ctx, today)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.MaintenanceKTEO, got[0].Type)
	assert.Equal(t, models.MaintenanceOil, got[1].Type)
}

func TestMongoMaintenanceCollection_UpdateClearsOptionalFields(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	next := int64(90000)
	m := &models.Maintenance{TenantID: "acme", Type: models.MaintenanceService, NextMileage: &next, NextDate: day("2024-09-01")}
	require.NoError(t, store.Maintenances.InsertMaintenance(ctx, m))

	m.NextDate = nil
	require.NoError(t, store.Maintenances.UpdateMaintenance(ctx, m))

	found, err := store.Maintenances.FindMaintenanceByID(ctx, "acme", m.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, found.NextDate)
	assert.Equal(t, int64(90000), *found.NextMileage)
}

func TestMongoCostCollection_Ordering(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-05", "2024-03-01", "2024-02-10"} {
		require.NoError(t, store.Costs.InsertCost(ctx, &models.Cost{
			TenantID: "acme", Category: models.CostFuel, Amount: 50, Date: *day(d),
		}))
	}
	require.NoError(t, store.Costs.InsertCost(ctx, &models.Cost{TenantID: "globex", Category: models.CostTolls, Amount: 3, Date: *day("2024-05-05")}))

	costs, err := store.Costs.FindCosts(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, costs, 3)
	assert.Equal(t, "2024-03-01", costs[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-01-05", costs[2].Date.Format("2006-01-02"))
}

func TestStore_WipeTenant(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	guest := &models.Vehicle{TenantID: "guest-tenant", VehicleType: "car", ChassisNumber: "G1"}
	other := &models.Vehicle{TenantID: "other", VehicleType: "car", ChassisNumber: "O1"}
	require.NoError(t, store.Vehicles.InsertVehicle(ctx, guest))
	require.NoError(t, store.Vehicles.InsertVehicle(ctx, other))
	require.NoError(t, store.Maintenances.InsertMaintenance(ctx, &models.Maintenance{
		TenantID: "guest-tenant", VehicleID: guest.ID.Hex(), Type: models.MaintenanceOil, Status: models.MaintenanceActive,
	}))
	require.NoError(t, store.Costs.InsertCost(ctx, &models.Cost{
		TenantID: "guest-tenant", VehicleID: guest.ID.Hex(), Category: models.CostFuel, Amount: 40, Date: *day("2024-06-01"),
	}))

	require.NoError(t, store.WipeTenant(ctx, "guest-tenant"))

	vehicles, err := store.Vehicles.FindVehicles(ctx, "guest-tenant")
	require.NoError(t, err)
	assert.Empty(t, vehicles)
	records, err := store.Maintenances.FindMaintenance(ctx, "guest-tenant")
	require.NoError(t, err)
	assert.Empty(t, records)
	costs, err := store.Costs.FindCosts(ctx, "guest-tenant")
	require.NoError(t, err)
	assert.Empty(t, costs)

	remaining, err := store.Vehicles.FindVehicles(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestMongoMaintenanceCollection_DeleteByVehicle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, m := range []*models.Maintenance{
		{TenantID: "acme", VehicleID: "v1", Type: models.MaintenanceOil},
		{TenantID: "acme", VehicleID: "v1", Type: models.MaintenanceTires},
		{TenantID: "acme", VehicleID: "v2", Type: models.MaintenanceOil},
		{TenantID: "globex", VehicleID: "v1", Type: models.MaintenanceOil},
	} {
		require.NoError(t, store.Maintenances.InsertMaintenance(ctx, m))
	}

	require.NoError(t, store.Maintenances.DeleteMaintenanceByVehicle(ctx, "acme", "v1"))

	acme, err := store.Maintenances.FindMaintenance(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, acme, 1)
	assert.Equal(t, "v2", acme[0].VehicleID)

	globex, err := store.Maintenances.FindMaintenance(ctx, "globex")
	require.NoError(t, err)
	assert.Len(t, globex, 1)
}

func TestMongoInterestCollection_Insert(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	req := &models.InterestRequest{FullName: "Maria Papadopoulou", Email: "maria@fleet.test", FleetSize: "10-50"}
	require.NoError(t, store.Interests.InsertInterest(ctx, req))
	assert.False(t, req.ID.IsZero())
	assert.False(t, req.CreatedAt.IsZero())

	var stored models.InterestRequest
	require.NoError(t, findOne(ctx, store.Interests.Collection, bson.M{"_id": req.ID}, &stored))
	assert.Equal(t, "Maria Papadopoulou", stored.FullName)
	assert.Equal(t, "10-50", stored.FleetSize)
	assert.Empty(t, stored.Phone)
}
