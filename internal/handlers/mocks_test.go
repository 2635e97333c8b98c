package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/reminder"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsersByTenant(ctx context.Context, tenantID string) ([]models.User, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) ListUsersByTenant(ctx context.Context, tenantID string) ([]models.User, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockInterestCollection struct {
	mock.Mock
}

func (m *MockInterestCollection) InsertInterest(ctx context.Context, req *models.InterestRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, tenantID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, tenantID, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehiclesByTenant(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockMaintenanceCollection struct {
	mock.Mock
}

func (m *MockMaintenanceCollection) InsertMaintenance(ctx context.Context, maintenance *models.Maintenance) error {
	args := m.Called(ctx, maintenance)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) FindMaintenance(ctx context.Context, tenantID string) ([]models.Maintenance, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Maintenance), args.Error(1)
}

func (m *MockMaintenanceCollection) FindMaintenanceByID(ctx context.Context, tenantID, id string) (*models.Maintenance, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Maintenance), args.Error(1)
}

func (m *MockMaintenanceCollection) UpdateMaintenance(ctx context.Context, maintenance *models.Maintenance) error {
	args := m.Called(ctx, maintenance)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) DeleteMaintenance(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) DeleteMaintenanceByTenant(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) DeleteMaintenanceByVehicle(ctx context.Context, tenantID, vehicleID string) error {
	args := m.Called(ctx, tenantID, vehicleID)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) FindReminderCandidates(ctx context.Context, from time.Time) ([]models.Maintenance, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Maintenance), args.Error(1)
}

type MockCostCollection struct {
	mock.Mock
}

func (m *MockCostCollection) InsertCost(ctx context.Context, cost *models.Cost) error {
	args := m.Called(ctx, cost)
	return args.Error(0)
}

func (m *MockCostCollection) FindCosts(ctx context.Context, tenantID string) ([]models.Cost, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Cost), args.Error(1)
}

func (m *MockCostCollection) FindCostByID(ctx context.Context, tenantID, id string) (*models.Cost, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cost), args.Error(1)
}

func (m *MockCostCollection) UpdateCost(ctx context.Context, cost *models.Cost) error {
	args := m.Called(ctx, cost)
	return args.Error(0)
}

func (m *MockCostCollection) DeleteCost(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCostCollection) DeleteCostsByTenant(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockTenantWiper struct {
	mock.Mock
}

func (m *MockTenantWiper) WipeTenant(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

type MockReminderRunner struct {
	mock.Mock
}

func (m *MockReminderRunner) Run(ctx context.Context, today time.Time) (reminder.Result, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(reminder.Result), args.Error(1)
}

// withClaims attaches claims the way the auth middleware does.
func withClaims(req *http.Request, claims *models.Claims) *http.Request {
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}
