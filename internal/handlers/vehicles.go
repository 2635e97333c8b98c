package handlers

import (
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/respond"
)

const vehicleNotFound = "Vehicle not found"

// VehicleHandler serves the tenant's vehicle register.
type VehicleHandler struct {
	vehicles     db.VehicleCollection
	maintenances db.MaintenanceCollection
}

// NewVehicleHandler creates a vehicle handler. Deleting a vehicle also
// deletes its maintenance records.
func NewVehicleHandler(vehicles db.VehicleCollection, maintenances db.MaintenanceCollection) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, maintenances: maintenances}
}

type vehicleRequest struct {
	VehicleType    string `json:"vehicle_type"`
	ChassisNumber  string `json:"chassis_number"`
	Model          string `json:"model"`
	Year           *int   `json:"year"`
	CurrentMileage *int64 `json:"current_mileage"`
}

func (req *vehicleRequest) apply(v *models.Vehicle) error {
	req.VehicleType = strings.TrimSpace(req.VehicleType)
	req.ChassisNumber = strings.TrimSpace(req.ChassisNumber)
	if req.VehicleType == "" || req.ChassisNumber == "" {
		return invalidf("vehicle_type and chassis_number are required")
	}
	if err := nonNegative("current_mileage", req.CurrentMileage); err != nil {
		return err
	}
	if req.Year != nil && (*req.Year < 1900 || *req.Year > time.Now().Year()+1) {
		return invalidf("year is out of range")
	}
	v.VehicleType = req.VehicleType
	v.ChassisNumber = req.ChassisNumber
	v.Model = strings.TrimSpace(req.Model)
	v.Year = req.Year
	v.CurrentMileage = req.CurrentMileage
	return nil
}

// List returns the tenant's vehicles, newest first.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	vehicles, err := h.vehicles.FindVehicles(r.Context(), claims.TenantID())
	if err != nil {
		writeError(w, r, vehicleNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, vehicles)
}

// Get returns one vehicle.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), claims.TenantID(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, vehicleNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, vehicle)
}

// Create adds a vehicle to the tenant.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req vehicleRequest
	if !readJSON(w, r, &req) {
		return
	}

	vehicle := &models.Vehicle{TenantID: claims.TenantID()}
	if err := req.apply(vehicle); err != nil {
		writeError(w, r, vehicleNotFound, err)
		return
	}
	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		writeError(w, r, vehicleNotFound, err)
		return
	}
	respond.JSON(w, http.StatusCreated, vehicle)
}

// Update replaces the editable fields of a vehicle.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req vehicleRequest
	if !readJSON(w, r, &req) {
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), claims.TenantID(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, vehicleNotFound, err)
		return
	}
	if err := req.apply(vehicle); err != nil {
		writeError(w, r, vehicleNotFound, err)
		return
	}
	if err := h.vehicles.UpdateVehicle(r.Context(), vehicle); err != nil {
		writeError(w, r, vehicleNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, vehicle)
}

// Delete removes a vehicle together with its maintenance schedule.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	tenantID, id := claims.TenantID(), r.PathValue("id")

	if err := h.vehicles.DeleteVehicle(r.Context(), tenantID, id); err != nil {
		writeError(w, r, vehicleNotFound, err)
		return
	}
	if err := h.maintenances.DeleteMaintenanceByVehicle(r.Context(), tenantID, id); err != nil {
		log.WithError(err).WithField("vehicle_id", id).Error("Failed to delete maintenance of removed vehicle")
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
