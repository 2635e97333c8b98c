package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/respond"
	"github.com/ukydev/fleet-maintenance/internal/triage"
)

const maintenanceNotFound = "Maintenance not found"

// MaintenanceHandler serves maintenance records in triage order.
type MaintenanceHandler struct {
	maintenances db.MaintenanceCollection
	vehicles     db.VehicleCollection
	now          func() time.Time
}

// NewMaintenanceHandler creates a maintenance handler.
func NewMaintenanceHandler(maintenances db.MaintenanceCollection, vehicles db.VehicleCollection) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenances: maintenances,
		vehicles:     vehicles,
		now:          time.Now,
	}
}

type maintenanceRequest struct {
	VehicleID        string                   `json:"vehicle_id"`
	Type             models.MaintenanceType   `json:"maintenance_type"`
	CustomType       string                   `json:"custom_type"`
	LastDate         *string                  `json:"last_date"`
	NextDate         *string                  `json:"next_date"`
	LastMileage      *int64                   `json:"last_mileage"`
	NextMileage      *int64                   `json:"next_mileage"`
	NotificationDays *int                     `json:"notification_days"`
	Status           models.MaintenanceStatus `json:"status"`
	Notes            string                   `json:"notes"`
}

// apply validates the request and copies it onto m. Everything the
// triage engine reads is checked here.
func (req *maintenanceRequest) apply(m *models.Maintenance, today time.Time) error {
	if strings.TrimSpace(req.VehicleID) == "" || req.Type == "" {
		return invalidf("vehicle_id and maintenance_type are required")
	}
	if !models.IsValidMaintenanceType(req.Type) {
		return invalidf("unknown maintenance_type %q", req.Type)
	}
	if req.CustomType != "" && req.Type != models.MaintenanceOther {
		return invalidf("custom_type is only allowed with maintenance_type other")
	}

	lastDate, err := parseDate("last_date", req.LastDate)
	if err != nil {
		return err
	}
	nextDate, err := parseDate("next_date", req.NextDate)
	if err != nil {
		return err
	}
	if err := nonNegative("last_mileage", req.LastMileage); err != nil {
		return err
	}
	if err := nonNegative("next_mileage", req.NextMileage); err != nil {
		return err
	}

	notificationDays := models.DefaultNotificationDays
	if req.NotificationDays != nil {
		if *req.NotificationDays < 0 {
			return invalidf("notification_days must not be negative")
		}
		if *req.NotificationDays > 0 {
			notificationDays = *req.NotificationDays
		}
	}

	status := req.Status
	if status == "" {
		status = models.MaintenanceActive
	}
	if !models.IsValidMaintenanceStatus(status) {
		return invalidf("unknown status %q", status)
	}

	m.VehicleID = strings.TrimSpace(req.VehicleID)
	m.Type = req.Type
	m.CustomType = strings.TrimSpace(req.CustomType)
	m.LastDate = lastDate
	m.NextDate = nextDate
	m.LastMileage = req.LastMileage
	m.NextMileage = req.NextMileage
	m.NotificationDays = notificationDays
	m.Notes = req.Notes

	switch {
	case status != models.MaintenanceCompleted:
		m.CompletedDate = nil
	case m.Status != models.MaintenanceCompleted || m.CompletedDate == nil:
		day := triage.Today(today)
		m.CompletedDate = &day
	}
	m.Status = status
	return nil
}

// List returns the tenant's records in display order, each annotated with
// its computed status. Optional filters: status, vehicleId, type.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	statusFilter := triage.Status(q.Get("status"))
	if statusFilter != "" && !statusFilter.IsValid() {
		respond.Error(w, http.StatusBadRequest, "Unknown status filter")
		return
	}
	vehicleFilter := q.Get("vehicleId")
	typeFilter := models.MaintenanceType(q.Get("type"))

	records, vehicles, err := h.load(r, claims.TenantID())
	if err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}

	ranked := triage.Rank(records, vehicles, h.now())
	out := make([]triage.Item, 0, len(ranked))
	for _, item := range ranked {
		if statusFilter != "" && item.ComputedStatus != statusFilter {
			continue
		}
		if vehicleFilter != "" && item.VehicleID != vehicleFilter {
			continue
		}
		if typeFilter != "" && item.Type != typeFilter {
			continue
		}
		out = append(out, item)
	}
	respond.JSON(w, http.StatusOK, out)
}

// Summary returns per-status counts. vehicleId narrows it to one vehicle.
func (h *MaintenanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}

	records, vehicles, err := h.load(r, claims.TenantID())
	if err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	if vehicleID := r.URL.Query().Get("vehicleId"); vehicleID != "" {
		filtered := records[:0]
		for _, m := range records {
			if m.VehicleID == vehicleID {
				filtered = append(filtered, m)
			}
		}
		records = filtered
	}
	respond.JSON(w, http.StatusOK, triage.Summarize(records, vehicles, h.now()))
}

// Get returns one record with its computed status.
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	m, err := h.maintenances.FindMaintenanceByID(r.Context(), claims.TenantID(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	h.writeItem(w, r, http.StatusOK, m)
}

// Create adds a record for a vehicle of the caller's tenant.
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req maintenanceRequest
	if !readJSON(w, r, &req) {
		return
	}

	m := &models.Maintenance{TenantID: claims.TenantID()}
	if err := req.apply(m, h.now()); err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	if err := h.checkVehicle(r, m); err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	if err := h.maintenances.InsertMaintenance(r.Context(), m); err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}

	log.WithFields(log.Fields{
		"maintenance_id": m.ID.Hex(),
		"vehicle_id":     m.VehicleID,
		"type":           m.Type,
	}).Info("Maintenance created")
	h.writeItem(w, r, http.StatusCreated, m)
}

// Update replaces a record. Fields left out of the body are cleared.
func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req maintenanceRequest
	if !readJSON(w, r, &req) {
		return
	}

	m, err := h.maintenances.FindMaintenanceByID(r.Context(), claims.TenantID(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	if err := req.apply(m, h.now()); err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	if err := h.checkVehicle(r, m); err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	if err := h.maintenances.UpdateMaintenance(r.Context(), m); err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	h.writeItem(w, r, http.StatusOK, m)
}

// Complete records that the maintenance was carried out today.
func (h *MaintenanceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}

	m, err := h.maintenances.FindMaintenanceByID(r.Context(), claims.TenantID(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	if m.IsCompleted() {
		respond.Error(w, http.StatusConflict, "Maintenance already completed")
		return
	}

	m.Complete(h.now())
	if err := h.maintenances.UpdateMaintenance(r.Context(), m); err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}

	log.WithField("maintenance_id", m.ID.Hex()).Info("Maintenance completed")
	h.writeItem(w, r, http.StatusOK, m)
}

// Delete removes a record.
func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.maintenances.DeleteMaintenance(r.Context(), claims.TenantID(), r.PathValue("id")); err != nil {
		writeError(w, r, maintenanceNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *MaintenanceHandler) load(r *http.Request, tenantID string) ([]models.Maintenance, triage.Vehicles, error) {
	records, err := h.maintenances.FindMaintenance(r.Context(), tenantID)
	if err != nil {
		return nil, nil, err
	}
	vehicles, err := h.vehicles.FindVehicles(r.Context(), tenantID)
	if err != nil {
		return nil, nil, err
	}
	return records, triage.IndexVehicles(vehicles), nil
}

// checkVehicle rejects records that point at a vehicle outside the tenant.
func (h *MaintenanceHandler) checkVehicle(r *http.Request, m *models.Maintenance) error {
	_, err := h.vehicles.FindVehicleByID(r.Context(), m.TenantID, m.VehicleID)
	if errors.Is(err, db.ErrNotFound) {
		return invalidf("unknown vehicle_id")
	}
	return err
}

// writeItem responds with m annotated against its vehicle's odometer.
func (h *MaintenanceHandler) writeItem(w http.ResponseWriter, r *http.Request, status int, m *models.Maintenance) {
	var vehicles triage.Vehicles
	if v, err := h.vehicles.FindVehicleByID(r.Context(), m.TenantID, m.VehicleID); err == nil {
		vehicles = triage.Vehicles{m.VehicleID: v}
	}
	items := triage.Rank([]models.Maintenance{*m}, vehicles, h.now())
	respond.JSON(w, status, items[0])
}
