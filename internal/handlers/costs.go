package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/respond"
	"github.com/ukydev/fleet-maintenance/internal/triage"
)

const costNotFound = "Cost not found"

// CostHandler serves the tenant's cost ledger.
type CostHandler struct {
	costs    db.CostCollection
	vehicles db.VehicleCollection
	now      func() time.Time
}

// NewCostHandler creates a cost handler.
func NewCostHandler(costs db.CostCollection, vehicles db.VehicleCollection) *CostHandler {
	return &CostHandler{costs: costs, vehicles: vehicles, now: time.Now}
}

type costRequest struct {
	VehicleID     string              `json:"vehicle_id"`
	Category      models.CostCategory `json:"category"`
	Amount        *float64            `json:"amount"`
	Date          *string             `json:"date"`
	Description   string              `json:"description"`
	ReceiptNumber string              `json:"receipt_number"`
}

func (req *costRequest) apply(c *models.Cost) error {
	if strings.TrimSpace(req.VehicleID) == "" || req.Category == "" || req.Amount == nil || req.Date == nil {
		return invalidf("vehicle_id, category, amount and date are required")
	}
	if !models.IsValidCostCategory(req.Category) {
		return invalidf("unknown category %q", req.Category)
	}
	if *req.Amount <= 0 {
		return invalidf("amount must be positive")
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return err
	}
	if date == nil {
		return invalidf("vehicle_id, category, amount and date are required")
	}

	c.VehicleID = strings.TrimSpace(req.VehicleID)
	c.Category = req.Category
	c.Amount = *req.Amount
	c.Date = *date
	c.Description = strings.TrimSpace(req.Description)
	c.ReceiptNumber = strings.TrimSpace(req.ReceiptNumber)
	return nil
}

// List returns costs, latest date first.
func (h *CostHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	costs, err := h.costs.FindCosts(r.Context(), claims.TenantID())
	if err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	if vehicleID := r.URL.Query().Get("vehicleId"); vehicleID != "" {
		filtered := costs[:0]
		for _, c := range costs {
			if c.VehicleID == vehicleID {
				filtered = append(filtered, c)
			}
		}
		costs = filtered
	}
	respond.JSON(w, http.StatusOK, costs)
}

// Get returns one cost.
func (h *CostHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	cost, err := h.costs.FindCostByID(r.Context(), claims.TenantID(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, cost)
}

// Create records a cost against a vehicle of the tenant.
func (h *CostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req costRequest
	if !readJSON(w, r, &req) {
		return
	}

	cost := &models.Cost{TenantID: claims.TenantID()}
	if err := req.apply(cost); err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	if err := h.checkVehicle(r, cost); err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	if err := h.costs.InsertCost(r.Context(), cost); err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	respond.JSON(w, http.StatusCreated, cost)
}

// Update replaces a cost.
func (h *CostHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req costRequest
	if !readJSON(w, r, &req) {
		return
	}

	cost, err := h.costs.FindCostByID(r.Context(), claims.TenantID(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	if err := req.apply(cost); err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	if err := h.checkVehicle(r, cost); err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	if err := h.costs.UpdateCost(r.Context(), cost); err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, cost)
}

// Delete removes a cost.
func (h *CostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.costs.DeleteCost(r.Context(), claims.TenantID(), r.PathValue("id")); err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Export streams the ledger as CSV.
func (h *CostHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	costs, err := h.costs.FindCosts(r.Context(), claims.TenantID())
	if err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	vehicles, err := h.vehicles.FindVehicles(r.Context(), claims.TenantID())
	if err != nil {
		writeError(w, r, costNotFound, err)
		return
	}
	index := triage.IndexVehicles(vehicles)

	filename := "costs-" + h.now().Format(dateLayout) + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "vehicle", "category", "amount", "description", "receipt"})
	for _, c := range costs {
		_ = cw.Write([]string{
			c.Date.Format(dateLayout),
			index.Vehicle(c.VehicleID).Label(),
			string(c.Category),
			strconv.FormatFloat(c.Amount, 'f', 2, 64),
			c.Description,
			c.ReceiptNumber,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.WithError(err).Warn("Failed to write cost export")
	}
}

func (h *CostHandler) checkVehicle(r *http.Request, c *models.Cost) error {
	_, err := h.vehicles.FindVehicleByID(r.Context(), c.TenantID, c.VehicleID)
	if errors.Is(err, db.ErrNotFound) {
		return invalidf("unknown vehicle_id")
	}
	return err
}
