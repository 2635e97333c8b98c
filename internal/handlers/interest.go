package handlers

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/respond"
)

// InterestHandler records contact requests from visitors without an account.
type InterestHandler struct {
	interests db.InterestCollection
}

func NewInterestHandler(interests db.InterestCollection) *InterestHandler {
	return &InterestHandler{interests: interests}
}

// Create stores a contact request. Only the name and email are required.
func (h *InterestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.InterestRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" {
		respond.Error(w, http.StatusBadRequest, "Full name and email are required")
		return
	}

	if err := h.interests.InsertInterest(r.Context(), &req); err != nil {
		writeError(w, r, "", err)
		return
	}
	log.WithFields(log.Fields{
		"interest_id": req.ID.Hex(),
		"fleet_size":  req.FleetSize,
	}).Info("Interest request received")
	respond.JSON(w, http.StatusCreated, map[string]bool{"success": true})
}
