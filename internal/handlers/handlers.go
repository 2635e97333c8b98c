package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/respond"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = time.DateOnly
)

// errValidation marks request errors that map to 400.
var errValidation = errors.New("validation failed")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errValidation, fmt.Sprintf(format, args...))
}

// readJSON decodes the request body into v, answering 400 on failure.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// caller returns the authenticated claims, answering 401 when missing.
func caller(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "User context not found")
		return nil, false
	}
	return claims, true
}

// parseDate parses an optional YYYY-MM-DD value. Empty means absent.
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, invalidf("%s must be a date in YYYY-MM-DD format", field)
	}
	return &t, nil
}

func nonNegative(field string, value *int64) error {
	if value != nil && *value < 0 {
		return invalidf("%s must not be negative", field)
	}
	return nil
}

// writeError maps validation and not-found errors to 400 and 404 and logs
// everything else as a 500.
func writeError(w http.ResponseWriter, r *http.Request, notFound string, err error) {
	switch {
	case errors.Is(err, errValidation):
		respond.Error(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), errValidation.Error()+": "))
	case errors.Is(err, db.ErrNotFound):
		respond.Error(w, http.StatusNotFound, notFound)
	default:
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("Request failed")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
