package handlers

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/respond"
)

const userNotFound = "User not found"

// UserHandler lets a tenant admin manage the accounts sharing their fleet.
// Users of other tenants are reported as not found.
type UserHandler struct {
	authService *auth.Service
	users       db.UserCollection
}

func NewUserHandler(authService *auth.Service, users db.UserCollection) *UserHandler {
	return &UserHandler{authService: authService, users: users}
}

// List returns every member of the caller's tenant, deactivated ones included.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	users, err := h.users.ListUsersByTenant(r.Context(), claims.TenantID())
	if err != nil {
		writeError(w, r, "", err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

// Create adds an account to the caller's tenant.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.CreateUserRequest
	if !readJSON(w, r, &req) {
		return
	}

	if err := h.authService.ValidateUsername(req.Username); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = models.RoleViewer
	}
	if !models.IsValidRole(req.Role) {
		respond.Error(w, http.StatusBadRequest, "Invalid role")
		return
	}

	ctx := r.Context()
	if taken, err := exists(h.users.FindUserByUsername(ctx, req.Username)); err != nil {
		writeError(w, r, "", err)
		return
	} else if taken {
		respond.Error(w, http.StatusConflict, "Username already exists")
		return
	}
	if taken, err := exists(h.users.FindUserByEmail(ctx, req.Email)); err != nil {
		writeError(w, r, "", err)
		return
	} else if taken {
		respond.Error(w, http.StatusConflict, "Email already exists")
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, "", err)
		return
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		// a personal tenant is keyed by the admin's id, so members joining
		// it carry that id as their company
		CompanyID:   claims.TenantID(),
		CompanyName: claims.CompanyName,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.users.InsertUser(ctx, user); err != nil {
		writeError(w, r, "", err)
		return
	}

	log.WithFields(log.Fields{
		"user_id":    user.ID.Hex(),
		"tenant_id":  user.TenantID(),
		"created_by": claims.UserID,
	}).Info("Tenant user created")
	respond.JSON(w, http.StatusCreated, user)
}

// Update edits a member's profile, role or password. Another admin's
// account cannot be edited.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if !readJSON(w, r, &req) {
		return
	}
	user, ok := h.member(w, r, claims)
	if !ok {
		return
	}
	self := user.ID.Hex() == claims.UserID
	if user.Role == models.RoleAdmin && !self {
		respond.Error(w, http.StatusForbidden, "Cannot modify another admin")
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Role != "" && req.Role != user.Role {
		if !models.IsValidRole(req.Role) {
			respond.Error(w, http.StatusBadRequest, "Invalid role")
			return
		}
		if self {
			respond.Error(w, http.StatusForbidden, "Cannot change your own role")
			return
		}
		user.Role = req.Role
	}
	if req.Email != "" && req.Email != user.Email {
		if err := h.authService.ValidateEmail(req.Email); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if taken, err := exists(h.users.FindUserByEmail(r.Context(), req.Email)); err != nil {
			writeError(w, r, "", err)
			return
		} else if taken {
			respond.Error(w, http.StatusConflict, "Email already exists")
			return
		}
		user.Email = req.Email
	}
	if req.Password != "" {
		if err := h.authService.ValidatePassword(req.Password); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		passwordHash, err := h.authService.HashPassword(req.Password)
		if err != nil {
			writeError(w, r, "", err)
			return
		}
		user.PasswordHash = passwordHash
	}

	if err := h.users.UpdateUser(r.Context(), user.ID.Hex(), *user); err != nil {
		writeError(w, r, userNotFound, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// SetActive enables or disables a member's login. Admins and the caller
// themselves cannot be toggled.
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		respond.Error(w, http.StatusBadRequest, "is_active is required")
		return
	}
	user, ok := h.member(w, r, claims)
	if !ok {
		return
	}
	if !h.mutable(w, user, claims) {
		return
	}

	user.IsActive = *req.IsActive
	if err := h.users.UpdateUser(r.Context(), user.ID.Hex(), *user); err != nil {
		writeError(w, r, userNotFound, err)
		return
	}
	log.WithFields(log.Fields{
		"user_id":   user.ID.Hex(),
		"is_active": user.IsActive,
	}).Info("Tenant user status changed")
	respond.JSON(w, http.StatusOK, user)
}

// Delete removes a member. Admins and the caller themselves cannot be
// deleted.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	user, ok := h.member(w, r, claims)
	if !ok {
		return
	}
	if !h.mutable(w, user, claims) {
		return
	}

	if err := h.users.DeleteUser(r.Context(), user.ID.Hex()); err != nil {
		writeError(w, r, userNotFound, err)
		return
	}
	log.WithField("user_id", user.ID.Hex()).Info("Tenant user deleted")
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// member loads the user named by the path inside the caller's tenant.
func (h *UserHandler) member(w http.ResponseWriter, r *http.Request, claims *models.Claims) (*models.User, bool) {
	id := r.PathValue("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		respond.Error(w, http.StatusNotFound, userNotFound)
		return nil, false
	}
	user, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		writeError(w, r, userNotFound, err)
		return nil, false
	}
	if user.TenantID() != claims.TenantID() {
		respond.Error(w, http.StatusNotFound, userNotFound)
		return nil, false
	}
	return user, true
}

func (h *UserHandler) mutable(w http.ResponseWriter, user *models.User, claims *models.Claims) bool {
	switch {
	case user.ID.Hex() == claims.UserID:
		respond.Error(w, http.StatusForbidden, "Cannot change your own account")
		return false
	case user.Role == models.RoleAdmin:
		respond.Error(w, http.StatusForbidden, "Cannot change an admin account")
		return false
	}
	return true
}
