package handlers

import (
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/respond"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
	tenantWiper    db.TenantWiper
}

// NewAuthHandler creates a new authentication handler. wiper clears the
// shared guest account's data on logout.
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection, wiper db.TenantWiper) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
		tenantWiper:    wiper,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if !readJSON(w, r, &loginReq) {
		return
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.WithError(err).Error("Failed to look up user")
		}
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsActive {
		respond.Error(w, http.StatusForbidden, "Account is deactivated")
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}

	h.issueTokens(w, r, user, http.StatusOK)
}

// Register creates an account. Joining an existing company is not allowed
// through self-registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if !readJSON(w, r, &registerReq) {
		return
	}

	if err := h.authService.ValidateUsername(registerReq.Username); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidateEmail(registerReq.Email); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidatePassword(registerReq.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if registerReq.Role == "" {
		registerReq.Role = models.RoleAdmin
	}
	if !models.IsValidRole(registerReq.Role) {
		respond.Error(w, http.StatusBadRequest, "Invalid role")
		return
	}

	ctx := r.Context()
	if taken, err := exists(h.userCollection.FindUserByUsername(ctx, registerReq.Username)); err != nil {
		writeError(w, r, "", err)
		return
	} else if taken {
		respond.Error(w, http.StatusConflict, "Username already exists")
		return
	}
	if taken, err := exists(h.userCollection.FindUserByEmail(ctx, registerReq.Email)); err != nil {
		writeError(w, r, "", err)
		return
	} else if taken {
		respond.Error(w, http.StatusConflict, "Email already exists")
		return
	}
	if registerReq.CompanyID != "" {
		members, err := h.userCollection.FindUsersByTenant(ctx, registerReq.CompanyID)
		if err != nil {
			writeError(w, r, "", err)
			return
		}
		if len(members) > 0 {
			respond.Error(w, http.StatusConflict, "Company already registered")
			return
		}
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		writeError(w, r, "", err)
		return
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
		Role:         registerReq.Role,
		CompanyID:    registerReq.CompanyID,
		CompanyName:  registerReq.CompanyName,
		FirstName:    registerReq.FirstName,
		LastName:     registerReq.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.userCollection.InsertUser(ctx, user); err != nil {
		writeError(w, r, "", err)
		return
	}

	log.WithFields(log.Fields{
		"user_id":   user.ID.Hex(),
		"tenant_id": user.TenantID(),
	}).Info("User registered")
	h.issueTokens(w, r, &user, http.StatusCreated)
}

// Logout is stateless for regular accounts. The shared guest account has
// its tenant data wiped so the next visitor starts clean.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}

	if claims.Username == models.GuestUsername && h.tenantWiper != nil {
		if err := h.tenantWiper.WipeTenant(r.Context(), claims.TenantID()); err != nil {
			writeError(w, r, "", err)
			return
		}
		log.WithField("tenant_id", claims.TenantID()).Info("Guest data wiped on logout")
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "User not found")
		return
	}

	respond.JSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}

	var updateReq struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if !readJSON(w, r, &updateReq) {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "User not found")
		return
	}

	if updateReq.FirstName != "" {
		user.FirstName = updateReq.FirstName
	}
	if updateReq.LastName != "" {
		user.LastName = updateReq.LastName
	}
	if updateReq.Email != "" && updateReq.Email != user.Email {
		if err := h.authService.ValidateEmail(updateReq.Email); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		existing, err := h.userCollection.FindUserByEmail(r.Context(), updateReq.Email)
		if err == nil && existing.ID.Hex() != claims.UserID {
			respond.Error(w, http.StatusConflict, "Email already exists")
			return
		}
		user.Email = updateReq.Email
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeError(w, r, "User not found", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !readJSON(w, r, &passwordReq) {
		return
	}

	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		respond.Error(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}
	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "User not found")
		return
	}

	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		respond.Error(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		writeError(w, r, "", err)
		return
	}

	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeError(w, r, "User not found", err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, r, "", err)
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		writeError(w, r, "", err)
		return
	}
	respond.JSON(w, status, models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// exists interprets a find-by-key result: ErrNotFound means free.
func exists(_ *models.User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
