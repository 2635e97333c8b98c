package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Actions checked by HasPermission.
const (
	ActionViewVehicles      = "view_vehicles"
	ActionManageVehicles    = "manage_vehicles"
	ActionViewMaintenance   = "view_maintenance"
	ActionManageMaintenance = "manage_maintenance"
	ActionViewCosts         = "view_costs"
	ActionManageCosts       = "manage_costs"
	ActionManageUsers       = "manage_users"
	ActionDeleteUser        = "delete_user"
)

// GuestUsername is the shared demo account whose data is wiped on logout.
const GuestUsername = "guest"

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	CompanyID    string             `bson:"company_id,omitempty" json:"company_id,omitempty"`
	CompanyName  string             `bson:"company_name,omitempty" json:"company_name,omitempty"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// TenantID returns the key that scopes this user's fleet data: the company
// when the user belongs to one, otherwise the user itself.
func (u *User) TenantID() string {
	if u.CompanyID != "" {
		return u.CompanyID
	}
	return u.ID.Hex()
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        Role   `json:"role"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

// CreateUserRequest is an admin adding a member to their tenant.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// UpdateUserRequest edits a tenant member. Empty fields are left unchanged.
type UpdateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
	Password  string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        Role   `json:"role"`
	CompanyID   string `json:"company_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Exp         int64  `json:"exp"`
}

// TenantID mirrors User.TenantID for an authenticated request.
func (c *Claims) TenantID() string {
	if c.CompanyID != "" {
		return c.CompanyID
	}
	return c.UserID
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != ActionDeleteUser && action != ActionManageUsers
	case RoleOperator:
		return action == ActionViewVehicles || action == ActionViewMaintenance ||
			action == ActionManageMaintenance || action == ActionViewCosts ||
			action == ActionManageCosts
	case RoleViewer:
		return action == ActionViewVehicles || action == ActionViewMaintenance ||
			action == ActionViewCosts
	default:
		return false
	}
}
