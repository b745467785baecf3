package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talkio/go-user-accounts/internal/api"
)

// Account types.
const (
	AccountTypeUser  = "user"
	AccountTypeAdmin = "admin"
)

// Account statuses. The only transition exposed by the API is
// active -> inactive (soft delete); reporting may force active -> restricted.
const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusRestricted = "restricted"
)

// Operation-specific errors, each carrying its domain sentinel.
var (
	ErrEmailExists        = fmt.Errorf("email already in use: %w", api.ErrConflict)
	ErrUsernameExists     = fmt.Errorf("username already in use: %w", api.ErrConflict)
	ErrWrongPassword      = fmt.Errorf("password verification failed: %w", api.ErrUnauthenticated)
	ErrAdminProfileHidden = fmt.Errorf("admin profile not visible: %w", api.ErrForbidden)
	ErrSelfReport         = fmt.Errorf("cannot report own account: %w", api.ErrBadRequest)
)

// User is the account entity. Password holds the stored hash, never the raw
// input; reads project it out unless the flow explicitly needs it.
type User struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	Password     string      `json:"password,omitempty" db:"password_hash"`
	ProfileImage string      `json:"profileImage" db:"profile_image"`
	Bio          string      `json:"bio" db:"bio"`
	AccountType  string      `json:"accountType" db:"account_type"`
	Status       string      `json:"status" db:"status"`
	Reports      []uuid.UUID `json:"reports" db:"reports"`
	IsVerify     bool        `json:"isVerify" db:"is_verify"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// Summary is the projection returned by list and search.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage"`
}

// RegisterRequest is the register request body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the login request body. UserInfo holds email or username.
type LoginRequest struct {
	UserInfo string `json:"userInfo"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the JSON variant of the profile update body.
// Empty fields keep their stored values. Token may carry the auth token.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Token string `json:"token,omitempty"`
}

// UpdatePasswordRequest is the password change request body.
type UpdatePasswordRequest struct {
	Password        string `json:"password"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
	Token           string `json:"token,omitempty"`
}

// AuthResponse is the register/login success envelope.
type AuthResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}

// ProfileResponse is the single-user success envelope.
type ProfileResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	User    *User  `json:"user"`
}

// ListResponse is the list/search success envelope.
type ListResponse struct {
	Message string    `json:"message"`
	Status  int       `json:"status"`
	Users   []Summary `json:"users"`
}

// MessageResponse is the bare confirmation envelope.
type MessageResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
