package user

import (
	"net/http"
	"time"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid email or password")
	ErrSuspendedUser      = apperror.New(http.StatusForbidden, "your account has been suspended")
	ErrInactiveUser       = apperror.New(http.StatusForbidden, "your account is not active")
	ErrInvalidStatus      = apperror.New(http.StatusBadRequest, "invalid status: must be one of active, suspended, inactive")
	ErrChangeOwnRole      = apperror.New(http.StatusUnprocessableEntity, "you cannot change your own role")
	ErrChangeOwnStatus    = apperror.New(http.StatusUnprocessableEntity, "you cannot change your own status")
)

// Status is the account state of a user. Only active users may log in.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended || s == StatusInactive
}

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Role         auth.Role
	Status       Status
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Actor is the identity the user acts as.
func (u *User) Actor() auth.Actor {
	return auth.Actor{ID: u.ID, Role: u.Role}
}

// Filter defines filter options for listing users.
type Filter struct {
	Email       string
	DisplayName string
	Role        string
	Status      string

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
