package model

import (
	"time"

	"github.com/google/uuid"
)

// Role constants. Management roles may evaluate finished requests.
const (
	RoleAdmin             = "admin"
	RoleManager           = "manager"
	RoleManagerTranslator = "manager_translator"
	RoleManagerPatient    = "manager_patient"
	RoleTranslator        = "translator"
	RolePatientEscort     = "patient_escort"
	RoleUser              = "user"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// User represents a dashboard account
type User struct {
	Base
	Email            string     `json:"email" db:"email"`
	Name             string     `json:"name" db:"name"`
	Password         string     `json:"password,omitempty" db:"-"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Role             string     `json:"role" db:"role"`
	Status           string     `json:"status" db:"status"`
	StaffID          *uuid.UUID `json:"staff_id,omitempty" db:"staff_id"`
	LastLoginAt      *time.Time `json:"last_login_at" db:"last_login_at"`
	LoginAttempts    int        `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time  `json:"-" db:"last_login_attempt"`
}

// Actor is the authenticated identity passed explicitly into every
// service call that makes an authorization decision.
type Actor struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	StaffID uuid.UUID `json:"staff_id"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type TokenClaims struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	StaffID uuid.UUID `json:"staff_id"`
}
