package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is a user's authorization role
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// UserStatus is a user's login status
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// IsValid checks if the status is valid
func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusSuspended
}

// User represents a bank customer or staff member
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"fullName"`
	Phone        string     `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is a refresh token issued at login
type Session struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"userId"`
	RefreshTokenHash string    `json:"-"`
	UserAgent        string    `json:"userAgent,omitempty"`
	IPAddress        string    `json:"ipAddress,omitempty"`
	ExpiresAt        time.Time `json:"expiresAt"`
	CreatedAt        time.Time `json:"createdAt"`
}

// AuthResult represents the result of an authentication attempt
type AuthResult struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// JWTClaims represents JWT token claims
type JWTClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// RegisterInput represents input for registration
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// LoginInput represents input for login
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// UserFilter represents filter options for the admin user list
type UserFilter struct {
	Query  string
	Role   *Role
	Status *UserStatus
}
