package dto

import "github.com/ledgerline/ledgerline/internal/domain"

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ToInput converts the request for the auth service
func (r *LoginRequest) ToInput(userAgent, ip string) *domain.LoginInput {
	return &domain.LoginInput{
		Email:     r.Email,
		Password:  r.Password,
		UserAgent: userAgent,
		IPAddress: ip,
	}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

// ToInput converts the request for the auth service
func (r *RegisterRequest) ToInput() *domain.RegisterInput {
	return &domain.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		FullName: r.FullName,
		Phone:    r.Phone,
	}
}

// RefreshTokenRequest represents the token refresh and logout payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ChangePasswordRequest represents the password change payload
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}
