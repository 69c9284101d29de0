package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/domain"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/pkg/id"
)

const (
	minPasswordLength   = 8
	accountNumberTries  = 5
	invalidCredentials  = "invalid credentials"
	invalidRefreshToken = "invalid refresh token"
)

// UserRepository defines user and session repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateSession(ctx context.Context, s *domain.Session) error
	GetSessionByTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

// AccountOpener creates deposit accounts
type AccountOpener interface {
	Create(ctx context.Context, a *domain.Account) error
	NumberExists(ctx context.Context, number string) (bool, error)
}

// AuthService handles registration, login and token management
type AuthService struct {
	cfg      config.JWTConfig
	tx       Transactor
	users    UserRepository
	accounts AccountOpener
	settings Settings
	audit    AuditRecorder
	logger   *zap.Logger
	now      Clock
}

// NewAuthService creates a new auth service
func NewAuthService(
	cfg config.JWTConfig,
	tx Transactor,
	users UserRepository,
	accounts AccountOpener,
	settings Settings,
	audit AuditRecorder,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		cfg:      cfg,
		tx:       tx,
		users:    users,
		accounts: accounts,
		settings: settings,
		audit:    audit,
		logger:   logger,
		now:      utcNow,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.Validation("invalid email address")
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a customer with an empty checking account and signs them in
func (s *AuthService) Register(ctx context.Context, input *domain.RegisterInput, actor domain.Actor) (*domain.AuthResult, error) {
	if !s.settings.Bool(ctx, domain.SettingRegistrationEnabled) {
		return nil, apperrors.Forbidden("registration is currently disabled")
	}

	user, err := s.createUser(ctx, input, domain.RoleCustomer, true)
	if err != nil {
		return nil, err
	}

	actor.ID = user.ID
	actor.Email = user.Email
	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionRegistered, domain.AuditResourceUser,
		user.ID.String(), "Registered "+user.Email))

	return s.issue(ctx, user, actor)
}

// CreateAdmin creates a staff user without an account
func (s *AuthService) CreateAdmin(ctx context.Context, input *domain.RegisterInput) (*domain.User, error) {
	user, err := s.createUser(ctx, input, domain.RoleAdmin, false)
	if err != nil {
		return nil, err
	}
	recordAudit(ctx, s.audit, s.logger, domain.AuditLogInput{
		Action:       domain.AuditActionUserCreated,
		ResourceType: domain.AuditResourceUser,
		ResourceID:   user.ID.String(),
		Description:  "Created admin " + user.Email,
	})
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, input *domain.RegisterInput, role domain.Role, withAccount bool) (*domain.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, apperrors.Validation("full name is required")
	}
	hashed, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("email already registered")
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashed,
		FullName:     name,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		if !withAccount {
			return nil
		}
		number, err := s.accountNumber(ctx)
		if err != nil {
			return err
		}
		return s.accounts.Create(ctx, &domain.Account{
			ID:        uuid.New(),
			UserID:    user.ID,
			Number:    number,
			Type:      domain.AccountTypeChecking,
			Currency:  domain.DefaultCurrency,
			Status:    domain.AccountStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) accountNumber(ctx context.Context) (string, error) {
	for i := 0; i < accountNumberTries; i++ {
		number := id.NewAccountNumber()
		exists, err := s.accounts.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", apperrors.Internal("could not allocate an account number")
}

// Login authenticates a user with email and password
func (s *AuthService) Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	actor := domain.Actor{Email: email, IPAddress: input.IPAddress, UserAgent: input.UserAgent}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.loginFailed(ctx, actor, "unknown email")
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	actor.ID = user.ID

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.loginFailed(ctx, actor, "invalid password")
		return nil, apperrors.Unauthorized(invalidCredentials)
	}
	if user.Status == domain.UserStatusSuspended {
		s.loginFailed(ctx, actor, "suspended")
		return nil, apperrors.Forbidden("account suspended")
	}

	now := s.now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record login time", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.LastLoginAt = &now

	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionLogin, domain.AuditResourceUser,
		user.ID.String(), "Signed in"))

	return s.issue(ctx, user, actor)
}

func (s *AuthService) loginFailed(ctx context.Context, actor domain.Actor, reason string) {
	input := actor.AuditInput(domain.AuditActionLoginFailed, domain.AuditResourceUser, "", "Failed sign in for "+actor.Email)
	input.Metadata = map[string]any{"reason": reason}
	recordAudit(ctx, s.audit, s.logger, input)
}

// Refresh rotates a refresh token and returns a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, actor domain.Actor) (*domain.AuthResult, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized(invalidRefreshToken)
	}

	session, err := s.users.GetSessionByTokenHash(ctx, id.HashToken(refreshToken))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized(invalidRefreshToken)
		}
		return nil, err
	}
	if session.ExpiresAt.Before(s.now()) {
		if err := s.users.DeleteSession(ctx, session.ID); err != nil {
			s.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, apperrors.Unauthorized("refresh token expired")
	}

	var user *domain.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.DeleteSession(ctx, session.ID); err != nil {
			return err
		}
		u, err := s.users.GetByID(ctx, session.UserID)
		if err != nil {
			return err
		}
		if u.Status == domain.UserStatusSuspended {
			return apperrors.Forbidden("account suspended")
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, user, actor)
}

// Logout deletes the session belonging to a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.users.GetSessionByTokenHash(ctx, id.HashToken(refreshToken))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	return s.users.DeleteSession(ctx, session.ID)
}

// Me returns the signed in user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ChangePassword replaces a user's password and signs out every session
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
			return err
		}
		return s.users.DeleteUserSessions(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, s.audit, s.logger, actor.AuditInput(domain.AuditActionPasswordSet, domain.AuditResourceUser,
		user.ID.String(), "Changed password"))
	return nil
}

// ValidateJWT validates a JWT access token
func (s *AuthService) ValidateJWT(ctx context.Context, tokenString string) (*domain.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(s.cfg.Issuer))

	if err != nil {
		return nil, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*domain.JWTClaims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthorized("invalid token")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, apperrors.Unauthorized("invalid token")
	}

	return claims, nil
}

// issue creates an access token and a refresh session for user
func (s *AuthService) issue(ctx context.Context, user *domain.User, actor domain.Actor) (*domain.AuthResult, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(s.cfg.AccessExpiry) * time.Minute)

	accessToken, err := s.generateAccessToken(user, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := id.NewRefreshToken()
	session := &domain.Session{
		ID:               uuid.New(),
		UserID:           user.ID,
		RefreshTokenHash: id.HashToken(refreshToken),
		UserAgent:        actor.UserAgent,
		IPAddress:        actor.IPAddress,
		ExpiresAt:        now.Add(s.cfg.RefreshExpiry),
		CreatedAt:        now,
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// generateAccessToken generates a JWT access token
func (s *AuthService) generateAccessToken(user *domain.User, now, expiresAt time.Time) (string, error) {
	claims := &domain.JWTClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}
