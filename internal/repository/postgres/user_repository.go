package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

const userColumns = `id, email, password_hash, full_name, phone, role, status, last_login_at, created_at, updated_at`

// UserRepository handles user and session data operations in PostgreSQL
type UserRepository struct {
	db *database.PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Phone,
		&user.Role,
		&user.Status,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, phone, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Querier(ctx).Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Phone,
		user.Role,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.Querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(r.db.Querier(ctx).QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// EmailExists checks whether an email is registered, ignoring case
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

// UpdateStatus sets a user's status
func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	return r.exec(ctx, "update status",
		`UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
}

// UpdateRole sets a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	return r.exec(ctx, "update role",
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
}

// TouchLogin records a successful login
func (r *UserRepository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, "record login",
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
}

func (r *UserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// List retrieves users matching filter, newest first
func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter, limit, offset int) ([]domain.User, int, error) {
	var c conditions
	if filter.Query != "" {
		c.add("(email ILIKE $%[1]d OR full_name ILIKE $%[1]d)", "%"+filter.Query+"%")
	}
	if filter.Role != nil {
		c.add("role = $%d", *filter.Role)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}

	var total int
	if err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users `+c.where(), c.args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ` + c.where() + ` ORDER BY created_at DESC ` + c.page(limit, offset)
	rows, err := r.db.Querier(ctx).Query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, total, rows.Err()
}

// CountByRole counts users with a role
func (r *UserRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	if err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role = $1`, role,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CreateSession stores a refresh token session
func (r *UserRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Querier(ctx).Exec(ctx, query,
		s.ID, s.UserID, s.RefreshTokenHash, s.UserAgent, s.IPAddress, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionByTokenHash retrieves a session by its refresh token digest
func (r *UserRepository) GetSessionByTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at
		FROM sessions
		WHERE refresh_token_hash = $1
	`

	var s domain.Session
	err := r.db.Querier(ctx).QueryRow(ctx, query, hash).Scan(
		&s.ID, &s.UserID, &s.RefreshTokenHash, &s.UserAgent, &s.IPAddress, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("session")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session
func (r *UserRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions removes every session of a user
func (r *UserRepository) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}
