package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
)

// adminRepository is the pgx-backed AdminRepository.
type adminRepository struct {
	db *pgxpool.Pool
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *pgxpool.Pool) AdminRepository {
	return &adminRepository{db: db}
}

// GetByUsername retrieves a staff account by username
func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `
		SELECT id, username, password, full_name, role, is_active, created_at, last_login_at
		FROM admins
		WHERE username = $1
	`

	var admin models.Admin
	err := r.db.QueryRow(ctx, query, username).Scan(
		&admin.ID,
		&admin.Username,
		&admin.Password,
		&admin.FullName,
		&admin.Role,
		&admin.IsActive,
		&admin.CreatedAt,
		&admin.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving admin: %w", err)
	}

	return &admin, nil
}

// Create creates a new staff account
func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (username, password, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		admin.Username, admin.Password, admin.FullName, admin.Role, admin.IsActive,
	).Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating admin: %w", err)
	}
	return nil
}

// Count returns the number of staff accounts
func (r *adminRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting admins: %w", err)
	}
	return count, nil
}

// UpdateLastLogin stamps a successful login
func (r *adminRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE admins SET last_login_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}
