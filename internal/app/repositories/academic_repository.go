package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
)

// academicRepository is the pgx-backed AcademicRepository. The calendar is
// read-only at runtime; rows come from migrations and seed fixtures.
type academicRepository struct {
	db *pgxpool.Pool
}

// NewAcademicRepository creates a new academic repository
func NewAcademicRepository(db *pgxpool.Pool) AcademicRepository {
	return &academicRepository{db: db}
}

// GetYearByID retrieves an academic year by ID
func (r *academicRepository) GetYearByID(ctx context.Context, id int64) (*models.AcademicYear, error) {
	query := `
		SELECT id, name, status, start_date, end_date
		FROM academic_years
		WHERE id = $1
	`

	var year models.AcademicYear
	err := r.db.QueryRow(ctx, query, id).Scan(
		&year.ID,
		&year.Name,
		&year.Status,
		&year.StartDate,
		&year.EndDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrAcademicYearNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving academic year: %w", err)
	}

	return &year, nil
}

// GetClassByID retrieves a class room by ID
func (r *academicRepository) GetClassByID(ctx context.Context, id int64) (*models.ClassRoom, error) {
	query := `
		SELECT id, name, level
		FROM class_rooms
		WHERE id = $1
	`

	var class models.ClassRoom
	err := r.db.QueryRow(ctx, query, id).Scan(
		&class.ID,
		&class.Name,
		&class.Level,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrClassNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving class: %w", err)
	}

	return &class, nil
}

// GetStreamByID retrieves a class stream by ID
func (r *academicRepository) GetStreamByID(ctx context.Context, id int64) (*models.Stream, error) {
	query := `
		SELECT id, class_id, name
		FROM streams
		WHERE id = $1
	`

	var stream models.Stream
	err := r.db.QueryRow(ctx, query, id).Scan(
		&stream.ID,
		&stream.ClassID,
		&stream.Name,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrStreamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving stream: %w", err)
	}

	return &stream, nil
}

// GetTermByID retrieves a term by ID
func (r *academicRepository) GetTermByID(ctx context.Context, id int64) (*models.Term, error) {
	query := `
		SELECT id, academic_year_id, name
		FROM terms
		WHERE id = $1
	`

	var term models.Term
	err := r.db.QueryRow(ctx, query, id).Scan(
		&term.ID,
		&term.AcademicYearID,
		&term.Name,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrTermNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving term: %w", err)
	}

	return &term, nil
}
