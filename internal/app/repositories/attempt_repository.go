package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kofiboateng/cschool/internal/app/models"
)

// attemptRepository is the pgx-backed AttemptRepository.
type attemptRepository struct {
	db *pgxpool.Pool
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db *pgxpool.Pool) AttemptRepository {
	return &attemptRepository{db: db}
}

// Record appends one verification attempt. The attempt trail is append-only;
// rows are never updated or deleted.
func (r *attemptRepository) Record(ctx context.Context, attempt *models.VoucherAttempt) error {
	query := squirrel.Insert("voucher_attempts").
		Columns("number_entered", "ip_address", "user_agent", "outcome").
		Values(attempt.NumberEntered, attempt.IPAddress, attempt.UserAgent, attempt.Outcome).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&attempt.ID, &attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording attempt: %w", err)
	}
	return nil
}
