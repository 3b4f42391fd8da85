package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
)

var voucherColumns = []string{
	"id", "number", "pin_hash", "academic_year_id", "status", "expires_at",
	"reserved_at", "session_token", "used_at", "used_by_student_id",
	"created_at", "created_by_admin_id",
}

// voucherRepository is the pgx-backed VoucherRepository.
type voucherRepository struct {
	db *pgxpool.Pool
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *pgxpool.Pool) VoucherRepository {
	return &voucherRepository{db: db}
}

func scanVoucher(row pgx.Row) (*models.Voucher, error) {
	var v models.Voucher
	err := row.Scan(
		&v.ID,
		&v.Number,
		&v.PINHash,
		&v.AcademicYearID,
		&v.Status,
		&v.ExpiresAt,
		&v.ReservedAt,
		&v.SessionToken,
		&v.UsedAt,
		&v.UsedByStudentID,
		&v.CreatedAt,
		&v.CreatedByAdminID,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voucherRepository) getWhere(ctx context.Context, pred interface{}, args ...interface{}) (*models.Voucher, error) {
	query := squirrel.Select(voucherColumns...).
		From("vouchers").
		Where(pred, args...).
		PlaceholderFormat(squirrel.Dollar)

	sql, sqlArgs, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	return scanVoucher(r.db.QueryRow(ctx, sql, sqlArgs...))
}

// GetByID retrieves a voucher by ID
func (r *voucherRepository) GetByID(ctx context.Context, id int64) (*models.Voucher, error) {
	voucher, err := r.getWhere(ctx, "id = ?", id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrVoucherNotFound
	}
	return voucher, err
}

// GetByNumber retrieves a voucher by its printed number
func (r *voucherRepository) GetByNumber(ctx context.Context, number string) (*models.Voucher, error) {
	voucher, err := r.getWhere(ctx, "number = ?", number)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrVoucherNotFound
	}
	return voucher, err
}

// GetBySessionToken retrieves the voucher currently held by a session token
func (r *voucherRepository) GetBySessionToken(ctx context.Context, token string) (*models.Voucher, error) {
	voucher, err := r.getWhere(ctx, "session_token = ?", token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrSessionNotFound
	}
	return voucher, err
}

// TryReserve atomically claims a voucher for a verification session. The
// WHERE clause admits exactly one winner per voucher: the row must still be
// claimable (UNUSED, or RESERVED under a hold older than cutoff) and not past
// its absolute expiry.
func (r *voucherRepository) TryReserve(ctx context.Context, voucherID int64, token string, now, cutoff time.Time) (*models.Voucher, error) {
	query := `
		UPDATE vouchers
		SET status = 'RESERVED', reserved_at = $2, session_token = $3
		WHERE id = $1
		  AND expires_at > $2
		  AND (status = 'UNUSED' OR (status = 'RESERVED' AND reserved_at < $4))
		RETURNING ` + strings.Join(voucherColumns, ", ")

	voucher, err := scanVoucher(r.db.QueryRow(ctx, query, voucherID, now, token, cutoff))
	if errors.Is(err, pgx.ErrNoRows) {
		// Someone else won the row, or it stopped being claimable.
		return nil, apperrors.ErrTransactionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("error reserving voucher: %w", err)
	}
	return voucher, nil
}

// ReleaseByToken returns a reserved voucher to the pool
func (r *voucherRepository) ReleaseByToken(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE vouchers
		SET status = 'UNUSED', reserved_at = NULL, session_token = NULL
		WHERE session_token = $1 AND status = 'RESERVED'
	`

	cmdTag, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("error releasing voucher: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// MarkExpired transitions a voucher past its absolute deadline to EXPIRED
func (r *voucherRepository) MarkExpired(ctx context.Context, voucherID int64, now time.Time) error {
	query := `
		UPDATE vouchers
		SET status = 'EXPIRED', reserved_at = NULL, session_token = NULL
		WHERE id = $1 AND status IN ('UNUSED', 'RESERVED') AND expires_at <= $2
	`

	if _, err := r.db.Exec(ctx, query, voucherID, now); err != nil {
		return fmt.Errorf("error expiring voucher: %w", err)
	}
	return nil
}

// SweepExpiredReservations reclaims every reservation older than cutoff
func (r *voucherRepository) SweepExpiredReservations(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE vouchers
		SET status = 'UNUSED', reserved_at = NULL, session_token = NULL
		WHERE status = 'RESERVED' AND reserved_at < $1
	`

	cmdTag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error sweeping reservations: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// Revoke moves a non-terminal voucher to REVOKED
func (r *voucherRepository) Revoke(ctx context.Context, voucherID int64) error {
	query := `
		UPDATE vouchers
		SET status = 'REVOKED', reserved_at = NULL, session_token = NULL
		WHERE id = $1 AND status NOT IN ('USED', 'REVOKED')
	`

	cmdTag, err := r.db.Exec(ctx, query, voucherID)
	if err != nil {
		return fmt.Errorf("error revoking voucher: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	voucher, err := r.GetByID(ctx, voucherID)
	if err != nil {
		return err
	}
	if voucher.Status == models.VoucherUsed {
		return apperrors.ErrVoucherUsed
	}
	// Already revoked; revocation is idempotent.
	return nil
}

// CreateBatch inserts a freshly minted batch of vouchers
func (r *voucherRepository) CreateBatch(ctx context.Context, vouchers []*models.Voucher) error {
	if len(vouchers) == 0 {
		return nil
	}

	query := squirrel.Insert("vouchers").
		Columns("number", "pin_hash", "academic_year_id", "status", "expires_at", "created_by_admin_id").
		PlaceholderFormat(squirrel.Dollar).
		Suffix("RETURNING id")

	for _, v := range vouchers {
		query = query.Values(v.Number, v.PINHash, v.AcademicYearID, v.Status, v.ExpiresAt, v.CreatedByAdminID)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error inserting vouchers: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(vouchers) {
			break
		}
		if err := rows.Scan(&vouchers[i].ID); err != nil {
			return fmt.Errorf("error scanning voucher id: %w", err)
		}
		i++
	}

	return rows.Err()
}
