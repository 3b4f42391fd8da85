package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/db"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
	"github.com/kofiboateng/cschool/internal/pkg/dberrors"
	"github.com/kofiboateng/cschool/internal/pkg/helpers"
	"github.com/kofiboateng/cschool/internal/pkg/indexnum"
)

// PendingVoucherConstraint is the partial unique index guaranteeing a voucher
// backs at most one pending admission.
const PendingVoucherConstraint = "admissions_pending_voucher_idx"

const admissionColumns = `id, student_id, academic_year_id, class_id, stream_id, term_id,
		voucher_id, voucher_token, status, decided_by_admin_id, decided_at, created_at`

// rowQuerier is satisfied by both pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// admissionRepository is the pgx-backed AdmissionRepository. The workflow
// operations each run inside one transaction via db.WithTransaction.
type admissionRepository struct {
	db *db.PostgresDB
}

// NewAdmissionRepository creates a new admission repository
func NewAdmissionRepository(database *db.PostgresDB) AdmissionRepository {
	return &admissionRepository{db: database}
}

func scanAdmission(row pgx.Row) (*models.Admission, error) {
	var a models.Admission
	err := row.Scan(
		&a.ID,
		&a.StudentID,
		&a.AcademicYearID,
		&a.ClassID,
		&a.StreamID,
		&a.TermID,
		&a.VoucherID,
		&a.VoucherToken,
		&a.Status,
		&a.DecidedByAdminID,
		&a.DecidedAt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *admissionRepository) getStudent(ctx context.Context, q rowQuerier, id int64) (*models.Student, error) {
	query := `
		SELECT id, index_number, first_name, middle_name, last_name, gender,
			date_of_birth, nationality, address, city, photo, created_at
		FROM students
		WHERE id = $1
	`

	var s models.Student
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.IndexNumber,
		&s.FirstName,
		&s.MiddleName,
		&s.LastName,
		&s.Gender,
		&s.DateOfBirth,
		&s.Nationality,
		&s.Address,
		&s.City,
		&s.Photo,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return &s, nil
}

// GetByID retrieves an admission by ID with its student attached
func (r *admissionRepository) GetByID(ctx context.Context, id int64) (*models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admissions WHERE id = $1`

	admission, err := scanAdmission(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrAdmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving admission: %w", err)
	}

	student, err := r.getStudent(ctx, r.db.Pool, admission.StudentID)
	if err != nil {
		return nil, err
	}
	admission.Student = student

	return admission, nil
}

// CreatePending creates the full admission package in one transaction: the
// student, guardians, optional medical record, inactive account, and the
// PENDING admission row. Nothing is persisted on failure.
func (r *admissionRepository) CreatePending(ctx context.Context, pkg *AdmissionPackage) (*models.Admission, error) {
	var admission *models.Admission

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// Lock the reservation row so a concurrent sweep or release cannot
		// pull it out from under the submission.
		var (
			voucherID     int64
			voucherYearID int64
			reservedAt    time.Time
		)
		err := tx.QueryRow(ctx, `
			SELECT id, academic_year_id, reserved_at
			FROM vouchers
			WHERE session_token = $1 AND status = 'RESERVED'
			FOR UPDATE`, pkg.SessionToken,
		).Scan(&voucherID, &voucherYearID, &reservedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("error locking voucher reservation: %w", err)
		}

		if reservedAt.Before(pkg.Cutoff) {
			// The hold outlived its TTL; the sweep just has not run yet.
			return apperrors.ErrSessionNotFound
		}
		if voucherYearID != pkg.AcademicYearID {
			return apperrors.ErrYearMismatch
		}

		s := pkg.Student
		err = tx.QueryRow(ctx, `
			INSERT INTO students (first_name, middle_name, last_name, gender, date_of_birth,
				nationality, address, city, photo)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at`,
			s.FirstName,
			helpers.GetNullString(s.MiddleName),
			s.LastName,
			s.Gender,
			s.DateOfBirth,
			s.Nationality,
			helpers.GetNullString(s.Address),
			helpers.GetNullString(s.City),
			helpers.GetNullString(s.Photo),
		).Scan(&s.ID, &s.CreatedAt)
		if err != nil {
			return fmt.Errorf("error creating student: %w", err)
		}

		for _, g := range pkg.Guardians {
			g.StudentID = s.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO guardians (student_id, name, relationship, phone, secondary_phone,
					email, address, occupation)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id`,
				g.StudentID,
				g.Name,
				g.Relationship,
				g.Phone,
				helpers.GetNullString(g.SecondaryPhone),
				helpers.GetNullString(g.Email),
				g.Address,
				helpers.GetNullString(g.Occupation),
			).Scan(&g.ID)
			if err != nil {
				return fmt.Errorf("error creating guardian: %w", err)
			}
		}
		s.Guardians = pkg.Guardians

		if pkg.Medical != nil {
			m := pkg.Medical
			m.StudentID = s.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO student_medical (student_id, health_conditions, allergies, special_needs)
				VALUES ($1, $2, $3, $4)
				RETURNING id`,
				m.StudentID,
				helpers.GetNullString(m.HealthConditions),
				helpers.GetNullString(m.Allergies),
				helpers.GetNullString(m.SpecialNeeds),
			).Scan(&m.ID)
			if err != nil {
				return fmt.Errorf("error creating medical record: %w", err)
			}
			s.Medical = m
		}

		acct := pkg.Account
		acct.StudentID = s.ID
		acct.Username = fmt.Sprintf("std_%05d", s.ID)
		err = tx.QueryRow(ctx, `
			INSERT INTO student_accounts (student_id, username, hashed_password, must_change_password, is_active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			acct.StudentID,
			acct.Username,
			acct.HashedPassword,
			acct.MustChangePassword,
			acct.IsActive,
		).Scan(&acct.ID)
		if err != nil {
			return fmt.Errorf("error creating student account: %w", err)
		}
		s.Account = acct

		a := &models.Admission{
			StudentID:      s.ID,
			AcademicYearID: pkg.AcademicYearID,
			ClassID:        pkg.ClassID,
			StreamID:       pkg.StreamID,
			TermID:         pkg.TermID,
			VoucherID:      voucherID,
			VoucherToken:   pkg.SessionToken,
			Status:         models.AdmissionPending,
			Student:        s,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO admissions (student_id, academic_year_id, class_id, stream_id, term_id,
				voucher_id, voucher_token, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at`,
			a.StudentID, a.AcademicYearID, a.ClassID, a.StreamID, a.TermID,
			a.VoucherID, a.VoucherToken, a.Status,
		).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, PendingVoucherConstraint) {
				return apperrors.ErrTransactionConflict
			}
			return fmt.Errorf("error creating admission: %w", err)
		}

		// The submission audit row commits or rolls back with the package.
		_, err = tx.Exec(ctx, `
			INSERT INTO audit_logs (entity, entity_id, action, notes)
			VALUES ($1, $2, $3, $4)`,
			models.AuditEntityAdmission, a.ID, models.AuditActionCreatePending,
			fmt.Sprintf("voucher %d", voucherID),
		)
		if err != nil {
			return fmt.Errorf("error recording audit entry: %w", err)
		}

		admission = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return admission, nil
}

func (r *admissionRepository) lockAdmission(ctx context.Context, tx pgx.Tx, id int64) (*models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admissions WHERE id = $1 FOR UPDATE`

	admission, err := scanAdmission(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrAdmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error locking admission: %w", err)
	}
	return admission, nil
}

// Approve finalizes an admission: consumes the voucher, allocates the next
// index number for the placement, activates the student account and stamps
// the decision. Allowed from PENDING and from REJECTED; a voucher conflict
// aborts the whole transaction.
func (r *admissionRepository) Approve(ctx context.Context, params ApproveParams) (*models.Admission, error) {
	var admission *models.Admission

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		a, err := r.lockAdmission(ctx, tx, params.AdmissionID)
		if err != nil {
			return err
		}
		if a.Status == models.AdmissionApproved {
			return apperrors.ErrAlreadyProcessed
		}

		now := time.Now()

		// Consume the voucher. The RESERVED branch matches the token the
		// admission was submitted under; the UNUSED branch covers a hold
		// the sweep reclaimed, or a voucher recycled by a rejection. A
		// voucher reserved by someone else in the meantime matches
		// neither branch and the approval aborts.
		cmdTag, err := tx.Exec(ctx, `
			UPDATE vouchers
			SET status = 'USED', used_at = $2, used_by_student_id = $3,
				reserved_at = NULL, session_token = NULL
			WHERE id = $1
			  AND ((status = 'RESERVED' AND session_token = $4) OR status = 'UNUSED')`,
			a.VoucherID, now, a.StudentID, a.VoucherToken,
		)
		if err != nil {
			return fmt.Errorf("error consuming voucher: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrTransactionConflict
		}

		// Per-placement counter; the upsert serializes concurrent bumps on
		// the row lock so two approvals can never mint the same number.
		var seq int
		err = tx.QueryRow(ctx, `
			INSERT INTO enrollment_sequences (academic_year_id, level_code, next_seq)
			VALUES ($1, $2, 1)
			ON CONFLICT (academic_year_id, level_code)
			DO UPDATE SET next_seq = enrollment_sequences.next_seq + 1
			RETURNING next_seq`,
			a.AcademicYearID, params.LevelCode,
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("error allocating index sequence: %w", err)
		}
		index := indexnum.Format(params.IndexPrefix, seq)

		if _, err := tx.Exec(ctx, `UPDATE students SET index_number = $1 WHERE id = $2`, index, a.StudentID); err != nil {
			return fmt.Errorf("error assigning index number: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE student_accounts SET is_active = TRUE WHERE student_id = $1`, a.StudentID); err != nil {
			return fmt.Errorf("error activating student account: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE admissions SET status = $1, decided_by_admin_id = $2, decided_at = $3
			WHERE id = $4`,
			models.AdmissionApproved, params.ActorID, now, a.ID,
		); err != nil {
			return fmt.Errorf("error updating admission: %w", err)
		}

		a.Status = models.AdmissionApproved
		a.DecidedByAdminID = &params.ActorID
		a.DecidedAt = &now

		student, err := r.getStudent(ctx, tx, a.StudentID)
		if err != nil {
			return err
		}
		a.Student = student

		admission = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return admission, nil
}

// Reject declines a PENDING admission and recycles its voucher back to
// UNUSED so the applicant can verify again.
func (r *admissionRepository) Reject(ctx context.Context, admissionID, actorID int64) (*models.Admission, error) {
	var admission *models.Admission

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		a, err := r.lockAdmission(ctx, tx, admissionID)
		if err != nil {
			return err
		}
		if a.Status != models.AdmissionPending {
			return apperrors.ErrAlreadyProcessed
		}

		now := time.Now()

		// Release by voucher id, not token: the reservation may already
		// have been reclaimed by the sweep.
		if _, err := tx.Exec(ctx, `
			UPDATE vouchers
			SET status = 'UNUSED', reserved_at = NULL, session_token = NULL
			WHERE id = $1 AND status = 'RESERVED'`,
			a.VoucherID,
		); err != nil {
			return fmt.Errorf("error releasing voucher: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE admissions SET status = $1, decided_by_admin_id = $2, decided_at = $3
			WHERE id = $4`,
			models.AdmissionRejected, actorID, now, a.ID,
		); err != nil {
			return fmt.Errorf("error updating admission: %w", err)
		}

		a.Status = models.AdmissionRejected
		a.DecidedByAdminID = &actorID
		a.DecidedAt = &now

		student, err := r.getStudent(ctx, tx, a.StudentID)
		if err != nil {
			return err
		}
		a.Student = student

		admission = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return admission, nil
}

// LatestApprovedByStudent returns the student's most recently decided
// APPROVED admission, backing the placement projection.
func (r *admissionRepository) LatestApprovedByStudent(ctx context.Context, studentID int64) (*models.Admission, error) {
	query := `SELECT ` + admissionColumns + `
		FROM admissions
		WHERE student_id = $1 AND status = 'APPROVED'
		ORDER BY decided_at DESC
		LIMIT 1`

	admission, err := scanAdmission(r.db.Pool.QueryRow(ctx, query, studentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrAdmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving admission: %w", err)
	}

	return admission, nil
}
