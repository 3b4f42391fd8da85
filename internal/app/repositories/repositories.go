// Package repositories contains the persistence layer. Each repository is
// exposed as an interface so services can be tested against in-memory fakes;
// the pgx-backed implementations live alongside.
package repositories

import (
	"context"
	"time"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/db"
)

// VoucherRepository handles database operations for enrollment vouchers.
//
// Reservation and consumption are single conditional UPDATE statements so two
// concurrent callers can never both win; the loser sees zero affected rows and
// gets apperrors.ErrTransactionConflict.
type VoucherRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Voucher, error)
	GetByNumber(ctx context.Context, number string) (*models.Voucher, error)
	GetBySessionToken(ctx context.Context, token string) (*models.Voucher, error)

	// TryReserve atomically moves a voucher to RESERVED with the given
	// session token. It succeeds only when the voucher is UNUSED, or
	// RESERVED with reserved_at older than cutoff (stale hold takeover),
	// and not past its absolute expiry at now.
	TryReserve(ctx context.Context, voucherID int64, token string, now, cutoff time.Time) (*models.Voucher, error)

	// ReleaseByToken returns a RESERVED voucher to UNUSED. Reports whether
	// a reservation was actually released; releasing an unknown or already
	// released token is not an error.
	ReleaseByToken(ctx context.Context, token string) (bool, error)

	// MarkExpired lazily transitions a voucher past its absolute deadline
	// to EXPIRED. A no-op when the voucher moved to a terminal state first.
	MarkExpired(ctx context.Context, voucherID int64, now time.Time) error

	// SweepExpiredReservations returns every reservation older than cutoff
	// to UNUSED and reports how many were reclaimed.
	SweepExpiredReservations(ctx context.Context, cutoff time.Time) (int64, error)

	// Revoke moves a non-terminal voucher to REVOKED. Revoking an already
	// revoked voucher is a no-op; a USED voucher cannot be revoked.
	Revoke(ctx context.Context, voucherID int64) error

	CreateBatch(ctx context.Context, vouchers []*models.Voucher) error
}

// AttemptRepository appends voucher verification attempts.
type AttemptRepository interface {
	Record(ctx context.Context, attempt *models.VoucherAttempt) error
}

// AuditRepository appends administrative audit entries.
type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// AcademicRepository reads the academic calendar fixtures.
type AcademicRepository interface {
	GetYearByID(ctx context.Context, id int64) (*models.AcademicYear, error)
	GetClassByID(ctx context.Context, id int64) (*models.ClassRoom, error)
	GetStreamByID(ctx context.Context, id int64) (*models.Stream, error)
	GetTermByID(ctx context.Context, id int64) (*models.Term, error)
}

// AdminRepository handles staff accounts.
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Count(ctx context.Context) (int64, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

// AdmissionPackage bundles everything a submission persists in one
// transaction: the applicant, their guardians, optional medical details, the
// inactive portal account, and the placement. Account.Username is derived
// from the allocated student id inside the transaction.
type AdmissionPackage struct {
	SessionToken string
	// Cutoff marks the oldest reserved_at still considered a live
	// reservation. Holds older than this are treated as dead sessions.
	Cutoff time.Time

	Student   *models.Student
	Guardians []*models.Guardian
	Medical   *models.StudentMedical
	Account   *models.StudentAccount

	AcademicYearID int64
	ClassID        int64
	StreamID       *int64
	TermID         *int64
}

// ApproveParams carries the approval decision. IndexPrefix and LevelCode are
// precomputed by the service from the placement ("SCH/JHS/26", "JHS").
type ApproveParams struct {
	AdmissionID int64
	ActorID     int64
	LevelCode   string
	IndexPrefix string
}

// AdmissionRepository handles the admission workflow. Submit, Approve and
// Reject each run as a single transaction; on error nothing is persisted.
type AdmissionRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Admission, error)
	CreatePending(ctx context.Context, pkg *AdmissionPackage) (*models.Admission, error)
	Approve(ctx context.Context, params ApproveParams) (*models.Admission, error)
	Reject(ctx context.Context, admissionID, actorID int64) (*models.Admission, error)

	// LatestApprovedByStudent backs the read-side placement projection.
	LatestApprovedByStudent(ctx context.Context, studentID int64) (*models.Admission, error)
}

// Container holds all repositories for dependency injection.
type Container struct {
	Voucher   VoucherRepository
	Attempt   AttemptRepository
	Admission AdmissionRepository
	Academic  AcademicRepository
	Admin     AdminRepository
	Audit     AuditRepository
}

// NewContainer creates the pgx-backed repository set.
func NewContainer(database *db.PostgresDB) *Container {
	return &Container{
		Voucher:   NewVoucherRepository(database.Pool),
		Attempt:   NewAttemptRepository(database.Pool),
		Admission: NewAdmissionRepository(database),
		Academic:  NewAcademicRepository(database.Pool),
		Admin:     NewAdminRepository(database.Pool),
		Audit:     NewAuditRepository(database.Pool),
	}
}
