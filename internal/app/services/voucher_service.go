package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/app/models/dto"
	"github.com/kofiboateng/cschool/internal/app/repositories"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
	"github.com/kofiboateng/cschool/internal/pkg/auth"
	"github.com/kofiboateng/cschool/internal/pkg/codes"
	"github.com/kofiboateng/cschool/internal/pkg/reservation"
)

// VoucherService defines the voucher lifecycle operations
type VoucherService interface {
	// Verify checks a voucher number and PIN and, when the voucher is
	// claimable, reserves it for a time-boxed enrollment session. Every
	// call leaves one attempt row regardless of outcome. A denial is not
	// an error: the response carries granted=false plus a reason kind.
	Verify(ctx context.Context, req *dto.VerifyVoucherRequest, ipAddress, userAgent string) (*dto.VoucherSessionResponse, error)

	// CheckSession reports whether a reservation token is still live. A
	// hold past its TTL is reclaimed on the spot and reported as gone.
	CheckSession(ctx context.Context, token string) (*dto.VoucherSessionResponse, error)

	// ReleaseSession voluntarily gives up a reservation. Reports whether
	// anything was actually released; unknown tokens are not an error.
	ReleaseSession(ctx context.Context, token string) (bool, error)

	// Sweep reclaims every reservation past its TTL and returns how many.
	Sweep(ctx context.Context, actorID *int64) (int64, error)

	// CreateBatch mints vouchers for an academic year. Plaintext PINs are
	// returned exactly once; only the bcrypt hash is stored.
	CreateBatch(ctx context.Context, req *dto.CreateVouchersRequest, actorID int64) ([]*dto.MintedVoucher, error)

	// Revoke permanently disables a voucher. Revoked vouchers answer
	// verification as if they never existed.
	Revoke(ctx context.Context, voucherID, actorID int64) error
}

type voucherServiceImpl struct {
	voucherRepo  repositories.VoucherRepository
	attemptRepo  repositories.AttemptRepository
	auditRepo    repositories.AuditRepository
	academicRepo repositories.AcademicRepository
	clock        reservation.Clock
	numberLength int
	pinLength    int
	logger       zerolog.Logger
}

// NewVoucherService creates a new voucher service instance
func NewVoucherService(
	voucherRepo repositories.VoucherRepository,
	attemptRepo repositories.AttemptRepository,
	auditRepo repositories.AuditRepository,
	academicRepo repositories.AcademicRepository,
	clock reservation.Clock,
	numberLength, pinLength int,
	logger zerolog.Logger,
) VoucherService {
	return &voucherServiceImpl{
		voucherRepo:  voucherRepo,
		attemptRepo:  attemptRepo,
		auditRepo:    auditRepo,
		academicRepo: academicRepo,
		clock:        clock,
		numberLength: numberLength,
		pinLength:    pinLength,
		logger:       logger,
	}
}

// logAttempt appends one row to the verification trail. The trail never
// blocks verification: insert failures are logged and swallowed.
func (s *voucherServiceImpl) logAttempt(ctx context.Context, number, ipAddress, userAgent string, outcome models.AttemptOutcome) {
	attempt := &models.VoucherAttempt{
		NumberEntered: number,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		Outcome:       outcome,
	}
	if err := s.attemptRepo.Record(ctx, attempt); err != nil {
		s.logger.Error().Err(err).
			Str("number", number).
			Str("outcome", string(outcome)).
			Msg("Failed to record verification attempt")
	}
}

func denied(outcome models.AttemptOutcome) *dto.VoucherSessionResponse {
	return &dto.VoucherSessionResponse{
		Granted:    false,
		ReasonKind: dto.ReasonFromOutcome(outcome),
	}
}

// classify maps a voucher that lost the reservation race to the outcome its
// current state deserves.
func (s *voucherServiceImpl) classify(v *models.Voucher, now time.Time) models.AttemptOutcome {
	switch v.Status {
	case models.VoucherUsed:
		return models.AttemptUsed
	case models.VoucherRevoked:
		return models.AttemptNotFound
	case models.VoucherExpired:
		return models.AttemptExpired
	}
	if !v.ExpiresAt.After(now) {
		return models.AttemptExpired
	}
	return models.AttemptReserved
}

func (s *voucherServiceImpl) Verify(ctx context.Context, req *dto.VerifyVoucherRequest, ipAddress, userAgent string) (*dto.VoucherSessionResponse, error) {
	now := time.Now()

	voucher, err := s.voucherRepo.GetByNumber(ctx, req.Number)
	if err != nil {
		if errors.Is(err, apperrors.ErrVoucherNotFound) {
			s.logAttempt(ctx, req.Number, ipAddress, userAgent, models.AttemptNotFound)
			return denied(models.AttemptNotFound), nil
		}
		return nil, err
	}

	// PIN before state: a caller without the PIN learns nothing about the
	// voucher beyond its existence.
	if !auth.CheckSecret(voucher.PINHash, req.PIN) {
		s.logAttempt(ctx, req.Number, ipAddress, userAgent, models.AttemptInvalidPIN)
		return denied(models.AttemptInvalidPIN), nil
	}

	if voucher.Status == models.VoucherUsed {
		s.logAttempt(ctx, req.Number, ipAddress, userAgent, models.AttemptUsed)
		return denied(models.AttemptUsed), nil
	}

	// Revoked vouchers answer as if they never existed.
	if voucher.Status == models.VoucherRevoked {
		s.logAttempt(ctx, req.Number, ipAddress, userAgent, models.AttemptNotFound)
		return denied(models.AttemptNotFound), nil
	}

	if voucher.Status == models.VoucherExpired || !voucher.ExpiresAt.After(now) {
		if voucher.Status != models.VoucherExpired {
			// Lazy transition past the absolute deadline.
			if err := s.voucherRepo.MarkExpired(ctx, voucher.ID, now); err != nil {
				s.logger.Error().Err(err).Int64("voucherId", voucher.ID).Msg("Failed to expire voucher")
			}
		}
		s.logAttempt(ctx, req.Number, ipAddress, userAgent, models.AttemptExpired)
		return denied(models.AttemptExpired), nil
	}

	if voucher.Status == models.VoucherReserved &&
		voucher.ReservedAt != nil &&
		!s.clock.IsExpired(*voucher.ReservedAt, now) {
		s.logAttempt(ctx, req.Number, ipAddress, userAgent, models.AttemptReserved)
		return denied(models.AttemptReserved), nil
	}

	// Claimable as far as this read can tell. The conditional update is
	// the actual arbiter; on conflict the voucher is re-read to name the
	// reason the caller lost.
	token := uuid.NewString()
	reserved, err := s.voucherRepo.TryReserve(ctx, voucher.ID, token, now, s.clock.Cutoff(now))
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionConflict) {
			outcome := models.AttemptReserved
			if fresh, readErr := s.voucherRepo.GetByID(ctx, voucher.ID); readErr == nil {
				outcome = s.classify(fresh, now)
			}
			s.logAttempt(ctx, req.Number, ipAddress, userAgent, outcome)
			return denied(outcome), nil
		}
		return nil, err
	}

	s.logAttempt(ctx, req.Number, ipAddress, userAgent, models.AttemptValid)

	deadline := s.clock.Deadline(*reserved.ReservedAt)
	return &dto.VoucherSessionResponse{
		Granted:          true,
		ReservationToken: token,
		ExpiresAt:        &deadline,
		AcademicYearID:   reserved.AcademicYearID,
	}, nil
}

func (s *voucherServiceImpl) CheckSession(ctx context.Context, token string) (*dto.VoucherSessionResponse, error) {
	voucher, err := s.voucherRepo.GetBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if voucher.Status != models.VoucherReserved || voucher.ReservedAt == nil {
		return nil, apperrors.ErrSessionNotFound
	}

	if s.clock.IsExpired(*voucher.ReservedAt, now) {
		// Reclaim on the probe rather than waiting for the sweep.
		if _, err := s.voucherRepo.ReleaseByToken(ctx, token); err != nil {
			s.logger.Error().Err(err).Int64("voucherId", voucher.ID).Msg("Failed to reclaim stale reservation")
		}
		return nil, apperrors.ErrSessionNotFound
	}

	if !voucher.ExpiresAt.After(now) {
		if err := s.voucherRepo.MarkExpired(ctx, voucher.ID, now); err != nil {
			s.logger.Error().Err(err).Int64("voucherId", voucher.ID).Msg("Failed to expire voucher")
		}
		return nil, apperrors.ErrSessionNotFound
	}

	deadline := s.clock.Deadline(*voucher.ReservedAt)
	return &dto.VoucherSessionResponse{
		Granted:          true,
		ReservationToken: token,
		ExpiresAt:        &deadline,
		AcademicYearID:   voucher.AcademicYearID,
	}, nil
}

func (s *voucherServiceImpl) ReleaseSession(ctx context.Context, token string) (bool, error) {
	released, err := s.voucherRepo.ReleaseByToken(ctx, token)
	if err != nil {
		return false, err
	}
	if released {
		s.logger.Info().Msg("Voucher reservation released")
	}
	return released, nil
}

func (s *voucherServiceImpl) Sweep(ctx context.Context, actorID *int64) (int64, error) {
	now := time.Now()

	count, err := s.voucherRepo.SweepExpiredReservations(ctx, s.clock.Cutoff(now))
	if err != nil {
		return 0, err
	}

	if count > 0 {
		notes := fmt.Sprintf("reclaimed %d reservations", count)
		entry := &models.AuditLog{
			Entity:   models.AuditEntityVoucher,
			EntityID: 0,
			Action:   models.AuditActionSweep,
			AdminID:  actorID,
			Notes:    &notes,
		}
		if err := s.auditRepo.Record(ctx, entry); err != nil {
			s.logger.Error().Err(err).Msg("Failed to record sweep audit entry")
		}
		s.logger.Info().Int64("count", count).Msg("Swept expired voucher reservations")
	}

	return count, nil
}

func (s *voucherServiceImpl) CreateBatch(ctx context.Context, req *dto.CreateVouchersRequest, actorID int64) ([]*dto.MintedVoucher, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("%w: count must be positive", apperrors.ErrValidationFailed)
	}
	if !req.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: expiry must be in the future", apperrors.ErrValidationFailed)
	}

	if _, err := s.academicRepo.GetYearByID(ctx, req.AcademicYearID); err != nil {
		return nil, err
	}

	vouchers := make([]*models.Voucher, 0, req.Count)
	minted := make([]*dto.MintedVoucher, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		number, err := codes.RandomDigits(s.numberLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate voucher number: %w", err)
		}
		pin, err := codes.RandomDigits(s.pinLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate voucher PIN: %w", err)
		}
		hash, err := auth.HashSecret(pin)
		if err != nil {
			return nil, fmt.Errorf("failed to hash voucher PIN: %w", err)
		}

		vouchers = append(vouchers, &models.Voucher{
			Number:           number,
			PINHash:          hash,
			AcademicYearID:   req.AcademicYearID,
			Status:           models.VoucherUnused,
			ExpiresAt:        req.ExpiresAt,
			CreatedByAdminID: &actorID,
		})
		minted = append(minted, &dto.MintedVoucher{Number: number, PIN: pin})
	}

	if err := s.voucherRepo.CreateBatch(ctx, vouchers); err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("minted %d vouchers for year %d", len(vouchers), req.AcademicYearID)
	entry := &models.AuditLog{
		Entity:  models.AuditEntityVoucher,
		Action:  models.AuditActionCreateBatch,
		AdminID: &actorID,
		Notes:   &notes,
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).Msg("Failed to record mint audit entry")
	}

	s.logger.Info().Int("count", len(vouchers)).Int64("academicYearId", req.AcademicYearID).Msg("Minted voucher batch")

	return minted, nil
}

func (s *voucherServiceImpl) Revoke(ctx context.Context, voucherID, actorID int64) error {
	if err := s.voucherRepo.Revoke(ctx, voucherID); err != nil {
		return err
	}

	entry := &models.AuditLog{
		Entity:   models.AuditEntityVoucher,
		EntityID: voucherID,
		Action:   models.AuditActionRevoke,
		AdminID:  &actorID,
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).Int64("voucherId", voucherID).Msg("Failed to record revoke audit entry")
	}

	s.logger.Info().Int64("voucherId", voucherID).Msg("Voucher revoked")
	return nil
}
