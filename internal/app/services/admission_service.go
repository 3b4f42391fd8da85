package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/app/models/dto"
	"github.com/kofiboateng/cschool/internal/app/repositories"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
	"github.com/kofiboateng/cschool/internal/pkg/auth"
	"github.com/kofiboateng/cschool/internal/pkg/codes"
	"github.com/kofiboateng/cschool/internal/pkg/indexnum"
	"github.com/kofiboateng/cschool/internal/pkg/reservation"
	"github.com/kofiboateng/cschool/internal/pkg/validation"
)

const tempPasswordLength = 10

// AdmissionService defines the admission workflow operations
type AdmissionService interface {
	// Submit creates a PENDING admission against a live voucher
	// reservation. The response carries the generated username and the
	// one-time temporary password.
	Submit(ctx context.Context, req *dto.SubmitAdmissionRequest) (*dto.AdmissionResponse, error)

	// Approve finalizes an admission: consumes the voucher, mints the
	// student's index number and activates the account. Allowed from
	// PENDING and from REJECTED.
	Approve(ctx context.Context, admissionID, actorID int64) (*dto.AdmissionResponse, error)

	// Reject declines a PENDING admission and recycles its voucher.
	Reject(ctx context.Context, admissionID, actorID int64) (*dto.AdmissionResponse, error)

	GetByID(ctx context.Context, admissionID int64) (*dto.AdmissionResponse, error)

	// CurrentPlacement derives a student's placement from their latest
	// approved admission. Placement is never stored separately.
	CurrentPlacement(ctx context.Context, studentID int64) (*dto.PlacementResponse, error)
}

type admissionServiceImpl struct {
	admissionRepo repositories.AdmissionRepository
	academicRepo  repositories.AcademicRepository
	auditRepo     repositories.AuditRepository
	clock         reservation.Clock
	orgCode       string
	logger        zerolog.Logger
}

// NewAdmissionService creates a new admission service instance
func NewAdmissionService(
	admissionRepo repositories.AdmissionRepository,
	academicRepo repositories.AcademicRepository,
	auditRepo repositories.AuditRepository,
	clock reservation.Clock,
	orgCode string,
	logger zerolog.Logger,
) AdmissionService {
	return &admissionServiceImpl{
		admissionRepo: admissionRepo,
		academicRepo:  academicRepo,
		auditRepo:     auditRepo,
		clock:         clock,
		orgCode:       orgCode,
		logger:        logger,
	}
}

// validatePlacement resolves and cross-checks the requested placement against
// the academic calendar.
func (s *admissionServiceImpl) validatePlacement(ctx context.Context, p *dto.PlacementData) (*models.AcademicYear, *models.ClassRoom, error) {
	year, err := s.academicRepo.GetYearByID(ctx, p.AcademicYearID)
	if err != nil {
		return nil, nil, err
	}

	class, err := s.academicRepo.GetClassByID(ctx, p.ClassID)
	if err != nil {
		return nil, nil, err
	}

	if p.StreamID != nil {
		stream, err := s.academicRepo.GetStreamByID(ctx, *p.StreamID)
		if err != nil {
			return nil, nil, err
		}
		if stream.ClassID != class.ID {
			return nil, nil, fmt.Errorf("%w: stream does not belong to the selected class", apperrors.ErrValidationFailed)
		}
	}

	if p.TermID != nil {
		term, err := s.academicRepo.GetTermByID(ctx, *p.TermID)
		if err != nil {
			return nil, nil, err
		}
		if term.AcademicYearID != year.ID {
			return nil, nil, fmt.Errorf("%w: term does not belong to the selected year", apperrors.ErrValidationFailed)
		}
	}

	return year, class, nil
}

func buildStudent(data *dto.StudentData) (*models.Student, error) {
	dob, err := time.Parse("2006-01-02", data.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date of birth", apperrors.ErrValidationFailed)
	}

	gender := models.Gender(strings.ToUpper(data.Gender))
	if gender != models.GenderMale && gender != models.GenderFemale {
		return nil, fmt.Errorf("%w: invalid gender", apperrors.ErrValidationFailed)
	}

	return &models.Student{
		FirstName:   strings.TrimSpace(data.FirstName),
		MiddleName:  data.MiddleName,
		LastName:    strings.TrimSpace(data.LastName),
		Gender:      gender,
		DateOfBirth: dob,
		Nationality: strings.TrimSpace(data.Nationality),
		Address:     data.Address,
		City:        data.City,
		Photo:       data.Photo,
	}, nil
}

func (s *admissionServiceImpl) Submit(ctx context.Context, req *dto.SubmitAdmissionRequest) (*dto.AdmissionResponse, error) {
	if strings.TrimSpace(req.ReservationToken) == "" {
		return nil, fmt.Errorf("%w: reservation token is required", apperrors.ErrValidationFailed)
	}
	if len(req.Guardians) == 0 {
		return nil, fmt.Errorf("%w: at least one guardian is required", apperrors.ErrValidationFailed)
	}

	student, err := buildStudent(&req.Student)
	if err != nil {
		return nil, err
	}

	if _, _, err := s.validatePlacement(ctx, &req.Placement); err != nil {
		return nil, err
	}

	guardians := make([]*models.Guardian, 0, len(req.Guardians))
	for _, g := range req.Guardians {
		phone := strings.NewReplacer(" ", "", "-", "").Replace(g.Phone)
		if !validation.IsValidPhone(phone) {
			return nil, fmt.Errorf("%w: invalid guardian phone number", apperrors.ErrValidationFailed)
		}
		if g.Email != nil && !validation.IsValidEmail(strings.ToLower(*g.Email)) {
			return nil, fmt.Errorf("%w: invalid guardian email", apperrors.ErrValidationFailed)
		}
		if !validation.IsValidName(strings.TrimSpace(g.Name)) {
			return nil, fmt.Errorf("%w: guardian name is required", apperrors.ErrValidationFailed)
		}
		guardians = append(guardians, &models.Guardian{
			Name:           strings.TrimSpace(g.Name),
			Relationship:   g.Relationship,
			Phone:          phone,
			SecondaryPhone: g.SecondaryPhone,
			Email:          g.Email,
			Address:        g.Address,
			Occupation:     g.Occupation,
		})
	}

	var medical *models.StudentMedical
	if req.Medical != nil {
		medical = &models.StudentMedical{
			HealthConditions: req.Medical.HealthConditions,
			Allergies:        req.Medical.Allergies,
			SpecialNeeds:     req.Medical.SpecialNeeds,
		}
	}

	tempPassword, err := codes.TempPassword(tempPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate temporary password: %w", err)
	}
	hashed, err := auth.HashSecret(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash temporary password: %w", err)
	}

	pkg := &repositories.AdmissionPackage{
		SessionToken: req.ReservationToken,
		Cutoff:       s.clock.Cutoff(time.Now()),
		Student:      student,
		Guardians:    guardians,
		Medical:      medical,
		Account: &models.StudentAccount{
			HashedPassword:     hashed,
			MustChangePassword: true,
			IsActive:           false,
		},
		AcademicYearID: req.Placement.AcademicYearID,
		ClassID:        req.Placement.ClassID,
		StreamID:       req.Placement.StreamID,
		TermID:         req.Placement.TermID,
	}

	admission, err := s.admissionRepo.CreatePending(ctx, pkg)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("admissionId", admission.ID).
		Int64("studentId", admission.StudentID).
		Msg("Admission submitted")

	resp := dto.NewAdmissionResponse(admission)
	if admission.Student != nil && admission.Student.Account != nil {
		resp.Username = admission.Student.Account.Username
	}
	// The plaintext temporary password leaves the system exactly once.
	resp.TempPassword = tempPassword

	return resp, nil
}

func (s *admissionServiceImpl) Approve(ctx context.Context, admissionID, actorID int64) (*dto.AdmissionResponse, error) {
	admission, err := s.admissionRepo.GetByID(ctx, admissionID)
	if err != nil {
		return nil, err
	}

	year, err := s.academicRepo.GetYearByID(ctx, admission.AcademicYearID)
	if err != nil {
		return nil, err
	}
	class, err := s.academicRepo.GetClassByID(ctx, admission.ClassID)
	if err != nil {
		return nil, err
	}

	params := repositories.ApproveParams{
		AdmissionID: admissionID,
		ActorID:     actorID,
		LevelCode:   indexnum.LevelCode(class.Level),
		IndexPrefix: indexnum.Prefix(s.orgCode, class.Level, year.Name),
	}

	approved, err := s.admissionRepo.Approve(ctx, params)
	if err != nil {
		return nil, err
	}

	// Decision audit is best-effort after commit: the decision must not be
	// rolled back because the trail hiccupped.
	notes := "approved"
	if approved.Student != nil && approved.Student.IndexNumber != nil {
		notes = fmt.Sprintf("approved, index %s", *approved.Student.IndexNumber)
	}
	entry := &models.AuditLog{
		Entity:   models.AuditEntityAdmission,
		EntityID: approved.ID,
		Action:   models.AuditActionApprove,
		AdminID:  &actorID,
		Notes:    &notes,
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).Int64("admissionId", approved.ID).Msg("Failed to record approval audit entry")
	}

	s.logger.Info().
		Int64("admissionId", approved.ID).
		Int64("actorId", actorID).
		Msg("Admission approved")

	return dto.NewAdmissionResponse(approved), nil
}

func (s *admissionServiceImpl) Reject(ctx context.Context, admissionID, actorID int64) (*dto.AdmissionResponse, error) {
	rejected, err := s.admissionRepo.Reject(ctx, admissionID, actorID)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditLog{
		Entity:   models.AuditEntityAdmission,
		EntityID: rejected.ID,
		Action:   models.AuditActionReject,
		AdminID:  &actorID,
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).Int64("admissionId", rejected.ID).Msg("Failed to record rejection audit entry")
	}

	s.logger.Info().
		Int64("admissionId", rejected.ID).
		Int64("actorId", actorID).
		Msg("Admission rejected")

	return dto.NewAdmissionResponse(rejected), nil
}

func (s *admissionServiceImpl) GetByID(ctx context.Context, admissionID int64) (*dto.AdmissionResponse, error) {
	admission, err := s.admissionRepo.GetByID(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	return dto.NewAdmissionResponse(admission), nil
}

func (s *admissionServiceImpl) CurrentPlacement(ctx context.Context, studentID int64) (*dto.PlacementResponse, error) {
	admission, err := s.admissionRepo.LatestApprovedByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &dto.PlacementResponse{
		StudentID:      admission.StudentID,
		AcademicYearID: admission.AcademicYearID,
		ClassID:        admission.ClassID,
		StreamID:       admission.StreamID,
		AdmissionID:    admission.ID,
	}, nil
}
