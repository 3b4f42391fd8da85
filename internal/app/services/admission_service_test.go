package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/app/models/dto"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
	"github.com/kofiboateng/cschool/internal/pkg/reservation"
)

type admissionFixture struct {
	vouchers   *memVoucherRepo
	admissions *memAdmissionRepo
	academic   *memAcademicRepo
	audits     *memAuditRepo
	attempts   *memAttemptRepo
	clock      reservation.Clock

	voucherSvc   VoucherService
	admissionSvc AdmissionService
}

func newAdmissionFixture(t *testing.T) *admissionFixture {
	t.Helper()
	f := &admissionFixture{
		vouchers: newMemVoucherRepo(),
		academic: newMemAcademicRepo(),
		audits:   &memAuditRepo{},
		attempts: &memAttemptRepo{},
		clock:    reservation.NewClock(15 * time.Minute),
	}
	f.admissions = newMemAdmissionRepo(f.vouchers)

	f.academic.years[3] = &models.AcademicYear{ID: 3, Name: "2026/2027", Status: models.YearActive}
	f.academic.years[4] = &models.AcademicYear{ID: 4, Name: "2027/2028", Status: models.YearDraft}
	f.academic.classes[7] = &models.ClassRoom{ID: 7, Name: "JHS 1", Level: "JHS"}
	f.academic.classes[8] = &models.ClassRoom{ID: 8, Name: "Primary 1", Level: "Primary"}
	f.academic.streams[2] = &models.Stream{ID: 2, ClassID: 7, Name: "A"}
	f.academic.terms[1] = &models.Term{ID: 1, AcademicYearID: 3, Name: "Term 1"}

	f.voucherSvc = NewVoucherService(
		f.vouchers, f.attempts, f.audits, f.academic,
		f.clock, 10, 6, zerolog.Nop(),
	)
	f.admissionSvc = NewAdmissionService(
		f.admissions, f.academic, f.audits,
		f.clock, "SCH", zerolog.Nop(),
	)
	return f
}

// reserve mints an UNUSED voucher for year 3 and verifies it, returning the
// reservation token.
func (f *admissionFixture) reserve(t *testing.T, number string) string {
	t.Helper()
	f.vouchers.add(&models.Voucher{
		Number:         number,
		PINHash:        hashedTestPIN(t),
		AcademicYearID: 3,
		Status:         models.VoucherUnused,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	})
	resp, err := f.voucherSvc.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: number, PIN: testPIN,
	}, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.True(t, resp.Granted)
	return resp.ReservationToken
}

func submitRequest(token string) *dto.SubmitAdmissionRequest {
	return &dto.SubmitAdmissionRequest{
		ReservationToken: token,
		Student: dto.StudentData{
			FirstName:   "Ama",
			LastName:    "Mensah",
			Gender:      "FEMALE",
			DateOfBirth: "2013-05-14",
			Nationality: "Ghanaian",
		},
		Guardians: []dto.GuardianData{{
			Name:         "Akosua Mensah",
			Relationship: "Mother",
			Phone:        "+233201234567",
			Address:      "Accra",
		}},
		Placement: dto.PlacementData{
			AcademicYearID: 3,
			ClassID:        7,
		},
	}
}

func TestSubmitCreatesPendingPackage(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	resp, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	assert.Equal(t, models.AdmissionPending, resp.Status)
	assert.Equal(t, "std_00001", resp.Username)
	assert.NotEmpty(t, resp.TempPassword)
	assert.Nil(t, resp.IndexNumber, "index numbers are minted on approval only")

	// The voucher stays reserved until a decision is made.
	stored, err := f.vouchers.GetBySessionToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherReserved, stored.Status)

	student := f.admissions.students[resp.StudentID]
	require.NotNil(t, student)
	require.NotNil(t, student.Account)
	assert.False(t, student.Account.IsActive)
	assert.True(t, student.Account.MustChangePassword)
	assert.NotEqual(t, resp.TempPassword, student.Account.HashedPassword)
}

func TestSubmitDeadToken(t *testing.T) {
	f := newAdmissionFixture(t)

	_, err := f.admissionSvc.Submit(context.Background(), submitRequest("no-such-token"))
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSubmitStaleReservation(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	// Age the hold past its TTL.
	for _, v := range f.vouchers.vouchers {
		if v.SessionToken != nil && *v.SessionToken == token {
			stale := time.Now().Add(-20 * time.Minute)
			v.ReservedAt = &stale
		}
	}

	_, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSubmitYearMismatch(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")
	f.academic.terms[2] = &models.Term{ID: 2, AcademicYearID: 4, Name: "Term 1"}

	req := submitRequest(token)
	req.Placement.AcademicYearID = 4 // voucher is bound to year 3
	termID := int64(2)
	req.Placement.TermID = &termID

	_, err := f.admissionSvc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrYearMismatch)
}

func TestSubmitValidation(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	t.Run("no guardians", func(t *testing.T) {
		req := submitRequest(token)
		req.Guardians = nil
		_, err := f.admissionSvc.Submit(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("bad date of birth", func(t *testing.T) {
		req := submitRequest(token)
		req.Student.DateOfBirth = "14-05-2013"
		_, err := f.admissionSvc.Submit(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("unknown class", func(t *testing.T) {
		req := submitRequest(token)
		req.Placement.ClassID = 99
		_, err := f.admissionSvc.Submit(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrClassNotFound)
	})

	t.Run("bad guardian phone", func(t *testing.T) {
		req := submitRequest(token)
		req.Guardians[0].Phone = "not-a-phone"
		_, err := f.admissionSvc.Submit(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("bad guardian email", func(t *testing.T) {
		req := submitRequest(token)
		email := "nope@"
		req.Guardians[0].Email = &email
		_, err := f.admissionSvc.Submit(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("stream from another class", func(t *testing.T) {
		req := submitRequest(token)
		req.Placement.ClassID = 8
		streamID := int64(2) // belongs to class 7
		req.Placement.StreamID = &streamID
		_, err := f.admissionSvc.Submit(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})
}

func TestSubmitOnePendingPerVoucher(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	_, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	_, err = f.admissionSvc.Submit(context.Background(), submitRequest(token))
	assert.ErrorIs(t, err, apperrors.ErrTransactionConflict)
}

func TestApproveMintsIndexAndConsumesVoucher(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	submitted, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	approved, err := f.admissionSvc.Approve(context.Background(), submitted.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, models.AdmissionApproved, approved.Status)
	require.NotNil(t, approved.IndexNumber)
	assert.Equal(t, "SCH/JHS/26/0001", *approved.IndexNumber)
	require.NotNil(t, approved.DecidedByAdminID)
	assert.Equal(t, int64(7), *approved.DecidedByAdminID)

	voucher, err := f.vouchers.GetByNumber(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, models.VoucherUsed, voucher.Status)
	require.NotNil(t, voucher.UsedByStudentID)
	assert.Equal(t, submitted.StudentID, *voucher.UsedByStudentID)
	assert.Nil(t, voucher.SessionToken)

	student := f.admissions.students[submitted.StudentID]
	assert.True(t, student.Account.IsActive)

	assert.Contains(t, f.audits.actions(), models.AuditActionApprove)
}

func TestApproveTwiceAlreadyProcessed(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	submitted, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	_, err = f.admissionSvc.Approve(context.Background(), submitted.ID, 7)
	require.NoError(t, err)

	_, err = f.admissionSvc.Approve(context.Background(), submitted.ID, 7)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)
}

func TestRejectRecyclesVoucher(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	submitted, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	rejected, err := f.admissionSvc.Reject(context.Background(), submitted.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionRejected, rejected.Status)

	voucher, err := f.vouchers.GetByNumber(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, models.VoucherUnused, voucher.Status)
	assert.Nil(t, voucher.SessionToken)

	assert.Contains(t, f.audits.actions(), models.AuditActionReject)
}

func TestRejectNonPendingAlreadyProcessed(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	submitted, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	_, err = f.admissionSvc.Reject(context.Background(), submitted.ID, 7)
	require.NoError(t, err)

	_, err = f.admissionSvc.Reject(context.Background(), submitted.ID, 7)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)
}

func TestApproveAfterReject(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	submitted, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	_, err = f.admissionSvc.Reject(context.Background(), submitted.ID, 7)
	require.NoError(t, err)

	// The voucher went back to UNUSED on rejection; a later approval still
	// consumes it.
	approved, err := f.admissionSvc.Approve(context.Background(), submitted.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionApproved, approved.Status)

	voucher, err := f.vouchers.GetByNumber(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, models.VoucherUsed, voucher.Status)
}

func TestApproveConflictWhenVoucherRegrabbed(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	submitted, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	_, err = f.admissionSvc.Reject(context.Background(), submitted.ID, 7)
	require.NoError(t, err)

	// A new applicant reserves the recycled voucher before the registrar
	// changes their mind.
	regrab, err := f.voucherSvc.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.2", "test-agent")
	require.NoError(t, err)
	require.True(t, regrab.Granted)

	_, err = f.admissionSvc.Approve(context.Background(), submitted.ID, 7)
	assert.ErrorIs(t, err, apperrors.ErrTransactionConflict)

	// The late approval must not have touched the new reservation.
	stored, err := f.vouchers.GetByNumber(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, models.VoucherReserved, stored.Status)
}

func TestSequencePerLevelAndYear(t *testing.T) {
	f := newAdmissionFixture(t)

	first, err := f.admissionSvc.Submit(context.Background(), submitRequest(f.reserve(t, "1111111111")))
	require.NoError(t, err)
	second, err := f.admissionSvc.Submit(context.Background(), submitRequest(f.reserve(t, "2222222222")))
	require.NoError(t, err)

	primary := submitRequest(f.reserve(t, "3333333333"))
	primary.Placement.ClassID = 8
	third, err := f.admissionSvc.Submit(context.Background(), primary)
	require.NoError(t, err)

	a1, err := f.admissionSvc.Approve(context.Background(), first.ID, 7)
	require.NoError(t, err)
	a2, err := f.admissionSvc.Approve(context.Background(), second.ID, 7)
	require.NoError(t, err)
	a3, err := f.admissionSvc.Approve(context.Background(), third.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, "SCH/JHS/26/0001", *a1.IndexNumber)
	assert.Equal(t, "SCH/JHS/26/0002", *a2.IndexNumber)
	// A different level starts its own sequence.
	assert.Equal(t, "SCH/PRI/26/0001", *a3.IndexNumber)
}

func TestConcurrentApprovalsMintUniqueIndexes(t *testing.T) {
	f := newAdmissionFixture(t)

	numbers := []string{"1111111111", "2222222222", "3333333333", "4444444444"}
	ids := make([]int64, 0, len(numbers))
	for _, number := range numbers {
		resp, err := f.admissionSvc.Submit(context.Background(), submitRequest(f.reserve(t, number)))
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	var wg sync.WaitGroup
	indexes := make(chan string, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(admissionID int64) {
			defer wg.Done()
			approved, err := f.admissionSvc.Approve(context.Background(), admissionID, 7)
			if err == nil && approved.IndexNumber != nil {
				indexes <- *approved.IndexNumber
			}
		}(id)
	}
	wg.Wait()
	close(indexes)

	seen := make(map[string]bool)
	for index := range indexes {
		assert.False(t, seen[index], "index number %s minted twice", index)
		seen[index] = true
	}
	require.Len(t, seen, len(ids), "every approval must mint an index number")
}

func TestCurrentPlacement(t *testing.T) {
	f := newAdmissionFixture(t)
	token := f.reserve(t, "1234567890")

	submitted, err := f.admissionSvc.Submit(context.Background(), submitRequest(token))
	require.NoError(t, err)

	_, err = f.admissionSvc.CurrentPlacement(context.Background(), submitted.StudentID)
	assert.ErrorIs(t, err, apperrors.ErrAdmissionNotFound, "pending admissions grant no placement")

	_, err = f.admissionSvc.Approve(context.Background(), submitted.ID, 7)
	require.NoError(t, err)

	placement, err := f.admissionSvc.CurrentPlacement(context.Background(), submitted.StudentID)
	require.NoError(t, err)
	assert.Equal(t, submitted.StudentID, placement.StudentID)
	assert.Equal(t, int64(3), placement.AcademicYearID)
	assert.Equal(t, int64(7), placement.ClassID)
	assert.Equal(t, submitted.ID, placement.AdmissionID)
}
