package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/app/models/dto"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
	"github.com/kofiboateng/cschool/internal/pkg/auth"
	"github.com/kofiboateng/cschool/internal/pkg/reservation"
)

const (
	testPIN      = "654321"
	testWrongPIN = "000000"
)

var (
	testPINHashOnce sync.Once
	testPINHash     string
)

// bcrypt is deliberately slow; hash the shared test PIN once.
func hashedTestPIN(t *testing.T) string {
	t.Helper()
	testPINHashOnce.Do(func() {
		h, err := auth.HashSecret(testPIN)
		if err != nil {
			t.Fatalf("failed to hash test PIN: %v", err)
		}
		testPINHash = h
	})
	return testPINHash
}

type voucherFixture struct {
	vouchers *memVoucherRepo
	attempts *memAttemptRepo
	audits   *memAuditRepo
	academic *memAcademicRepo
	clock    reservation.Clock
	service  VoucherService
}

func newVoucherFixture(t *testing.T) *voucherFixture {
	t.Helper()
	f := &voucherFixture{
		vouchers: newMemVoucherRepo(),
		attempts: &memAttemptRepo{},
		audits:   &memAuditRepo{},
		academic: newMemAcademicRepo(),
		clock:    reservation.NewClock(15 * time.Minute),
	}
	f.academic.years[3] = &models.AcademicYear{ID: 3, Name: "2026/2027", Status: models.YearActive}
	f.service = NewVoucherService(
		f.vouchers, f.attempts, f.audits, f.academic,
		f.clock, 10, 6, zerolog.Nop(),
	)
	return f
}

func (f *voucherFixture) mint(t *testing.T, number string, status models.VoucherStatus) *models.Voucher {
	t.Helper()
	return f.vouchers.add(&models.Voucher{
		Number:         number,
		PINHash:        hashedTestPIN(t),
		AcademicYearID: 3,
		Status:         status,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	})
}

func (f *voucherFixture) lastOutcome() models.AttemptOutcome {
	outcomes := f.attempts.outcomes()
	if len(outcomes) == 0 {
		return ""
	}
	return outcomes[len(outcomes)-1]
}

func TestVerifyGrantsReservation(t *testing.T) {
	f := newVoucherFixture(t)
	v := f.mint(t, "1234567890", models.VoucherUnused)

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.True(t, resp.Granted)
	assert.NotEmpty(t, resp.ReservationToken)
	assert.Equal(t, int64(3), resp.AcademicYearID)
	require.NotNil(t, resp.ExpiresAt)

	stored, err := f.vouchers.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherReserved, stored.Status)
	require.NotNil(t, stored.SessionToken)
	assert.Equal(t, resp.ReservationToken, *stored.SessionToken)
	assert.Equal(t, models.AttemptValid, f.lastOutcome())
}

func TestVerifyUnknownNumber(t *testing.T) {
	f := newVoucherFixture(t)

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "0000000000", PIN: testPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.False(t, resp.Granted)
	assert.Equal(t, dto.ReasonNotFound, resp.ReasonKind)
	assert.Empty(t, resp.ReservationToken)
	assert.Equal(t, models.AttemptNotFound, f.lastOutcome())
}

func TestVerifyPINCheckedBeforeState(t *testing.T) {
	// A wrong PIN on a used voucher must answer InvalidSecret, not Used:
	// callers without the PIN learn nothing about voucher state.
	f := newVoucherFixture(t)
	f.mint(t, "1234567890", models.VoucherUsed)

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testWrongPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.False(t, resp.Granted)
	assert.Equal(t, dto.ReasonInvalidSecret, resp.ReasonKind)
	assert.Equal(t, models.AttemptInvalidPIN, f.lastOutcome())
}

func TestVerifyUsedVoucher(t *testing.T) {
	f := newVoucherFixture(t)
	f.mint(t, "1234567890", models.VoucherUsed)

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.False(t, resp.Granted)
	assert.Equal(t, dto.ReasonUsed, resp.ReasonKind)
	assert.Equal(t, models.AttemptUsed, f.lastOutcome())
}

func TestVerifyRevokedAnswersNotFound(t *testing.T) {
	f := newVoucherFixture(t)
	f.mint(t, "1234567890", models.VoucherRevoked)

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.False(t, resp.Granted)
	assert.Equal(t, dto.ReasonNotFound, resp.ReasonKind)
	assert.Equal(t, models.AttemptNotFound, f.lastOutcome())
}

func TestVerifyExpiresLazily(t *testing.T) {
	f := newVoucherFixture(t)
	v := f.vouchers.add(&models.Voucher{
		Number:         "1234567890",
		PINHash:        hashedTestPIN(t),
		AcademicYearID: 3,
		Status:         models.VoucherUnused,
		ExpiresAt:      time.Now().Add(-time.Hour),
	})

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.False(t, resp.Granted)
	assert.Equal(t, dto.ReasonExpired, resp.ReasonKind)

	stored, err := f.vouchers.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherExpired, stored.Status)
}

func TestVerifyLiveReservationDenied(t *testing.T) {
	f := newVoucherFixture(t)
	v := f.mint(t, "1234567890", models.VoucherUnused)
	reservedAt := time.Now().Add(-5 * time.Minute)
	token := "held-elsewhere"
	v.Status = models.VoucherReserved
	v.ReservedAt = &reservedAt
	v.SessionToken = &token

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.False(t, resp.Granted)
	assert.Equal(t, dto.ReasonReserved, resp.ReasonKind)
	assert.Equal(t, models.AttemptReserved, f.lastOutcome())
}

func TestVerifyTakesOverStaleReservation(t *testing.T) {
	f := newVoucherFixture(t)
	v := f.mint(t, "1234567890", models.VoucherUnused)
	reservedAt := time.Now().Add(-20 * time.Minute)
	token := "stale-hold"
	v.Status = models.VoucherReserved
	v.ReservedAt = &reservedAt
	v.SessionToken = &token

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.True(t, resp.Granted)
	assert.NotEqual(t, token, resp.ReservationToken)

	stored, err := f.vouchers.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherReserved, stored.Status)
	assert.Equal(t, resp.ReservationToken, *stored.SessionToken)
}

func TestVerifySingleWinner(t *testing.T) {
	f := newVoucherFixture(t)
	f.mint(t, "1234567890", models.VoucherUnused)

	const callers = 16
	var wg sync.WaitGroup
	granted := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
				Number: "1234567890", PIN: testPIN,
			}, "10.0.0.1", "test-agent")
			if err == nil && resp.Granted {
				granted <- resp.ReservationToken
			}
		}()
	}
	wg.Wait()
	close(granted)

	tokens := make([]string, 0, callers)
	for tok := range granted {
		tokens = append(tokens, tok)
	}
	require.Len(t, tokens, 1, "exactly one caller may win the reservation")
	assert.Len(t, f.attempts.outcomes(), callers)
}

func TestVerifyAttemptLogFailureDoesNotBlock(t *testing.T) {
	f := newVoucherFixture(t)
	f.mint(t, "1234567890", models.VoucherUnused)
	f.attempts.failErr = errors.New("attempt store down")

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")

	require.NoError(t, err)
	assert.True(t, resp.Granted)
}

func TestCheckSessionLive(t *testing.T) {
	f := newVoucherFixture(t)
	f.mint(t, "1234567890", models.VoucherUnused)

	verify, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.True(t, verify.Granted)

	resp, err := f.service.CheckSession(context.Background(), verify.ReservationToken)
	require.NoError(t, err)
	assert.True(t, resp.Granted)
	assert.Equal(t, verify.ReservationToken, resp.ReservationToken)
}

func TestCheckSessionUnknownToken(t *testing.T) {
	f := newVoucherFixture(t)

	_, err := f.service.CheckSession(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestCheckSessionReclaimsStaleHold(t *testing.T) {
	f := newVoucherFixture(t)
	v := f.mint(t, "1234567890", models.VoucherUnused)
	reservedAt := time.Now().Add(-20 * time.Minute)
	token := "stale-hold"
	v.Status = models.VoucherReserved
	v.ReservedAt = &reservedAt
	v.SessionToken = &token

	_, err := f.service.CheckSession(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	stored, err := f.vouchers.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherUnused, stored.Status)
	assert.Nil(t, stored.SessionToken)
}

func TestReleaseSessionIdempotent(t *testing.T) {
	f := newVoucherFixture(t)
	f.mint(t, "1234567890", models.VoucherUnused)

	verify, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.True(t, verify.Granted)

	released, err := f.service.ReleaseSession(context.Background(), verify.ReservationToken)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = f.service.ReleaseSession(context.Background(), verify.ReservationToken)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestSweepReclaimsStaleHolds(t *testing.T) {
	f := newVoucherFixture(t)
	stale := time.Now().Add(-20 * time.Minute)
	live := time.Now().Add(-5 * time.Minute)
	for i, reservedAt := range []time.Time{stale, stale, live} {
		tok := string(rune('a' + i))
		at := reservedAt
		f.vouchers.add(&models.Voucher{
			Number:         string(rune('1' + i)),
			PINHash:        hashedTestPIN(t),
			AcademicYearID: 3,
			Status:         models.VoucherReserved,
			ExpiresAt:      time.Now().Add(24 * time.Hour),
			ReservedAt:     &at,
			SessionToken:   &tok,
		})
	}

	actor := int64(7)
	count, err := f.service.Sweep(context.Background(), &actor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Contains(t, f.audits.actions(), models.AuditActionSweep)
}

func TestSweepRacingVerifyLeavesOneWinner(t *testing.T) {
	f := newVoucherFixture(t)
	staleAt := time.Now().Add(-20 * time.Minute)
	staleTok := "stale-session"
	f.vouchers.add(&models.Voucher{
		Number:         "1234567890",
		PINHash:        hashedTestPIN(t),
		AcademicYearID: 3,
		Status:         models.VoucherReserved,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
		ReservedAt:     &staleAt,
		SessionToken:   &staleTok,
	})

	var wg sync.WaitGroup
	var verifyResp *dto.VoucherSessionResponse
	var verifyErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = f.service.Sweep(context.Background(), nil)
	}()
	go func() {
		defer wg.Done()
		verifyResp, verifyErr = f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
			Number: "1234567890", PIN: testPIN,
		}, "10.0.0.1", "test-agent")
	}()
	wg.Wait()

	// Whether the sweep reclaimed the stale hold first or the verifier took
	// it over directly, the verifier must end up owning the voucher.
	require.NoError(t, verifyErr)
	require.True(t, verifyResp.Granted)

	voucher, err := f.vouchers.GetByNumber(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, models.VoucherReserved, voucher.Status)
	require.NotNil(t, voucher.SessionToken)
	assert.Equal(t, verifyResp.ReservationToken, *voucher.SessionToken)
	assert.NotEqual(t, staleTok, *voucher.SessionToken)
}

func TestCreateBatchMintsHashedPINs(t *testing.T) {
	f := newVoucherFixture(t)

	minted, err := f.service.CreateBatch(context.Background(), &dto.CreateVouchersRequest{
		Count:          3,
		AcademicYearID: 3,
		ExpiresAt:      time.Now().Add(30 * 24 * time.Hour),
	}, 7)

	require.NoError(t, err)
	require.Len(t, minted, 3)

	for _, m := range minted {
		assert.Len(t, m.Number, 10)
		assert.Len(t, m.PIN, 6)

		stored, err := f.vouchers.GetByNumber(context.Background(), m.Number)
		require.NoError(t, err)
		assert.Equal(t, models.VoucherUnused, stored.Status)
		assert.NotEqual(t, m.PIN, stored.PINHash)
		assert.True(t, auth.CheckSecret(stored.PINHash, m.PIN))
	}
	assert.Contains(t, f.audits.actions(), models.AuditActionCreateBatch)
}

func TestCreateBatchRejectsPastExpiry(t *testing.T) {
	f := newVoucherFixture(t)

	_, err := f.service.CreateBatch(context.Background(), &dto.CreateVouchersRequest{
		Count:          1,
		AcademicYearID: 3,
		ExpiresAt:      time.Now().Add(-time.Hour),
	}, 7)

	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestCreateBatchUnknownYear(t *testing.T) {
	f := newVoucherFixture(t)

	_, err := f.service.CreateBatch(context.Background(), &dto.CreateVouchersRequest{
		Count:          1,
		AcademicYearID: 99,
		ExpiresAt:      time.Now().Add(time.Hour),
	}, 7)

	assert.ErrorIs(t, err, apperrors.ErrAcademicYearNotFound)
}

func TestRevokeHidesVoucher(t *testing.T) {
	f := newVoucherFixture(t)
	v := f.mint(t, "1234567890", models.VoucherUnused)

	require.NoError(t, f.service.Revoke(context.Background(), v.ID, 7))
	assert.Contains(t, f.audits.actions(), models.AuditActionRevoke)

	resp, err := f.service.Verify(context.Background(), &dto.VerifyVoucherRequest{
		Number: "1234567890", PIN: testPIN,
	}, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.False(t, resp.Granted)
	assert.Equal(t, dto.ReasonNotFound, resp.ReasonKind)
}

func TestRevokeUsedVoucher(t *testing.T) {
	f := newVoucherFixture(t)
	v := f.mint(t, "1234567890", models.VoucherUsed)

	err := f.service.Revoke(context.Background(), v.ID, 7)
	assert.ErrorIs(t, err, apperrors.ErrVoucherUsed)
}
