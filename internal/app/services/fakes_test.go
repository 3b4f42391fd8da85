package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/app/repositories"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
	"github.com/kofiboateng/cschool/internal/pkg/indexnum"
)

// In-memory repository fakes mirroring the conditional-update semantics of
// the SQL implementations. All state is guarded by one mutex per fake so
// tests can hammer them from goroutines.

type memVoucherRepo struct {
	mu       sync.Mutex
	vouchers map[int64]*models.Voucher
	nextID   int64
}

func newMemVoucherRepo() *memVoucherRepo {
	return &memVoucherRepo{vouchers: make(map[int64]*models.Voucher)}
}

func (r *memVoucherRepo) add(v *models.Voucher) *models.Voucher {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	v.ID = r.nextID
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	r.vouchers[v.ID] = v
	return v
}

func copyVoucher(v *models.Voucher) *models.Voucher {
	c := *v
	return &c
}

func (r *memVoucherRepo) GetByID(ctx context.Context, id int64) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[id]
	if !ok {
		return nil, apperrors.ErrVoucherNotFound
	}
	return copyVoucher(v), nil
}

func (r *memVoucherRepo) GetByNumber(ctx context.Context, number string) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vouchers {
		if v.Number == number {
			return copyVoucher(v), nil
		}
	}
	return nil, apperrors.ErrVoucherNotFound
}

func (r *memVoucherRepo) GetBySessionToken(ctx context.Context, token string) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vouchers {
		if v.SessionToken != nil && *v.SessionToken == token {
			return copyVoucher(v), nil
		}
	}
	return nil, apperrors.ErrSessionNotFound
}

func (r *memVoucherRepo) TryReserve(ctx context.Context, voucherID int64, token string, now, cutoff time.Time) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[voucherID]
	if !ok {
		return nil, apperrors.ErrTransactionConflict
	}
	claimable := v.ExpiresAt.After(now) &&
		(v.Status == models.VoucherUnused ||
			(v.Status == models.VoucherReserved && v.ReservedAt != nil && v.ReservedAt.Before(cutoff)))
	if !claimable {
		return nil, apperrors.ErrTransactionConflict
	}
	reservedAt := now
	v.Status = models.VoucherReserved
	v.ReservedAt = &reservedAt
	v.SessionToken = &token
	return copyVoucher(v), nil
}

func (r *memVoucherRepo) ReleaseByToken(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vouchers {
		if v.Status == models.VoucherReserved && v.SessionToken != nil && *v.SessionToken == token {
			v.Status = models.VoucherUnused
			v.ReservedAt = nil
			v.SessionToken = nil
			return true, nil
		}
	}
	return false, nil
}

func (r *memVoucherRepo) MarkExpired(ctx context.Context, voucherID int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[voucherID]
	if !ok {
		return nil
	}
	if (v.Status == models.VoucherUnused || v.Status == models.VoucherReserved) && !v.ExpiresAt.After(now) {
		v.Status = models.VoucherExpired
		v.ReservedAt = nil
		v.SessionToken = nil
	}
	return nil
}

func (r *memVoucherRepo) SweepExpiredReservations(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, v := range r.vouchers {
		if v.Status == models.VoucherReserved && v.ReservedAt != nil && v.ReservedAt.Before(cutoff) {
			v.Status = models.VoucherUnused
			v.ReservedAt = nil
			v.SessionToken = nil
			count++
		}
	}
	return count, nil
}

func (r *memVoucherRepo) Revoke(ctx context.Context, voucherID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[voucherID]
	if !ok {
		return apperrors.ErrVoucherNotFound
	}
	switch v.Status {
	case models.VoucherUsed:
		return apperrors.ErrVoucherUsed
	case models.VoucherRevoked:
		return nil
	}
	v.Status = models.VoucherRevoked
	v.ReservedAt = nil
	v.SessionToken = nil
	return nil
}

func (r *memVoucherRepo) CreateBatch(ctx context.Context, vouchers []*models.Voucher) error {
	for _, v := range vouchers {
		r.add(v)
	}
	return nil
}

type memAttemptRepo struct {
	mu       sync.Mutex
	attempts []models.VoucherAttempt
	failErr  error
}

func (r *memAttemptRepo) Record(ctx context.Context, attempt *models.VoucherAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	attempt.ID = int64(len(r.attempts) + 1)
	attempt.CreatedAt = time.Now()
	r.attempts = append(r.attempts, *attempt)
	return nil
}

func (r *memAttemptRepo) outcomes() []models.AttemptOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AttemptOutcome, 0, len(r.attempts))
	for _, a := range r.attempts {
		out = append(out, a.Outcome)
	}
	return out
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *memAuditRepo) Record(ctx context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.entries) + 1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type memAcademicRepo struct {
	years   map[int64]*models.AcademicYear
	classes map[int64]*models.ClassRoom
	streams map[int64]*models.Stream
	terms   map[int64]*models.Term
}

func newMemAcademicRepo() *memAcademicRepo {
	return &memAcademicRepo{
		years:   make(map[int64]*models.AcademicYear),
		classes: make(map[int64]*models.ClassRoom),
		streams: make(map[int64]*models.Stream),
		terms:   make(map[int64]*models.Term),
	}
}

func (r *memAcademicRepo) GetYearByID(ctx context.Context, id int64) (*models.AcademicYear, error) {
	if y, ok := r.years[id]; ok {
		return y, nil
	}
	return nil, apperrors.ErrAcademicYearNotFound
}

func (r *memAcademicRepo) GetClassByID(ctx context.Context, id int64) (*models.ClassRoom, error) {
	if c, ok := r.classes[id]; ok {
		return c, nil
	}
	return nil, apperrors.ErrClassNotFound
}

func (r *memAcademicRepo) GetStreamByID(ctx context.Context, id int64) (*models.Stream, error) {
	if s, ok := r.streams[id]; ok {
		return s, nil
	}
	return nil, apperrors.ErrStreamNotFound
}

func (r *memAcademicRepo) GetTermByID(ctx context.Context, id int64) (*models.Term, error) {
	if t, ok := r.terms[id]; ok {
		return t, nil
	}
	return nil, apperrors.ErrTermNotFound
}

type memAdminRepo struct {
	mu     sync.Mutex
	admins map[int64]*models.Admin
	nextID int64
}

func newMemAdminRepo() *memAdminRepo {
	return &memAdminRepo{admins: make(map[int64]*models.Admin)}
}

func (r *memAdminRepo) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == username {
			c := *a
			return &c, nil
		}
	}
	return nil, apperrors.ErrAdminNotFound
}

func (r *memAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	admin.ID = r.nextID
	admin.CreatedAt = time.Now()
	r.admins[admin.ID] = admin
	return nil
}

func (r *memAdminRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.admins)), nil
}

func (r *memAdminRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.admins[id]; ok {
		now := time.Now()
		a.LastLoginAt = &now
	}
	return nil
}

// memAdmissionRepo reimplements the workflow transactions over the voucher
// fake so service tests can drive the full submit/approve/reject cycle.
type memAdmissionRepo struct {
	mu         sync.Mutex
	vouchers   *memVoucherRepo
	admissions map[int64]*models.Admission
	students   map[int64]*models.Student
	sequences  map[string]int
	nextAdmID  int64
	nextStuID  int64
}

func newMemAdmissionRepo(vouchers *memVoucherRepo) *memAdmissionRepo {
	return &memAdmissionRepo{
		vouchers:   vouchers,
		admissions: make(map[int64]*models.Admission),
		students:   make(map[int64]*models.Student),
		sequences:  make(map[string]int),
	}
}

func (r *memAdmissionRepo) GetByID(ctx context.Context, id int64) (*models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admissions[id]
	if !ok {
		return nil, apperrors.ErrAdmissionNotFound
	}
	c := *a
	c.Student = r.students[a.StudentID]
	return &c, nil
}

func (r *memAdmissionRepo) CreatePending(ctx context.Context, pkg *repositories.AdmissionPackage) (*models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vouchers.mu.Lock()
	defer r.vouchers.mu.Unlock()

	var voucher *models.Voucher
	for _, v := range r.vouchers.vouchers {
		if v.Status == models.VoucherReserved && v.SessionToken != nil && *v.SessionToken == pkg.SessionToken {
			voucher = v
			break
		}
	}
	if voucher == nil || voucher.ReservedAt == nil || voucher.ReservedAt.Before(pkg.Cutoff) {
		return nil, apperrors.ErrSessionNotFound
	}
	if voucher.AcademicYearID != pkg.AcademicYearID {
		return nil, apperrors.ErrYearMismatch
	}
	for _, a := range r.admissions {
		if a.VoucherID == voucher.ID && a.Status == models.AdmissionPending {
			return nil, apperrors.ErrTransactionConflict
		}
	}

	r.nextStuID++
	s := pkg.Student
	s.ID = r.nextStuID
	s.CreatedAt = time.Now()
	for _, g := range pkg.Guardians {
		g.StudentID = s.ID
	}
	s.Guardians = pkg.Guardians
	if pkg.Medical != nil {
		pkg.Medical.StudentID = s.ID
		s.Medical = pkg.Medical
	}
	pkg.Account.StudentID = s.ID
	pkg.Account.Username = fmt.Sprintf("std_%05d", s.ID)
	s.Account = pkg.Account
	r.students[s.ID] = s

	r.nextAdmID++
	a := &models.Admission{
		ID:             r.nextAdmID,
		StudentID:      s.ID,
		AcademicYearID: pkg.AcademicYearID,
		ClassID:        pkg.ClassID,
		StreamID:       pkg.StreamID,
		TermID:         pkg.TermID,
		VoucherID:      voucher.ID,
		VoucherToken:   pkg.SessionToken,
		Status:         models.AdmissionPending,
		CreatedAt:      time.Now(),
	}
	r.admissions[a.ID] = a

	c := *a
	c.Student = s
	return &c, nil
}

func (r *memAdmissionRepo) Approve(ctx context.Context, params repositories.ApproveParams) (*models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vouchers.mu.Lock()
	defer r.vouchers.mu.Unlock()

	a, ok := r.admissions[params.AdmissionID]
	if !ok {
		return nil, apperrors.ErrAdmissionNotFound
	}
	if a.Status == models.AdmissionApproved {
		return nil, apperrors.ErrAlreadyProcessed
	}

	v := r.vouchers.vouchers[a.VoucherID]
	consumable := v != nil &&
		((v.Status == models.VoucherReserved && v.SessionToken != nil && *v.SessionToken == a.VoucherToken) ||
			v.Status == models.VoucherUnused)
	if !consumable {
		return nil, apperrors.ErrTransactionConflict
	}

	now := time.Now()
	v.Status = models.VoucherUsed
	v.UsedAt = &now
	v.UsedByStudentID = &a.StudentID
	v.ReservedAt = nil
	v.SessionToken = nil

	seqKey := fmt.Sprintf("%d/%s", a.AcademicYearID, params.LevelCode)
	r.sequences[seqKey]++
	index := indexnum.Format(params.IndexPrefix, r.sequences[seqKey])

	s := r.students[a.StudentID]
	s.IndexNumber = &index
	if s.Account != nil {
		s.Account.IsActive = true
	}

	a.Status = models.AdmissionApproved
	a.DecidedByAdminID = &params.ActorID
	a.DecidedAt = &now

	c := *a
	c.Student = s
	return &c, nil
}

func (r *memAdmissionRepo) Reject(ctx context.Context, admissionID, actorID int64) (*models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vouchers.mu.Lock()
	defer r.vouchers.mu.Unlock()

	a, ok := r.admissions[admissionID]
	if !ok {
		return nil, apperrors.ErrAdmissionNotFound
	}
	if a.Status != models.AdmissionPending {
		return nil, apperrors.ErrAlreadyProcessed
	}

	if v := r.vouchers.vouchers[a.VoucherID]; v != nil && v.Status == models.VoucherReserved {
		v.Status = models.VoucherUnused
		v.ReservedAt = nil
		v.SessionToken = nil
	}

	now := time.Now()
	a.Status = models.AdmissionRejected
	a.DecidedByAdminID = &actorID
	a.DecidedAt = &now

	c := *a
	c.Student = r.students[a.StudentID]
	return &c, nil
}

func (r *memAdmissionRepo) LatestApprovedByStudent(ctx context.Context, studentID int64) (*models.Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Admission
	for _, a := range r.admissions {
		if a.StudentID != studentID || a.Status != models.AdmissionApproved {
			continue
		}
		if latest == nil || (a.DecidedAt != nil && latest.DecidedAt != nil && a.DecidedAt.After(*latest.DecidedAt)) {
			latest = a
		}
	}
	if latest == nil {
		return nil, apperrors.ErrAdmissionNotFound
	}
	c := *latest
	c.Student = r.students[latest.StudentID]
	return &c, nil
}
