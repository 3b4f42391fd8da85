package models

import "time"

// AdmissionStatus is the decision state of an admission record.
type AdmissionStatus string

const (
	AdmissionPending  AdmissionStatus = "PENDING"
	AdmissionApproved AdmissionStatus = "APPROVED" // Terminal
	AdmissionRejected AdmissionStatus = "REJECTED" // Terminal for Reject; Approve may still follow
)

// Admission defines the admission model based on the 'admissions' table.
// A voucher backs at most one admission in a non-terminal state; resubmission
// after rejection requires a fresh voucher reservation.
type Admission struct {
	ID               int64           `json:"id" db:"id" example:"1"`
	StudentID        int64           `json:"studentId" db:"student_id"`
	AcademicYearID   int64           `json:"academicYearId" db:"academic_year_id"`
	ClassID          int64           `json:"classId" db:"class_id"`
	StreamID         *int64          `json:"streamId,omitempty" db:"stream_id"`
	TermID           *int64          `json:"termId,omitempty" db:"term_id"`
	VoucherID        int64           `json:"voucherId" db:"voucher_id"`
	VoucherToken     string          `json:"-" db:"voucher_token"` // Reservation token the admission was created against
	Status           AdmissionStatus `json:"status" db:"status" example:"PENDING"`
	DecidedByAdminID *int64          `json:"decidedByAdminId,omitempty" db:"decided_by_admin_id"`
	DecidedAt        *time.Time      `json:"decidedAt,omitempty" db:"decided_at"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Student *Student `json:"student,omitempty"`
	Voucher *Voucher `json:"voucher,omitempty"`
}
