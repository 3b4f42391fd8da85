package models

import "time"

// VoucherStatus is the lifecycle state of an admission voucher.
type VoucherStatus string

const (
	VoucherUnused   VoucherStatus = "UNUSED"   // Mint state, open for verification
	VoucherReserved VoucherStatus = "RESERVED" // Held by one applicant session
	VoucherUsed     VoucherStatus = "USED"     // Consumed by an approved admission (terminal)
	VoucherExpired  VoucherStatus = "EXPIRED"  // Absolute deadline passed (terminal)
	VoucherRevoked  VoucherStatus = "REVOKED"  // Administratively killed (terminal)
)

// Terminal reports whether the status permits no further transitions.
func (s VoucherStatus) Terminal() bool {
	return s == VoucherUsed || s == VoucherExpired || s == VoucherRevoked
}

// Voucher defines the voucher model based on the 'vouchers' table.
// Invariants: SessionToken is non-nil iff status is RESERVED; UsedAt and
// UsedByStudentID are non-nil iff status is USED.
type Voucher struct {
	ID               int64         `json:"id" db:"id" example:"1"`                              // Unique identifier for the voucher record
	Number           string        `json:"number" db:"number" example:"A1B2C3D4E5"`             // Printed voucher number, unique
	PINHash          string        `json:"-" db:"pin_hash"`                                     // bcrypt hash of the PIN (never the PIN itself)
	AcademicYearID   int64         `json:"academicYearId" db:"academic_year_id" example:"3"`    // Academic year the voucher is bound to
	Status           VoucherStatus `json:"status" db:"status" example:"UNUSED"`                 // Lifecycle status
	ExpiresAt        time.Time     `json:"expiresAt" db:"expires_at"`                           // Absolute expiry deadline
	ReservedAt       *time.Time    `json:"reservedAt,omitempty" db:"reserved_at"`               // When the current reservation was placed
	SessionToken     *string       `json:"-" db:"session_token"`                                // Opaque reservation token, set only while RESERVED
	UsedAt           *time.Time    `json:"usedAt,omitempty" db:"used_at"`                       // When the voucher was consumed
	UsedByStudentID  *int64        `json:"usedByStudentId,omitempty" db:"used_by_student_id"`   // Student the voucher was consumed for
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`                           // Timestamp when the voucher was minted
	CreatedByAdminID *int64        `json:"createdByAdminId,omitempty" db:"created_by_admin_id"` // Admin who minted the batch
}
