package models

import "time"

// AttemptOutcome classifies the result of a single voucher verification call.
type AttemptOutcome string

const (
	AttemptValid      AttemptOutcome = "VALID"
	AttemptInvalidPIN AttemptOutcome = "INVALID_PIN"
	AttemptNotFound   AttemptOutcome = "NOT_FOUND"
	AttemptExpired    AttemptOutcome = "EXPIRED"
	AttemptUsed       AttemptOutcome = "USED"
	AttemptReserved   AttemptOutcome = "RESERVED"
)

// VoucherAttempt is the immutable abuse-monitoring record written once per
// verification call, success or failure. The entered number is stored as
// typed, not normalized. Retention is an external concern.
type VoucherAttempt struct {
	ID            int64          `json:"id" db:"id"`
	NumberEntered string         `json:"numberEntered" db:"number_entered"` // Voucher number as entered by the caller
	IPAddress     string         `json:"ipAddress" db:"ip_address"`
	UserAgent     string         `json:"userAgent" db:"user_agent"`
	Outcome       AttemptOutcome `json:"outcome" db:"outcome"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
}
