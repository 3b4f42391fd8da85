package dto

import (
	"time"

	"github.com/kofiboateng/cschool/internal/app/models"
)

// Reason kinds surfaced to verification callers. Revoked vouchers are
// deliberately reported as NotFound.
const (
	ReasonNotFound      = "NotFound"
	ReasonInvalidSecret = "InvalidSecret"
	ReasonUsed          = "Used"
	ReasonReserved      = "Reserved"
	ReasonExpired       = "Expired"
)

// ReasonFromOutcome maps an internal attempt outcome to the reason kind the
// caller is allowed to see.
func ReasonFromOutcome(outcome models.AttemptOutcome) string {
	switch outcome {
	case models.AttemptInvalidPIN:
		return ReasonInvalidSecret
	case models.AttemptUsed:
		return ReasonUsed
	case models.AttemptReserved:
		return ReasonReserved
	case models.AttemptExpired:
		return ReasonExpired
	default:
		return ReasonNotFound
	}
}

// VerifyVoucherRequest is the payload for a voucher verification call
type VerifyVoucherRequest struct {
	Number string `json:"number" binding:"required" example:"1234567890"` // Voucher number as printed
	PIN    string `json:"pin" binding:"required" example:"654321"`        // Scratch PIN
}

// VoucherSessionResponse is returned by verify and check-session calls.
// Granted responses carry the reservation token; denied ones only a reason.
type VoucherSessionResponse struct {
	Granted          bool       `json:"granted" example:"true"`
	ReservationToken string     `json:"reservationToken,omitempty" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"` // When the reservation stops being exclusive
	AcademicYearID   int64      `json:"academicYearId,omitempty" example:"3"`
	ReasonKind       string     `json:"reasonKind,omitempty" example:"Reserved"`
}

// ReleaseSessionResponse reports whether a reservation was released
type ReleaseSessionResponse struct {
	Released bool `json:"released" example:"true"`
}

// CreateVouchersRequest is the admin payload for minting a voucher batch
type CreateVouchersRequest struct {
	Count          int       `json:"count" binding:"required,min=1,max=1000" example:"50"`
	AcademicYearID int64     `json:"academicYearId" binding:"required" example:"3"`
	ExpiresAt      time.Time `json:"expiresAt" binding:"required"`
}

// MintedVoucher carries the one-time-visible plaintext PIN of a freshly
// minted voucher. The PIN is never retrievable again.
type MintedVoucher struct {
	Number string `json:"number" example:"1234567890"`
	PIN    string `json:"pin" example:"654321"`
}

// SweepResponse reports how many stale reservations a sweep reclaimed
type SweepResponse struct {
	Count int64 `json:"count" example:"4"`
}
