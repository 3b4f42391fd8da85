package models

import "time"

// Audited entity kinds.
const (
	AuditEntityVoucher   = "Voucher"
	AuditEntityAdmission = "Admission"
)

// Audit actions recorded by the core.
const (
	AuditActionCreateBatch   = "CREATE_BATCH"
	AuditActionRevoke        = "REVOKE"
	AuditActionSweep         = "SWEEP_RESERVATIONS"
	AuditActionCreatePending = "CREATE_PENDING"
	AuditActionApprove       = "APPROVE"
	AuditActionReject        = "REJECT"
)

// AuditLog is the append-only trail written for every state-changing ledger
// and workflow operation. The core only ever inserts rows.
type AuditLog struct {
	ID        int64     `json:"id" db:"id"`
	Entity    string    `json:"entity" db:"entity"`
	EntityID  int64     `json:"entityId" db:"entity_id"`
	Action    string    `json:"action" db:"action"`
	AdminID   *int64    `json:"adminId,omitempty" db:"admin_id"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
