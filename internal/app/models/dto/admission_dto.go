package dto

import (
	"time"

	"github.com/kofiboateng/cschool/internal/app/models"
)

// StudentData carries the applicant details of an admission submission
type StudentData struct {
	FirstName   string  `json:"firstName" binding:"required" example:"Ama"`
	MiddleName  *string `json:"middleName,omitempty"`
	LastName    string  `json:"lastName" binding:"required" example:"Mensah"`
	Gender      string  `json:"gender" binding:"required,oneof=MALE FEMALE" example:"FEMALE"`
	DateOfBirth string  `json:"dateOfBirth" binding:"required" example:"2013-05-14"` // YYYY-MM-DD
	Nationality string  `json:"nationality" binding:"required" example:"Ghanaian"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Photo       *string `json:"photo,omitempty"`
}

// GuardianData carries one guardian record of an admission submission
type GuardianData struct {
	Name           string  `json:"name" binding:"required"`
	Relationship   string  `json:"relationship" binding:"required" example:"Mother"`
	Phone          string  `json:"phone" binding:"required"`
	SecondaryPhone *string `json:"secondaryPhone,omitempty"`
	Email          *string `json:"email,omitempty"`
	Address        string  `json:"address" binding:"required"`
	Occupation     *string `json:"occupation,omitempty"`
}

// MedicalData carries optional medical details of an admission submission
type MedicalData struct {
	HealthConditions *string `json:"healthConditions,omitempty"`
	Allergies        *string `json:"allergies,omitempty"`
	SpecialNeeds     *string `json:"specialNeeds,omitempty"`
}

// PlacementData names where the applicant is to be placed
type PlacementData struct {
	AcademicYearID int64  `json:"academicYearId" binding:"required" example:"3"`
	ClassID        int64  `json:"classId" binding:"required" example:"7"`
	StreamID       *int64 `json:"streamId,omitempty"`
	TermID         *int64 `json:"termId,omitempty"`
}

// SubmitAdmissionRequest is the payload creating a pending admission against
// a live voucher reservation
type SubmitAdmissionRequest struct {
	ReservationToken string         `json:"reservationToken" binding:"required"`
	Student          StudentData    `json:"student" binding:"required"`
	Guardians        []GuardianData `json:"guardians" binding:"dive"`
	Medical          *MedicalData   `json:"medical,omitempty"`
	Placement        PlacementData  `json:"placement" binding:"required"`
}

// AdmissionResponse is the admission snapshot returned by workflow calls.
// TempPassword and Username are only populated on submission; the password is
// never retrievable again.
type AdmissionResponse struct {
	ID               int64                  `json:"id" example:"1"`
	Status           models.AdmissionStatus `json:"status" example:"PENDING"`
	StudentID        int64                  `json:"studentId"`
	AcademicYearID   int64                  `json:"academicYearId"`
	ClassID          int64                  `json:"classId"`
	StreamID         *int64                 `json:"streamId,omitempty"`
	TermID           *int64                 `json:"termId,omitempty"`
	VoucherID        int64                  `json:"voucherId"`
	IndexNumber      *string                `json:"indexNumber,omitempty" example:"SCH/JHS/26/0001"`
	Username         string                 `json:"username,omitempty"`
	TempPassword     string                 `json:"tempPassword,omitempty"`
	DecidedByAdminID *int64                 `json:"decidedByAdminId,omitempty"`
	DecidedAt        *time.Time             `json:"decidedAt,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// NewAdmissionResponse builds an admission snapshot from the model.
func NewAdmissionResponse(a *models.Admission) *AdmissionResponse {
	resp := &AdmissionResponse{
		ID:               a.ID,
		Status:           a.Status,
		StudentID:        a.StudentID,
		AcademicYearID:   a.AcademicYearID,
		ClassID:          a.ClassID,
		StreamID:         a.StreamID,
		TermID:           a.TermID,
		VoucherID:        a.VoucherID,
		DecidedByAdminID: a.DecidedByAdminID,
		DecidedAt:        a.DecidedAt,
		CreatedAt:        a.CreatedAt,
	}
	if a.Student != nil {
		resp.IndexNumber = a.Student.IndexNumber
	}
	return resp
}

// PlacementResponse is the read-side projection of a student's current
// placement, derived from the latest approved admission.
type PlacementResponse struct {
	StudentID      int64  `json:"studentId"`
	AcademicYearID int64  `json:"academicYearId"`
	ClassID        int64  `json:"classId"`
	StreamID       *int64 `json:"streamId,omitempty"`
	AdmissionID    int64  `json:"admissionId"`
}
