package models

import "time"

// YearStatus is the publication state of an academic year.
type YearStatus string

const (
	YearDraft    YearStatus = "DRAFT"
	YearActive   YearStatus = "ACTIVE"
	YearArchived YearStatus = "ARCHIVED"
)

// AcademicYear defines the academic year model based on the 'academic_years'
// table. The core only reads these facts; calendar management lives outside
// this service.
type AcademicYear struct {
	ID        int64      `json:"id" db:"id" example:"3"`
	Name      string     `json:"name" db:"name" example:"2026/2027"` // Unique label
	Status    YearStatus `json:"status" db:"status" example:"ACTIVE"`
	StartDate *time.Time `json:"startDate,omitempty" db:"start_date"`
	EndDate   *time.Time `json:"endDate,omitempty" db:"end_date"`
}

// ClassRoom defines a class based on the 'class_rooms' table
type ClassRoom struct {
	ID    int64  `json:"id" db:"id" example:"7"`
	Name  string `json:"name" db:"name" example:"JHS 1"`
	Level string `json:"level" db:"level" example:"JHS"` // Level label, source of the index number prefix
}

// Stream defines an optional sub-group of a class based on the 'streams' table
type Stream struct {
	ID      int64  `json:"id" db:"id"`
	ClassID int64  `json:"classId" db:"class_id"`
	Name    string `json:"name" db:"name" example:"A"`
}

// Term defines a term within an academic year based on the 'terms' table
type Term struct {
	ID             int64  `json:"id" db:"id"`
	AcademicYearID int64  `json:"academicYearId" db:"academic_year_id"`
	Name           string `json:"name" db:"name" example:"Term 1"`
}
